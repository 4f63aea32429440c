package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/restfetch/restfetch/logger"
	"github.com/restfetch/restfetch/types"
)

func testLogger() types.Logger {
	return logger.NewZapWrapper(zap.NewNop())
}

// fakeCache is a single-tier in-memory CacheStore with call counters.
type fakeCache struct {
	entries map[string][]types.Record
	loadErr error
	saveErr error
	clears  []string
	saves   int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string][]types.Record)}
}

func (f *fakeCache) Save(key string, records []types.Record) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.entries[key] = records
	f.saves++
	return nil
}

func (f *fakeCache) Load(key string, _ bool) ([]types.Record, bool, error) {
	if f.loadErr != nil {
		return nil, false, f.loadErr
	}
	records, ok := f.entries[key]
	return records, ok, nil
}

func (f *fakeCache) Clear(key string) error {
	f.clears = append(f.clears, key)
	delete(f.entries, key)
	return nil
}

func (f *fakeCache) ClearAll() error {
	f.entries = make(map[string][]types.Record)
	return nil
}

func (f *fakeCache) Stats() (types.CacheStats, error) { return types.CacheStats{}, nil }
func (f *fakeCache) Close() error                     { return nil }

func countingFetch(records []types.Record, err error) (types.FetchFunc, *int) {
	calls := new(int)
	return func(context.Context) ([]types.Record, error) {
		*calls++
		return records, err
	}, calls
}

func TestFetchWithCacheHit(t *testing.T) {
	cache := newFakeCache()
	cache.entries["posts"] = []types.Record{{"id": float64(1)}}

	fn, calls := countingFetch(nil, nil)
	o := NewOrchestrator(testLogger(), cache)

	records, elapsed, fromCache, err := o.FetchWithCache(context.Background(), "posts", fn, false)
	if err != nil {
		t.Fatalf("FetchWithCache: %v", err)
	}
	if !fromCache {
		t.Error("hit not reported as fromCache")
	}
	if *calls != 0 {
		t.Errorf("fetch function invoked %d times on a hit, want 0", *calls)
	}
	if len(records) != 1 {
		t.Fatalf("unexpected payload: %v", records)
	}
	if elapsed < 0 {
		t.Errorf("elapsed = %s, want non-negative", elapsed)
	}
}

func TestFetchWithCacheMissFetchesAndSaves(t *testing.T) {
	cache := newFakeCache()
	payload := []types.Record{{"id": float64(2)}}
	fn, calls := countingFetch(payload, nil)
	o := NewOrchestrator(testLogger(), cache)

	records, _, fromCache, err := o.FetchWithCache(context.Background(), "posts", fn, false)
	if err != nil {
		t.Fatalf("FetchWithCache: %v", err)
	}
	if fromCache {
		t.Error("miss reported as fromCache")
	}
	if *calls != 1 {
		t.Errorf("fetch function invoked %d times, want 1", *calls)
	}
	if cache.saves != 1 {
		t.Errorf("cache saved %d times, want 1", cache.saves)
	}
	if len(records) != 1 || records[0].Int("id", 0) != 2 {
		t.Fatalf("unexpected payload: %v", records)
	}
}

func TestFetchWithCacheForceBypassesFreshEntry(t *testing.T) {
	cache := newFakeCache()
	cache.entries["posts"] = []types.Record{{"id": float64(1), "title": "old"}}

	fresh := []types.Record{{"id": float64(1), "title": "new"}}
	fn, calls := countingFetch(fresh, nil)
	o := NewOrchestrator(testLogger(), cache)

	records, _, fromCache, err := o.FetchWithCache(context.Background(), "posts", fn, true)
	if err != nil {
		t.Fatalf("FetchWithCache: %v", err)
	}
	if fromCache {
		t.Error("forced fetch reported as fromCache")
	}
	if *calls != 1 {
		t.Errorf("fetch function invoked %d times despite a fresh entry, want 1", *calls)
	}
	if len(cache.clears) != 1 || cache.clears[0] != "posts" {
		t.Errorf("cleared keys = %v, want [posts]", cache.clears)
	}
	if got := cache.entries["posts"][0].String("title", ""); got != "new" {
		t.Errorf("cache entry title = %q, want the fresh result", got)
	}
	if got := records[0].String("title", ""); got != "new" {
		t.Errorf("returned title = %q, want %q", got, "new")
	}
}

func TestFetchWithCachePropagatesFetchFault(t *testing.T) {
	cache := newFakeCache()
	fetchErr := types.Errorf(types.ErrRemoteClientFault, "client error: 404")
	fn, _ := countingFetch(nil, fetchErr)
	o := NewOrchestrator(testLogger(), cache)

	_, _, _, err := o.FetchWithCache(context.Background(), "posts", fn, false)
	if !errors.Is(err, types.ErrRemoteClientFault) {
		t.Fatalf("err = %v, want the untouched fetch fault", err)
	}
	if cache.saves != 0 {
		t.Errorf("cache saved %d times after a fetch fault, want 0", cache.saves)
	}
}

func TestFetchWithCachePropagatesCacheFault(t *testing.T) {
	cache := newFakeCache()
	cache.loadErr = types.Errorf(types.ErrCacheIO, "corrupt file")

	fn, calls := countingFetch(nil, nil)
	o := NewOrchestrator(testLogger(), cache)

	_, _, _, err := o.FetchWithCache(context.Background(), "posts", fn, false)
	if !errors.Is(err, types.ErrCacheIO) {
		t.Fatalf("err = %v, want ErrCacheIO", err)
	}
	if *calls != 0 {
		t.Errorf("fetch function invoked %d times after a cache fault, want 0", *calls)
	}
}

func TestFetchWithCacheSaveFaultSurfaces(t *testing.T) {
	cache := newFakeCache()
	cache.saveErr = types.Errorf(types.ErrCacheIO, "disk full")

	fn, _ := countingFetch([]types.Record{{"id": float64(1)}}, nil)
	o := NewOrchestrator(testLogger(), cache)

	_, _, _, err := o.FetchWithCache(context.Background(), "posts", fn, false)
	if !errors.Is(err, types.ErrCacheIO) {
		t.Fatalf("err = %v, want ErrCacheIO", err)
	}
}

func TestFetchWithCacheElapsedRecordedOnFault(t *testing.T) {
	cache := newFakeCache()
	fn, _ := countingFetch(nil, types.ErrTransportFault)
	o := NewOrchestrator(testLogger(), cache)

	start := time.Now()
	_, elapsed, _, err := o.FetchWithCache(context.Background(), "posts", fn, false)
	if err == nil {
		t.Fatal("expected a fault")
	}
	if elapsed < 0 || elapsed > time.Since(start)+time.Second {
		t.Errorf("elapsed = %s, not a plausible wall-clock duration", elapsed)
	}
}
