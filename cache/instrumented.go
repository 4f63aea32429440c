package cache

import (
	"time"

	"github.com/restfetch/restfetch/types"
)

var cacheDurationBuckets = []float64{0.0001, 0.001, 0.01, 0.1, 1.0}

type instrumentedStore struct {
	impl    types.CacheStore
	metrics types.MetricsManager
}

func newInstrumentedStore(metrics types.MetricsManager, impl types.CacheStore) types.CacheStore {
	return &instrumentedStore{
		impl:    impl,
		metrics: metrics,
	}
}

func (ics *instrumentedStore) Save(key string, records []types.Record) error {
	start := time.Now()
	err := ics.impl.Save(key, records)
	ics.recordMetric("save", resultOf(err), time.Since(start))
	return err
}

func (ics *instrumentedStore) Load(key string, allowStale bool) ([]types.Record, bool, error) {
	start := time.Now()
	records, ok, err := ics.impl.Load(key, allowStale)

	result := "miss"
	switch {
	case err != nil:
		result = "error"
	case ok:
		result = "hit"
	}

	ics.recordMetric("load", result, time.Since(start))
	return records, ok, err
}

func (ics *instrumentedStore) Clear(key string) error {
	start := time.Now()
	err := ics.impl.Clear(key)
	ics.recordMetric("clear", resultOf(err), time.Since(start))
	return err
}

func (ics *instrumentedStore) ClearAll() error {
	start := time.Now()
	err := ics.impl.ClearAll()
	ics.recordMetric("clear_all", resultOf(err), time.Since(start))
	return err
}

func (ics *instrumentedStore) Stats() (types.CacheStats, error) {
	return ics.impl.Stats()
}

func (ics *instrumentedStore) Close() error {
	return ics.impl.Close()
}

func (ics *instrumentedStore) recordMetric(operation, result string, duration time.Duration) {
	ics.metrics.Counter("cache_operations_total", map[string]string{
		"operation": operation,
		"result":    result,
	}).Inc()

	ics.metrics.Histogram("cache_operation_duration_seconds",
		cacheDurationBuckets,
		map[string]string{"operation": operation},
	).Observe(duration.Seconds())
}

func resultOf(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
