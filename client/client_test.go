package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/restfetch/restfetch/logger"
	"github.com/restfetch/restfetch/types"
)

func testLogger() types.Logger {
	return logger.NewZapWrapper(zap.NewNop())
}

func newTestClient(baseURL string, maxAttempts int) (*HTTPClient, *[]time.Duration) {
	c := NewHTTPClient(testLogger(), nil, &types.ClientConfig{
		BaseURL:     baseURL,
		Timeout:     2 * time.Second,
		MaxAttempts: maxAttempts,
		BackoffBase: 10 * time.Millisecond,
		BackoffMax:  time.Second,
	})

	// Record backoff delays instead of sleeping.
	delays := &[]time.Duration{}
	c.sleep = func(_ context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}

	return c, delays
}

func TestFetchSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":1,"title":"first"},{"id":2,"title":"second"}]`))
	}))
	defer srv.Close()

	c, delays := newTestClient(srv.URL, 3)

	records, err := c.Fetch(context.Background(), "/posts")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if got := records[0].Int("id", 0); got != 1 {
		t.Errorf("first record id = %d, want 1", got)
	}
	if got := records[1].String("title", ""); got != "second" {
		t.Errorf("second record title = %q, want %q", got, "second")
	}
	if len(*delays) != 0 {
		t.Errorf("success path slept %d times, want 0", len(*delays))
	}
}

func TestFetchRetriesServerErrorsThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`[{"id":7}]`))
	}))
	defer srv.Close()

	c, delays := newTestClient(srv.URL, 3)

	records, err := c.Fetch(context.Background(), "/posts")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(records) != 1 || records[0].Int("id", 0) != 7 {
		t.Fatalf("unexpected payload: %v", records)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("made %d attempts, want 3", got)
	}

	// Delay schedule is base, 2*base.
	want := []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}
	if len(*delays) != len(want) {
		t.Fatalf("slept %d times, want %d", len(*delays), len(want))
	}
	for i, d := range want {
		if (*delays)[i] != d {
			t.Errorf("delay[%d] = %s, want %s", i, (*delays)[i], d)
		}
	}
}

func TestFetchExhaustsRetriesOnServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, delays := newTestClient(srv.URL, 3)

	_, err := c.Fetch(context.Background(), "/posts")
	if !types.IsError(err, types.ErrRetriesExhausted) {
		t.Fatalf("err = %v, want ErrRetriesExhausted", err)
	}
	if !types.IsError(err, types.ErrRemoteServerFault) {
		t.Errorf("exhaustion error does not carry the last cause: %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("made %d attempts, want exactly 3", got)
	}
	if len(*delays) != 2 {
		t.Errorf("slept %d times, want 2", len(*delays))
	}
}

func TestFetchClientErrorIsFatal(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c, delays := newTestClient(srv.URL, 3)

	_, err := c.Fetch(context.Background(), "/missing")
	if !types.IsError(err, types.ErrRemoteClientFault) {
		t.Fatalf("err = %v, want ErrRemoteClientFault", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("made %d attempts, want exactly 1", got)
	}
	if len(*delays) != 0 {
		t.Errorf("fatal fault slept %d times, want 0", len(*delays))
	}
}

func TestFetchBodyValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want error
	}{
		{"invalid json", `{invalid`, types.ErrMalformedResponse},
		{"single object", `{"id":1}`, types.ErrUnexpectedShape},
		{"array of scalars", `[1,2,3]`, types.ErrUnexpectedShape},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				calls.Add(1)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c, _ := newTestClient(srv.URL, 3)

			_, err := c.Fetch(context.Background(), "/posts")
			if !types.IsError(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if got := calls.Load(); got != 1 {
				t.Errorf("made %d attempts, want exactly 1", got)
			}
		})
	}
}

func TestFetchTransportFaultIsRetried(t *testing.T) {
	// A server that is already closed yields connection-refused faults.
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, delays := newTestClient(url, 2)

	_, err := c.Fetch(context.Background(), "/posts")
	if !types.IsError(err, types.ErrRetriesExhausted) {
		t.Fatalf("err = %v, want ErrRetriesExhausted", err)
	}
	if !types.IsError(err, types.ErrTransportFault) {
		t.Errorf("exhaustion error does not carry the transport cause: %v", err)
	}
	if len(*delays) != 1 {
		t.Errorf("slept %d times, want 1", len(*delays))
	}
}

func TestFetchCanceledDuringBackoff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, _ := newTestClient(srv.URL, 3)
	c.sleep = sleepContext

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Fetch(ctx, "/posts")
	if !types.IsError(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
