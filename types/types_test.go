package types

import (
	"errors"
	"testing"
	"time"
)

func TestRecordString(t *testing.T) {
	r := Record{"title": "hello", "id": float64(7)}

	if got := r.String("title", "x"); got != "hello" {
		t.Errorf("String(title) = %q", got)
	}
	if got := r.String("missing", "fallback"); got != "fallback" {
		t.Errorf("String(missing) = %q, want the default", got)
	}
	if got := r.String("id", "fallback"); got != "fallback" {
		t.Errorf("String over a number = %q, want the default", got)
	}
}

func TestRecordInt(t *testing.T) {
	r := Record{
		"float": float64(42),
		"int":   13,
		"int64": int64(99),
		"text":  "not a number",
	}

	tests := []struct {
		key  string
		want int
	}{
		{"float", 42},
		{"int", 13},
		{"int64", 99},
		{"text", -1},
		{"missing", -1},
	}

	for _, tt := range tests {
		if got := r.Int(tt.key, -1); got != tt.want {
			t.Errorf("Int(%q) = %d, want %d", tt.key, got, tt.want)
		}
	}
}

func TestRecordObject(t *testing.T) {
	r := Record{
		"address": map[string]interface{}{"city": "Gwenborough"},
		"id":      float64(1),
	}

	if got := r.Object("address").String("city", ""); got != "Gwenborough" {
		t.Errorf("nested city = %q", got)
	}
	if got := r.Object("missing"); got != nil {
		t.Errorf("Object(missing) = %v, want nil", got)
	}
	if got := r.Object("id"); got != nil {
		t.Errorf("Object over a number = %v, want nil", got)
	}
}

func TestCacheEntryAge(t *testing.T) {
	entry := &CacheEntry{Timestamp: 1000}

	if got := entry.Age(time.Unix(1300, 0)); got != 300*time.Second {
		t.Errorf("Age = %s, want 300s", got)
	}
	if got := entry.Age(time.Unix(500, 0)); got != 0 {
		t.Errorf("Age with a rewound clock = %s, want 0", got)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{ErrTransportFault, true},
		{ErrRemoteServerFault, true},
		{ErrRemoteClientFault, false},
		{ErrMalformedResponse, false},
		{ErrUnexpectedShape, false},
		{ErrCircuitBreakerOpen, false},
		{ErrCacheIO, false},
		{errors.New("something unclassified"), true},
		{Errorf(ErrRemoteServerFault, "status 503"), true},
		{Errorf(ErrRemoteClientFault, "status 404"), false},
	}

	for _, tt := range tests {
		if got := IsRetryable(tt.err); got != tt.want {
			t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestErrorHelpers(t *testing.T) {
	err := Errorf(ErrCacheIO, "write %s", "posts.json")
	if !errors.Is(err, ErrCacheIO) {
		t.Error("Errorf lost the sentinel")
	}
	if !IsError(err, ErrCacheIO) {
		t.Error("IsError disagrees with errors.Is")
	}

	wrapped := WrapError(err, "saving entry")
	if !errors.Is(wrapped, ErrCacheIO) {
		t.Error("WrapError lost the sentinel")
	}
}
