package types

import (
	"time"
)

// Record is one opaque JSON object returned by the remote API. The core
// never interprets individual fields; payloads are stored and returned
// verbatim. Field access goes through the lookup helpers, which return the
// caller-supplied default when a field is absent or has the wrong type.
type Record map[string]interface{}

func (r Record) String(key, def string) string {
	if v, ok := r[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Int resolves the usual JSON number representations. Decoded numbers
// arrive as float64.
func (r Record) Int(key string, def int) int {
	v, ok := r[key]
	if !ok {
		return def
	}

	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case int64:
		return int(n)
	default:
		return def
	}
}

// Object returns a nested object field, or nil when absent.
func (r Record) Object(key string) Record {
	if v, ok := r[key]; ok {
		if m, ok := v.(map[string]interface{}); ok {
			return Record(m)
		}
	}
	return nil
}

// CacheEntry is a timestamped payload stored under one cache key. Timestamp
// is epoch seconds; a key maps to at most one entry and every save replaces
// the prior entry wholesale.
type CacheEntry struct {
	Key       string   `json:"key"`
	Timestamp int64    `json:"ts"`
	Payload   []Record `json:"data"`
}

// Age returns the entry age at the given instant, clamped at zero so that
// clock skew never yields a negative age.
func (e *CacheEntry) Age(now time.Time) time.Duration {
	age := now.Unix() - e.Timestamp
	if age < 0 {
		age = 0
	}
	return time.Duration(age) * time.Second
}

type CacheStats struct {
	MemoryKeys       []string      `json:"in_memory_keys"`
	PersistedEntries int           `json:"persisted_entries"`
	TTL              time.Duration `json:"ttl"`
	Hits             uint64        `json:"hits"`
	Misses           uint64        `json:"misses"`
}
