package types

// CacheStore is the two-tier (memory + persisted) TTL cache. A key maps to
// at most one entry; expiry is evaluated lazily at read time.
type CacheStore interface {
	// Save stamps the records with the current time and writes them into
	// both tiers. A persisted-tier write failure surfaces as ErrCacheIO;
	// the memory tier write is not rolled back.
	Save(key string, records []Record) error

	// Load returns the cached payload for key when a valid entry exists.
	// The memory tier is consulted first; on a memory miss a valid
	// persisted entry is promoted into memory. A structural read failure
	// in the persisted tier surfaces as ErrCacheIO, never as a miss.
	// allowStale returns an existing entry regardless of age.
	Load(key string, allowStale bool) ([]Record, bool, error)

	// Clear removes key from both tiers. Absence is not an error.
	Clear(key string) error

	// ClearAll removes every entry from both tiers.
	ClearAll() error

	Stats() (CacheStats, error)

	// Close releases persisted-tier resources.
	Close() error
}

// PersistentStore is the durable tier backing a CacheStore. Implementations
// store the entry envelope verbatim and never apply their own expiry:
// freshness is always decided by the CacheStore so stale-tolerant reads
// stay possible.
type PersistentStore interface {
	Write(key string, entry *CacheEntry) error

	// Read returns (nil, false, nil) when the key is absent and an
	// ErrCacheIO-classified error when the stored entry is unreadable.
	Read(key string) (*CacheEntry, bool, error)

	Delete(key string) error
	DeleteAll() error
	Count() (int, error)

	// Location describes where a key's entry lives (file path, redis key).
	Location(key string) string

	Close() error
}

type PersistentStoreCreator func(config interface{}) (PersistentStore, error)
