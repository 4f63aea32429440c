package cache

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/restfetch/restfetch/types"
)

var customStoreCreators = make(map[string]types.PersistentStoreCreator)

// RegisterPersistentStore installs an additional persisted-tier backend
// under the given config type name.
func RegisterPersistentStore(name string, creator types.PersistentStoreCreator) {
	customStoreCreators[name] = creator
}

// Store is the two-tier TTL cache: a volatile memory tier backed by a
// persisted tier. The memory tier is the freshness source of truth once
// populated; the persisted tier is the source of truth across restarts.
type Store struct {
	logger    types.Logger
	memory    *MemoryTier
	persisted types.PersistentStore
	ttl       time.Duration
	now       func() time.Time
}

var _ types.CacheStore = (*Store)(nil)

// NewCacheStore builds a Store with the persisted backend selected by
// config. When metrics are supplied the store is wrapped with
// per-operation instrumentation.
func NewCacheStore(ctx context.Context, logger types.Logger, metrics types.MetricsManager, config *types.CacheConfig) (types.CacheStore, error) {
	var persisted types.PersistentStore
	var err error

	switch config.Type {
	case "file":
		persisted, err = NewFileStore(logger, config.Dir)
	case "redis":
		persisted, err = NewRedisStore(ctx, logger, config.Redis)
	default:
		if creator, exists := customStoreCreators[config.Type]; exists {
			persisted, err = creator(config)
		} else {
			return nil, types.Errorf(types.ErrCacheTypeUnknown, "type: %s", config.Type)
		}
	}

	if err != nil {
		return nil, err
	}

	store := NewStore(logger, persisted, config.TTL)

	if metrics != nil {
		return newInstrumentedStore(metrics, store), nil
	}
	return store, nil
}

func NewStore(logger types.Logger, persisted types.PersistentStore, ttl time.Duration) *Store {
	return &Store{
		logger:    logger,
		memory:    NewMemoryTier(),
		persisted: persisted,
		ttl:       ttl,
		now:       time.Now,
	}
}

// Save writes the timestamped payload into both tiers. The memory write is
// not rolled back when the persisted write fails; durability is best
// effort, not atomic across tiers.
func (s *Store) Save(key string, records []types.Record) error {
	if key == "" {
		return types.ErrCacheKeyEmpty
	}

	entry := &types.CacheEntry{
		Key:       key,
		Timestamp: s.now().Unix(),
		Payload:   records,
	}

	s.memory.Set(key, entry)

	if err := s.persisted.Write(key, entry); err != nil {
		return err
	}

	s.logger.Debug("saved cache entry",
		zap.String("key", key),
		zap.Int("records", len(records)),
		zap.String("location", s.persisted.Location(key)))

	return nil
}

func (s *Store) Load(key string, allowStale bool) ([]types.Record, bool, error) {
	if key == "" {
		return nil, false, types.ErrCacheKeyEmpty
	}

	if entry, ok := s.memory.Get(key); ok {
		age := entry.Age(s.now())
		if allowStale || age <= s.ttl {
			s.logger.Debug("memory cache hit",
				zap.String("key", key),
				zap.Duration("age", age))
			return entry.Payload, true, nil
		}
		s.logger.Debug("memory cache entry expired",
			zap.String("key", key),
			zap.Duration("age", age))
	}

	entry, ok, err := s.persisted.Read(key)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		s.logger.Debug("cache miss", zap.String("key", key))
		return nil, false, nil
	}

	age := entry.Age(s.now())
	if !allowStale && age > s.ttl {
		s.logger.Debug("persisted cache entry expired",
			zap.String("key", key),
			zap.Duration("age", age))
		return nil, false, nil
	}

	// Lazy promotion into the memory tier.
	s.memory.Set(key, entry)
	s.logger.Debug("persisted cache hit",
		zap.String("key", key),
		zap.Duration("age", age))

	return entry.Payload, true, nil
}

func (s *Store) Clear(key string) error {
	if key == "" {
		return types.ErrCacheKeyEmpty
	}

	s.memory.Delete(key)

	if err := s.persisted.Delete(key); err != nil {
		return err
	}

	s.logger.Info("cleared cache entry", zap.String("key", key))
	return nil
}

func (s *Store) ClearAll() error {
	s.memory.DeleteAll()

	if err := s.persisted.DeleteAll(); err != nil {
		return err
	}

	s.logger.Info("cleared all cache entries")
	return nil
}

func (s *Store) Stats() (types.CacheStats, error) {
	count, err := s.persisted.Count()
	if err != nil {
		return types.CacheStats{}, err
	}

	hits, misses := s.memory.HitMiss()

	return types.CacheStats{
		MemoryKeys:       s.memory.Keys(),
		PersistedEntries: count,
		TTL:              s.ttl,
		Hits:             hits,
		Misses:           misses,
	}, nil
}

func (s *Store) Close() error {
	return s.persisted.Close()
}
