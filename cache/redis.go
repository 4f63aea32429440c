package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/restfetch/restfetch/types"
	"github.com/restfetch/restfetch/utils"
)

// RedisStore is the network-persisted alternative to FileStore. Entries
// keep the same {ts,data} envelope and are stored without a redis-side
// TTL: expiry stays lazy so stale-tolerant reads remain possible.
type RedisStore struct {
	ctx    context.Context
	logger types.Logger
	client *redis.Client
	prefix string
}

var _ types.PersistentStore = (*RedisStore)(nil)

func NewRedisStore(ctx context.Context, logger types.Logger, config *types.RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Password:     config.Password,
		DB:           config.DB,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	})

	store := &RedisStore{
		ctx:    ctx,
		logger: logger,
		client: client,
		prefix: config.KeyPrefix,
	}

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, types.Errorf(types.ErrCacheIO, "failed to connect to redis: %v", err)
	}

	logger.Debug("redis cache store initialized",
		zap.String("addr", client.Options().Addr),
		zap.String("prefix", store.prefix))

	return store, nil
}

func (r *RedisStore) Location(key string) string {
	if r.prefix == "" {
		return "cache:" + key
	}
	return r.prefix + ":cache:" + key
}

func (r *RedisStore) Write(key string, entry *types.CacheEntry) error {
	data, err := utils.Marshal(&envelope{TS: entry.Timestamp, Data: entry.Payload})
	if err != nil {
		return types.Errorf(types.ErrCacheIO, "failed to encode entry for %s: %v", key, err)
	}

	if err := r.client.Set(r.ctx, r.Location(key), data, 0).Err(); err != nil {
		r.logger.Error("failed to write cache entry",
			zap.String("key", key),
			zap.Error(err))
		return types.Errorf(types.ErrCacheIO, "failed to write entry for %s: %v", key, err)
	}

	return nil
}

func (r *RedisStore) Read(key string) (*types.CacheEntry, bool, error) {
	data, err := r.client.Get(r.ctx, r.Location(key)).Bytes()
	if err != nil {
		if types.IsError(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, types.Errorf(types.ErrCacheIO, "failed to read entry for %s: %v", key, err)
	}

	var env envelope
	if err := utils.Unmarshal(data, &env); err != nil {
		return nil, false, types.Errorf(types.ErrCacheIO, "failed to parse entry for %s: %v", key, err)
	}

	if env.Data == nil {
		r.logger.Warn("cache entry contained no payload", zap.String("key", key))
		return nil, false, nil
	}

	return &types.CacheEntry{
		Key:       key,
		Timestamp: env.TS,
		Payload:   env.Data,
	}, true, nil
}

func (r *RedisStore) Delete(key string) error {
	if err := r.client.Del(r.ctx, r.Location(key)).Err(); err != nil {
		return types.Errorf(types.ErrCacheIO, "failed to delete entry for %s: %v", key, err)
	}
	return nil
}

func (r *RedisStore) DeleteAll() error {
	keys, err := r.scanKeys()
	if err != nil {
		return err
	}

	if len(keys) == 0 {
		return nil
	}

	if err := r.client.Del(r.ctx, keys...).Err(); err != nil {
		return types.Errorf(types.ErrCacheIO, "failed to delete entries: %v", err)
	}

	return nil
}

func (r *RedisStore) Count() (int, error) {
	keys, err := r.scanKeys()
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

func (r *RedisStore) scanKeys() ([]string, error) {
	var keys []string
	var cursor uint64

	for {
		batch, next, err := r.client.Scan(r.ctx, cursor, r.Location("*"), 100).Result()
		if err != nil {
			return nil, types.Errorf(types.ErrCacheIO, "failed to scan cache keys: %v", err)
		}

		keys = append(keys, batch...)
		cursor = next
		if cursor == 0 {
			return keys, nil
		}
	}
}
