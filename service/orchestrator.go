package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/restfetch/restfetch/types"
	"github.com/restfetch/restfetch/utils"
)

// Orchestrator ties the fetch client and the cache store together with the
// cache-aside pattern: consult the cache first, fetch and populate only on
// miss. It holds no state of its own beyond its collaborators.
type Orchestrator struct {
	logger types.Logger
	cache  types.CacheStore
}

func NewOrchestrator(logger types.Logger, cache types.CacheStore) *Orchestrator {
	return &Orchestrator{
		logger: logger,
		cache:  cache,
	}
}

// FetchWithCache returns the records for key, their provenance (fromCache)
// and the wall-clock duration of the whole call. force clears the entry
// first and fetches unconditionally. The elapsed duration is recorded on
// every exit path, including faults.
func (o *Orchestrator) FetchWithCache(ctx context.Context, key string, fn types.FetchFunc, force bool) (records []types.Record, elapsed time.Duration, fromCache bool, err error) {
	opID := uuid.NewString()

	tm := utils.StartTimer(o.logger, "fetch_with_cache")
	defer func() {
		elapsed = tm.Stop()
	}()

	if force {
		o.logger.Debug("forced refresh, clearing cache entry",
			zap.String("op_id", opID),
			zap.String("key", key))

		if err = o.cache.Clear(key); err != nil {
			return nil, 0, false, err
		}

		records, err = fn(ctx)
		if err != nil {
			return nil, 0, false, err
		}

		if err = o.cache.Save(key, records); err != nil {
			return nil, 0, false, err
		}

		return records, 0, false, nil
	}

	records, ok, err := o.cache.Load(key, false)
	if err != nil {
		return nil, 0, false, err
	}
	if ok {
		o.logger.Debug("serving from cache",
			zap.String("op_id", opID),
			zap.String("key", key))
		return records, 0, true, nil
	}

	o.logger.Debug("cache miss, fetching from remote",
		zap.String("op_id", opID),
		zap.String("key", key))

	records, err = fn(ctx)
	if err != nil {
		return nil, 0, false, err
	}

	if err = o.cache.Save(key, records); err != nil {
		return nil, 0, false, err
	}

	return records, 0, false, nil
}
