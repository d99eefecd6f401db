// Package redis provides a read-through cache of fluorescence scans in front
// of the ISPyB store.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ispyb/fluorescence-scan/cmd/fluorescence-scan/logger"
	"github.com/ispyb/fluorescence-scan/cmd/fluorescence-scan/model"
	"github.com/ispyb/fluorescence-scan/internal/metrics"

	"github.com/go-redis/redis/v8"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
)

// IStore encompasses the store operations the Cache fronts.
type IStore interface {
	FluorescenceScan(context.Context, uint32) (*model.FluorescenceScan, error)
	FluorescenceScansByIDs(context.Context, []uint32) (map[uint32]model.FluorescenceScan, error)
	FluorescenceScansBySession(context.Context, uint32) ([]model.FluorescenceScan, error)
}

var _ IStore = (*Cache)(nil)

// New creates a new Cache instance.
func New(
	logger *zap.Logger,
	redis *redis.Client,
	store IStore,
	metrics *metrics.Metrics,
	ttl time.Duration,
) *Cache {
	return &Cache{
		logger:  logger,
		redis:   redis,
		store:   store,
		metrics: metrics,
		ttl:     ttl,
	}
}

// Cache serves fluorescence scans from redis, falling back to the store on a
// miss. Redis failures degrade to the store; they are never returned.
type Cache struct {
	logger  *zap.Logger
	redis   *redis.Client
	store   IStore
	metrics *metrics.Metrics
	ttl     time.Duration
}

// FluorescenceScan retrieves the scan with the specified ID.
func (c Cache) FluorescenceScan(ctx context.Context, id uint32) (*model.FluorescenceScan, error) {
	key := keygen(id)

	b, err := c.redis.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		c.lookup(resultMiss)
	case err != nil:
		c.lookupFailed(ctx, err)
	default:
		if scan, ok := c.decode(ctx, b); ok {
			c.lookup(resultHit)
			return scan, nil
		}
	}

	scan, err := c.store.FluorescenceScan(ctx, id)
	if err != nil || scan == nil {
		return scan, err
	}
	c.writeBack(ctx, *scan)
	return scan, nil
}

// FluorescenceScansByIDs retrieves the scans with the specified IDs, keyed by
// ID. Only the IDs missing from the cache are requested from the store.
func (c Cache) FluorescenceScansByIDs(ctx context.Context, ids []uint32) (map[uint32]model.FluorescenceScan, error) {
	if len(ids) == 0 {
		return map[uint32]model.FluorescenceScan{}, nil
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, keygen(id))
	}

	scans := make(map[uint32]model.FluorescenceScan, len(ids))
	missing := ids

	vals, err := c.redis.MGet(ctx, keys...).Result()
	if err != nil {
		c.lookupFailed(ctx, err)
	} else {
		missing = make([]uint32, 0, len(ids))
		for i, val := range vals {
			s, ok := val.(string)
			if !ok {
				c.lookup(resultMiss)
				missing = append(missing, ids[i])
				continue
			}
			scan, ok := c.decode(ctx, []byte(s))
			if !ok {
				missing = append(missing, ids[i])
				continue
			}
			c.lookup(resultHit)
			scans[scan.ID] = *scan
		}
	}

	if len(missing) == 0 {
		return scans, nil
	}

	found, err := c.store.FluorescenceScansByIDs(ctx, missing)
	if err != nil {
		return nil, err
	}
	for id, scan := range found {
		scans[id] = scan
		c.writeBack(ctx, scan)
	}
	return scans, nil
}

// FluorescenceScansBySession retrieves the scans recorded during the session.
// Session listings change as scans are recorded and are not cached.
func (c Cache) FluorescenceScansBySession(ctx context.Context, sessionID uint32) ([]model.FluorescenceScan, error) {
	return c.store.FluorescenceScansBySession(ctx, sessionID)
}

// writeBack caches the scan. Nothing is written once the request has been
// abandoned, and a cached scan is never replaced by one with an earlier
// status.
func (c Cache) writeBack(ctx context.Context, scan model.FluorescenceScan) {
	if ctx.Err() != nil {
		return
	}

	b, err := encode(scan)
	if err != nil {
		c.logger.With(logger.ContextFields(ctx)...).Error("while encoding fluorescence scan", zap.Error(err))
		return
	}

	key := keygen(scan.ID)
	err = c.redis.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, key).Bytes()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if err == nil {
			var cached model.FluorescenceScan
			if decode(current, &cached) == nil && !replaces(cached.Status, scan.Status) {
				return nil
			}
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, b, c.ttl)
			return nil
		})
		return err
	}, key)
	if err != nil && !errors.Is(err, redis.TxFailedErr) {
		c.logger.
			With(logger.ContextFields(ctx)...).
			Warn("while caching fluorescence scan", zap.Uint32("id", scan.ID), zap.Error(err))
	}
}

func (c Cache) decode(ctx context.Context, b []byte) (*model.FluorescenceScan, bool) {
	var scan model.FluorescenceScan
	if err := decode(b, &scan); err != nil {
		c.lookupFailed(ctx, fmt.Errorf("while decoding fluorescence scan: %w", err))
		return nil, false
	}
	if err := scan.Validate(); err != nil {
		c.lookupFailed(ctx, err)
		return nil, false
	}
	return &scan, true
}

func (c Cache) lookup(result string) {
	c.metrics.CacheLookups.WithLabelValues(result).Inc()
}

func (c Cache) lookupFailed(ctx context.Context, err error) {
	c.lookup(resultError)
	c.logger.
		With(logger.ContextFields(ctx)...).
		Warn("cache lookup failed; using store", zap.Error(err))
}

// replaces indicates if a scan with status next may replace a cached scan
// with status cached.
func replaces(cached, next model.Status) bool {
	return cached == next || cached.CanTransition(next)
}

// --- helpers ---

const (
	keyPrefix = "fluorescence-scan:"

	resultHit   = "hit"
	resultMiss  = "miss"
	resultError = "error"
)

func keygen(id uint32) string {
	return keyPrefix + strconv.FormatUint(uint64(id), 10)
}

func encode(obj interface{}) ([]byte, error) {
	return msgpack.Marshal(obj)
}

func decode(b []byte, obj interface{}) error {
	return msgpack.Unmarshal(b, obj)
}
