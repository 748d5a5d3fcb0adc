package redis

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/turtacn/ListSense/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ListSense/pkg/errors"
	"github.com/turtacn/ListSense/pkg/types/entity"
)

var (
	ErrCacheMiss           = errors.New(errors.ErrCodeNotFound, "cache miss")
	ErrSerializationFailed = errors.New(errors.ErrCodeSerialization, "serialization failed")
)

// Cache access outcomes reported to CacheMetrics.
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

const (
	resultNamespace = "result:"
	cacheName       = "extraction_results"
)

// CacheMetrics receives one call per lookup.
type CacheMetrics interface {
	RecordCacheAccess(cache, result string)
}

type noopCacheMetrics struct{}

func (noopCacheMetrics) RecordCacheAccess(string, string) {}

// ResultCache stores extraction output keyed by utterance and entity
// selection. Concurrent misses on the same key share one computation.
type ResultCache struct {
	client  *Client
	logger  logging.Logger
	metrics CacheMetrics
	prefix  string
	ttl     time.Duration
	jitter  bool
	group   singleflight.Group
}

// CacheOption customises a ResultCache.
type CacheOption func(*ResultCache)

func WithPrefix(prefix string) CacheOption {
	return func(c *ResultCache) { c.prefix = prefix }
}

func WithTTL(ttl time.Duration) CacheOption {
	return func(c *ResultCache) { c.ttl = ttl }
}

func WithCacheMetrics(m CacheMetrics) CacheOption {
	return func(c *ResultCache) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithoutJitter stores entries with the exact TTL.
func WithoutJitter() CacheOption {
	return func(c *ResultCache) { c.jitter = false }
}

// NewResultCache builds a cache over client.
func NewResultCache(client *Client, log logging.Logger, opts ...CacheOption) *ResultCache {
	if log == nil {
		log = logging.NewNopLogger()
	}
	c := &ResultCache{
		client:  client,
		logger:  log.Named("result_cache"),
		metrics: noopCacheMetrics{},
		prefix:  "listsense:",
		ttl:     10 * time.Minute,
		jitter:  true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ResultKey derives the cache key for text extracted against the named
// entities of one catalog generation. Name order is significant since it
// breaks ties between entities starting at the same offset; no names means
// the whole catalog. Every field is length-prefixed so no selection can
// collide with another.
func ResultKey(text string, names []string, generation uint64) string {
	h := sha256.New()
	var buf [binary.MaxVarintLen64]byte
	writeUvarint := func(v uint64) {
		h.Write(buf[:binary.PutUvarint(buf[:], v)])
	}
	writeString := func(v string) {
		writeUvarint(uint64(len(v)))
		h.Write([]byte(v))
	}

	writeUvarint(generation)
	writeString(text)
	if len(names) == 0 {
		h.Write([]byte{0})
	} else {
		h.Write([]byte{1})
		writeUvarint(uint64(len(names)))
		for _, n := range names {
			writeString(n)
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (c *ResultCache) fullKey(key string) string {
	return c.prefix + resultNamespace + key
}

func (c *ResultCache) expiry() time.Duration {
	if !c.jitter || c.ttl <= 0 {
		return c.ttl
	}
	// +/- 10%
	delta := float64(c.ttl) * 0.1 * (rand.Float64()*2 - 1)
	return c.ttl + time.Duration(delta)
}

// Get returns the cached entities or ErrCacheMiss.
func (c *ResultCache) Get(ctx context.Context, key string) ([]entity.Entity, error) {
	data, err := c.client.Get(ctx, c.fullKey(key)).Bytes()
	if err == redis.Nil {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCacheError, "failed to read cached result")
	}
	var out []entity.Entity
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, ErrSerializationFailed.WithCause(err)
	}
	return out, nil
}

// Put stores entities under key.
func (c *ResultCache) Put(ctx context.Context, key string, entities []entity.Entity) error {
	if entities == nil {
		entities = []entity.Entity{}
	}
	data, err := json.Marshal(entities)
	if err != nil {
		return ErrSerializationFailed.WithCause(err)
	}
	if err := c.client.Set(ctx, c.fullKey(key), data, c.expiry()).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to write cached result")
	}
	return nil
}

// GetOrCompute returns the cached result for (text, names, generation) or
// runs compute and stores its output. A result computed against a catalog
// generation that has since been replaced is stored under a key no later
// lookup produces. Cache failures degrade to computing; only compute
// errors are returned. The boolean reports a cache hit.
func (c *ResultCache) GetOrCompute(ctx context.Context, text string, names []string, generation uint64,
	compute func(ctx context.Context) ([]entity.Entity, error)) ([]entity.Entity, bool, error) {

	key := ResultKey(text, names, generation)
	cached, err := c.Get(ctx, key)
	switch {
	case err == nil:
		c.metrics.RecordCacheAccess(cacheName, CacheHit)
		return cached, true, nil
	case errors.Is(err, ErrCacheMiss):
		c.metrics.RecordCacheAccess(cacheName, CacheMiss)
	default:
		c.metrics.RecordCacheAccess(cacheName, CacheError)
		c.logger.Warn("result cache read failed", logging.Err(err))
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		out, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		if putErr := c.Put(ctx, key, out); putErr != nil {
			c.logger.Warn("result cache write failed", logging.Err(putErr))
		}
		return out, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.([]entity.Entity), false, nil
}

// Invalidate drops every cached result. Called after catalog changes.
func (c *ResultCache) Invalidate(ctx context.Context) (int64, error) {
	var (
		deleted int64
		cursor  uint64
	)
	match := c.prefix + resultNamespace + "*"
	for {
		keys, next, err := c.client.Scan(ctx, cursor, match, 100).Result()
		if err != nil {
			return deleted, errors.Wrap(err, errors.ErrCodeCacheError, "failed to scan cached results")
		}
		if len(keys) > 0 {
			n, err := c.client.Del(ctx, keys...).Result()
			if err != nil {
				return deleted, errors.Wrap(err, errors.ErrCodeCacheError, "failed to delete cached results")
			}
			deleted += n
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	c.logger.Info("result cache invalidated", logging.Int64("deleted", deleted))
	return deleted, nil
}

//Personal.AI order the ending
