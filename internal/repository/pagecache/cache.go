// Package pagecache memoizes result pages in a key-value store under their
// fingerprint. Store failures never reach callers: they degrade to a miss or
// a skipped write and are logged.
package pagecache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/MrMohammed1/Miran-Search/internal/db"
	"github.com/MrMohammed1/Miran-Search/internal/domain"
	"github.com/MrMohammed1/Miran-Search/internal/domain/search/fingerprint"
)

// DefaultTTL is how long a cached page lives when no TTL is configured.
const DefaultTTL = 10 * time.Minute

// store is the consumer interface for the page cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Scan(ctx context.Context, pattern string) ([]string, error)
	Del(ctx context.Context, keys ...string) error
}

// Cache stores JSON-encoded values under fingerprint keys. A Cache without a
// store is disabled: every lookup misses and writes are dropped.
type Cache struct {
	store       store
	prefix      string
	ttl         time.Duration
	cacheTotal  *prometheus.CounterVec
	invalidated *prometheus.CounterVec
	logger      *zap.Logger
}

// Options tune a Cache. Zero values fall back to defaults.
type Options struct {
	KeyPrefix string
	TTL       time.Duration
	// CacheTotal has labels "op" and "result" ("hit"/"miss"/"error").
	CacheTotal *prometheus.CounterVec
	// Invalidated has label "scope".
	Invalidated *prometheus.CounterVec
}

// New creates a page cache over s. s may be nil to disable caching.
func New(s store, opts Options, logger *zap.Logger) *Cache {
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = domain.KeyPrefix
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	return &Cache{
		store:       s,
		prefix:      opts.KeyPrefix + "page:",
		ttl:         opts.TTL,
		cacheTotal:  opts.CacheTotal,
		invalidated: opts.Invalidated,
		logger:      logger,
	}
}

// Enabled reports whether a store backs the cache.
func (c *Cache) Enabled() bool { return c.store != nil }

// Key returns the store key for fp.
func (c *Cache) Key(fp fingerprint.Fingerprint) string {
	return c.prefix + fp.String()
}

// Get decodes the cached value for fp into dst and reports whether it was found.
func (c *Cache) Get(ctx context.Context, fp fingerprint.Fingerprint, dst any) bool {
	if c.store == nil {
		return false
	}
	key := c.Key(fp)

	data, err := c.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			c.incCache(fp.Op(), "miss")
			return false
		}
		c.incCache(fp.Op(), "error")
		c.logger.Warn("Failed to read cached page", zap.String("key", key), zap.Error(err))
		return false
	}

	if err := json.Unmarshal(data, dst); err != nil {
		c.incCache(fp.Op(), "error")
		c.logger.Warn("Failed to decode cached page", zap.String("key", key), zap.Error(err))
		return false
	}

	c.incCache(fp.Op(), "hit")
	return true
}

// Put stores v under fp with the configured TTL, replacing any previous value.
func (c *Cache) Put(ctx context.Context, fp fingerprint.Fingerprint, v any) {
	if c.store == nil {
		return
	}
	key := c.Key(fp)

	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("Failed to encode page for cache", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.store.SetWithTTL(ctx, key, data, c.ttl); err != nil {
		c.incCache(fp.Op(), "error")
		c.logger.Warn("Failed to cache page", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate removes every cached value of op, or of all ops when op is empty,
// and returns the number of keys removed.
func (c *Cache) Invalidate(ctx context.Context, op fingerprint.Op) (int, error) {
	if c.store == nil {
		return 0, nil
	}
	scope := string(op)
	if op != "" && !op.IsValid() {
		return 0, fmt.Errorf("%w: unknown cache scope %q", domain.ErrValidation, op)
	}

	pattern := c.prefix + "*"
	if op != "" {
		pattern = c.prefix + scope + ":*"
	} else {
		scope = "all"
	}

	keys, err := c.store.Scan(ctx, pattern)
	if err != nil {
		return 0, fmt.Errorf("scan %s: %w: %w", pattern, domain.ErrDependencyUnavailable, err)
	}
	if err := c.store.Del(ctx, keys...); err != nil {
		return 0, fmt.Errorf("delete %d keys: %w: %w", len(keys), domain.ErrDependencyUnavailable, err)
	}

	if c.invalidated != nil {
		c.invalidated.WithLabelValues(scope).Add(float64(len(keys)))
	}
	c.logger.Info("Page cache invalidated", zap.String("scope", scope), zap.Int("keys", len(keys)))
	return len(keys), nil
}

func (c *Cache) incCache(op fingerprint.Op, result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(string(op), result).Inc()
	}
}
