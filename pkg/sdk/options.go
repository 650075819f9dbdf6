package miran

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	dsn      string
	products []Product
	seedFile string

	cacheDriver   string // "valkey", "redis", "memory" or "" (off)
	cacheAddrs    []string
	cachePassword string
	cacheSize     int
	cacheTTL      time.Duration
	keyPrefix     string
	coalesce      bool

	threshold     float64
	ngramSize     int
	maxCandidates int
	pageSize      int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithPostgres reads the catalog from a postgres database with pg_trgm.
// The schema is migrated on connect.
func WithPostgres(dsn string) Option {
	return optionFunc(func(c *clientConfig) {
		c.dsn = dsn
	})
}

// WithProducts serves the given products from an in-memory catalog.
func WithProducts(ps []Product) Option {
	return optionFunc(func(c *clientConfig) {
		c.products = ps
	})
}

// WithSeedFile loads an in-memory catalog from a JSON file written by miran-seed --out.
func WithSeedFile(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.seedFile = path
	})
}

// WithValkey caches pages in a Valkey instance.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheDriver = "valkey"
		c.cacheAddrs = []string{addr}
		c.cachePassword = password
	})
}

// WithRedis caches pages in a Redis instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheDriver = "redis"
		c.cacheAddrs = []string{addr}
		c.cachePassword = password
	})
}

// WithMemoryCache caches up to size pages in process.
func WithMemoryCache(size int) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheDriver = "memory"
		c.cacheSize = size
	})
}

// WithCacheTTL sets how long cached pages live. Default: 10m.
func WithCacheTTL(ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheTTL = ttl
	})
}

// WithKeyPrefix namespaces cache keys. Default: "miran:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithoutCoalescing lets concurrent misses for one page compute independently.
func WithoutCoalescing() Option {
	return optionFunc(func(c *clientConfig) {
		c.coalesce = false
	})
}

// WithSimilarityThreshold sets the score a product must exceed to match
// without containing the query. Default: 0.3.
func WithSimilarityThreshold(t float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.threshold = t
	})
}

// WithNgramSize sets the n-gram size of the in-memory scorer. Postgres
// catalogs always use trigrams. Default: 3.
func WithNgramSize(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.ngramSize = n
	})
}

// WithPageSize sets the number of results per page. Default: 30.
func WithPageSize(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.pageSize = n
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
