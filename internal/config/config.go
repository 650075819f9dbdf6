package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the miran API configuration.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Catalog CatalogConfig `yaml:"catalog"`
	Cache   CacheConfig   `yaml:"cache"`
	Search  SearchConfig  `yaml:"search"`
	Auth    AuthConfig    `yaml:"auth"`
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds admin API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
	// PublicBaseURL overrides the request host in pagination links.
	PublicBaseURL string `yaml:"public_base_url"`
}

// Catalog drivers.
const (
	CatalogPostgres = "postgres"
	CatalogMemory   = "memory"
)

// CatalogConfig holds catalog storage settings.
type CatalogConfig struct {
	Driver        string `yaml:"driver"` // postgres, memory (default: postgres)
	DSN           string `yaml:"dsn"`
	MaxOpenConns  int    `yaml:"max_open_conns"`
	MaxCandidates int    `yaml:"max_candidates"`
	SeedFile      string `yaml:"seed_file"` // memory driver only
}

// Cache drivers.
const (
	CacheValkey = "valkey"
	CacheRedis  = "redis"
	CacheMemory = "memory"
	CacheNone   = "none"
)

// CacheConfig holds page cache settings.
type CacheConfig struct {
	Driver           string   `yaml:"driver"` // valkey, redis, memory, none (default: valkey)
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	TTLSec           int      `yaml:"ttl_sec"`
	ClientCacheSec   int      `yaml:"client_cache_sec"` // 0 disables client-side caching
	KeyPrefix        string   `yaml:"key_prefix"`
	MemorySize       int      `yaml:"memory_size"`
	CoalesceMisses   *bool    `yaml:"coalesce_misses"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	FlightTimeoutSec int      `yaml:"flight_timeout_sec"`
}

// SearchConfig holds ranking and pagination settings.
type SearchConfig struct {
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	NgramSize           int     `yaml:"ngram_size"`
	SubstringFloor      float64 `yaml:"substring_floor"`
	PageSize            int     `yaml:"page_size"`
}

// Load reads configuration from a YAML file by environment name (local, docker, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse decodes YAML configuration, expands ${VAR} references, applies
// defaults and validates the result.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	c.HTTP.PublicBaseURL = strings.TrimRight(c.HTTP.PublicBaseURL, "/")

	if c.Catalog.Driver == "" {
		c.Catalog.Driver = CatalogPostgres
	}
	if c.Catalog.MaxCandidates <= 0 {
		c.Catalog.MaxCandidates = 5000
	}

	if c.Cache.Driver == "" {
		c.Cache.Driver = CacheValkey
	}
	if c.Cache.TTLSec <= 0 {
		c.Cache.TTLSec = 600
	}
	if c.Cache.KeyPrefix == "" {
		c.Cache.KeyPrefix = "miran:"
	}
	if c.Cache.MemorySize <= 0 {
		c.Cache.MemorySize = 10000
	}
	if c.Cache.CoalesceMisses == nil {
		on := true
		c.Cache.CoalesceMisses = &on
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
	if c.Cache.FlightTimeoutSec <= 0 {
		c.Cache.FlightTimeoutSec = 30
	}

	if c.Search.SimilarityThreshold <= 0 {
		c.Search.SimilarityThreshold = 0.3
	}
	if c.Search.NgramSize <= 0 {
		c.Search.NgramSize = 3
	}
	if c.Search.SubstringFloor <= 0 {
		c.Search.SubstringFloor = 0.5
	}
	if c.Search.PageSize <= 0 {
		c.Search.PageSize = 30
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}

	switch c.Catalog.Driver {
	case CatalogPostgres:
		if c.Catalog.DSN == "" {
			return fmt.Errorf("catalog.dsn is required for the postgres driver")
		}
	case CatalogMemory:
	default:
		return fmt.Errorf("catalog.driver must be \"postgres\" or \"memory\", got %q", c.Catalog.Driver)
	}

	switch c.Cache.Driver {
	case CacheValkey, CacheRedis:
		if len(c.Cache.Addrs) == 0 {
			return fmt.Errorf("cache.addrs is required for the %s driver", c.Cache.Driver)
		}
	case CacheMemory, CacheNone:
	default:
		return fmt.Errorf(
			"cache.driver must be one of valkey, redis, memory, none, got %q", c.Cache.Driver,
		)
	}

	if c.Search.SimilarityThreshold >= 1 {
		return fmt.Errorf("search.similarity_threshold must be below 1, got %g", c.Search.SimilarityThreshold)
	}
	if c.Search.SubstringFloor > 1 {
		return fmt.Errorf("search.substring_floor must be at most 1, got %g", c.Search.SubstringFloor)
	}
	if c.Catalog.Driver == CatalogPostgres && c.Search.NgramSize != 3 {
		return fmt.Errorf("search.ngram_size must be 3 with the postgres catalog (pg_trgm), got %d",
			c.Search.NgramSize)
	}
	return nil
}

// CacheTTL returns the page cache TTL.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSec) * time.Second
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
