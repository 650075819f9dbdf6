package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	cfg := Config{
		HTTP:    HTTPConfig{Port: 8080},
		Catalog: CatalogConfig{Driver: CatalogPostgres, DSN: "postgres://localhost/miran"},
		Cache:   CacheConfig{Driver: CacheValkey, Addrs: []string{"localhost:6379"}},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_OK(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingDSN(t *testing.T) {
	cfg := validConfig()
	cfg.Catalog.DSN = ""

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing dsn")
	}
}

func TestValidate_MemoryCatalogNeedsNoDSN(t *testing.T) {
	cfg := validConfig()
	cfg.Catalog = CatalogConfig{Driver: CatalogMemory}
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_UnknownDrivers(t *testing.T) {
	cfg := validConfig()
	cfg.Catalog.Driver = "mysql"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown catalog driver")
	}

	cfg = validConfig()
	cfg.Cache.Driver = "memcached"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for unknown cache driver")
	}
	expected := `cache.driver must be one of valkey, redis, memory, none, got "memcached"`
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_MissingCacheAddrs(t *testing.T) {
	for _, driver := range []string{CacheValkey, CacheRedis} {
		t.Run(driver, func(t *testing.T) {
			cfg := validConfig()
			cfg.Cache.Driver = driver
			cfg.Cache.Addrs = nil

			if err := cfg.Validate(); err == nil {
				t.Fatal("expected error for missing addrs")
			}
		})
	}

	cfg := validConfig()
	cfg.Cache = CacheConfig{Driver: CacheNone}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Errorf("disabled cache needs no addrs: %v", err)
	}
}

func TestValidate_SearchBounds(t *testing.T) {
	cfg := validConfig()
	cfg.Search.SimilarityThreshold = 1
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for threshold >= 1")
	}

	cfg = validConfig()
	cfg.Search.NgramSize = 4
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for non-trigram size with postgres")
	}

	cfg.Catalog = CatalogConfig{Driver: CatalogMemory}
	if err := cfg.Validate(); err != nil {
		t.Errorf("memory catalog accepts any n-gram size: %v", err)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.Catalog.Driver != CatalogPostgres {
		t.Errorf("expected postgres catalog, got %q", cfg.Catalog.Driver)
	}
	if cfg.Catalog.MaxCandidates != 5000 {
		t.Errorf("expected MaxCandidates=5000, got %d", cfg.Catalog.MaxCandidates)
	}
	if cfg.Cache.Driver != CacheValkey {
		t.Errorf("expected valkey cache, got %q", cfg.Cache.Driver)
	}
	if cfg.CacheTTL() != 10*time.Minute {
		t.Errorf("expected 10m ttl, got %v", cfg.CacheTTL())
	}
	if cfg.Cache.KeyPrefix != "miran:" {
		t.Errorf("expected KeyPrefix='miran:', got %q", cfg.Cache.KeyPrefix)
	}
	if cfg.Cache.CoalesceMisses == nil || !*cfg.Cache.CoalesceMisses {
		t.Error("expected coalescing on by default")
	}
	if cfg.Search.SimilarityThreshold != 0.3 {
		t.Errorf("expected threshold 0.3, got %g", cfg.Search.SimilarityThreshold)
	}
	if cfg.Search.NgramSize != 3 {
		t.Errorf("expected n-gram size 3, got %d", cfg.Search.NgramSize)
	}
	if cfg.Search.SubstringFloor != 0.5 {
		t.Errorf("expected floor 0.5, got %g", cfg.Search.SubstringFloor)
	}
	if cfg.Search.PageSize != 30 {
		t.Errorf("expected PageSize=30, got %d", cfg.Search.PageSize)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	off := false
	cfg := Config{
		HTTP:   HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5, PublicBaseURL: "https://shop.example/"},
		Cache:  CacheConfig{KeyPrefix: "custom:", TTLSec: 60, CoalesceMisses: &off},
		Search: SearchConfig{SimilarityThreshold: 0.2, PageSize: 10},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.WriteTimeoutSec != 60 {
		t.Errorf("expected WriteTimeoutSec=60, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.HTTP.PublicBaseURL != "https://shop.example" {
		t.Errorf("expected trailing slash trimmed, got %q", cfg.HTTP.PublicBaseURL)
	}
	if cfg.Cache.KeyPrefix != "custom:" {
		t.Errorf("expected KeyPrefix='custom:', got %q", cfg.Cache.KeyPrefix)
	}
	if *cfg.Cache.CoalesceMisses {
		t.Error("explicit coalesce_misses: false must be kept")
	}
	if cfg.Search.SimilarityThreshold != 0.2 || cfg.Search.PageSize != 10 {
		t.Errorf("search overrides lost: %+v", cfg.Search)
	}
}

func TestParse_ExpandsEnv(t *testing.T) {
	t.Setenv("MIRAN_TEST_DSN", "postgres://db/miran")
	data := []byte(`
http:
  port: ${MIRAN_TEST_PORT:-8081}
catalog:
  driver: postgres
  dsn: ${MIRAN_TEST_DSN}
cache:
  driver: memory
`)
	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTP.Port != 8081 {
		t.Errorf("expected default port 8081, got %d", cfg.HTTP.Port)
	}
	if cfg.Catalog.DSN != "postgres://db/miran" {
		t.Errorf("expected expanded dsn, got %q", cfg.Catalog.DSN)
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := Parse([]byte("http: [")); err == nil {
		t.Error("expected parse error")
	}
	_, err := Parse([]byte("http:\n  port: 8080\ncatalog:\n  driver: postgres\n"))
	if err == nil || !strings.Contains(err.Error(), "invalid config") {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestLoad_LocalConfig(t *testing.T) {
	cfg, err := Load("local")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTP.Port == 0 {
		t.Error("expected port from local.yaml")
	}
}
