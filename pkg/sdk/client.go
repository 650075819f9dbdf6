package miran

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/MrMohammed1/Miran-Search/internal/db"
	dbMemory "github.com/MrMohammed1/Miran-Search/internal/db/memory"
	dbPostgres "github.com/MrMohammed1/Miran-Search/internal/db/postgres"
	dbRedis "github.com/MrMohammed1/Miran-Search/internal/db/redis"
	"github.com/MrMohammed1/Miran-Search/internal/domain/product"
	"github.com/MrMohammed1/Miran-Search/internal/domain/search/fingerprint"
	"github.com/MrMohammed1/Miran-Search/internal/domain/search/page"
	"github.com/MrMohammed1/Miran-Search/internal/domain/search/query"
	catalogrepo "github.com/MrMohammed1/Miran-Search/internal/repository/catalog"
	"github.com/MrMohammed1/Miran-Search/internal/repository/pagecache"
	healthuc "github.com/MrMohammed1/Miran-Search/internal/usecase/health"
	productsuc "github.com/MrMohammed1/Miran-Search/internal/usecase/products"
	searchuc "github.com/MrMohammed1/Miran-Search/internal/usecase/search"
)

const defaultReadinessTimeout = 10 * time.Second

// Internal interfaces for substitution in tests.
type productUseCase interface {
	List(ctx context.Context, number int) (page.Page, error)
	Search(ctx context.Context, q query.Query) (page.Page, error)
	Get(ctx context.Context, id int64) (product.Product, error)
	Invalidate(ctx context.Context, op fingerprint.Op) (int, error)
}

// catalogBackend is what a catalog driver provides to the client.
type catalogBackend interface {
	searchuc.Catalog
	productsuc.Catalog
	healthuc.Pinger
}

// Client is the miran SDK entry point.
type Client struct {
	store     db.Store
	gdb       *gorm.DB
	products  productUseCase
	healthSvc healthUseCase
	obs       *observer
}

// New creates a Client: it opens the catalog and the optional page cache.
// The provided context bounds schema migration and the cache readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		cacheTTL:  pagecache.DefaultTTL,
		coalesce:  true,
		threshold: 0.3,
		ngramSize: 3,
		pageSize:  page.DefaultSize,
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	cat, gdb, err := openCatalog(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := createStore(ctx, cfg)
	if err != nil {
		if gdb != nil {
			_ = dbPostgres.Close(gdb)
		}
		return nil, err
	}

	c := wireClient(cat, store, cfg, obs)
	c.gdb = gdb
	return c, nil
}

func openCatalog(ctx context.Context, cfg *clientConfig) (catalogBackend, *gorm.DB, error) {
	switch {
	case cfg.dsn != "":
		gdb, err := dbPostgres.Open(dbPostgres.Config{DSN: cfg.dsn}, zap.NewNop())
		if err != nil {
			return nil, nil, fmt.Errorf("miran: open postgres: %w", err)
		}
		if err := dbPostgres.Migrate(ctx, gdb); err != nil {
			_ = dbPostgres.Close(gdb)
			return nil, nil, fmt.Errorf("miran: migrate: %w", err)
		}
		// pg_trgm works on trigrams only.
		cfg.ngramSize = 3
		return catalogrepo.NewRepo(gdb, cfg.maxCandidates), gdb, nil
	case cfg.seedFile != "":
		mem := catalogrepo.NewMemory(cfg.ngramSize, cfg.maxCandidates)
		if err := mem.LoadFile(cfg.seedFile); err != nil {
			return nil, nil, fmt.Errorf("miran: %w", err)
		}
		return mem, nil, nil
	case cfg.products != nil:
		mem := catalogrepo.NewMemory(cfg.ngramSize, cfg.maxCandidates)
		mem.Load(toInternalProducts(cfg.products))
		return mem, nil, nil
	default:
		return nil, nil, errors.New("miran: catalog required (use WithPostgres, WithSeedFile or WithProducts)")
	}
}

// createStore opens the page cache store. It returns a nil store when
// caching is off.
func createStore(ctx context.Context, cfg *clientConfig) (db.Store, error) {
	switch cfg.cacheDriver {
	case "":
		return nil, nil
	case "memory":
		return dbMemory.NewStore(cfg.cacheSize), nil
	case "valkey", "redis":
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.cacheAddrs,
			Password: cfg.cachePassword,
		})
		if err != nil {
			return nil, fmt.Errorf("miran: create %s store: %w", cfg.cacheDriver, err)
		}
		if err := s.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
			s.Close()
			return nil, fmt.Errorf("miran: %s not ready: %w", cfg.cacheDriver, err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("miran: unknown cache driver %q", cfg.cacheDriver)
	}
}

func wireClient(cat catalogBackend, store db.Store, cfg *clientConfig, obs *observer) *Client {
	logger := zap.NewNop()

	cache := pagecache.New(store, pagecache.Options{KeyPrefix: cfg.keyPrefix, TTL: cfg.cacheTTL}, logger)
	maxCandidates := cfg.maxCandidates
	if maxCandidates <= 0 {
		maxCandidates = catalogrepo.DefaultMaxCandidates
	}
	ranker := searchuc.New(cat, searchuc.Config{
		Threshold:     cfg.threshold,
		NgramSize:     cfg.ngramSize,
		MaxCandidates: maxCandidates,
	}, searchuc.Metrics{}, logger)
	svc := productsuc.New(ranker, cat, cache, productsuc.Config{
		PageSize:       cfg.pageSize,
		CoalesceMisses: cfg.coalesce,
	}, logger)

	// nil interface, not a typed nil *Store, when caching is off
	var cachePinger healthuc.Pinger
	if store != nil {
		cachePinger = store
	}

	return &Client{
		store:     store,
		products:  svc,
		healthSvc: healthuc.New(cat, cachePinger),
		obs:       obs,
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
	if c.gdb != nil {
		_ = dbPostgres.Close(c.gdb)
	}
}
