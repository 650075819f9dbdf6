// Command miran-seed fills the product catalog with generated bilingual
// sample data.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/MrMohammed1/Miran-Search/internal/config"
	dbPostgres "github.com/MrMohammed1/Miran-Search/internal/db/postgres"
	dbRedis "github.com/MrMohammed1/Miran-Search/internal/db/redis"
	logpkg "github.com/MrMohammed1/Miran-Search/internal/logger"
	catalogrepo "github.com/MrMohammed1/Miran-Search/internal/repository/catalog"
	"github.com/MrMohammed1/Miran-Search/internal/repository/pagecache"
	"github.com/MrMohammed1/Miran-Search/internal/seed"
)

type options struct {
	count     int
	batchSize int
	reset     bool
	seed      uint64
	out       string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "miran-seed",
		Short: "Populate the product catalog with generated test data",
		Long: "Generates products with unique Arabic and English names across five categories.\n" +
			"By default rows are inserted into the configured postgres catalog and the shared\n" +
			"page cache is invalidated. With --out a JSON seed file for the memory catalog is written instead.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.count < 1 {
				return fmt.Errorf("--count must be positive, got %d", opts.count)
			}
			if opts.batchSize < 1 {
				return fmt.Errorf("--batch-size must be positive, got %d", opts.batchSize)
			}
			if opts.out != "" {
				return writeSeedFile(opts)
			}
			return run(cmd.Context(), opts)
		},
	}

	f := cmd.Flags()
	f.IntVar(&opts.count, "count", 5000, "Number of products to create")
	f.IntVar(&opts.batchSize, "batch-size", 10000, "Rows per insert batch")
	f.BoolVar(&opts.reset, "reset", false, "Delete existing products first")
	f.Uint64Var(&opts.seed, "seed", 0, "Random seed (0 picks one)")
	f.StringVarP(&opts.out, "out", "o", "", "Write a JSON seed file instead of inserting into postgres")

	return cmd
}

// writeSeedFile writes a self-contained catalog for catalog.driver: memory.
func writeSeedFile(opts options) error {
	ps, err := seed.New(opts.seed).Catalog(opts.count)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(ps, "", "  ")
	if err != nil {
		return fmt.Errorf("encode products: %w", err)
	}
	if err := os.WriteFile(opts.out, data, 0o600); err != nil {
		return fmt.Errorf("write seed file: %w", err)
	}
	fmt.Printf("Wrote %d products to %s\n", len(ps), opts.out)
	return nil
}

func run(ctx context.Context, opts options) error {
	env := config.GetEnv()
	cfg, err := config.Load(env)
	if err != nil {
		return err
	}
	if cfg.Catalog.Driver != config.CatalogPostgres {
		return fmt.Errorf("catalog driver is %q; use --out to generate a seed file", cfg.Catalog.Driver)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	gdb, err := dbPostgres.Open(dbPostgres.Config{DSN: cfg.Catalog.DSN, MaxOpenConns: cfg.Catalog.MaxOpenConns}, logger)
	if err != nil {
		return err
	}
	defer func() { _ = dbPostgres.Close(gdb) }()

	if err := dbPostgres.Migrate(ctx, gdb); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	repo := catalogrepo.NewRepo(gdb, cfg.Catalog.MaxCandidates)

	cats, err := repo.UpsertCategories(ctx, seed.Categories())
	if err != nil {
		return err
	}

	if opts.reset {
		if err := repo.DeleteProducts(ctx); err != nil {
			return err
		}
		logger.Info("Deleted existing products")
	}

	gen := seed.New(opts.seed)
	existing, err := repo.ProductNames(ctx)
	if err != nil {
		return err
	}
	gen.Reserve(existing...)

	ps, err := gen.Products(opts.count, cats)
	if err != nil {
		return err
	}

	logger.Info("Inserting products", zap.Int("count", len(ps)), zap.Int("batch_size", opts.batchSize))
	start := time.Now()
	inserted := 0
	for batch := range slices.Chunk(ps, opts.batchSize) {
		if err := repo.InsertProducts(ctx, batch, opts.batchSize); err != nil {
			return err
		}
		inserted += len(batch)
		logger.Info("Inserted products so far", zap.Int("inserted", inserted))
	}
	logger.Info("Catalog seeded", zap.Int("inserted", inserted), zap.Duration("took", time.Since(start)))

	return invalidateCache(ctx, cfg, logger)
}

// invalidateCache drops every cached page so readers see the new catalog.
// Process-local caches belong to the running server and are left alone.
func invalidateCache(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	if cfg.Cache.Driver != config.CacheValkey && cfg.Cache.Driver != config.CacheRedis {
		logger.Info("No shared cache to invalidate", zap.String("cache_driver", cfg.Cache.Driver))
		return nil
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Cache.Addrs,
		Username: cfg.Cache.Username,
		Password: cfg.Cache.Password,
		DB:       cfg.Cache.DB,
	})
	if err != nil {
		return err
	}
	defer store.Close()

	cache := pagecache.New(store, pagecache.Options{KeyPrefix: cfg.Cache.KeyPrefix}, logger)
	n, err := cache.Invalidate(ctx, "")
	if err != nil {
		// The rows are in; stale pages expire with their TTL.
		logger.Warn("Failed to invalidate page cache", zap.Error(err))
		return nil
	}
	logger.Info("Invalidated cached pages", zap.Int("keys", n))
	return nil
}
