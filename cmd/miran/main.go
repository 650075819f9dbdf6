package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/MrMohammed1/Miran-Search/internal/config"
	"github.com/MrMohammed1/Miran-Search/internal/db"
	dbMemory "github.com/MrMohammed1/Miran-Search/internal/db/memory"
	dbPostgres "github.com/MrMohammed1/Miran-Search/internal/db/postgres"
	dbRedis "github.com/MrMohammed1/Miran-Search/internal/db/redis"
	logpkg "github.com/MrMohammed1/Miran-Search/internal/logger"
	"github.com/MrMohammed1/Miran-Search/internal/metrics"
	catalogrepo "github.com/MrMohammed1/Miran-Search/internal/repository/catalog"
	"github.com/MrMohammed1/Miran-Search/internal/repository/pagecache"
	"github.com/MrMohammed1/Miran-Search/internal/seed"
	chiTransport "github.com/MrMohammed1/Miran-Search/internal/transport/chi"
	healthuc "github.com/MrMohammed1/Miran-Search/internal/usecase/health"
	productsuc "github.com/MrMohammed1/Miran-Search/internal/usecase/products"
	searchuc "github.com/MrMohammed1/Miran-Search/internal/usecase/search"
	"github.com/MrMohammed1/Miran-Search/internal/version"
)

// demoCatalogSize is the generated catalog size for the memory driver
// when no seed file is configured.
const demoCatalogSize = 1000

// catalogBackend is everything the server needs from a catalog driver.
type catalogBackend interface {
	searchuc.Catalog
	productsuc.Catalog
	healthuc.Pinger
}

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting miran API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("catalog_driver", cfg.Catalog.Driver),
		zap.String("cache_driver", cfg.Cache.Driver),
	)

	// Register search metrics explicitly (no init())
	metrics.RegisterSearchMetrics()

	ctx := context.Background()

	catalog, closeCatalog, err := openCatalog(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open catalog", zap.Error(err))
	}
	defer closeCatalog()

	store, err := openCacheStore(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to open cache store", zap.Error(err))
	}
	// Pass nil interface (not typed nil pointer!) when caching is off.
	// Go gotcha: (*redis.Store)(nil) wrapped in health.Pinger != nil.
	var cachePinger healthuc.Pinger
	if store != nil {
		defer store.Close()
		cachePinger = store
	}

	cache := pagecache.New(store, pagecache.Options{
		KeyPrefix:   cfg.Cache.KeyPrefix,
		TTL:         cfg.CacheTTL(),
		CacheTotal:  metrics.PageCacheTotal,
		Invalidated: metrics.PageCacheInvalidatedTotal,
	}, logger.Named("pagecache"))

	ranker := searchuc.New(catalog, searchuc.Config{
		Threshold:      cfg.Search.SimilarityThreshold,
		NgramSize:      cfg.Search.NgramSize,
		SubstringFloor: cfg.Search.SubstringFloor,
		MaxCandidates:  cfg.Catalog.MaxCandidates,
	}, searchuc.Metrics{
		Duration:      metrics.RankDuration,
		Candidates:    metrics.RankCandidates,
		CatalogErrors: metrics.CatalogErrorsTotal,
		Truncated:     metrics.SimilarityTruncatedTotal,
	}, logger.Named("ranker"))

	productSvc := productsuc.New(ranker, catalog, cache, productsuc.Config{
		PageSize:       cfg.Search.PageSize,
		CoalesceMisses: *cfg.Cache.CoalesceMisses,
		FlightTimeout:  time.Duration(cfg.Cache.FlightTimeoutSec) * time.Second,
	}, logger.Named("products"))

	healthSvc := healthuc.New(catalog, cachePinger)

	server := chiTransport.NewServer(productSvc, healthSvc, chiTransport.Options{
		PublicBaseURL: cfg.HTTP.PublicBaseURL,
		APIKeys:       cfg.Auth.APIKeys,
	}, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())
	server.Register(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// openCatalog connects the configured catalog driver. The returned func
// releases it.
func openCatalog(ctx context.Context, cfg config.Config, logger *zap.Logger) (catalogBackend, func(), error) {
	switch cfg.Catalog.Driver {
	case config.CatalogPostgres:
		gdb, err := dbPostgres.Open(dbPostgres.Config{
			DSN:          cfg.Catalog.DSN,
			MaxOpenConns: cfg.Catalog.MaxOpenConns,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() { _ = dbPostgres.Close(gdb) }
		if err := dbPostgres.Migrate(ctx, gdb); err != nil {
			closeFn()
			return nil, nil, fmt.Errorf("migrate catalog: %w", err)
		}
		logger.Info("Connected to catalog database")
		return catalogrepo.NewRepo(gdb, cfg.Catalog.MaxCandidates), closeFn, nil

	case config.CatalogMemory:
		mem := catalogrepo.NewMemory(cfg.Search.NgramSize, cfg.Catalog.MaxCandidates)
		if cfg.Catalog.SeedFile != "" {
			if err := mem.LoadFile(cfg.Catalog.SeedFile); err != nil {
				return nil, nil, err
			}
		} else {
			ps, err := seed.New(1).Catalog(demoCatalogSize)
			if err != nil {
				return nil, nil, fmt.Errorf("generate demo catalog: %w", err)
			}
			mem.Load(ps)
		}
		n, _ := mem.Count(ctx)
		logger.Info("Loaded in-memory catalog", zap.Int("products", n), zap.String("seed_file", cfg.Catalog.SeedFile))
		return mem, func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown catalog driver %q", cfg.Catalog.Driver)
	}
}

// openCacheStore connects the configured cache driver. It returns a nil
// store when caching is disabled.
func openCacheStore(ctx context.Context, cfg config.Config) (db.Store, error) {
	switch cfg.Cache.Driver {
	case config.CacheValkey, config.CacheRedis:
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:          cfg.Cache.Addrs,
			Username:       cfg.Cache.Username,
			Password:       cfg.Cache.Password,
			DB:             cfg.Cache.DB,
			ClientCacheTTL: time.Duration(cfg.Cache.ClientCacheSec) * time.Second,
		})
		if err != nil {
			return nil, err
		}
		if err := s.WaitForReady(ctx, time.Duration(cfg.Cache.ReadinessTimeout)*time.Second); err != nil {
			s.Close()
			return nil, err
		}
		return s, nil
	case config.CacheMemory:
		return dbMemory.NewStore(cfg.Cache.MemorySize), nil
	case config.CacheNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown cache driver %q", cfg.Cache.Driver)
	}
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					if rvr == http.ErrAbortHandler {
						panic(rvr)
					}
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line: one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("query", r.URL.RawQuery),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
