// Package products serves paginated product listings, searches and details,
// memoizing each computed page under its request fingerprint.
package products

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/MrMohammed1/Miran-Search/internal/domain"
	"github.com/MrMohammed1/Miran-Search/internal/domain/product"
	"github.com/MrMohammed1/Miran-Search/internal/domain/search/fingerprint"
	"github.com/MrMohammed1/Miran-Search/internal/domain/search/match"
	"github.com/MrMohammed1/Miran-Search/internal/domain/search/page"
	"github.com/MrMohammed1/Miran-Search/internal/domain/search/query"
)

// Config tunes the coordinator.
type Config struct {
	PageSize int
	// CoalesceMisses runs concurrent misses for one fingerprint once.
	CoalesceMisses bool
	// FlightTimeout bounds a coalesced computation. Defaults to DefaultFlightTimeout.
	FlightTimeout time.Duration
}

// DefaultFlightTimeout bounds coalesced computations when none is configured.
const DefaultFlightTimeout = 30 * time.Second

// Service coordinates cache lookups, ranking and page assembly.
type Service struct {
	ranker   Ranker
	catalog  Catalog
	cache    PageCache
	pageSize int
	flight   *singleflight.Group
	timeout  time.Duration
	logger   *zap.Logger
}

// New creates the coordinator.
func New(r Ranker, c Catalog, cache PageCache, cfg Config, logger *zap.Logger) *Service {
	if cfg.PageSize <= 0 {
		cfg.PageSize = page.DefaultSize
	}
	if cfg.FlightTimeout <= 0 {
		cfg.FlightTimeout = DefaultFlightTimeout
	}
	s := &Service{ranker: r, catalog: c, cache: cache, pageSize: cfg.PageSize, timeout: cfg.FlightTimeout, logger: logger}
	if cfg.CoalesceMisses {
		s.flight = &singleflight.Group{}
	}
	return s
}

// PageSize returns the fixed page size.
func (s *Service) PageSize() int { return s.pageSize }

// List returns one page of the catalog in id order.
func (s *Service) List(ctx context.Context, number int) (page.Page, error) {
	if number < 1 {
		return page.Page{}, fmt.Errorf("%w: page must be >= 1, got %d", domain.ErrValidation, number)
	}
	fp := fingerprint.New(fingerprint.OpList, fingerprint.ListQuery, "", number)

	return cached(ctx, s, fp, func(ctx context.Context) (page.Page, bool, error) {
		total, err := s.catalog.Count(ctx)
		if err != nil {
			return page.Page{}, false, fmt.Errorf("count products: %w", err)
		}
		w := page.Bounds(number, s.pageSize, total)
		var results []product.Product
		if w.Limit > 0 {
			results, err = s.catalog.ListPage(ctx, w.Offset, w.Limit)
			if err != nil {
				return page.Page{}, false, fmt.Errorf("list products: %w", err)
			}
		}
		return page.New(number, s.pageSize, total, results), true, nil
	})
}

// Search returns one page of the ranked result set for q. Count is the size
// of the whole ranked set, so it does not depend on the page.
func (s *Service) Search(ctx context.Context, q query.Query) (page.Page, error) {
	if q.IsEmpty() {
		return page.Page{}, fmt.Errorf("%w: query is required", domain.ErrValidation)
	}
	fp := fingerprint.New(fingerprint.OpSearch, q.Normalized(), q.Filter().Canonical(), q.Page())

	return cached(ctx, s, fp, func(ctx context.Context) (page.Page, bool, error) {
		ranked, err := s.ranker.Rank(ctx, q)
		if err != nil {
			return page.Page{}, false, fmt.Errorf("rank: %w", err)
		}
		w := page.Bounds(q.Page(), s.pageSize, len(ranked))
		slice := ranked[w.Offset:w.End()]

		var results []product.Product
		if len(slice) > 0 {
			results, err = s.projections(ctx, slice)
			if err != nil {
				return page.Page{}, false, err
			}
		}
		// A short page means records vanished after ranking; serve it once
		// without caching.
		complete := len(results) == len(slice)
		return page.New(q.Page(), s.pageSize, len(ranked), results), complete, nil
	})
}

// projections fetches the records of ms in rank order and attaches scores.
func (s *Service) projections(ctx context.Context, ms []match.Match) ([]product.Product, error) {
	ps, err := s.catalog.FetchByIDs(ctx, match.IDs(ms))
	if err != nil {
		return nil, fmt.Errorf("fetch products: %w", err)
	}
	scores := make(map[int64]float64, len(ms))
	for _, m := range ms {
		scores[m.ID()] = m.Score()
	}
	out := make([]product.Product, len(ps))
	for i, p := range ps {
		out[i] = p.WithRank(scores[p.ID])
	}
	if len(out) < len(ms) {
		s.logger.Warn("Ranked products missing from catalog",
			zap.Int("ranked", len(ms)), zap.Int("fetched", len(out)))
	}
	return out, nil
}

// Get returns one product projection.
func (s *Service) Get(ctx context.Context, id int64) (product.Product, error) {
	if id < 1 {
		return product.Product{}, fmt.Errorf("%w: invalid product id %d", domain.ErrValidation, id)
	}
	fp := fingerprint.New(fingerprint.OpProduct, strconv.FormatInt(id, 10), "", 1)

	return cached(ctx, s, fp, func(ctx context.Context) (product.Product, bool, error) {
		p, err := s.catalog.Get(ctx, id)
		if err != nil {
			return product.Product{}, false, fmt.Errorf("get product: %w", err)
		}
		return p, true, nil
	})
}

// Invalidate drops cached values of op, or of every op when op is empty.
func (s *Service) Invalidate(ctx context.Context, op fingerprint.Op) (int, error) {
	n, err := s.cache.Invalidate(ctx, op)
	if err != nil {
		return 0, fmt.Errorf("invalidate cache: %w", err)
	}
	return n, nil
}

// cached returns the cached value for fp or computes, stores and returns it.
// Failed computations, and those compute reports as incomplete, are never
// cached. With coalescing on, concurrent misses
// share one computation, run detached from any single caller's cancellation
// and bounded by the flight timeout; each caller still stops waiting when its
// own context ends.
func cached[T any](
	ctx context.Context, s *Service, fp fingerprint.Fingerprint, compute func(context.Context) (T, bool, error),
) (T, error) {
	var v T
	if s.cache.Get(ctx, fp, &v) {
		return v, nil
	}

	load := func(ctx context.Context) (T, error) {
		v, complete, err := compute(ctx)
		if err != nil {
			return v, err
		}
		if complete {
			s.cache.Put(ctx, fp, v)
		}
		return v, nil
	}

	if s.flight == nil {
		return load(ctx)
	}

	ch := s.flight.DoChan(fp.String(), func() (any, error) {
		detached, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		var hit T
		// A flight that started after a previous one stored the value.
		if s.cache.Get(detached, fp, &hit) {
			return hit, nil
		}
		return load(detached)
	})

	select {
	case <-ctx.Done():
		var zero T
		return zero, fmt.Errorf("wait for %s: %w", fp.Op(), ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			var zero T
			return zero, res.Err
		}
		out, ok := res.Val.(T)
		if !ok {
			var zero T
			return zero, errors.New("unexpected coalesced result type")
		}
		return out, nil
	}
}
