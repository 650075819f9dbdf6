// Package search ranks catalog records against a query by combining a
// substring scan with an n-gram similarity scan.
package search

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/MrMohammed1/Miran-Search/internal/domain"
	"github.com/MrMohammed1/Miran-Search/internal/domain/product"
	"github.com/MrMohammed1/Miran-Search/internal/domain/search/match"
	"github.com/MrMohammed1/Miran-Search/internal/domain/search/query"
	"github.com/MrMohammed1/Miran-Search/internal/domain/search/similarity"
)

// Defaults for Config fields left at zero.
const (
	DefaultThreshold      = 0.3
	DefaultSubstringFloor = 0.5
)

// Config tunes ranking.
type Config struct {
	// Threshold is the similarity a record must exceed to match without
	// containing the query.
	Threshold float64
	// NgramSize is the scorer window; shorter queries skip the similarity scan.
	NgramSize int
	// SubstringFloor is the minimum score of a record containing the query.
	SubstringFloor float64
	// MaxCandidates is the catalog's cap on the similarity set. A full set is
	// reported as truncated. Zero disables the check.
	MaxCandidates int
}

func (c Config) withDefaults() Config {
	if c.Threshold <= 0 {
		c.Threshold = DefaultThreshold
	}
	if c.NgramSize <= 0 {
		c.NgramSize = similarity.DefaultNgramSize
	}
	if c.SubstringFloor <= 0 {
		c.SubstringFloor = DefaultSubstringFloor
	}
	return c
}

// Metrics are optional ranking instruments.
type Metrics struct {
	// Duration has label "leg" ("substring"/"trigram"/"total").
	Duration   *prometheus.HistogramVec
	Candidates prometheus.Histogram
	// CatalogErrors has label "op".
	CatalogErrors *prometheus.CounterVec
	// Truncated counts searches whose similarity set hit MaxCandidates.
	Truncated prometheus.Counter
}

// Ranker orders catalog records by relevance to a query.
type Ranker struct {
	catalog Catalog
	cfg     Config
	metrics Metrics
	logger  *zap.Logger
}

// New creates a ranker.
func New(catalog Catalog, cfg Config, m Metrics, logger *zap.Logger) *Ranker {
	return &Ranker{catalog: catalog, cfg: cfg.withDefaults(), metrics: m, logger: logger}
}

// Config returns the effective configuration.
func (r *Ranker) Config() Config { return r.cfg }

// Rank returns every record that contains the query or is similar enough to
// it, ordered by score descending then id ascending. The result is not
// truncated.
func (r *Ranker) Rank(ctx context.Context, q query.Query) ([]match.Match, error) {
	if q.IsEmpty() {
		return nil, fmt.Errorf("%w: query is required", domain.ErrValidation)
	}
	start := time.Now()
	text := q.Normalized()

	var (
		substring []int64
		similar   []match.Match
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer r.observe("substring", time.Now())
		ids, err := r.catalog.SubstringSearch(gctx, product.SearchFields, text, q.Filter())
		if err != nil {
			return r.catalogErr("substring", err)
		}
		substring = ids
		return nil
	})
	if utf8.RuneCountInString(text) >= r.cfg.NgramSize {
		g.Go(func() error {
			defer r.observe("trigram", time.Now())
			ms, err := r.catalog.SimilaritySearch(gctx, product.SearchFields, text, r.cfg.Threshold, q.Filter())
			if err != nil {
				return r.catalogErr("trigram", err)
			}
			similar = ms
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("rank: %w", ctxErr)
		}
		return nil, err
	}

	if r.cfg.MaxCandidates > 0 && len(similar) >= r.cfg.MaxCandidates {
		// Records below the cut that do not contain the query are missing from
		// the ranked set and from its count.
		r.logger.Warn("Similarity candidates truncated",
			zap.String("query", text), zap.Int("max_candidates", r.cfg.MaxCandidates))
		if r.metrics.Truncated != nil {
			r.metrics.Truncated.Inc()
		}
	}

	ranked := merge(substring, similar, r.cfg.SubstringFloor)
	r.observe("total", start)
	if r.metrics.Candidates != nil {
		r.metrics.Candidates.Observe(float64(len(ranked)))
	}
	return ranked, nil
}

func (r *Ranker) catalogErr(leg string, err error) error {
	if r.metrics.CatalogErrors != nil {
		r.metrics.CatalogErrors.WithLabelValues(leg).Inc()
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s scan: %w", leg, err)
	}
	r.logger.Error("Catalog scan failed", zap.String("leg", leg), zap.Error(err))
	if errors.Is(err, domain.ErrDependencyUnavailable) {
		return fmt.Errorf("%s scan: %w", leg, err)
	}
	return fmt.Errorf("%s scan: %w: %w", leg, domain.ErrDependencyUnavailable, err)
}

func (r *Ranker) observe(leg string, start time.Time) {
	if r.metrics.Duration != nil {
		r.metrics.Duration.WithLabelValues(leg).Observe(time.Since(start).Seconds())
	}
}
