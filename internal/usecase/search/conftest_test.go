package search

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/MrMohammed1/Miran-Search/internal/domain/product"
	"github.com/MrMohammed1/Miran-Search/internal/domain/search/match"
)

// mockCatalog implements Catalog with overridable functions and call counters.
type mockCatalog struct {
	substringFn  func(ctx context.Context, fields []product.Field, text string, f product.Filter) ([]int64, error)
	similarityFn func(
		ctx context.Context, fields []product.Field, text string, threshold float64, f product.Filter,
	) ([]match.Match, error)

	substringCalls  atomic.Int32
	similarityCalls atomic.Int32
}

func (m *mockCatalog) SubstringSearch(
	ctx context.Context, fields []product.Field, text string, f product.Filter,
) ([]int64, error) {
	m.substringCalls.Add(1)
	if m.substringFn != nil {
		return m.substringFn(ctx, fields, text, f)
	}
	return nil, nil
}

func (m *mockCatalog) SimilaritySearch(
	ctx context.Context, fields []product.Field, text string, threshold float64, f product.Filter,
) ([]match.Match, error) {
	m.similarityCalls.Add(1)
	if m.similarityFn != nil {
		return m.similarityFn(ctx, fields, text, threshold, f)
	}
	return nil, nil
}

func (m *mockCatalog) calls() int32 {
	return m.substringCalls.Load() + m.similarityCalls.Load()
}

func newTestRanker(c Catalog) *Ranker {
	return New(c, Config{}, Metrics{}, zap.NewNop())
}
