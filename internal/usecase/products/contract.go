package products

import (
	"context"

	"github.com/MrMohammed1/Miran-Search/internal/domain/product"
	"github.com/MrMohammed1/Miran-Search/internal/domain/search/fingerprint"
	"github.com/MrMohammed1/Miran-Search/internal/domain/search/match"
	"github.com/MrMohammed1/Miran-Search/internal/domain/search/query"
)

// Ranker orders catalog records by relevance to a query.
type Ranker interface {
	Rank(ctx context.Context, q query.Query) ([]match.Match, error)
}

// Catalog reads product projections.
type Catalog interface {
	Count(ctx context.Context) (int, error)
	ListPage(ctx context.Context, offset, limit int) ([]product.Product, error)
	FetchByIDs(ctx context.Context, ids []int64) ([]product.Product, error)
	Get(ctx context.Context, id int64) (product.Product, error)
}

// PageCache memoizes computed values under their fingerprint.
type PageCache interface {
	Get(ctx context.Context, fp fingerprint.Fingerprint, dst any) bool
	Put(ctx context.Context, fp fingerprint.Fingerprint, v any)
	Invalidate(ctx context.Context, op fingerprint.Op) (int, error)
}
