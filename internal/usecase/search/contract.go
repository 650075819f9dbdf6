package search

import (
	"context"

	"github.com/MrMohammed1/Miran-Search/internal/domain/product"
	"github.com/MrMohammed1/Miran-Search/internal/domain/search/match"
)

// Catalog is the read side of the catalog the ranker scans. Text arguments
// are normalized.
type Catalog interface {
	// SubstringSearch returns ids of products whose fields contain text.
	SubstringSearch(ctx context.Context, fields []product.Field, text string, f product.Filter) ([]int64, error)

	// SimilaritySearch returns products whose best field similarity to text
	// is strictly above threshold.
	SimilaritySearch(
		ctx context.Context, fields []product.Field, text string, threshold float64, f product.Filter,
	) ([]match.Match, error)
}
