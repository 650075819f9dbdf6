package query

import (
	"fmt"
	"unicode/utf8"

	"github.com/MrMohammed1/Miran-Search/internal/domain"
	"github.com/MrMohammed1/Miran-Search/internal/domain/product"
	"github.com/MrMohammed1/Miran-Search/internal/domain/search/similarity"
)

// MaxQueryLength is the maximum accepted query length in runes.
const MaxQueryLength = 512

// Query is a validated search request: raw text, its normalized form, the
// requested page and optional catalog filters.
type Query struct {
	raw        string
	normalized string
	page       int
	filter     product.Filter
}

// New validates and normalizes a search request. The category filter is
// normalized with the same rules as the query text.
func New(raw string, page int, filter product.Filter) (Query, error) {
	normalized := similarity.Normalize(raw)
	if normalized == "" {
		return Query{}, fmt.Errorf("%w: query is required", domain.ErrValidation)
	}
	if utf8.RuneCountInString(normalized) > MaxQueryLength {
		return Query{}, fmt.Errorf("%w: query too long (max %d chars)", domain.ErrValidation, MaxQueryLength)
	}
	if page < 1 {
		return Query{}, fmt.Errorf("%w: page must be >= 1, got %d", domain.ErrValidation, page)
	}
	if filter.CaloriesMin != nil && filter.CaloriesMax != nil && *filter.CaloriesMin > *filter.CaloriesMax {
		return Query{}, fmt.Errorf("%w: calories_min exceeds calories_max", domain.ErrValidation)
	}
	filter.Category = similarity.Normalize(filter.Category)

	return Query{raw: raw, normalized: normalized, page: page, filter: filter}, nil
}

// Raw returns the text as received.
func (q Query) Raw() string { return q.raw }

// Normalized returns the trimmed, case-folded text used for matching.
func (q Query) Normalized() string { return q.normalized }

// Page returns the requested 1-based page number.
func (q Query) Page() int { return q.page }

// Filter returns the catalog filter.
func (q Query) Filter() product.Filter { return q.filter }

// IsEmpty reports whether the query has no matchable text. Only the zero
// Query is empty; New rejects blank input.
func (q Query) IsEmpty() bool { return q.normalized == "" }
