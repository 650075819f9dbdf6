// Package catalog implements the product catalog the ranker and the list
// endpoints read from: a Postgres repository using pg_trgm and an in-process
// variant with an n-gram inverted index.
//
// Text arguments to the search methods must already be normalized with
// similarity.Normalize; both implementations compare against normalized
// name and brand values.
package catalog

import (
	"fmt"
	"strings"

	"github.com/MrMohammed1/Miran-Search/internal/domain/product"
)

// DefaultMaxCandidates caps the similarity set when no limit is configured.
const DefaultMaxCandidates = 5000

var normColumns = map[product.Field]string{
	product.FieldName:  "products.name_norm",
	product.FieldBrand: "products.brand_norm",
}

func columnsFor(fields []product.Field) ([]string, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("no search fields")
	}
	cols := make([]string, 0, len(fields))
	for _, f := range fields {
		col, ok := normColumns[f]
		if !ok {
			return nil, fmt.Errorf("unknown search field %q", f)
		}
		cols = append(cols, col)
	}
	return cols, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a LIKE pattern matching text anywhere.
func containsPattern(text string) string {
	return "%" + likeEscaper.Replace(text) + "%"
}

// orderByIDs reorders ps to follow ids. Ids without a product are skipped.
func orderByIDs(ids []int64, ps []product.Product) []product.Product {
	byID := make(map[int64]product.Product, len(ps))
	for _, p := range ps {
		byID[p.ID] = p
	}
	out := make([]product.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out
}
