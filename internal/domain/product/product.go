package product

import "time"

// Field names a searchable text column of a catalog record.
type Field string

// Searchable fields.
const (
	FieldName  Field = "name"
	FieldBrand Field = "brand"
)

// SearchFields are the columns matched by product search.
var SearchFields = []Field{FieldName, FieldBrand}

// Category is a product category (e.g. Fruits / فواكه).
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Product is the read-only projection of a catalog record returned to callers.
// Rank is set only on search results.
type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Brand       string    `json:"brand"`
	Category    Category  `json:"category"`
	Description string    `json:"description"`
	Calories    int       `json:"calories"`
	Protein     float64   `json:"protein"`
	Carbs       float64   `json:"carbs"`
	Fats        float64   `json:"fats"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Rank        *float64  `json:"rank,omitempty"`
}

// WithRank returns a copy of p carrying the search score.
func (p Product) WithRank(score float64) Product {
	p.Rank = &score
	return p
}

// Text returns the value of a searchable field.
func (p *Product) Text(f Field) string {
	switch f {
	case FieldName:
		return p.Name
	case FieldBrand:
		return p.Brand
	default:
		return ""
	}
}
