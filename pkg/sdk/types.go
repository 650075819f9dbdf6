package miran

import (
	"math"
	"time"

	"github.com/MrMohammed1/Miran-Search/internal/domain/product"
	"github.com/MrMohammed1/Miran-Search/internal/domain/search/page"
)

// Category is a product category.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Product is a catalog record. Rank is set on search results only.
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

// Page is one page of results. Next and Previous are adjacent page
// numbers, nil when that page would be empty.
type Page struct {
	Count    int
	Number   int
	Next     *int
	Previous *int
	Results  []Product
}

// SearchOptions narrow a search. The zero value searches page 1 of the
// whole catalog.
type SearchOptions struct {
	Page int
	// Category matches a substring of the category name, normalized like the query.
	Category    string
	CaloriesMin *float64
	CaloriesMax *float64
}

func fromInternalPage(number int, p page.Page) Page {
	out := Page{
		Count:    p.Count,
		Number:   number,
		Next:     p.Next,
		Previous: p.Previous,
		Results:  make([]Product, len(p.Results)),
	}
	for i, r := range p.Results {
		out.Results[i] = fromInternalProduct(r)
	}
	return out
}

func fromInternalProduct(p product.Product) Product {
	return Product{
		ID:          p.ID,
		Name:        p.Name,
		Brand:       p.Brand,
		Category:    Category(p.Category),
		Description: p.Description,
		Calories:    p.Calories,
		Protein:     p.Protein,
		Carbs:       p.Carbs,
		Fats:        p.Fats,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
		Rank:        p.Rank,
	}
}

func toInternalProducts(ps []Product) []product.Product {
	out := make([]product.Product, len(ps))
	for i, p := range ps {
		out[i] = product.Product{
			ID:          p.ID,
			Name:        p.Name,
			Brand:       p.Brand,
			Category:    product.Category(p.Category),
			Description: p.Description,
			Calories:    p.Calories,
			Protein:     p.Protein,
			Carbs:       p.Carbs,
			Fats:        p.Fats,
			CreatedAt:   p.CreatedAt,
			UpdatedAt:   p.UpdatedAt,
		}
	}
	return out
}

// filter converts the options. Non-finite calorie bounds are dropped.
func (o SearchOptions) filter() product.Filter {
	return product.Filter{
		Category:    o.Category,
		CaloriesMin: finite(o.CaloriesMin),
		CaloriesMax: finite(o.CaloriesMax),
	}
}

func finite(v *float64) *float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	return v
}
