package page

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/MrMohammed1/Miran-Search/internal/domain"
	"github.com/MrMohammed1/Miran-Search/internal/domain/product"
)

// DefaultSize is the number of results per page.
const DefaultSize = 30

// Page is one slice of a result set plus the metadata needed to walk it.
// Next and Previous hold adjacent page numbers, nil when that page would be empty.
type Page struct {
	Count    int               `json:"count"`
	Next     *int              `json:"next"`
	Previous *int              `json:"previous"`
	Results  []product.Product `json:"results"`
}

// Window is the offset/limit pair selecting one page out of a result set.
type Window struct {
	Offset int
	Limit  int
}

// End returns the exclusive end index of the window.
func (w Window) End() int { return w.Offset + w.Limit }

// Bounds translates a 1-based page number into a window over total items.
// Pages past the end yield an empty window at total.
func Bounds(number, size, total int) Window {
	offset := (number - 1) * size
	if offset > total {
		offset = total
	}
	end := offset + size
	if end > total {
		end = total
	}
	return Window{Offset: offset, Limit: end - offset}
}

// New assembles a page. results are copied into a non-nil slice so an empty
// page serializes as [].
func New(number, size, total int, results []product.Product) Page {
	p := Page{
		Count:   total,
		Results: make([]product.Product, 0, len(results)),
	}
	p.Results = append(p.Results, results...)

	if number*size < total {
		next := number + 1
		p.Next = &next
	}
	if number > 1 && (number-2)*size < total {
		prev := number - 1
		p.Previous = &prev
	}
	return p
}

// ParseNumber parses a page query parameter. An empty value means page 1.
func ParseNumber(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 1, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid page %q", domain.ErrValidation, raw)
	}
	if n < 1 {
		return 0, fmt.Errorf("%w: page must be >= 1, got %d", domain.ErrValidation, n)
	}
	return n, nil
}
