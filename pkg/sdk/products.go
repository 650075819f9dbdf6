package miran

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/MrMohammed1/Miran-Search/internal/domain/search/fingerprint"
	"github.com/MrMohammed1/Miran-Search/internal/domain/search/query"
)

// Search returns one page of products ranked by relevance to text. Arabic
// and English text are matched after the same normalization.
func (c *Client) Search(ctx context.Context, text string, opts SearchOptions) (_ Page, err error) {
	start := time.Now()
	defer func() { c.obs.observe("search", start, err, slog.Int("page", opts.Page)) }()

	number := opts.Page
	if number == 0 {
		number = 1
	}
	q, err := query.New(text, number, opts.filter())
	if err != nil {
		return Page{}, fmt.Errorf("search: %w", err)
	}

	p, err := c.products.Search(ctx, q)
	if err != nil {
		return Page{}, fmt.Errorf("search: %w", err)
	}
	return fromInternalPage(number, p), nil
}

// List returns one page of the catalog in id order. Page 0 means page 1.
func (c *Client) List(ctx context.Context, number int) (_ Page, err error) {
	start := time.Now()
	defer func() { c.obs.observe("list", start, err, slog.Int("page", number)) }()

	if number == 0 {
		number = 1
	}
	p, err := c.products.List(ctx, number)
	if err != nil {
		return Page{}, fmt.Errorf("list: %w", err)
	}
	return fromInternalPage(number, p), nil
}

// Get returns one product. A missing product fails with ErrNotFound.
func (c *Client) Get(ctx context.Context, id int64) (_ Product, err error) {
	start := time.Now()
	defer func() { c.obs.observe("get", start, err, slog.Int64("id", id)) }()

	p, err := c.products.Get(ctx, id)
	if err != nil {
		return Product{}, fmt.Errorf("get product: %w", err)
	}
	return fromInternalProduct(p), nil
}

// InvalidateCache drops every cached page and returns the number removed.
// Call it after changing the catalog.
func (c *Client) InvalidateCache(ctx context.Context) (_ int, err error) {
	start := time.Now()
	defer func() { c.obs.observe("invalidate", start, err) }()

	n, err := c.products.Invalidate(ctx, fingerprint.Op(""))
	if err != nil {
		return 0, fmt.Errorf("invalidate cache: %w", err)
	}
	return n, nil
}

// Ping checks catalog connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if h := c.Health(ctx); h.Checks["catalog"] != "ok" {
		return fmt.Errorf("ping: catalog %s", h.Checks["catalog"])
	}
	return nil
}
