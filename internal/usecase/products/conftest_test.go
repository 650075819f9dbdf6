package products

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/MrMohammed1/Miran-Search/internal/db/memory"
	"github.com/MrMohammed1/Miran-Search/internal/domain/product"
	"github.com/MrMohammed1/Miran-Search/internal/domain/search/match"
	"github.com/MrMohammed1/Miran-Search/internal/domain/search/query"
	"github.com/MrMohammed1/Miran-Search/internal/repository/catalog"
	"github.com/MrMohammed1/Miran-Search/internal/repository/pagecache"
	"github.com/MrMohammed1/Miran-Search/internal/usecase/search"
)

// countingRanker wraps a Ranker and counts calls.
type countingRanker struct {
	inner  Ranker
	rankFn func(ctx context.Context, q query.Query) ([]match.Match, error)
	calls  atomic.Int32
}

func (r *countingRanker) Rank(ctx context.Context, q query.Query) ([]match.Match, error) {
	r.calls.Add(1)
	if r.rankFn != nil {
		return r.rankFn(ctx, q)
	}
	return r.inner.Rank(ctx, q)
}

// countingCatalog wraps a Catalog and counts calls.
type countingCatalog struct {
	Catalog
	countErr error
	// missing ids are dropped by FetchByIDs, as if deleted after ranking.
	missing map[int64]bool
	calls   atomic.Int32
}

func (c *countingCatalog) Count(ctx context.Context) (int, error) {
	c.calls.Add(1)
	if c.countErr != nil {
		return 0, c.countErr
	}
	return c.Catalog.Count(ctx)
}

func (c *countingCatalog) ListPage(ctx context.Context, offset, limit int) ([]product.Product, error) {
	c.calls.Add(1)
	return c.Catalog.ListPage(ctx, offset, limit)
}

func (c *countingCatalog) FetchByIDs(ctx context.Context, ids []int64) ([]product.Product, error) {
	c.calls.Add(1)
	ps, err := c.Catalog.FetchByIDs(ctx, ids)
	if err != nil || len(c.missing) == 0 {
		return ps, err
	}
	kept := ps[:0:0]
	for _, p := range ps {
		if !c.missing[p.ID] {
			kept = append(kept, p)
		}
	}
	return kept, nil
}

func (c *countingCatalog) Get(ctx context.Context, id int64) (product.Product, error) {
	c.calls.Add(1)
	return c.Catalog.Get(ctx, id)
}

// generatedProducts returns n products named "Apple <i>" plus a few others.
func generatedProducts(n int) []product.Product {
	fruits := product.Category{ID: 1, Name: "Fruits", Slug: "fruits"}
	ps := make([]product.Product, 0, n+3)
	for i := 1; i <= n; i++ {
		ps = append(ps, product.Product{
			ID: int64(i), Name: fmt.Sprintf("Apple %03d", i), Brand: "Orchard", Category: fruits, Calories: 50,
		})
	}
	ps = append(ps,
		product.Product{ID: int64(n + 1), Name: "تفاحة", Brand: "مزارع", Category: fruits},
		product.Product{ID: int64(n + 2), Name: "Cheese", Brand: "Almarai"},
		product.Product{ID: int64(n + 3), Name: "Banana", Brand: "Tropic", Category: fruits},
	)
	return ps
}

type fixture struct {
	svc     *Service
	ranker  *countingRanker
	catalog *countingCatalog
	store   *memory.Store
	cache   *pagecache.Cache
}

// newFixture wires the coordinator over the in-memory catalog, the real
// ranker and a memory-backed page cache.
func newFixture(t *testing.T, n int, coalesce bool) *fixture {
	t.Helper()
	mem := catalog.NewMemory(3, 0)
	mem.Load(generatedProducts(n))

	ranker := &countingRanker{inner: newRanker(mem)}
	cat := &countingCatalog{Catalog: mem}
	store := memory.NewStore(1000)
	cache := pagecache.New(store, pagecache.Options{TTL: time.Minute}, zap.NewNop())

	svc := New(ranker, cat, cache, Config{PageSize: 30, CoalesceMisses: coalesce}, zap.NewNop())
	return &fixture{svc: svc, ranker: ranker, catalog: cat, store: store, cache: cache}
}

func mustQuery(t *testing.T, raw string, number int) query.Query {
	t.Helper()
	q, err := query.New(raw, number, product.Filter{})
	if err != nil {
		t.Fatalf("query.New(%q): %v", raw, err)
	}
	return q
}

func newRanker(mem *catalog.Memory) Ranker {
	return search.New(mem, search.Config{}, search.Metrics{}, zap.NewNop())
}
