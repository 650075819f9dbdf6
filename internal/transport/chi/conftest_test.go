package chi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/MrMohammed1/Miran-Search/internal/db/memory"
	"github.com/MrMohammed1/Miran-Search/internal/domain/product"
	"github.com/MrMohammed1/Miran-Search/internal/domain/search/match"
	"github.com/MrMohammed1/Miran-Search/internal/domain/search/query"
	"github.com/MrMohammed1/Miran-Search/internal/repository/catalog"
	"github.com/MrMohammed1/Miran-Search/internal/repository/pagecache"
	healthuc "github.com/MrMohammed1/Miran-Search/internal/usecase/health"
	productsuc "github.com/MrMohammed1/Miran-Search/internal/usecase/products"
	searchuc "github.com/MrMohammed1/Miran-Search/internal/usecase/search"
)

// failingRanker always fails with err.
type failingRanker struct {
	err error
}

func (f *failingRanker) Rank(_ context.Context, _ query.Query) ([]match.Match, error) {
	return nil, f.err
}

// mockPinger returns err from Ping.
type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

func testProducts() []product.Product {
	fruits := product.Category{ID: 1, Name: "Fruits", Slug: "fruits"}
	dairy := product.Category{ID: 2, Name: "Dairy", Slug: "dairy"}
	ps := []product.Product{
		{ID: 1, Name: "Apple", Brand: "Organic", Category: fruits, Calories: 52},
		{ID: 2, Name: "تفاحة", Brand: "مزارع", Category: fruits, Calories: 52},
		{ID: 3, Name: "Cheese", Brand: "Almarai", Category: dairy, Calories: 400},
	}
	for i := 4; i <= 40; i++ {
		ps = append(ps, product.Product{
			ID: int64(i), Name: "Green Apple " + string(rune('A'+i%26)), Brand: "Orchard", Category: fruits, Calories: 60 + i,
		})
	}
	return ps
}

type serverOpts struct {
	ranker       productsuc.Ranker
	catalogPing  error
	apiKeys      []string
	publicBase   string
	cacheEnabled bool
}

type serverFixture struct {
	handler http.Handler
	store   *memory.Store
}

// newTestServer wires the API over the in-memory catalog and cache.
func newTestServer(t *testing.T, o serverOpts) *serverFixture {
	t.Helper()
	logger := zap.NewNop()

	mem := catalog.NewMemory(3, 0)
	mem.Load(testProducts())

	ranker := o.ranker
	if ranker == nil {
		ranker = searchuc.New(mem, searchuc.Config{}, searchuc.Metrics{}, logger)
	}

	var (
		store *memory.Store
		cache *pagecache.Cache
	)
	var cachePinger healthuc.Pinger
	if o.cacheEnabled {
		store = memory.NewStore(100)
		cache = pagecache.New(store, pagecache.Options{TTL: time.Minute}, logger)
		cachePinger = store
	} else {
		cache = pagecache.New(nil, pagecache.Options{}, logger)
	}

	svc := productsuc.New(ranker, mem, cache, productsuc.Config{PageSize: 30}, logger)

	var catalogPinger healthuc.Pinger = mem
	if o.catalogPing != nil {
		catalogPinger = &mockPinger{err: o.catalogPing}
	}
	health := healthuc.New(catalogPinger, cachePinger)

	r := chi.NewRouter()
	NewServer(svc, health, Options{PublicBaseURL: o.publicBase, APIKeys: o.apiKeys}, logger).Register(r)
	return &serverFixture{handler: r, store: store}
}

func (f *serverFixture) do(t *testing.T, method, target string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, http.NoBody)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rr.Body.String())
	}
	return v
}
