package catalog

import (
	"context"
	"errors"
	"os"
	"testing"

	"go.uber.org/zap"

	"github.com/MrMohammed1/Miran-Search/internal/db/postgres"
	"github.com/MrMohammed1/Miran-Search/internal/domain"
	"github.com/MrMohammed1/Miran-Search/internal/domain/product"
	"github.com/MrMohammed1/Miran-Search/internal/domain/search/similarity"
)

// testRepo opens TEST_POSTGRES_DSN, migrates and seeds the fixture.
// The tables are truncated before seeding, so point it at a scratch database.
func testRepo(t *testing.T) *Repo {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("set TEST_POSTGRES_DSN to run catalog integration tests")
	}

	ctx := context.Background()
	gdb, err := postgres.Open(postgres.Config{DSN: dsn}, zap.NewNop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = postgres.Close(gdb) })

	if err := postgres.Migrate(ctx, gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := gdb.Exec("TRUNCATE TABLE products, categories RESTART IDENTITY").Error; err != nil {
		t.Fatalf("truncate: %v", err)
	}

	r := NewRepo(gdb, 0)
	cats, err := r.UpsertCategories(ctx, []product.Category{catFruits, catDairy})
	if err != nil {
		t.Fatalf("upsert categories: %v", err)
	}
	bySlug := map[string]product.Category{}
	for _, c := range cats {
		bySlug[c.Slug] = c
	}

	// Insert in id order so serial ids line up with the fixture.
	ps := newFixtureMemory().records
	seed := make([]product.Product, len(ps))
	for i, rec := range ps {
		p := rec.product
		p.Category = bySlug[p.Category.Slug]
		seed[i] = p
	}
	if err := r.InsertProducts(ctx, seed, 2); err != nil {
		t.Fatalf("insert: %v", err)
	}
	return r
}

func TestRepo_SubstringSearch(t *testing.T) {
	r := testRepo(t)
	ctx := context.Background()

	got, err := r.SubstringSearch(ctx, product.SearchFields, "apple", product.Filter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !equalIDs(got, []int64{1, 3, 5}) {
		t.Errorf("got %v", got)
	}

	got, err = r.SubstringSearch(ctx, product.SearchFields, "apple", product.Filter{CaloriesMax: ptr(60)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !equalIDs(got, []int64{1}) {
		t.Errorf("got %v", got)
	}

	got, err = r.SubstringSearch(ctx, product.SearchFields, "apple", product.Filter{Category: "dairy"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no dairy matches, got %v", got)
	}
}

func TestRepo_SimilaritySearch(t *testing.T) {
	r := testRepo(t)
	ctx := context.Background()

	got, err := r.SimilaritySearch(ctx, product.SearchFields, similarity.Normalize("تفاح"), 0.3, product.Filter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) == 0 || got[0].ID() != 2 {
		t.Fatalf("expected تفاحة first, got %+v", got)
	}

	got, err = r.SimilaritySearch(ctx, product.SearchFields, "aple", 0.3, product.Filter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) == 0 || got[0].ID() != 1 {
		t.Fatalf("expected Apple first, got %+v", got)
	}
	for _, m := range got {
		if m.Score() <= 0.3 {
			t.Errorf("score %f not above threshold", m.Score())
		}
	}
}

func TestRepo_ListFetchGet(t *testing.T) {
	r := testRepo(t)
	ctx := context.Background()

	n, err := r.Count(ctx)
	if err != nil || n != 5 {
		t.Fatalf("count = %d, %v", n, err)
	}

	page, err := r.ListPage(ctx, 0, 2)
	if err != nil || len(page) != 2 || page[0].ID != 1 || page[0].Category.Slug != "fruits" {
		t.Errorf("unexpected page: %+v, %v", page, err)
	}

	ps, err := r.FetchByIDs(ctx, []int64{4, 99, 2})
	if err != nil || len(ps) != 2 || ps[0].ID != 4 || ps[1].ID != 2 {
		t.Errorf("unexpected fetch: %+v, %v", ps, err)
	}

	if _, err := r.Get(ctx, 99); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := r.Ping(ctx); err != nil {
		t.Errorf("ping: %v", err)
	}
}

func TestRepo_ClosedDatabaseIsUnavailable(t *testing.T) {
	r := testRepo(t)
	sqlDB, err := r.db.DB()
	if err != nil {
		t.Fatal(err)
	}
	_ = sqlDB.Close()

	_, err = r.Count(context.Background())
	if !errors.Is(err, domain.ErrDependencyUnavailable) {
		t.Errorf("expected ErrDependencyUnavailable, got %v", err)
	}
}
