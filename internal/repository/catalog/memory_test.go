package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/MrMohammed1/Miran-Search/internal/domain"
	"github.com/MrMohammed1/Miran-Search/internal/domain/product"
	"github.com/MrMohammed1/Miran-Search/internal/domain/search/similarity"
)

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestMemory_SubstringSearch(t *testing.T) {
	m := newFixtureMemory()
	ctx := context.Background()

	tests := []struct {
		name   string
		text   string
		filter product.Filter
		want   []int64
	}{
		{"name and brand", "apple", product.Filter{}, []int64{1, 3, 5}},
		{"short query scans all", "ap", product.Filter{}, []int64{1, 3, 5}},
		{"arabic", similarity.Normalize("تفاحة"), product.Filter{}, []int64{2}},
		{"calorie bound", "apple", product.Filter{CaloriesMax: ptr(60)}, []int64{1}},
		{"category filter", "apple", product.Filter{Category: "dairy"}, []int64{}},
		{"no match", "xyz", product.Filter{}, []int64{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := m.SubstringSearch(ctx, product.SearchFields, tc.text, tc.filter)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !equalIDs(got, tc.want) {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestMemory_SubstringSearch_NameOnly(t *testing.T) {
	m := newFixtureMemory()
	got, err := m.SubstringSearch(context.Background(), []product.Field{product.FieldName}, "apple", product.Filter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !equalIDs(got, []int64{1, 5}) {
		t.Errorf("got %v", got)
	}
}

func TestMemory_SubstringSearch_IgnoresMaxCandidates(t *testing.T) {
	m := NewMemory(3, 2)
	m.Load(fixtureProducts())
	got, err := m.SubstringSearch(context.Background(), product.SearchFields, "apple", product.Filter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !equalIDs(got, []int64{1, 3, 5}) {
		t.Errorf("got %v, want every containing product", got)
	}
}

func TestMemory_SimilaritySearch_MaxCandidatesKeepsBest(t *testing.T) {
	full, err := newFixtureMemory().SimilaritySearch(context.Background(), product.SearchFields, "aple", 0.1, product.Filter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(full) < 2 {
		t.Fatalf("fixture should yield several similar products, got %d", len(full))
	}

	m := NewMemory(3, 1)
	m.Load(fixtureProducts())
	got, err := m.SimilaritySearch(context.Background(), product.SearchFields, "aple", 0.1, product.Filter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID() != full[0].ID() {
		t.Errorf("expected only the best match %d, got %+v", full[0].ID(), got)
	}
}

func TestMemory_SimilaritySearch_Typo(t *testing.T) {
	m := newFixtureMemory()
	got, err := m.SimilaritySearch(context.Background(), product.SearchFields, "aple", 0.3, product.Filter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) == 0 || got[0].ID() != 1 {
		t.Fatalf("expected Apple first, got %+v", got)
	}
	if math.Abs(got[0].Score()-4.0/7.0) > 1e-9 {
		t.Errorf("expected score 4/7, got %f", got[0].Score())
	}
	for i, mt := range got {
		if mt.Score() <= 0.3 {
			t.Errorf("score %f not above threshold", mt.Score())
		}
		if i > 0 && mt.Score() > got[i-1].Score() {
			t.Error("results not sorted by score")
		}
	}
}

func TestMemory_SimilaritySearch_Arabic(t *testing.T) {
	m := newFixtureMemory()
	got, err := m.SimilaritySearch(context.Background(), product.SearchFields, similarity.Normalize("تفاح"), 0.3, product.Filter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID() != 2 {
		t.Fatalf("expected تفاحة, got %+v", got)
	}
}

func TestMemory_SimilaritySearch_MatchesScorer(t *testing.T) {
	m := newFixtureMemory()
	s := similarity.NewScorer(3)
	got, err := m.SimilaritySearch(context.Background(), []product.Field{product.FieldName}, "aple", 0, product.Filter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, mt := range got {
		p, _ := m.Get(context.Background(), mt.ID())
		if want := s.Score("aple", p.Name); math.Abs(mt.Score()-want) > 1e-9 {
			t.Errorf("id %d: score %f, scorer says %f", mt.ID(), mt.Score(), want)
		}
	}
}

func TestMemory_SimilaritySearch_Filter(t *testing.T) {
	m := newFixtureMemory()
	got, err := m.SimilaritySearch(context.Background(), product.SearchFields, "aple", 0.3, product.Filter{Category: "dairy"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no dairy matches, got %+v", got)
	}
}

func TestMemory_Search_Errors(t *testing.T) {
	m := newFixtureMemory()

	if _, err := m.SubstringSearch(context.Background(), nil, "apple", product.Filter{}); err == nil {
		t.Error("expected error for no fields")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := m.SimilaritySearch(ctx, product.SearchFields, "apple", 0.3, product.Filter{}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestMemory_ListAndCount(t *testing.T) {
	m := newFixtureMemory()
	ctx := context.Background()

	n, _ := m.Count(ctx)
	if n != 5 {
		t.Fatalf("expected 5, got %d", n)
	}

	page, _ := m.ListPage(ctx, 0, 2)
	if len(page) != 2 || page[0].ID != 1 || page[1].ID != 2 {
		t.Errorf("unexpected first page: %+v", page)
	}
	page, _ = m.ListPage(ctx, 4, 2)
	if len(page) != 1 || page[0].ID != 5 {
		t.Errorf("unexpected last page: %+v", page)
	}
	page, _ = m.ListPage(ctx, 10, 2)
	if page == nil || len(page) != 0 {
		t.Errorf("expected empty non-nil page, got %+v", page)
	}
}

func TestMemory_FetchAndGet(t *testing.T) {
	m := newFixtureMemory()
	ctx := context.Background()

	ps, _ := m.FetchByIDs(ctx, []int64{5, 42, 1})
	if len(ps) != 2 || ps[0].ID != 5 || ps[1].ID != 1 {
		t.Errorf("unexpected fetch: %+v", ps)
	}

	p, err := m.Get(ctx, 4)
	if err != nil || p.Name != "Cheese" {
		t.Errorf("unexpected get: %+v, %v", p, err)
	}
	if _, err := m.Get(ctx, 42); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemory_LoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.json")
	data, err := json.Marshal(fixtureProducts())
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	m := NewMemory(3, 0)
	if err := m.LoadFile(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n, _ := m.Count(context.Background()); n != 5 {
		t.Errorf("expected 5 products, got %d", n)
	}

	if err := m.LoadFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
