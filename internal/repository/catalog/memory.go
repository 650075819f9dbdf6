package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/MrMohammed1/Miran-Search/internal/domain"
	"github.com/MrMohammed1/Miran-Search/internal/domain/product"
	"github.com/MrMohammed1/Miran-Search/internal/domain/search/match"
	"github.com/MrMohammed1/Miran-Search/internal/domain/search/similarity"
)

type memRecord struct {
	product  product.Product
	norm     map[product.Field]string
	category string
}

// Memory is an in-process catalog. Each searchable field has an inverted
// index from padded n-grams to product ids; it pre-filters both substring
// and similarity scans.
type Memory struct {
	mu            sync.RWMutex
	scorer        similarity.Scorer
	maxCandidates int
	records       []memRecord // id order
	byID          map[int64]int
	postings      map[product.Field]map[string][]int64
}

// NewMemory creates an empty in-process catalog scoring with n-grams of size n.
func NewMemory(n, maxCandidates int) *Memory {
	if maxCandidates <= 0 {
		maxCandidates = DefaultMaxCandidates
	}
	m := &Memory{scorer: similarity.NewScorer(n), maxCandidates: maxCandidates}
	m.Load(nil)
	return m
}

// Load replaces the catalog contents and rebuilds the index.
func (m *Memory) Load(ps []product.Product) {
	records := make([]memRecord, 0, len(ps))
	for _, p := range ps {
		rec := memRecord{
			product:  p,
			norm:     make(map[product.Field]string, len(product.SearchFields)),
			category: similarity.Normalize(p.Category.Name),
		}
		for _, f := range product.SearchFields {
			rec.norm[f] = similarity.Normalize(p.Text(f))
		}
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].product.ID < records[j].product.ID })

	byID := make(map[int64]int, len(records))
	postings := make(map[product.Field]map[string][]int64, len(product.SearchFields))
	for _, f := range product.SearchFields {
		postings[f] = make(map[string][]int64)
	}
	for i, rec := range records {
		byID[rec.product.ID] = i
		for _, f := range product.SearchFields {
			for g := range m.scorer.Grams(rec.norm[f]) {
				postings[f][g] = append(postings[f][g], rec.product.ID)
			}
		}
	}

	m.mu.Lock()
	m.records = records
	m.byID = byID
	m.postings = postings
	m.mu.Unlock()
}

// LoadFile loads products from a JSON array file.
func (m *Memory) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}
	var ps []product.Product
	if err := json.Unmarshal(data, &ps); err != nil {
		return fmt.Errorf("parse seed file %s: %w", path, err)
	}
	m.Load(ps)
	return nil
}

// SubstringSearch returns ids of all products whose normalized fields contain
// text, in id order. The set is never truncated.
func (m *Memory) SubstringSearch(
	ctx context.Context, fields []product.Field, text string, f product.Filter,
) ([]int64, error) {
	if _, err := columnsFor(fields); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	inner := m.scorer.InnerGrams(text)
	hit := make(map[int64]struct{})
	for _, field := range fields {
		for _, idx := range m.candidates(field, inner) {
			rec := &m.records[idx]
			if strings.Contains(rec.norm[field], text) && m.matches(rec, f) {
				hit[rec.product.ID] = struct{}{}
			}
		}
	}

	ids := make([]int64, 0, len(hit))
	for id := range hit {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// candidates returns indexes of records whose field holds the rarest gram of
// grams. Callers verify the match. Without grams (text shorter than n) every
// record is a candidate.
func (m *Memory) candidates(field product.Field, grams similarity.Set) []int {
	if len(grams) == 0 {
		all := make([]int, len(m.records))
		for i := range all {
			all[i] = i
		}
		return all
	}

	var smallest []int64
	first := true
	for g := range grams {
		p := m.postings[field][g]
		if len(p) == 0 {
			return nil
		}
		if first || len(p) < len(smallest) {
			smallest, first = p, false
		}
	}

	out := make([]int, 0, len(smallest))
	for _, id := range smallest {
		out = append(out, m.byID[id])
	}
	return out
}

// SimilaritySearch returns products whose best field similarity to text is
// strictly above threshold, highest first, at most maxCandidates of them.
func (m *Memory) SimilaritySearch(
	ctx context.Context, fields []product.Field, text string, threshold float64, f product.Filter,
) ([]match.Match, error) {
	if _, err := columnsFor(fields); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	qGrams := m.scorer.Grams(text)
	best := make(map[int64]float64)
	for _, field := range fields {
		seen := make(map[int64]struct{})
		for g := range qGrams {
			for _, id := range m.postings[field][g] {
				if _, ok := seen[id]; ok {
					continue
				}
				seen[id] = struct{}{}
				rec := &m.records[m.byID[id]]
				if !m.matches(rec, f) {
					continue
				}
				s := similarity.Jaccard(qGrams, m.scorer.Grams(rec.norm[field]))
				if s > threshold && s > best[id] {
					best[id] = s
				}
			}
		}
	}

	out := make([]match.Match, 0, len(best))
	for id, s := range best {
		out = append(out, match.New(id, s, match.Trigram))
	}
	match.Sort(out)
	if len(out) > m.maxCandidates {
		out = out[:m.maxCandidates]
	}
	return out, nil
}

func (m *Memory) matches(rec *memRecord, f product.Filter) bool {
	if f.Category != "" && !strings.Contains(rec.category, f.Category) {
		return false
	}
	return f.MatchesCalories(&rec.product)
}

// Count returns the number of products.
func (m *Memory) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records), nil
}

// ListPage returns products in id order.
func (m *Memory) ListPage(_ context.Context, offset, limit int) ([]product.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if offset < 0 {
		offset = 0
	}
	if offset >= len(m.records) || limit <= 0 {
		return []product.Product{}, nil
	}
	end := min(offset+limit, len(m.records))
	out := make([]product.Product, 0, end-offset)
	for _, rec := range m.records[offset:end] {
		out = append(out, rec.product)
	}
	return out, nil
}

// FetchByIDs returns products in the order of ids. Unknown ids are skipped.
func (m *Memory) FetchByIDs(_ context.Context, ids []int64) ([]product.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]product.Product, 0, len(ids))
	for _, id := range ids {
		if idx, ok := m.byID[id]; ok {
			out = append(out, m.records[idx].product)
		}
	}
	return out, nil
}

// Get returns one product or domain.ErrNotFound.
func (m *Memory) Get(_ context.Context, id int64) (product.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	idx, ok := m.byID[id]
	if !ok {
		return product.Product{}, fmt.Errorf("get product %d: %w", id, domain.ErrNotFound)
	}
	return m.records[idx].product, nil
}

// Ping always succeeds.
func (m *Memory) Ping(_ context.Context) error {
	return nil
}
