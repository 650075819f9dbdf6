// Package similarity scores text pairs by character n-gram overlap.
//
// Scoring works on sliding windows of runes rather than words, so it tolerates
// typos and needs no tokenizer for Arabic or any other script.
package similarity

import "strings"

// DefaultNgramSize is the window width used when none is configured.
const DefaultNgramSize = 3

// Set is a set of n-grams.
type Set map[string]struct{}

// Scorer computes Jaccard similarity over n-gram sets. It holds no mutable
// state and is safe for concurrent use.
type Scorer struct {
	n int
}

// NewScorer creates a scorer with window width n (DefaultNgramSize when n <= 0).
func NewScorer(n int) Scorer {
	if n <= 0 {
		n = DefaultNgramSize
	}
	return Scorer{n: n}
}

// Size returns the n-gram width.
func (s Scorer) Size() int { return s.n }

// Score normalizes both inputs and returns |A∩B| / |A∪B| of their n-gram sets.
// Identical texts score 1, texts without a shared n-gram score 0.
func (s Scorer) Score(query, field string) float64 {
	q, f := Normalize(query), Normalize(field)
	if q == f {
		return 1
	}
	return Jaccard(s.Grams(q), s.Grams(f))
}

// Grams returns the n-gram set of already-normalized text. The text is padded
// with n-1 leading spaces and one trailing space so short words still yield
// boundary grams.
func (s Scorer) Grams(normalized string) Set {
	if normalized == "" {
		return Set{}
	}
	trail := ""
	if s.n > 1 {
		trail = " "
	}
	return windows([]rune(strings.Repeat(" ", s.n-1)+normalized+trail), s.n)
}

// InnerGrams returns the unpadded n-grams of normalized text. Any text containing
// normalized as a substring contains all of its inner grams, which makes them
// usable as an index pre-filter for substring lookups. Text shorter than n has none.
func (s Scorer) InnerGrams(normalized string) Set {
	return windows([]rune(normalized), s.n)
}

func windows(r []rune, n int) Set {
	if len(r) < n {
		return Set{}
	}
	set := make(Set, len(r)-n+1)
	for i := 0; i+n <= len(r); i++ {
		set[string(r[i:i+n])] = struct{}{}
	}
	return set
}

// Jaccard computes |A∩B| / |A∪B|. Empty sets score 0.
func Jaccard(a, b Set) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	if len(a) > len(b) {
		a, b = b, a
	}
	inter := 0
	for g := range a {
		if _, ok := b[g]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}
