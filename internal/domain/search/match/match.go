package match

import "sort"

// Source tells which candidate set produced a match.
type Source string

// Match sources.
const (
	// Substring marks a record whose name or brand contains the query.
	Substring Source = "substring"
	// Trigram marks a record whose n-gram similarity cleared the threshold.
	Trigram Source = "trigram"
)

// IsValid checks if the source is one of the supported values.
func (s Source) IsValid() bool {
	return s == Substring || s == Trigram
}

// Match is a scored candidate produced while ranking.
type Match struct {
	id     int64
	score  float64
	source Source
}

// New creates a match.
func New(id int64, score float64, source Source) Match {
	return Match{id: id, score: score, source: source}
}

// ID returns the record identifier.
func (m Match) ID() int64 { return m.id }

// Score returns the ranking score.
func (m Match) Score() float64 { return m.score }

// Source returns the candidate set the match came from.
func (m Match) Source() Source { return m.source }

// Less orders matches by score descending, then id ascending.
func Less(a, b Match) bool {
	if a.score != b.score {
		return a.score > b.score
	}
	return a.id < b.id
}

// Sort orders ms in place by Less. The id tie-break keeps the order total.
func Sort(ms []Match) {
	sort.Slice(ms, func(i, j int) bool { return Less(ms[i], ms[j]) })
}

// IDs returns the record ids of ms in order.
func IDs(ms []Match) []int64 {
	ids := make([]int64, len(ms))
	for i, m := range ms {
		ids[i] = m.id
	}
	return ids
}
