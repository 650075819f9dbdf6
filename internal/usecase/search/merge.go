package search

import "github.com/MrMohammed1/Miran-Search/internal/domain/search/match"

// merge unions both candidate sets by id. A substring hit scores at least
// floor; a record in both sets keeps the higher score.
func merge(substring []int64, similar []match.Match, floor float64) []match.Match {
	byID := make(map[int64]match.Match, len(substring)+len(similar))
	for _, m := range similar {
		byID[m.ID()] = m
	}
	for _, id := range substring {
		score := floor
		if m, ok := byID[id]; ok && m.Score() > score {
			score = m.Score()
		}
		byID[id] = match.New(id, score, match.Substring)
	}

	out := make([]match.Match, 0, len(byID))
	for _, m := range byID {
		out = append(out, m)
	}
	match.Sort(out)
	return out
}
