package product

import (
	"strconv"
	"strings"
)

// Filter narrows a catalog scan. The zero value matches everything.
type Filter struct {
	// Category is matched as a normalized substring of the category name.
	Category    string
	CaloriesMin *float64
	CaloriesMax *float64
}

// IsEmpty reports whether the filter has no constraints.
func (f Filter) IsEmpty() bool {
	return f.Category == "" && f.CaloriesMin == nil && f.CaloriesMax == nil
}

// MatchesCalories reports whether p satisfies the calorie bounds. Category matching
// needs normalized text and is done by the catalog.
func (f Filter) MatchesCalories(p *Product) bool {
	c := float64(p.Calories)
	if f.CaloriesMin != nil && c < *f.CaloriesMin {
		return false
	}
	if f.CaloriesMax != nil && c > *f.CaloriesMax {
		return false
	}
	return true
}

// Canonical renders the filter as a stable string for cache fingerprints.
func (f Filter) Canonical() string {
	if f.IsEmpty() {
		return ""
	}
	var b strings.Builder
	b.WriteString("category=")
	b.WriteString(f.Category)
	b.WriteString(";min=")
	if f.CaloriesMin != nil {
		b.WriteString(strconv.FormatFloat(*f.CaloriesMin, 'g', -1, 64))
	}
	b.WriteString(";max=")
	if f.CaloriesMax != nil {
		b.WriteString(strconv.FormatFloat(*f.CaloriesMax, 'g', -1, 64))
	}
	return b.String()
}
