package similarity

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	arabicTaMarbuta = 'ة'
	arabicHeh       = 'ه'
	arabicTatweel   = 'ـ'
)

// Normalize folds text into the form both the scorer and the catalogs compare:
// compatibility decomposition, diacritics and Arabic hamza/harakat marks removed
// (so أ إ آ all become ا), ta marbuta folded to heh, Unicode case folding and
// whitespace runs collapsed to a single space.
//
// Transformers and casers are stateful, so each call builds its own.
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	t := transform.Chain(
		norm.NFKD,
		runes.Remove(runes.Predicate(droppable)),
		runes.Map(foldArabic),
		norm.NFC,
	)
	out, _, err := transform.String(t, text)
	if err != nil {
		out = text
	}

	out = cases.Fold().String(out)
	return strings.Join(strings.Fields(out), " ")
}

func droppable(r rune) bool {
	return r == arabicTatweel || unicode.Is(unicode.Mn, r)
}

func foldArabic(r rune) rune {
	if r == arabicTaMarbuta {
		return arabicHeh
	}
	return r
}
