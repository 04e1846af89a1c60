package domain

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// FoldText lowercases s, strips diacritics and replaces every run of
// characters that are not letters or digits with one space.
// "Copo Plástico-Descartável" becomes "copo plastico descartavel".
// Heuristic matching, cache keys and the supplier directory all compare
// folded text.
func FoldText(s string) string {
	if s == "" {
		return ""
	}
	// A chained transformer keeps state, so each call builds its own.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	lower := strings.ToLower(s)
	folded, _, err := transform.String(t, lower)
	if err != nil {
		folded = lower
	}
	return strings.Join(strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}), " ")
}
