package usecase

import (
	"strings"

	"github.com/ecoswap/backend/internal/domain"
)

// paddedText prepares folded text for whole-word phrase lookups.
func paddedText(folded string) string {
	return " " + folded + " "
}

// hasTerm reports whether the already folded and padded text contains term
// as a whole word or phrase. term must be folded.
func hasTerm(padded, term string) bool {
	return strings.Contains(padded, " "+term+" ")
}

// hasTermPrefix is hasTerm that also accepts words starting with term
// ("plastic" matches "plasticos").
func hasTermPrefix(padded, term string) bool {
	return strings.Contains(padded, " "+term)
}

// normalizeForCacheKey normalizes a string for use as cache key component.
func normalizeForCacheKey(s string) string {
	return domain.FoldText(s)
}
