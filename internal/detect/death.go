package detect

import (
	"strings"

	"github.com/adrg/strutil/metrics"
)

// DeathMatch is the outcome of comparing OCR text against the death phrase.
type DeathMatch struct {
	Matched    bool
	Similarity float64 // Jaro-Winkler score, 0-100
}

// MatchDeath checks text for phrase. It matches on a plain substring of the
// uppercased text, on a substring of the accent-folded text with spaces
// removed, or when the Jaro-Winkler similarity exceeds threshold.
func MatchDeath(text, phrase string, threshold float64) DeathMatch {
	target := Upper(strings.TrimSpace(phrase))
	if target == "" {
		return DeathMatch{}
	}

	up := Upper(text)
	normalized := RemoveSpaces(FoldAccents(up))

	jw := metrics.NewJaroWinkler()
	sim := jw.Compare(normalized, target) * 100

	matched := strings.Contains(up, target) ||
		strings.Contains(normalized, RemoveSpaces(FoldAccents(target))) ||
		sim > threshold
	return DeathMatch{Matched: matched, Similarity: sim}
}
