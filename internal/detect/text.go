// Package detect turns OCR output into decisions: whether a frame shows the
// death banner and which boss names are plausible.
package detect

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var upper = cases.Upper(language.Und)

// Upper uppercases s with full Unicode case mapping.
func Upper(s string) string {
	return upper.String(s)
}

// FoldAccents strips combining marks so "PÉRI" becomes "PERI".
func FoldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// RemoveSpaces drops every whitespace rune.
func RemoveSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// Clean keeps letters, whitespace and the punctuation found in boss names,
// then collapses runs of whitespace. Clean is idempotent.
func Clean(s string) string {
	kept := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsSpace(r) || strings.ContainsRune(nameMarks, r) {
			return r
		}
		return -1
	}, s)
	return strings.Join(strings.Fields(kept), " ")
}

const nameMarks = "'-,:.()"
