package detect

import (
	"math"
	"strings"
	"unicode"
)

const suspiciousChars = "&@#$%*=+<>|\\/^~`{}[];"

// Score rates how much a piece of OCR output looks like a boss name. raw is
// the text before cleaning. Texts shorter than five characters score zero and
// the result is never negative.
func Score(raw string) float64 {
	cleaned := Clean(raw)
	chars := []rune(cleaned)
	n := len(chars)

	var score float64

	switch {
	case n < 5:
		return 0
	case n <= 50 && n >= 8:
		score += 15
	case n <= 70:
		score += 8
	default:
		score -= 5
	}

	switch words := len(strings.Fields(cleaned)); {
	case words >= 2 && words <= 5:
		score += 10
	case words == 1:
		score += 5
	case words > 6:
		score -= 5
	}

	letters, digits := 0, 0
	for _, r := range chars {
		switch {
		case unicode.IsLetter(r):
			letters++
		case unicode.IsDigit(r):
			digits++
		}
		if strings.ContainsRune(suspiciousChars, r) {
			score -= 8
		}
	}
	score += float64(letters) / float64(n) * 20

	if digits > 2 {
		score -= 3 * float64(digits)
	}

	if unicode.IsUpper(chars[0]) {
		score += 5
	}

	if diff := math.Abs(float64(len([]rune(raw)) - n)); diff > 15 {
		score -= 0.3 * diff
	}

	if repetitive(chars) {
		score -= 12
	}

	if letterDiversity(chars) > 0.4 && !hasDoubledRune(chars) {
		score += 5
	}

	if strings.Contains(cleaned, "..") || strings.Contains(cleaned, "--") || strings.Contains(cleaned, ",,") {
		score -= 5
	}

	if strings.ContainsRune(cleaned, ' ') {
		score += 3
	}

	if chars[n-1] == chars[n-2] {
		score -= 8
	}

	return math.Max(0, score)
}

// repetitive detects three identical runes in a row or an ABABAB run.
func repetitive(chars []rune) bool {
	for i := 0; i+2 < len(chars); i++ {
		if chars[i] == chars[i+1] && chars[i] == chars[i+2] {
			return true
		}
	}
	for i := 0; i+5 < len(chars); i++ {
		a, b := chars[i], chars[i+1]
		if a != b && chars[i+2] == a && chars[i+4] == a && chars[i+3] == b && chars[i+5] == b {
			return true
		}
	}
	return false
}

func hasDoubledRune(chars []rune) bool {
	for i := 1; i < len(chars); i++ {
		if chars[i] == chars[i-1] {
			return true
		}
	}
	return false
}

// letterDiversity is the share of distinct letters among all letters. Upper
// and lower case count as different letters.
func letterDiversity(chars []rune) float64 {
	letters := 0
	unique := make(map[rune]struct{})
	for _, r := range chars {
		if unicode.IsLetter(r) {
			letters++
			unique[r] = struct{}{}
		}
	}
	if letters == 0 {
		return 0
	}
	return float64(len(unique)) / float64(letters)
}
