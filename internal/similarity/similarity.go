// Package similarity scores a spoken attempt against its reference text.
package similarity

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

var nonWord = regexp.MustCompile(`[^a-z0-9\s]`)

// Normalize lower-cases text, drops punctuation and collapses whitespace.
func Normalize(text string) string {
	lowered := strings.ToLower(text)
	return strings.Join(strings.Fields(nonWord.ReplaceAllString(lowered, " ")), " ")
}

// Score returns the character similarity of reference and attempt as a
// percentage rounded to two decimals.
func Score(reference string, attempt string) float64 {
	a := Normalize(reference)
	b := Normalize(attempt)
	if a == "" || b == "" {
		return 0
	}

	ratio := difflib.NewMatcher(characters(a), characters(b)).Ratio()
	return round2(ratio * 100)
}

// round2 rounds the exact binary value of x to two decimals, breaking exact
// ties toward the even digit.
func round2(x float64) float64 {
	rounded, err := strconv.ParseFloat(strconv.FormatFloat(x, 'f', 2, 64), 64)
	if err != nil {
		return x
	}
	return rounded
}

func characters(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
