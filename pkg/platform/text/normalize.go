// Package text holds small string helpers shared by the rule catalog and the
// fetcher adapter.
package text

import (
	"strings"
	"unicode"
)

// Normalize collapses a display string to lowercase letters and digits.
// Dictionary values and attribute names arrive with inconsistent spacing,
// case and punctuation across accounts, so all comparisons go through this.
func Normalize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Digits strips everything but decimal digits, for phone and tax-id checks.
func Digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
