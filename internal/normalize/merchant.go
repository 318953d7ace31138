package normalize

import (
	"strings"
	"unicode"
)

// Merchant produces the canonical match key for a merchant string:
// lower-cased, punctuation stripped, whitespace collapsed. The raw string is
// kept separately for display.
func Merchant(raw string) string {
	var b strings.Builder
	lastSpace := true
	for _, r := range strings.ToLower(raw) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		default:
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}
