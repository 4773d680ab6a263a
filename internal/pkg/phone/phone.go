// Package phone normalizes phone numbers to a canonical digits-only form.
// All stores and repositories key on the normalized form so that
// "+1 (555) 123" and "1555123" address the same account.
package phone

import "strings"

// Normalize strips whitespace and every non-digit character.
func Normalize(raw string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(raw) {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
