package validators

import (
	"strings"
	"unicode"
)

// SanitizeString trims input, collapses inner whitespace runs to one space,
// drops control characters and truncates to maxLen runes (0 means no limit).
func SanitizeString(input string, maxLen int) string {
	var b strings.Builder
	runes := 0
	pendingSpace := false
	for _, r := range strings.TrimSpace(input) {
		switch {
		case unicode.IsSpace(r):
			pendingSpace = true
			continue
		case unicode.IsControl(r):
			continue
		}
		if pendingSpace {
			if maxLen > 0 && runes+1 >= maxLen {
				break
			}
			b.WriteByte(' ')
			runes++
			pendingSpace = false
		}
		if maxLen > 0 && runes >= maxLen {
			break
		}
		b.WriteRune(r)
		runes++
	}
	return b.String()
}
