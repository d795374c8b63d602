// Package sanitize maps arbitrary text to names that are safe to use as a
// file name on common filesystems and inside a Content-Disposition header.
package sanitize

import (
	"strings"
	"unicode"
)

// Fallback is returned for non-empty text that has nothing usable left.
const Fallback = "untitled"

const maxRunes = 150

// Filename keeps letters, digits, underscores and hyphens, turns runs of
// whitespace into a single underscore and drops everything else. The result
// is deterministic and never empty for non-empty input. Empty input gives
// an empty string so callers can choose their own default.
func Filename(text string) string {
	if text == "" {
		return ""
	}

	var b strings.Builder
	pendingSpace := false
	n := 0
	for _, r := range text {
		if n >= maxRunes {
			break
		}
		switch {
		case unicode.IsSpace(r):
			pendingSpace = b.Len() > 0
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '_', r == '-':
			if pendingSpace {
				b.WriteByte('_')
				n++
				pendingSpace = false
			}
			b.WriteRune(r)
			n++
		}
	}

	if b.Len() == 0 {
		return Fallback
	}
	return b.String()
}

// IsASCII reports whether s can go into a quoted header parameter as is.
func IsASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= unicode.MaxASCII || s[i] < 0x20 {
			return false
		}
	}
	return true
}
