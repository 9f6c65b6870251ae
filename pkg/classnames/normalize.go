// Package classnames builds CSS class strings from ordered fragments.
//
// Every fragment is normalized (trimmed, interior whitespace collapsed to a
// single space), absent or blank fragments are dropped, and the survivors are
// joined with one space in their original order.
//
// Concat is the static entry point: it takes plain strings and, when every
// argument is a constant, `classnames generate` folds the call into a Go
// const ahead of time. Build is the dynamic entry point and accepts the full
// fragment grammar (When, Choose, Maybe, Computed, Group). Both run the same
// pipeline and return identical strings for identical effective input.
package classnames

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Normalize trims s and replaces every run of whitespace inside it with a
// single ASCII space. Whitespace is whatever unicode.IsSpace reports.
func Normalize(s string) string {
	if isNormalized(s) {
		return s
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(s))

	// Invalid UTF-8 bytes are copied through untouched.
	space := false
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if unicode.IsSpace(r) {
			if !space {
				b.WriteByte(' ')
				space = true
			}
		} else {
			space = false
			b.WriteString(s[i : i+size])
		}
		i += size
	}
	return b.String()
}

// isNormalized reports whether s has no leading or trailing whitespace and
// no whitespace other than single ASCII spaces.
func isNormalized(s string) bool {
	prevSpace := true
	for i := 0; i < len(s); {
		c := s[i]
		if c < utf8.RuneSelf {
			switch {
			case c == ' ':
				if prevSpace {
					return false
				}
				prevSpace = true
			case c == '\t', c == '\n', c == '\v', c == '\f', c == '\r':
				return false
			default:
				prevSpace = false
			}
			i++
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		if unicode.IsSpace(r) {
			return false
		}
		prevSpace = false
		i += size
	}
	return len(s) == 0 || !prevSpace
}
