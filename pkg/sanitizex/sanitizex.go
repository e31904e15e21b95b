package sanitizex

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// CleanSingleLine normalizes Unicode to NFC, replaces control characters,
// trims the string and collapses internal whitespace to a single ASCII space.
func CleanSingleLine(s string) string {
	if s == "" {
		return ""
	}
	s = norm.NFC.String(s)
	s = strings.Map(func(r rune) rune {
		if r == '\u007f' || unicode.IsControl(r) {
			return ' '
		}
		return r
	}, s)

	return strings.Join(strings.Fields(s), " ")
}

// CleanToken strips every whitespace and control character. Use it for opaque
// values such as codes and tokens which never contain spaces.
func CleanToken(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

// CleanEmail removes every whitespace and control character and normalizes to NFC.
// Case is preserved; folding is left to the caller.
func CleanEmail(s string) string {
	if s == "" {
		return ""
	}
	return norm.NFC.String(CleanToken(s))
}
