package logging

import (
	"strings"
	"unicode/utf8"
)

const mask = "****"

// RedactEmail keeps the first 2 runes of the local part and the whole domain.
// Malformed addresses and local parts shorter than 3 runes are returned trimmed but unchanged.
func RedactEmail(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	at := strings.IndexByte(s, '@')
	if at <= 0 || at == len(s)-1 {
		return s
	}

	local, domain := s[:at], s[at+1:]
	if utf8.RuneCountInString(local) < 3 {
		return s
	}

	return prefixRunes(local, 2) + mask + "@" + domain
}

// RedactKeepPrefix keeps the first keep runes of s and masks the rest.
// Strings no longer than keep are returned unchanged.
func RedactKeepPrefix(s string, keep int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= keep {
		return s
	}
	return prefixRunes(s, keep) + mask
}

// RedactSecret is used for verification codes and tokens.
func RedactSecret(s string) string {
	if s == "" {
		return ""
	}
	return RedactKeepPrefix(s, 3)
}

func prefixRunes(s string, n int) string {
	offset := 0
	for count := 0; count < n && offset < len(s); count++ {
		_, size := utf8.DecodeRuneInString(s[offset:])
		offset += size
	}
	return s[:offset]
}
