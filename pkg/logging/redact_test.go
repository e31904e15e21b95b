package logging

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedactEmail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		email    string
		expected string
	}{
		{name: "valid - normal ascii", email: "valid@gmail.com", expected: "va****@gmail.com"},
		{name: "empty", email: "", expected: ""},
		{name: "too short local - 1 rune", email: "a@b.c", expected: "a@b.c"},
		{name: "too short local - 2 runes", email: "ab@b.c", expected: "ab@b.c"},
		{name: "exact threshold - 3 runes", email: "abc@domain.com", expected: "ab****@domain.com"},
		{name: "unicode local", email: "абвгд@пример.рф", expected: "аб****@пример.рф"},
		{name: "leading and trailing whitespace", email: "   elise@example.com   ", expected: "el****@example.com"},
		{name: "malformed - no at", email: "nonsense", expected: "nonsense"},
		{name: "malformed - at at start", email: "@example.com", expected: "@example.com"},
		{name: "malformed - at at end", email: "local@", expected: "local@"},
		{name: "multiple ats - redacts up to first at", email: "first@second@domain.com", expected: "fi****@second@domain.com"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, RedactEmail(tc.email))
		})
	}
}

func TestRedactEmail_PreservesDomainSuffix(t *testing.T) {
	t.Parallel()

	out := RedactEmail("abcdef@sub.example.co.uk")
	assert.True(t, strings.HasSuffix(out, "@sub.example.co.uk"))
}

func TestRedactKeepPrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		keep     int
		expected string
	}{
		{"", 3, ""},
		{"ab", 3, "ab"},
		{"abc", 3, "abc"},
		{"abcd", 3, "abc****"},
		{"  spaced  ", 3, "spa****"},
		{"пользователь", 3, "пол****"},
		{"elevenchars", 10, "elevenchar****"},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, RedactKeepPrefix(tc.input, tc.keep))
		})
	}
}

func TestRedactSecret(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", RedactSecret(""))
	assert.Equal(t, "ABC****", RedactSecret("ABCDEFGHIJKLMNOPQRSTUVWX"))
	assert.NotContains(t, RedactSecret("eyJhbGciOiJIUzI1NiJ9.payload.sig"), "payload")
}
