package sanitizex

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanSingleLine(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "trims", in: "  hello  ", want: "hello"},
		{name: "collapses whitespace", in: "a \t\n b", want: "a b"},
		{name: "control chars become spaces", in: "a\x00b\x7fc", want: "a b c"},
		{name: "NFC normalization", in: "e\u0301", want: "\u00e9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanSingleLine(tt.in))
		})
	}
}

func TestCleanEmail(t *testing.T) {
	assert.Equal(t, "", CleanEmail(""))
	assert.Equal(t, "John.Doe@Example.com", CleanEmail("  John.Doe@Example.com \n"))
	assert.Equal(t, "ab@c.d", CleanEmail("a b@c.d"))
}

func TestCleanToken(t *testing.T) {
	assert.Equal(t, "ABC123", CleanToken(" ABC 123\t"))
	assert.Equal(t, "", CleanToken("\n\r "))
}
