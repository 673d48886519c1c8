package vcard

import (
	"testing"

	"github.com/alecthomas/assert"
)

func TestContainsFold(t *testing.T) {
	tests := []struct {
		s      string
		substr string
		exp    bool
	}{
		{"John Smith", "smith", true},
		{"John Smith", "SMITH", true},
		{"John Smith", "SmItH", true},
		{"John Smith", "smithy", false},
		{"John Smith", "", true},
		{"", "", false},
		{"", "a", false},
		{"abc", "abcd", false},
		{"a@EXAMPLE.com", "example.COM", true},
		{"EMAIL;TYPE=WORK", "email", true},
		{"x[y", "X[Y", true},
		// '@' (0x40) and '`' (0x60) differ by the case bit but are not letters
		{"@", "`", false},
	}
	for _, test := range tests {
		got := ContainsFold(test.s, test.substr)
		assert.Equal(t, test.exp, got, "ContainsFold(%q, %q)", test.s, test.substr)
	}
}

// Non-ASCII is best-effort: only ASCII letters are folded,
// other bytes must match exactly.
func TestContainsFoldNonASCII(t *testing.T) {
	assert.True(t, ContainsFold("Jürgen Müller", "müller"))
	assert.True(t, ContainsFold("Jürgen Müller", "MüLLER"))
	assert.False(t, ContainsFold("Jürgen Müller", "MÜLLER"))
	assert.False(t, ContainsFold("ÅSA", "åsa"))
	assert.True(t, ContainsFold("Zoë", "ZOë"))
}
