package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	cases := []struct{ input, want string }{
		{"5551234", "5551234"},
		{" 555 1234 ", "5551234"},
		{"+49 (170) 123-45-67", "491701234567"},
		{"abc", ""},
		{"", ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Normalize(c.input), "input: %q", c.input)
	}
}
