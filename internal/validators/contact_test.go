package validators

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"(404) 555-0101", "+14045550101", true},
		{"+1 404 555 0101", "+14045550101", true},
		{"+44 20 7946 0958", "+442079460958", true},
		{"555", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := NormalizePhone(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestIsZip(t *testing.T) {
	assert.True(t, IsZip("30303"))
	assert.True(t, IsZip("30303-1234"))
	assert.False(t, IsZip("3030"))
	assert.False(t, IsZip("30303 1234"))
	assert.False(t, IsZip("ABCDE"))
}
