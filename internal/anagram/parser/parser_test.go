package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{"grumpy cat", []string{"grumpy", "cat"}},
		{"  Linux   rulez\t", []string{"Linux", "rulez"}},
		{"I love\nyou", []string{"I", "love", "you"}},
		{"", []string{}},
		{"   ", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.raw))
		})
	}
}

func TestParseLimit(t *testing.T) {
	n, err := ParseLimit("", 100, 1000)
	require.NoError(t, err)
	assert.Equal(t, 100, n)

	n, err = ParseLimit("25", 100, 1000)
	require.NoError(t, err)
	assert.Equal(t, 25, n)

	n, err = ParseLimit("5000", 100, 1000)
	require.NoError(t, err)
	assert.Equal(t, 1000, n)

	for _, bad := range []string{"0", "-3", "ten"} {
		_, err := ParseLimit(bad, 100, 1000)
		assert.Error(t, err, bad)
	}
}
