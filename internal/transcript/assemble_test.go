package transcript

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAssemble(t *testing.T) {
	tests := []struct {
		name     string
		segments []string
		want     string
	}{
		{name: "empty", segments: nil, want: ""},
		{name: "blank segments", segments: []string{" ", "\t"}, want: ""},
		{name: "normalizes whitespace", segments: []string{"  she   sells ", "seashells\n"}, want: "she sells seashells"},
		{name: "continuation replaces prefix", segments: []string{"the quick", "the quick brown fox"}, want: "the quick brown fox"},
		{name: "shorter repeat dropped", segments: []string{"the quick brown", "the quick"}, want: "the quick brown"},
		{name: "duplicate dropped", segments: []string{"hello", "hello", "world"}, want: "hello world"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Assemble(tc.segments))
		})
	}
}
