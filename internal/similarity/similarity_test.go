package similarity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct{ in, want string }{
		{in: "The cat sat.", want: "the cat sat"},
		{in: "  Hello,\tWORLD!  again ", want: "hello world again"},
		{in: "it's 3:30", want: "it s 3 30"},
		{in: "...", want: ""},
		{in: "", want: ""},
	}
	for _, tc := range tests {
		require.Equal(t, tc.want, Normalize(tc.in), "input %q", tc.in)
	}
}

func TestScoreIdenticalAfterNormalization(t *testing.T) {
	require.Equal(t, 100.0, Score("The cat sat.", "the cat sat"))
}

func TestScoreEmptySides(t *testing.T) {
	require.Zero(t, Score("", "anything"))
	require.Zero(t, Score("anything", "   "))
	require.Zero(t, Score("!!!", "?"))
}

func TestScorePartialMatch(t *testing.T) {
	// "abcd" vs "abce": three matching characters out of eight total.
	require.Equal(t, 75.0, Score("abcd", "abce"))
	require.Equal(t, 0.0, Score("abc", "xyz"))
}

func TestScoreRoundsToTwoDecimals(t *testing.T) {
	// 2*3/9 = 0.6666...
	require.Equal(t, 66.67, Score("abc", "abcdef"))
}

func TestRound2UsesExactBinaryValue(t *testing.T) {
	require.Equal(t, 0.12, round2(0.125))
	require.Equal(t, 0.38, round2(0.375))
	require.Equal(t, 2.67, round2(2.675))
	require.Equal(t, 87.5, round2(87.5))
	require.Equal(t, 100.0, round2(100))
}
