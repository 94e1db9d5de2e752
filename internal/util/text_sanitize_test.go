package util

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSanitizeTextRemovesNulAndControls(t *testing.T) {
	require.Equal(t, "abcd\n\txy", SanitizeText("ab\x00cd\x01\x02\n\txy"))
}

func TestSanitizeTextKeepsParagraphBreaks(t *testing.T) {
	require.Equal(t, "one\n\ntwo", SanitizeText("  one\n\ntwo\x7f  "))
}

func TestIsPDF(t *testing.T) {
	require.True(t, IsPDF("Rules.PDF"))
	require.False(t, IsPDF("notes.txt"))
}
