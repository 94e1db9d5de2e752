package util

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashReader(t *testing.T) {
	hr := NewHashReader(strings.NewReader("abc"))
	b, err := io.ReadAll(hr)
	require.NoError(t, err)
	require.Equal(t, "abc", string(b))
	require.EqualValues(t, 3, hr.Size())
	require.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", hr.SumHex())
}
