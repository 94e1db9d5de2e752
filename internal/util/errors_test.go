package util

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpErrorMatchesKindAndCause(t *testing.T) {
	err := WrapOp("embed", ErrEmbeddingUnavailable, context.DeadlineExceeded)
	require.ErrorIs(t, err, ErrEmbeddingUnavailable)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.NotErrorIs(t, err, ErrGeneration)
	require.Equal(t, "embed: embedding unavailable: context deadline exceeded", err.Error())

	var opErr *OpError
	require.True(t, errors.As(fmt.Errorf("outer: %w", err), &opErr))
	require.Equal(t, "embed", opErr.Op)
}

func TestOpErrorWithoutCause(t *testing.T) {
	err := WrapOp("insert", ErrStoreWrite, nil)
	require.Equal(t, "insert: store write error", err.Error())
	require.ErrorIs(t, err, ErrStoreWrite)
}
