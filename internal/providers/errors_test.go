package providers

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyError(t *testing.T) {
	cases := map[string]ErrorType{
		"insufficient_quota":                     ErrorQuota,
		"429 rate":                               ErrorRate,
		"ThrottlingException":                    ErrorRate,
		"input is too long for requested model":  ErrorContext,
		"timeout":                                ErrorTransient,
		"dial tcp: connection refused":           ErrorTransient,
		"ollama generate: error 503: overloaded": ErrorTransient,
		"bad request":                            ErrorPermanent,
	}
	for msg, want := range cases {
		require.Equal(t, want, ClassifyError(errors.New(msg)), msg)
	}
	require.Equal(t, ErrorTransient, ClassifyError(fmt.Errorf("call: %w", context.DeadlineExceeded)))
	require.Equal(t, ErrorType(""), ClassifyError(nil))
}
