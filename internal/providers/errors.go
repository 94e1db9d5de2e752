package providers

import (
	"context"
	"errors"
	"strings"
)

type ErrorType string

const (
	ErrorQuota     ErrorType = "quota"
	ErrorRate      ErrorType = "rate"
	ErrorTransient ErrorType = "transient"
	ErrorPermanent ErrorType = "permanent"
	ErrorContext   ErrorType = "context"
)

func ClassifyError(err error) ErrorType {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorTransient
	}
	e := strings.ToLower(err.Error())
	switch {
	case strings.Contains(e, "quota"), strings.Contains(e, "credit"), strings.Contains(e, "insufficient_quota"):
		return ErrorQuota
	case strings.Contains(e, "rate limit"), strings.Contains(e, "rate_limit"), strings.Contains(e, "429"), strings.Contains(e, "throttl"):
		return ErrorRate
	case strings.Contains(e, "context length"), strings.Contains(e, "too long"), strings.Contains(e, "too many tokens"), strings.Contains(e, "maximum context"):
		return ErrorContext
	case strings.Contains(e, "timeout"), strings.Contains(e, "temporarily"), strings.Contains(e, "unavailable"),
		strings.Contains(e, "connection refused"), strings.Contains(e, "no such host"), strings.Contains(e, " 50"):
		return ErrorTransient
	default:
		return ErrorPermanent
	}
}
