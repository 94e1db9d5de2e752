package providers

import (
	"context"

	"docudive/internal/util"

	"golang.org/x/time/rate"
)

// RateLimited spaces out embedding calls so bulk ingestion stays under a
// provider's request quota. Each input counts as one request.
type RateLimited struct {
	inner   EmbeddingProvider
	limiter *rate.Limiter
}

func NewRateLimited(inner EmbeddingProvider, perSecond float64, burst int) *RateLimited {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimited{inner: inner, limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

func (r *RateLimited) Embed(ctx context.Context, req EmbedRequest) ([][]float32, ProviderInfo, error) {
	n := len(req.Inputs)
	if n > r.limiter.Burst() {
		n = r.limiter.Burst()
	}
	for remaining := len(req.Inputs); remaining > 0; remaining -= n {
		take := n
		if remaining < n {
			take = remaining
		}
		if err := r.limiter.WaitN(ctx, take); err != nil {
			return nil, ProviderInfo{}, util.WrapOp("embed rate limit", util.ErrEmbeddingUnavailable, err)
		}
	}
	return r.inner.Embed(ctx, req)
}
