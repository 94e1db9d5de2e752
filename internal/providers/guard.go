package providers

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"docudive/internal/util"
)

// MaxEmbedInputRunes bounds a single embedding input.
const MaxEmbedInputRunes = 32000

// guardedEmbedder validates inputs and tags every failure with the error
// kinds callers branch on. It does not retry.
type guardedEmbedder struct {
	inner EmbeddingProvider
	dim   int
}

func (g guardedEmbedder) Embed(ctx context.Context, req EmbedRequest) ([][]float32, ProviderInfo, error) {
	op := "embed"
	if req.Operation != "" {
		op = "embed " + req.Operation
	}
	if len(req.Inputs) == 0 {
		return nil, ProviderInfo{}, util.WrapOp(op, util.ErrInvalidInput, fmt.Errorf("no inputs"))
	}
	for i, in := range req.Inputs {
		if strings.TrimSpace(in) == "" {
			return nil, ProviderInfo{}, util.WrapOp(op, util.ErrInvalidInput, fmt.Errorf("input %d is empty", i))
		}
		if n := utf8.RuneCountInString(in); n > MaxEmbedInputRunes {
			return nil, ProviderInfo{}, util.WrapOp(op, util.ErrInvalidInput, fmt.Errorf("input %d has %d runes, limit %d", i, n, MaxEmbedInputRunes))
		}
	}
	if req.Dimension <= 0 {
		req.Dimension = g.dim
	}
	vectors, info, err := g.inner.Embed(ctx, req)
	if err != nil {
		kind := util.ErrEmbeddingUnavailable
		if ClassifyError(err) == ErrorContext {
			kind = util.ErrInvalidInput
		}
		return nil, info, util.WrapOp(op+" via "+info.Name, kind, err)
	}
	if len(vectors) != len(req.Inputs) {
		return nil, info, util.WrapOp(op+" via "+info.Name, util.ErrEmbeddingUnavailable, fmt.Errorf("got %d vectors for %d inputs", len(vectors), len(req.Inputs)))
	}
	return vectors, info, nil
}

type guardedGenerator struct {
	inner LLMProvider
}

func (g guardedGenerator) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	op := "generate"
	if req.Operation != "" {
		op = "generate " + req.Operation
	}
	resp, info, err := g.inner.Generate(ctx, req)
	if err != nil {
		return GenerateResponse{}, info, util.WrapOp(fmt.Sprintf("%s via %s (%s)", op, info.Name, ClassifyError(err)), util.ErrGeneration, err)
	}
	return resp, info, nil
}
