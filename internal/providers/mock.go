package providers

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// MockProvider embeds deterministically from a hash of the input and answers
// with the first line of context it was given. It needs no network.
type MockProvider struct {
	dim int
}

func NewMockProvider(dim int) *MockProvider {
	if dim <= 0 {
		dim = 1024
	}
	return &MockProvider{dim: dim}
}

func (m *MockProvider) Embed(ctx context.Context, req EmbedRequest) ([][]float32, ProviderInfo, error) {
	_ = ctx
	dim := req.Dimension
	if dim <= 0 {
		dim = m.dim
	}
	vectors := make([][]float32, 0, len(req.Inputs))
	for _, input := range req.Inputs {
		vectors = append(vectors, deterministicVector(input, dim))
	}
	return vectors, ProviderInfo{Name: "mock", Model: fmt.Sprintf("mock-embed-%d", dim), Key: "mock"}, nil
}

func (m *MockProvider) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	_ = ctx
	text := "Mock response."
	if line := firstContextLine(req.Prompt); line != "" {
		text = "Mock response based on: " + line
	}
	return GenerateResponse{Text: text}, ProviderInfo{Name: "mock", Model: "mock-llm-v1", Key: "mock"}, nil
}

// firstContextLine returns the first non-empty line after the template's
// lead-in, which is the start of the highest ranked chunk.
func firstContextLine(prompt string) string {
	lines := strings.Split(prompt, "\n")
	for i, l := range lines {
		if strings.HasPrefix(strings.TrimSpace(l), "Answer the question based only") {
			for _, next := range lines[i+1:] {
				next = strings.TrimSpace(next)
				if next == "---" {
					return ""
				}
				if next != "" {
					return next
				}
			}
		}
	}
	return ""
}

func deterministicVector(input string, dim int) []float32 {
	vec := make([]float32, dim)
	seed := []byte(input)
	for i := 0; i < dim; i++ {
		h := sha256.Sum256(append(seed, byte(i%251), byte(i/251)))
		u := binary.BigEndian.Uint32(h[:4])
		vec[i] = float32(u%2000)/1000.0 - 1.0
	}
	return normalize(vec)
}

func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	inv := float32(1.0 / math.Sqrt(sum))
	for i := range v {
		v[i] *= inv
	}
	return v
}
