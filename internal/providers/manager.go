package providers

import (
	"context"
	"fmt"

	"docudive/internal/config"
	"docudive/internal/util"
)

// Manager owns the embedding and generation providers selected by config.
// Both are wrapped so their errors carry the util error kinds.
type Manager struct {
	embedRef ProviderRef
	llmRef   ProviderRef
	embedder EmbeddingProvider
	llm      LLMProvider
}

func NewManager(ctx context.Context, cfg config.Config) (*Manager, error) {
	embedRef := ParseProviderRef(cfg.EmbedProvider)
	llmRef := ParseProviderRef(cfg.LLMProvider)

	embedder, err := buildEmbedder(ctx, embedRef, cfg)
	if err != nil {
		return nil, util.WrapOp("build embedding provider", util.ErrConfiguration, err)
	}
	if cfg.EmbedRPS > 0 {
		embedder = NewRateLimited(embedder, cfg.EmbedRPS, cfg.EmbedBatchSize)
	}
	llm, err := buildLLM(ctx, llmRef, cfg)
	if err != nil {
		return nil, util.WrapOp("build llm provider", util.ErrConfiguration, err)
	}
	return NewManagerWith(embedRef, embedder, llmRef, llm, cfg.EmbedDim), nil
}

// NewManagerWith wraps already constructed providers; tests use it to plug
// in fakes.
func NewManagerWith(embedRef ProviderRef, embedder EmbeddingProvider, llmRef ProviderRef, llm LLMProvider, dim int) *Manager {
	return &Manager{
		embedRef: embedRef,
		llmRef:   llmRef,
		embedder: guardedEmbedder{inner: embedder, dim: dim},
		llm:      guardedGenerator{inner: llm},
	}
}

func (m *Manager) Embedder() EmbeddingProvider { return m.embedder }
func (m *Manager) LLM() LLMProvider             { return m.llm }
func (m *Manager) EmbedRef() ProviderRef        { return m.embedRef }
func (m *Manager) LLMRef() ProviderRef          { return m.llmRef }

func buildEmbedder(ctx context.Context, ref ProviderRef, cfg config.Config) (EmbeddingProvider, error) {
	switch ref.Name {
	case "mock":
		return NewMockProvider(cfg.EmbedDim), nil
	case "ollama":
		return NewOllamaProvider(ref.KeyAlias), nil
	case "openai":
		return NewOpenAIProvider(ref.KeyAlias), nil
	case "gemini":
		return NewGeminiProvider(ctx, ref.KeyAlias)
	case "bedrock":
		return NewBedrockTitanProvider(ctx, ref.KeyAlias, cfg.AWSRegion)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", ref.Raw)
	}
}

func buildLLM(ctx context.Context, ref ProviderRef, cfg config.Config) (LLMProvider, error) {
	switch ref.Name {
	case "mock":
		return NewMockProvider(cfg.EmbedDim), nil
	case "ollama":
		return NewOllamaProvider(ref.KeyAlias), nil
	case "openai":
		return NewOpenAIProvider(ref.KeyAlias), nil
	case "groq":
		return NewGroqProvider(ref.KeyAlias), nil
	case "anthropic":
		return NewAnthropicProvider(ref.KeyAlias), nil
	case "gemini":
		return NewGeminiProvider(ctx, ref.KeyAlias)
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", ref.Raw)
	}
}
