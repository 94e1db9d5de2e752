package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicProvider generates answers with Claude. It has no embeddings.
type AnthropicProvider struct {
	keyName   string
	model     string
	maxTokens int
	client    anthropic.Client
	hasKey    bool
}

func NewAnthropicProvider(keyName string) *AnthropicProvider {
	apiKey := resolveKey("DOCUDIVE_ANTHROPIC_KEY_", "ANTHROPIC_API_KEY", keyName)
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if base := strings.TrimSpace(envOr("DOCUDIVE_ANTHROPIC_BASE_URL", "")); base != "" {
		opts = append(opts, option.WithBaseURL(base))
	}
	return &AnthropicProvider{
		keyName:   keyName,
		model:     envOr("DOCUDIVE_ANTHROPIC_MODEL", "claude-3-5-haiku-latest"),
		maxTokens: 1024,
		client:    anthropic.NewClient(opts...),
		hasKey:    apiKey != "",
	}
}

func (a *AnthropicProvider) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	info := ProviderInfo{Name: "anthropic", Model: a.model, Key: a.keyName}
	if !a.hasKey {
		return GenerateResponse{}, info, fmt.Errorf("anthropic key missing for alias %q", a.keyName)
	}
	maxTokens := a.maxTokens
	if req.MaxTokens > 0 {
		maxTokens = req.MaxTokens
	}
	resp, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: int64(maxTokens),
		System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	})
	if err != nil {
		return GenerateResponse{}, info, fmt.Errorf("anthropic generate: %w", err)
	}
	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return GenerateResponse{}, info, fmt.Errorf("anthropic returned no text content")
	}
	return GenerateResponse{Text: b.String()}, info, nil
}
