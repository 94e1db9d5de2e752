package providers

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

type GeminiProvider struct {
	keyName    string
	model      string
	embedModel string
	client     *genai.Client
}

func NewGeminiProvider(ctx context.Context, keyName string) (*GeminiProvider, error) {
	apiKey := resolveKey("DOCUDIVE_GEMINI_KEY_", "GEMINI_API_KEY", keyName)
	if apiKey == "" {
		return nil, fmt.Errorf("gemini key missing for alias %q", keyName)
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiProvider{
		keyName:    keyName,
		model:      envOr("DOCUDIVE_GEMINI_MODEL", "gemini-2.0-flash"),
		embedModel: envOr("DOCUDIVE_GEMINI_EMBED_MODEL", "text-embedding-004"),
		client:     client,
	}, nil
}

func (g *GeminiProvider) Embed(ctx context.Context, req EmbedRequest) ([][]float32, ProviderInfo, error) {
	info := ProviderInfo{Name: "gemini", Model: g.embedModel, Key: g.keyName}
	contents := make([]*genai.Content, 0, len(req.Inputs))
	for _, text := range req.Inputs {
		contents = append(contents, genai.NewContentFromText(text, genai.RoleUser))
	}
	cfg := &genai.EmbedContentConfig{}
	if req.Dimension > 0 {
		dim := int32(req.Dimension)
		cfg.OutputDimensionality = &dim
	}
	result, err := g.client.Models.EmbedContent(ctx, g.embedModel, contents, cfg)
	if err != nil {
		return nil, info, fmt.Errorf("gemini embedding: %w", err)
	}
	if result == nil || len(result.Embeddings) != len(req.Inputs) {
		return nil, info, fmt.Errorf("gemini returned wrong number of embeddings")
	}
	out := make([][]float32, 0, len(result.Embeddings))
	for _, e := range result.Embeddings {
		out = append(out, matchDimension(e.Values, req.Dimension))
	}
	return out, info, nil
}

func (g *GeminiProvider) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	info := ProviderInfo{Name: "gemini", Model: g.model, Key: g.keyName}
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, []*genai.Content{genai.NewContentFromText(req.Prompt, genai.RoleUser)}, cfg)
	if err != nil {
		return GenerateResponse{}, info, fmt.Errorf("gemini generate: %w", err)
	}
	var b strings.Builder
	if resp != nil {
		for _, candidate := range resp.Candidates {
			if candidate.Content == nil {
				continue
			}
			for _, part := range candidate.Content.Parts {
				b.WriteString(part.Text)
			}
			if b.Len() > 0 {
				break
			}
		}
	}
	if b.Len() == 0 {
		return GenerateResponse{}, info, fmt.Errorf("gemini returned no text")
	}
	return GenerateResponse{Text: b.String()}, info, nil
}
