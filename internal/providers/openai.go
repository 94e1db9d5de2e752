package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// systemPrompt keeps chat models inside the retrieved context.
const systemPrompt = "You answer questions about the user's documents. Use only the supplied context; say so when it does not contain the answer."

// ChatCompletionsProvider covers OpenAI and OpenAI-compatible endpoints.
type ChatCompletionsProvider struct {
	name     string
	keyName  string
	apiKey   string
	baseURL  string
	model    string
	embedder string
	client   *http.Client
}

func NewOpenAIProvider(keyName string) *ChatCompletionsProvider {
	return &ChatCompletionsProvider{
		name:     "openai",
		keyName:  keyName,
		apiKey:   resolveKey("DOCUDIVE_OPENAI_KEY_", "OPENAI_API_KEY", keyName),
		baseURL:  envOr("DOCUDIVE_OPENAI_BASE_URL", "https://api.openai.com/v1"),
		model:    envOr("DOCUDIVE_OPENAI_MODEL", "gpt-4o-mini"),
		embedder: envOr("DOCUDIVE_OPENAI_EMBED_MODEL", "text-embedding-3-small"),
		client:   &http.Client{Timeout: 60 * time.Second},
	}
}

// NewGroqProvider uses Groq's OpenAI-compatible API. Groq has no
// embeddings endpoint, so it only serves generation.
func NewGroqProvider(keyName string) *ChatCompletionsProvider {
	return &ChatCompletionsProvider{
		name:    "groq",
		keyName: keyName,
		apiKey:  resolveKey("DOCUDIVE_GROQ_KEY_", "GROQ_API_KEY", keyName),
		baseURL: envOr("DOCUDIVE_GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
		model:   envOr("DOCUDIVE_GROQ_MODEL", "llama-3.1-8b-instant"),
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

func (o *ChatCompletionsProvider) info(model string) ProviderInfo {
	return ProviderInfo{Name: o.name, Model: model, Key: o.keyName}
}

func (o *ChatCompletionsProvider) Embed(ctx context.Context, req EmbedRequest) ([][]float32, ProviderInfo, error) {
	if o.embedder == "" {
		return nil, o.info(""), fmt.Errorf("%s does not support embeddings", o.name)
	}
	if o.apiKey == "" {
		return nil, o.info(o.embedder), fmt.Errorf("%s key missing for alias %q", o.name, o.keyName)
	}
	payload := map[string]any{"model": o.embedder, "input": req.Inputs}
	if req.Dimension > 0 {
		payload["dimensions"] = req.Dimension
	}
	var parsed struct {
		Data []struct {
			Index     int       `json:"index"`
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := o.post(ctx, "/embeddings", payload, &parsed); err != nil {
		return nil, o.info(o.embedder), fmt.Errorf("%s embedding: %w", o.name, err)
	}
	if len(parsed.Data) != len(req.Inputs) {
		return nil, o.info(o.embedder), fmt.Errorf("%s returned %d embeddings for %d inputs", o.name, len(parsed.Data), len(req.Inputs))
	}
	out := make([][]float32, len(parsed.Data))
	for _, d := range parsed.Data {
		if d.Index < 0 || d.Index >= len(out) {
			return nil, o.info(o.embedder), fmt.Errorf("%s returned embedding index %d out of range", o.name, d.Index)
		}
		if out[d.Index] != nil {
			return nil, o.info(o.embedder), fmt.Errorf("%s returned duplicate embedding index %d", o.name, d.Index)
		}
		if len(d.Embedding) == 0 {
			return nil, o.info(o.embedder), fmt.Errorf("%s returned an empty embedding at index %d", o.name, d.Index)
		}
		out[d.Index] = d.Embedding
	}
	return out, o.info(o.embedder), nil
}

func (o *ChatCompletionsProvider) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	if o.apiKey == "" {
		return GenerateResponse{}, o.info(o.model), fmt.Errorf("%s key missing for alias %q", o.name, o.keyName)
	}
	payload := map[string]any{
		"model": o.model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": req.Prompt},
		},
	}
	if req.MaxTokens > 0 {
		payload["max_tokens"] = req.MaxTokens
	}
	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := o.post(ctx, "/chat/completions", payload, &parsed); err != nil {
		return GenerateResponse{}, o.info(o.model), fmt.Errorf("%s generate: %w", o.name, err)
	}
	if len(parsed.Choices) == 0 {
		return GenerateResponse{}, o.info(o.model), fmt.Errorf("%s returned empty choices", o.name)
	}
	return GenerateResponse{Text: parsed.Choices[0].Message.Content}, o.info(o.model), nil
}

func (o *ChatCompletionsProvider) post(ctx context.Context, path string, payload any, out any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(o.baseURL, "/")+path, bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := o.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return fmt.Errorf("error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func resolveKey(prefix, fallbackEnv, alias string) string {
	if alias != "" {
		if k := os.Getenv(prefix + sanitizeEnvToken(alias)); k != "" {
			return k
		}
	}
	return os.Getenv(fallbackEnv)
}

func envOr(k, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return fallback
}
