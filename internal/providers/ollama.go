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

// OllamaProvider talks to a local Ollama daemon for both embeddings
// (nomic-embed-text by default) and generation (mistral by default).
type OllamaProvider struct {
	alias      string
	baseURL    string
	embedModel string
	genModel   string
	client     *http.Client
}

func NewOllamaProvider(alias string) *OllamaProvider {
	baseURL := strings.TrimSpace(os.Getenv("DOCUDIVE_OLLAMA_BASE_URL"))
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	genModel := strings.TrimSpace(os.Getenv("DOCUDIVE_OLLAMA_MODEL"))
	if genModel == "" {
		genModel = "mistral"
	}
	return &OllamaProvider{
		alias:      alias,
		baseURL:    strings.TrimRight(baseURL, "/"),
		embedModel: resolveOllamaEmbedModel(alias),
		genModel:   genModel,
		client:     &http.Client{Timeout: 120 * time.Second},
	}
}

func (o *OllamaProvider) Embed(ctx context.Context, req EmbedRequest) ([][]float32, ProviderInfo, error) {
	info := ProviderInfo{Name: "ollama", Model: o.embedModel, Key: o.alias}
	out := make([][]float32, 0, len(req.Inputs))
	for _, text := range req.Inputs {
		var parsed struct {
			Embedding []float32 `json:"embedding"`
		}
		if err := o.post(ctx, "/api/embeddings", map[string]any{"model": o.embedModel, "prompt": text}, &parsed); err != nil {
			return nil, info, fmt.Errorf("ollama embedding: %w", err)
		}
		if len(parsed.Embedding) == 0 {
			return nil, info, fmt.Errorf("ollama returned empty embedding")
		}
		out = append(out, matchDimension(parsed.Embedding, req.Dimension))
	}
	return out, info, nil
}

func (o *OllamaProvider) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	info := ProviderInfo{Name: "ollama", Model: o.genModel, Key: o.alias}
	var parsed struct {
		Response string `json:"response"`
		Done     bool   `json:"done"`
	}
	payload := map[string]any{"model": o.genModel, "prompt": req.Prompt, "stream": false}
	if req.MaxTokens > 0 {
		payload["options"] = map[string]any{"num_predict": req.MaxTokens}
	}
	if err := o.post(ctx, "/api/generate", payload, &parsed); err != nil {
		return GenerateResponse{}, info, fmt.Errorf("ollama generate: %w", err)
	}
	if strings.TrimSpace(parsed.Response) == "" {
		return GenerateResponse{}, info, fmt.Errorf("ollama returned empty response")
	}
	return GenerateResponse{Text: parsed.Response}, info, nil
}

func (o *OllamaProvider) post(ctx context.Context, path string, payload any, out any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
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

func resolveOllamaEmbedModel(alias string) string {
	alias = strings.TrimSpace(alias)
	if alias != "" {
		key := "DOCUDIVE_OLLAMA_EMBED_MODEL_" + sanitizeEnvToken(alias)
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
		switch strings.ToLower(alias) {
		case "nomic":
			return "nomic-embed-text"
		case "mxbai":
			return "mxbai-embed-large"
		}
		// ollama:all-minilm or ollama:org/model name the model directly.
		if strings.ContainsAny(alias, "-/.") {
			return alias
		}
	}
	if v := strings.TrimSpace(os.Getenv("DOCUDIVE_OLLAMA_EMBED_MODEL")); v != "" {
		return v
	}
	return "nomic-embed-text"
}

func sanitizeEnvToken(s string) string {
	return strings.NewReplacer("-", "_", ".", "_", "/", "_").Replace(strings.ToUpper(s))
}

func matchDimension(v []float32, target int) []float32 {
	if target <= 0 || len(v) == target {
		return v
	}
	if len(v) > target {
		return v[:target]
	}
	out := make([]float32, target)
	copy(out, v)
	return out
}
