package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveOllamaEmbedModel(t *testing.T) {
	t.Setenv("DOCUDIVE_OLLAMA_EMBED_MODEL", "")
	require.Equal(t, "nomic-embed-text", resolveOllamaEmbedModel(""))
	require.Equal(t, "mxbai-embed-large", resolveOllamaEmbedModel("mxbai"))
	require.Equal(t, "all-minilm", resolveOllamaEmbedModel("all-minilm"))

	t.Setenv("DOCUDIVE_OLLAMA_EMBED_MODEL_LOCAL", "custom-embed")
	require.Equal(t, "custom-embed", resolveOllamaEmbedModel("local"))
}

func TestMatchDimension(t *testing.T) {
	src := []float32{1, 2, 3}
	require.Equal(t, []float32{1, 2}, matchDimension(src, 2))
	require.Equal(t, []float32{1, 2, 3, 0, 0}, matchDimension(src, 5))
	require.Equal(t, src, matchDimension(src, 0))
}

func newOllamaServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		switch r.URL.Path {
		case "/api/embeddings":
			if body["prompt"] == "fail" {
				http.Error(w, "model not loaded", http.StatusServiceUnavailable)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"embedding": []float32{0.5, 0.25}})
		case "/api/generate":
			require.Equal(t, "mistral", body["model"])
			require.Equal(t, false, body["stream"])
			_ = json.NewEncoder(w).Encode(map[string]any{"response": "Each player gets $1500.", "done": true})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOllamaEmbedAndGenerate(t *testing.T) {
	srv := newOllamaServer(t)
	t.Setenv("DOCUDIVE_OLLAMA_BASE_URL", srv.URL)
	t.Setenv("DOCUDIVE_OLLAMA_MODEL", "")
	p := NewOllamaProvider("")

	vecs, info, err := p.Embed(context.Background(), EmbedRequest{Inputs: []string{"a", "b"}, Dimension: 3})
	require.NoError(t, err)
	require.Equal(t, "ollama", info.Name)
	require.Equal(t, [][]float32{{0.5, 0.25, 0}, {0.5, 0.25, 0}}, vecs)

	resp, info, err := p.Generate(context.Background(), GenerateRequest{Prompt: "question"})
	require.NoError(t, err)
	require.Equal(t, "mistral", info.Model)
	require.Equal(t, "Each player gets $1500.", resp.Text)
}

func TestOllamaEmbedErrorCarriesStatus(t *testing.T) {
	srv := newOllamaServer(t)
	t.Setenv("DOCUDIVE_OLLAMA_BASE_URL", srv.URL)
	_, _, err := NewOllamaProvider("").Embed(context.Background(), EmbedRequest{Inputs: []string{"fail"}})
	require.Error(t, err)
	require.Contains(t, err.Error(), "503")
	require.Equal(t, ErrorTransient, ClassifyError(err))
}
