package embedding

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
)

// DefaultOllamaURL is used when no base URL is configured.
const DefaultOllamaURL = "http://127.0.0.1:11434"

// OllamaEmbedder calls the Ollama /api/embed endpoint.
type OllamaEmbedder struct {
	client    *http.Client
	model     string
	endpoint  string
	mu        sync.Mutex
	dimension int
}

type ollamaEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type ollamaEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// NewOllamaEmbedder creates an embedder for model served at baseURL. A zero
// dimension is learned from the first response.
func NewOllamaEmbedder(client *http.Client, model string, dim int, baseURL string) (*OllamaEmbedder, error) {
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("ollama embedding model is required")
	}
	url := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if url == "" {
		url = DefaultOllamaURL
	}
	if !strings.HasSuffix(url, "/api/embed") {
		url += "/api/embed"
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &OllamaEmbedder{client: client, model: model, endpoint: url, dimension: dim}, nil
}

// Embed embeds a single text.
func (o *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := o.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds texts in request batches of 64.
func (o *OllamaEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	out, err := inBatches(texts, httpEmbedBatchSize, func(batch []string) ([][]float32, error) {
		raw, err := postJSON(ctx, o.client, o.endpoint, "", ollamaEmbedRequest{Model: o.model, Input: batch})
		if err != nil {
			return nil, fmt.Errorf("ollama: %w", err)
		}
		var parsed ollamaEmbedResponse
		if err := json.Unmarshal(raw, &parsed); err != nil {
			return nil, fmt.Errorf("ollama: decode response: %w", err)
		}
		return parsed.Embeddings, nil
	})
	if err != nil {
		return nil, err
	}
	o.mu.Lock()
	if o.dimension <= 0 && len(out) > 0 {
		o.dimension = len(out[0])
	}
	o.mu.Unlock()
	return out, nil
}

// Dimensions returns the configured or learned dimension.
func (o *OllamaEmbedder) Dimensions() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.dimension
}

// Close is a no-op.
func (o *OllamaEmbedder) Close() error {
	return nil
}
