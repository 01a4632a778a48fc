package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// DefaultOpenAIURL is used when no base URL is configured.
const DefaultOpenAIURL = "https://api.openai.com/v1/embeddings"

const openAIRetryDelay = 2 * time.Second

// OpenAIEmbedder calls an OpenAI-compatible embeddings endpoint.
type OpenAIEmbedder struct {
	client     *http.Client
	apiKey     string
	model      string
	dimension  int
	endpoint   string
	maxRetries int
	retryDelay time.Duration
}

type openAIEmbeddingRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions *int     `json:"dimensions,omitempty"`
}

type openAIEmbeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// NewOpenAIEmbedder creates an embedder. baseURL may be the API root
// ("https://host/v1") or the full embeddings endpoint.
func NewOpenAIEmbedder(client *http.Client, apiKey, model string, dim int, baseURL string, maxRetries int) (*OpenAIEmbedder, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("openai embedding model is required")
	}
	endpoint := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	switch {
	case endpoint == "":
		endpoint = DefaultOpenAIURL
	case !strings.HasSuffix(endpoint, "/embeddings"):
		endpoint += "/embeddings"
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &OpenAIEmbedder{
		client:     client,
		apiKey:     apiKey,
		model:      model,
		dimension:  dim,
		endpoint:   endpoint,
		maxRetries: max(maxRetries, 0),
		retryDelay: openAIRetryDelay,
	}, nil
}

// Embed embeds a single text.
func (o *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := o.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds texts in request batches of 64.
func (o *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	return inBatches(texts, httpEmbedBatchSize, func(batch []string) ([][]float32, error) {
		return o.embedBatch(ctx, batch)
	})
}

func (o *OpenAIEmbedder) embedBatch(ctx context.Context, batch []string) ([][]float32, error) {
	payload := openAIEmbeddingRequest{Model: o.model, Input: batch}
	if o.dimension > 0 {
		payload.Dimensions = &o.dimension
	}

	var lastErr error
	for attempt := 0; attempt <= o.maxRetries; attempt++ {
		if attempt > 0 && !waitOrCancel(ctx, o.retryDelay) {
			return nil, ctx.Err()
		}
		raw, err := postJSON(ctx, o.client, o.endpoint, o.apiKey, payload)
		if err != nil {
			lastErr = fmt.Errorf("openai: %w", err)
			var se *statusError
			if errors.As(err, &se) && !se.retryable() {
				return nil, lastErr
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}

		var parsed openAIEmbeddingResponse
		if err := json.Unmarshal(raw, &parsed); err != nil {
			return nil, fmt.Errorf("openai: decode response: %w", err)
		}
		out := make([][]float32, len(batch))
		for _, item := range parsed.Data {
			if item.Index >= 0 && item.Index < len(batch) {
				out[item.Index] = item.Embedding
			}
		}
		for i := range out {
			if len(out[i]) == 0 {
				return nil, fmt.Errorf("openai: embedding missing at index %d", i)
			}
		}
		return out, nil
	}
	return nil, lastErr
}

// Dimensions returns the requested dimension, or 0 when the model default is used.
func (o *OpenAIEmbedder) Dimensions() int {
	return o.dimension
}

// Close is a no-op.
func (o *OpenAIEmbedder) Close() error {
	return nil
}
