package embedding

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Options selects and configures an embedding provider.
type Options struct {
	Provider   string
	Model      string
	BaseURL    string
	APIKey     string
	Dimensions int
	MaxTokens  int
	CacheSize  int
	CacheDir   string
	Analyzer   string
	MaxRetries int
	// HTTPTimeout bounds each request of HTTP providers; the run deadline still applies.
	HTTPTimeout time.Duration
}

// NewEmbedder builds the provider named by opts.Provider (default "hashing") and
// wraps it in an LRU cache when CacheSize > 0. The caller owns the result and must Close it.
func NewEmbedder(opts Options, logger *zap.Logger) (Embedder, error) {
	provider := strings.ToLower(strings.TrimSpace(opts.Provider))
	if provider == "" {
		provider = ProviderHashing
	}
	client := &http.Client{Timeout: opts.HTTPTimeout}

	var (
		e   Embedder
		err error
	)
	switch provider {
	case ProviderHashing:
		e, err = NewHashingEmbedder(opts.Dimensions, opts.Analyzer)
	case ProviderMock:
		e = NewMockEmbedder(opts.Dimensions)
	case ProviderOllama:
		e, err = NewOllamaEmbedder(client, opts.Model, opts.Dimensions, opts.BaseURL)
	case ProviderOpenAI:
		e, err = NewOpenAIEmbedder(client, opts.APIKey, opts.Model, opts.Dimensions, opts.BaseURL, opts.MaxRetries)
	case ProviderONNX:
		e, err = NewONNXEmbedder(opts.Model, opts.Dimensions, opts.MaxTokens)
	case ProviderFastEmbed:
		e, err = NewFastEmbedEmbedder(opts.Model, opts.CacheDir, opts.MaxTokens)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", opts.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s embedder: %w", provider, err)
	}
	if logger != nil {
		logger.Debug("embedder ready",
			zap.String("provider", provider),
			zap.String("model", opts.Model),
			zap.Int("dimensions", e.Dimensions()),
			zap.Int("cache_size", opts.CacheSize),
		)
	}
	if opts.CacheSize > 0 {
		return NewCachedEmbedder(e, opts.CacheSize), nil
	}
	return e, nil
}
