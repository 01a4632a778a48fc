//go:build cgo

package embedding

import (
	"context"
	"fmt"
	"sync"

	fastembed "github.com/anush008/fastembed-go"
)

// fastEmbedModels maps accepted model names to fastembed models and their dimensions.
var fastEmbedModels = map[string]struct {
	model fastembed.EmbeddingModel
	dims  int
}{
	"sentence-transformers/all-MiniLM-L6-v2": {fastembed.AllMiniLML6V2, 384},
	"all-MiniLM-L6-v2":                       {fastembed.AllMiniLML6V2, 384},
	"BAAI/bge-small-en-v1.5":                 {fastembed.BGESmallENV15, 384},
	"BAAI/bge-small-en":                      {fastembed.BGESmallEN, 384},
	"BAAI/bge-base-en-v1.5":                  {fastembed.BGEBaseENV15, 768},
	"BAAI/bge-base-en":                       {fastembed.BGEBaseEN, 768},
}

// DefaultFastEmbedModel matches the MiniLM sentence model used for persona queries.
const DefaultFastEmbedModel = "sentence-transformers/all-MiniLM-L6-v2"

// FastEmbedEmbedder runs a local ONNX sentence model through fastembed-go,
// which downloads and caches model files in cacheDir.
type FastEmbedEmbedder struct {
	model     *fastembed.FlagEmbedding
	dimension int
	mu        sync.Mutex
}

// NewFastEmbedEmbedder loads modelName, downloading it into cacheDir when missing.
func NewFastEmbedEmbedder(modelName, cacheDir string, maxLength int) (*FastEmbedEmbedder, error) {
	if modelName == "" {
		modelName = DefaultFastEmbedModel
	}
	m, ok := fastEmbedModels[modelName]
	if !ok {
		return nil, fmt.Errorf("unsupported fastembed model %q", modelName)
	}
	if maxLength <= 0 {
		maxLength = 512
	}
	showProgress := false
	opts := &fastembed.InitOptions{
		Model:                m.model,
		MaxLength:            maxLength,
		ShowDownloadProgress: &showProgress,
	}
	if cacheDir != "" {
		opts.CacheDir = cacheDir
	}
	flag, err := fastembed.NewFlagEmbedding(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: initializing fastembed: %w", ErrFastEmbedUnavailable, err)
	}
	return &FastEmbedEmbedder{model: flag, dimension: m.dims}, nil
}

// Embed embeds a query text.
func (f *FastEmbedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.model.QueryEmbed(text)
}

// EmbedBatch embeds passages in one call.
func (f *FastEmbedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.model.PassageEmbed(texts, 256)
}

// Dimensions returns the model dimension.
func (f *FastEmbedEmbedder) Dimensions() int {
	return f.dimension
}

// Close releases the model.
func (f *FastEmbedEmbedder) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.model == nil {
		return nil
	}
	err := f.model.Destroy()
	f.model = nil
	return err
}
