// Package embedding turns text into fixed-length vectors. Providers range from a
// local lexical hashing embedder to HTTP model servers and in-process ONNX models.
package embedding

import (
	"context"
	"errors"
)

// ErrONNXUnavailable means the ONNX provider cannot run: the binary was built
// without CGO, or the runtime library or model could not be loaded.
var ErrONNXUnavailable = errors.New("ONNX embedder unavailable")

// ErrFastEmbedUnavailable means the fastembed provider cannot run: the binary was
// built without CGO, or the model could not be loaded.
var ErrFastEmbedUnavailable = errors.New("fastembed embedder unavailable")

// Embedder produces vector embeddings for text. All vectors returned by one
// Embedder share the same dimension.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}

// Provider names accepted by NewEmbedder.
const (
	ProviderHashing   = "hashing"
	ProviderOllama    = "ollama"
	ProviderOpenAI    = "openai"
	ProviderONNX      = "onnx"
	ProviderFastEmbed = "fastembed"
	ProviderMock      = "mock"
)
