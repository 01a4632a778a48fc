//go:build !cgo

package embedding

import (
	"context"
	"fmt"
)

var errFastEmbedNoCGO = fmt.Errorf("%w: requires CGO; build with CGO_ENABLED=1", ErrFastEmbedUnavailable)

// DefaultFastEmbedModel matches the MiniLM sentence model used for persona queries.
const DefaultFastEmbedModel = "sentence-transformers/all-MiniLM-L6-v2"

// FastEmbedEmbedder stub type when built without CGO (see fastembed.go).
type FastEmbedEmbedder struct{}

// NewFastEmbedEmbedder returns an error wrapping ErrFastEmbedUnavailable.
func NewFastEmbedEmbedder(_, _ string, _ int) (*FastEmbedEmbedder, error) {
	return nil, errFastEmbedNoCGO
}

func (f *FastEmbedEmbedder) Embed(context.Context, string) ([]float32, error) {
	return nil, errFastEmbedNoCGO
}

func (f *FastEmbedEmbedder) EmbedBatch(context.Context, []string) ([][]float32, error) {
	return nil, errFastEmbedNoCGO
}

func (f *FastEmbedEmbedder) Dimensions() int { return 0 }

func (f *FastEmbedEmbedder) Close() error { return nil }
