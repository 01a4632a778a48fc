package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"slices"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/hyperjump/yomu/pkg/utils"
)

// DefaultHashingDimensions is the vector size of the hashing embedder.
const DefaultHashingDimensions = 1024

// Analyzer names accepted by NewHashingEmbedder besides any other registered bleve analyzer.
const (
	AnalyzerEnglish  = en.AnalyzerName
	AnalyzerStandard = standard.Name
)

// HashingEmbedder is a local, model-free embedder. Text is run through a bleve
// analyzer (tokenization, lowercasing, stop words, stemming for "en") and every
// term and adjacent term pair is hashed into a signed bucket weighted by
// 1+log(tf). Vectors are L2-normalized so cosine similarity reflects shared vocabulary.
type HashingEmbedder struct {
	dimensions int
	analyze    func([]byte) analysis.TokenStream
}

// NewHashingEmbedder creates a hashing embedder using the named bleve analyzer.
func NewHashingEmbedder(dimensions int, analyzerName string) (*HashingEmbedder, error) {
	if dimensions <= 0 {
		dimensions = DefaultHashingDimensions
	}
	if analyzerName == "" {
		analyzerName = AnalyzerEnglish
	}
	a := bleve.NewIndexMapping().AnalyzerNamed(analyzerName)
	if a == nil {
		return nil, fmt.Errorf("unknown bleve analyzer %q", analyzerName)
	}
	return &HashingEmbedder{dimensions: dimensions, analyze: a.Analyze}, nil
}

// Embed returns the hashed term vector of text. Text without terms yields a zero vector.
func (e *HashingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	prev := ""
	for _, tok := range e.analyze([]byte(text)) {
		term := string(tok.Term)
		if term == "" {
			continue
		}
		counts[term]++
		if prev != "" {
			counts[prev+" "+term]++
		}
		prev = term
	}

	features := make([]string, 0, len(counts))
	for f := range counts {
		features = append(features, f)
	}
	slices.Sort(features)

	vec := make([]float32, e.dimensions)
	for _, f := range features {
		idx, sign := e.bucket(f)
		vec[idx] += sign * float32(1+math.Log(float64(counts[f])))
	}
	utils.NormalizeL2(vec)
	return vec, nil
}

// EmbedBatch embeds each text in order.
func (e *HashingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Dimensions returns the vector size.
func (e *HashingEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op.
func (e *HashingEmbedder) Close() error {
	return nil
}

func (e *HashingEmbedder) bucket(feature string) (int, float32) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64()
	sign := float32(1)
	if sum>>63 == 1 {
		sign = -1
	}
	return int(sum % uint64(e.dimensions)), sign
}
