// Package rank scores sections against a query by embedding similarity and
// produces a stable, densely ranked ordering.
package rank

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/hyperjump/yomu/internal/embedding"
	"github.com/hyperjump/yomu/internal/models"
	"github.com/hyperjump/yomu/internal/vector"
	"github.com/hyperjump/yomu/pkg/utils"
	"go.uber.org/zap"
)

// Ranker embeds a query and a section pool and orders the pool by cosine similarity.
type Ranker struct {
	embedder embedding.Embedder
	logger   *zap.Logger
}

// Option configures a Ranker.
type Option func(*Ranker)

// WithLogger sets a logger for ranking summaries.
func WithLogger(l *zap.Logger) Option {
	return func(r *Ranker) { r.logger = l }
}

// NewRanker creates a ranker backed by embedder.
func NewRanker(embedder embedding.Embedder, opts ...Option) *Ranker {
	r := &Ranker{embedder: embedder}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = utils.OrNop(r.logger)
	return r
}

// Rank scores every section against query and returns them ordered by score
// descending. Equal scores keep pool order. Ranks are dense and start at 1.
// The query is embedded with one Embed call and the bodies with one EmbedBatch
// call. An empty pool returns an empty result without calling the embedder.
func (r *Ranker) Rank(ctx context.Context, query string, sections []models.Section) ([]models.ScoredSection, error) {
	if len(sections) == 0 {
		return []models.ScoredSection{}, nil
	}

	queryVec, err := call(ctx, func(ctx context.Context) ([]float32, error) {
		return r.embedder.Embed(ctx, query)
	})
	if err != nil {
		return nil, err
	}

	bodies := make([]string, len(sections))
	for i, s := range sections {
		bodies[i] = s.Body
	}
	vecs, err := call(ctx, func(ctx context.Context) ([][]float32, error) {
		return r.embedder.EmbedBatch(ctx, bodies)
	})
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(sections) {
		return nil, fmt.Errorf("%w: got %d vectors for %d sections", models.ErrProviderError, len(vecs), len(sections))
	}

	scored := make([]models.ScoredSection, len(sections))
	for i, s := range sections {
		score, err := vector.Cosine(queryVec, vecs[i])
		if err != nil {
			return nil, fmt.Errorf("%w: section %d: %v", models.ErrProviderError, i, err)
		}
		scored[i] = models.ScoredSection{Section: s, Score: score}
	}

	Order(scored)
	r.logger.Debug("ranked sections",
		zap.Int("sections", len(scored)),
		zap.Float64("top_score", scored[0].Score),
	)
	return scored, nil
}

// Order stably sorts scored by score descending (NaN last) and assigns dense ranks.
func Order(scored []models.ScoredSection) {
	slices.SortStableFunc(scored, func(a, b models.ScoredSection) int {
		an, bn := math.IsNaN(a.Score), math.IsNaN(b.Score)
		switch {
		case an && bn:
			return 0
		case an:
			return 1
		case bn:
			return -1
		}
		return cmp.Compare(b.Score, a.Score)
	})
	for i := range scored {
		scored[i].Rank = i + 1
	}
}

// TopN returns the first n ranked sections; n <= 0 keeps all.
func TopN(scored []models.ScoredSection, n int) []models.ScoredSection {
	if n <= 0 || n >= len(scored) {
		return scored
	}
	return scored[:n]
}

// FilterByMinScore drops ranked sections scoring below minScore. Since the input is
// ordered by score, the result is a prefix and its ranks stay dense.
func FilterByMinScore(scored []models.ScoredSection, minScore float64) []models.ScoredSection {
	for i, s := range scored {
		if !(s.Score >= minScore) {
			return scored[:i]
		}
	}
	return scored
}

// call runs fn and waits for it or for ctx, whichever ends first, so a provider
// that ignores cancellation cannot stall the run. Errors are mapped onto
// ErrProviderTimeout and ErrProviderError.
func call[T any](ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn(ctx)
		done <- result{v, err}
	}()

	var zero T
	select {
	case <-ctx.Done():
		return zero, providerError(ctx.Err())
	case res := <-done:
		if res.err != nil {
			return zero, providerError(res.err)
		}
		return res.v, nil
	}
}

func providerError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", models.ErrProviderTimeout, err)
	}
	return fmt.Errorf("%w: %v", models.ErrProviderError, err)
}
