// Package pipeline runs one analysis end to end: it resolves each requested
// document and its outline, segments the documents concurrently, ranks the
// merged section pool against the persona's query and assembles the report.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/yomu/internal/config"
	"github.com/hyperjump/yomu/internal/embedding"
	"github.com/hyperjump/yomu/internal/extract"
	"github.com/hyperjump/yomu/internal/models"
	"github.com/hyperjump/yomu/internal/outline"
	"github.com/hyperjump/yomu/internal/query"
	"github.com/hyperjump/yomu/internal/rank"
	"github.com/hyperjump/yomu/internal/report"
	"github.com/hyperjump/yomu/internal/segment"
	"github.com/hyperjump/yomu/internal/storage"
	"github.com/hyperjump/yomu/pkg/utils"
)

const defaultWorkers = 4

// Settings holds the tunables of a Pipeline.
type Settings struct {
	Workers           int
	OutlineSuffix     string
	OutlineExtensions []string
	// Timeout bounds the embedding calls of one run; 0 means only ctx applies.
	Timeout time.Duration
	Segment segment.Config
	Report  report.Options
	// QueryTemplate must contain {role} and {task}; empty uses query.DefaultTemplate.
	QueryTemplate string
}

// SettingsFromConfig maps the application config to pipeline settings.
func SettingsFromConfig(c *config.Config) Settings {
	return Settings{
		Workers:           c.Pipeline.Workers,
		OutlineSuffix:     c.Input.OutlineSuffix,
		OutlineExtensions: c.Input.OutlineExtensions,
		Timeout:           c.Embedding.Timeout(),
		Segment: segment.Config{
			MinBodyChars:  c.Segment.MinBodyChars,
			PageSeparator: c.Segment.PageSeparator,
		},
		Report: report.Options{
			TopK:          c.Rank.TopK,
			TruncateChars: c.Rank.TruncateChars,
		},
		QueryTemplate: c.Rank.QueryTemplate,
	}
}

// Pipeline orchestrates runs. It is safe for concurrent use when its embedder is.
type Pipeline struct {
	extractor extract.PageExtractor
	segmenter *segment.Segmenter
	ranker    *rank.Ranker
	composer  *query.Composer
	archive   storage.Archive
	settings  Settings
	logger    *zap.Logger
	now       func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithArchive stores every successful run in a.
func WithArchive(a storage.Archive) Option {
	return func(p *Pipeline) { p.archive = a }
}

// WithExtractor replaces the file-based page extractor.
func WithExtractor(e extract.PageExtractor) Option {
	return func(p *Pipeline) { p.extractor = e }
}

// WithClock sets the clock used for report timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// New creates a Pipeline ranking with embedder. The caller keeps ownership of embedder.
func New(embedder embedding.Embedder, settings Settings, opts ...Option) (*Pipeline, error) {
	if embedder == nil {
		return nil, errors.New("pipeline: embedder is required")
	}
	template := settings.QueryTemplate
	if template == "" {
		template = query.DefaultTemplate
	}
	composer, err := query.NewComposer(template)
	if err != nil {
		return nil, err
	}
	if settings.Workers <= 0 {
		settings.Workers = defaultWorkers
	}

	p := &Pipeline{
		extractor: extract.NewExtractor(),
		composer:  composer,
		settings:  settings,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = utils.OrNop(p.logger)
	p.segmenter = segment.NewSegmenter(settings.Segment, segment.WithLogger(p.logger))
	p.ranker = rank.NewRanker(embedder, rank.WithLogger(p.logger))
	return p, nil
}

// Input is one analysis run.
type Input struct {
	Request      *models.Request
	DocumentsDir string
	// OutlinesDir defaults to DocumentsDir.
	OutlinesDir string
	// RequestKey groups runs of the same request in the archive.
	RequestKey string
}

// DocumentIssue records a document skipped during a run.
type DocumentIssue struct {
	Document string `json:"document"`
	Reason   string `json:"reason"`
	Err      error  `json:"-"`
}

// Result is the outcome of a successful run.
type Result struct {
	RunID   string
	Query   string
	Report  *models.Report
	Ranked  []models.ScoredSection
	Skipped []DocumentIssue
}

type docResult struct {
	sections []models.Section
	issue    *DocumentIssue
}

// Run executes the analysis. Per-document failures are logged and reported in
// Result.Skipped. A malformed request, an empty section pool and embedding
// failures abort the run without a report.
func (p *Pipeline) Run(ctx context.Context, in Input) (*Result, error) {
	started := time.Now()
	req := in.Request
	if req == nil {
		return nil, fmt.Errorf("%w: no request", models.ErrMalformedRequest)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	q, err := p.composer.Compose(req.Persona, req.JobToBeDone)
	if err != nil {
		return nil, err
	}

	outlinesDir := in.OutlinesDir
	if outlinesDir == "" {
		outlinesDir = in.DocumentsDir
	}

	results := make([]docResult, len(req.Documents))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.settings.Workers)
	for i, ref := range req.Documents {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = p.processDocument(in.DocumentsDir, outlinesDir, ref.Filename)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var pool []models.Section
	var skipped []DocumentIssue
	for _, r := range results {
		if r.issue != nil {
			skipped = append(skipped, *r.issue)
			continue
		}
		pool = append(pool, r.sections...)
	}
	if len(pool) == 0 {
		return nil, fmt.Errorf("%w: %d documents, %d skipped", models.ErrEmptyPool, len(req.Documents), len(skipped))
	}

	rankCtx := ctx
	if p.settings.Timeout > 0 {
		var cancel context.CancelFunc
		rankCtx, cancel = context.WithTimeout(ctx, p.settings.Timeout)
		defer cancel()
	}
	ranked, err := p.ranker.Rank(rankCtx, q, pool)
	if err != nil {
		return nil, err
	}

	opts := p.settings.Report
	opts.Now = p.now
	rep, err := report.Assemble(ranked, req, opts)
	if err != nil {
		return nil, err
	}

	res := &Result{
		RunID:   uuid.NewString(),
		Query:   q,
		Report:  rep,
		Ranked:  ranked,
		Skipped: skipped,
	}
	p.store(ctx, in.RequestKey, res)

	p.logger.Info("run complete",
		zap.String("run_id", res.RunID),
		zap.Int("documents", len(req.Documents)),
		zap.Int("skipped", len(skipped)),
		zap.Int("sections", len(pool)),
		zap.Int("reported", len(rep.ExtractedSections)),
		zap.Duration("elapsed", time.Since(started)),
	)
	return res, nil
}

// processDocument turns one requested document into its sections. Failures are
// returned as an issue, never as an error.
func (p *Pipeline) processDocument(docsDir, outlinesDir, name string) docResult {
	skip := func(err error) docResult {
		p.logger.Warn("document skipped", zap.String("document", name), zap.Error(err))
		return docResult{issue: &DocumentIssue{Document: name, Reason: err.Error(), Err: err}}
	}
	if !filepath.IsLocal(name) {
		return skip(fmt.Errorf("%w: document name %q is not a local path", models.ErrMissingInput, name))
	}
	outlinePath, err := outline.Resolve(outlinesDir, name, p.settings.OutlineSuffix, p.settings.OutlineExtensions)
	if err != nil {
		return skip(err)
	}
	canonical, err := outline.Load(outlinePath)
	if err != nil {
		return skip(err)
	}
	pages, err := p.extractor.ExtractPages(filepath.Join(docsDir, name))
	if err != nil {
		return skip(err)
	}
	sections := p.segmenter.Segment(name, canonical, pages)
	p.logger.Debug("document segmented",
		zap.String("document", name),
		zap.Int("pages", len(pages)),
		zap.Int("headings", len(canonical.Headings)),
		zap.Int("sections", len(sections)),
	)
	return docResult{sections: sections}
}

// store archives the reported sections of res. Failures are logged only.
func (p *Pipeline) store(ctx context.Context, requestKey string, res *Result) {
	if p.archive == nil {
		return
	}
	n := len(res.Report.ExtractedSections)
	run := &models.Run{
		ID:         res.RunID,
		RequestKey: requestKey,
		Query:      res.Query,
		Report:     res.Report,
		Sections:   make([]models.RunSection, n),
		CreatedAt:  res.Report.Metadata.ProcessingTimestamp,
	}
	for i, s := range res.Ranked[:n] {
		run.Sections[i] = models.RunSection{
			Rank:       s.Rank,
			DocumentID: s.DocumentID,
			Title:      s.Title,
			Page:       s.Page,
			Score:      s.Score,
		}
	}
	if err := p.archive.SaveRun(ctx, run); err != nil {
		p.logger.Warn("archive run failed", zap.String("run_id", run.ID), zap.Error(err))
	}
}
