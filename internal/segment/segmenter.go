// Package segment splits per-page document text into labeled sections using
// the page locations of outline headings.
package segment

import (
	"regexp"
	"strings"

	"github.com/hyperjump/yomu/internal/models"
	"github.com/hyperjump/yomu/pkg/utils"
	"go.uber.org/zap"
)

// DefaultMinBodyChars is the minimum body length, in runes, for a span to become a section.
const DefaultMinBodyChars = 40

// DefaultPageSeparator joins the pages of a multi-page span.
const DefaultPageSeparator = "\n\n"

// Config controls segmentation.
type Config struct {
	MinBodyChars  int
	PageSeparator string
}

// Segmenter converts canonical outlines plus page text into sections.
type Segmenter struct {
	minBody int
	sep     string
	logger  *zap.Logger
}

// Option configures a Segmenter.
type Option func(*Segmenter)

// WithLogger sets a logger for boundary anomalies and discarded spans.
func WithLogger(l *zap.Logger) Option {
	return func(s *Segmenter) { s.logger = l }
}

// NewSegmenter creates a segmenter. Zero config values fall back to defaults;
// a negative MinBodyChars keeps every non-empty span.
func NewSegmenter(cfg Config, opts ...Option) *Segmenter {
	s := &Segmenter{
		minBody: cfg.MinBodyChars,
		sep:     cfg.PageSeparator,
		logger:  zap.NewNop(),
	}
	if s.minBody == 0 {
		s.minBody = DefaultMinBodyChars
	}
	if s.sep == "" {
		s.sep = DefaultPageSeparator
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = utils.OrNop(s.logger)
	return s
}

// Span is the inclusive 1-based page range covered by one heading.
type Span struct {
	Heading models.HeadingRecord
	Start   int
	End     int
}

// Spans computes the page range of every heading. Heading i covers pages
// [page_i, page_{i+1}-1]; the last heading runs to the final page. Ranges past
// the document end are clamped; a span whose start lies beyond the document, or
// whose end precedes its start, is returned with End < Start.
func Spans(headings []models.HeadingRecord, numPages int) []Span {
	spans := make([]Span, len(headings))
	for i, h := range headings {
		end := numPages
		if i+1 < len(headings) {
			end = headings[i+1].Page - 1
		}
		if end > numPages {
			end = numPages
		}
		spans[i] = Span{Heading: h, Start: h.Page, End: end}
	}
	return spans
}

// Segment produces the sections of one document in outline order.
func (s *Segmenter) Segment(documentID string, outline *models.CanonicalOutline, pages []string) []models.Section {
	if outline == nil || len(outline.Headings) == 0 {
		return []models.Section{}
	}
	cleaned := make([]string, len(pages))
	for i, p := range pages {
		cleaned[i] = CleanPage(p)
	}

	sections := make([]models.Section, 0, len(outline.Headings))
	for i, span := range Spans(outline.Headings, len(pages)) {
		h := span.Heading
		log := s.logger.With(
			zap.String("document", documentID),
			zap.String("heading", h.Text),
			zap.Int("page", h.Page),
		)
		if h.Page > len(pages) {
			log.Warn("heading page beyond extracted pages, skipping", zap.Int("pages", len(pages)))
			continue
		}
		if i+1 < len(outline.Headings) && outline.Headings[i+1].Page-1 > len(pages) {
			log.Warn("section boundary beyond extracted pages, clamped", zap.Int("pages", len(pages)))
		}
		if span.End < span.Start {
			log.Debug("empty page span, skipping")
			continue
		}

		raw := strings.Join(cleaned[span.Start-1:span.End], s.sep)
		body := TrimHeading(raw, CleanHeading(h.Text))
		if body == "" || (s.minBody > 0 && utils.RuneLen(body) < s.minBody) {
			log.Debug("section body below minimum length, skipping", zap.Int("runes", utils.RuneLen(body)))
			continue
		}
		sections = append(sections, models.Section{
			DocumentID: documentID,
			Title:      h.Text,
			Body:       body,
			Page:       span.Start,
			PageEnd:    span.End,
		})
	}
	return sections
}

// TrimHeading drops everything up to and including the first occurrence of title
// in raw, then strips repeated echoes of title at the start of what remains.
// When title does not occur, raw is kept whole. The result is whitespace-trimmed.
// Occurrences are matched verbatim first, then with any whitespace between words.
func TrimHeading(raw, title string) string {
	if title == "" {
		return strings.TrimSpace(raw)
	}
	body := raw
	if idx, n := find(raw, title); idx >= 0 {
		body = raw[idx+n:]
	}
	body = strings.TrimSpace(body)
	for {
		idx, n := find(body, title)
		if idx != 0 || n == 0 {
			break
		}
		body = strings.TrimSpace(body[n:])
	}
	return body
}

// find returns the byte offset and length of the first occurrence of title in s,
// or -1 when absent.
func find(s, title string) (int, int) {
	if idx := strings.Index(s, title); idx >= 0 {
		return idx, len(title)
	}
	words := strings.Fields(title)
	if len(words) < 2 {
		return -1, 0
	}
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	re, err := regexp.Compile(strings.Join(quoted, `\s+`))
	if err != nil {
		return -1, 0
	}
	loc := re.FindStringIndex(s)
	if loc == nil {
		return -1, 0
	}
	return loc[0], loc[1] - loc[0]
}
