// Package report assembles ranked sections and request metadata into the final report.
package report

import (
	"fmt"
	"time"

	"github.com/hyperjump/yomu/internal/models"
	"github.com/hyperjump/yomu/pkg/utils"
)

// Options controls report assembly.
type Options struct {
	// TopK keeps only the first K ranked sections; 0 keeps the full pool.
	TopK int
	// TruncateChars cuts each body to this many runes plus "..."; 0 keeps full bodies.
	TruncateChars int
	// Now stamps the report; defaults to time.Now.
	Now func() time.Time
}

// Assemble builds the report for ranked, which must be ordered with dense ranks
// starting at 1. Persona role and task are echoed verbatim.
func Assemble(ranked []models.ScoredSection, req *models.Request, opts Options) (*models.Report, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: nil request", models.ErrMalformedRequest)
	}
	for i, s := range ranked {
		if s.Rank != i+1 {
			return nil, fmt.Errorf("ranked sections are not densely ordered: position %d has rank %d", i+1, s.Rank)
		}
	}
	if opts.TopK > 0 && opts.TopK < len(ranked) {
		ranked = ranked[:opts.TopK]
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	rep := &models.Report{
		Metadata: models.ReportMetadata{
			InputDocuments:      req.DocumentIDs(),
			Persona:             req.Persona.Role,
			JobToBeDone:         req.JobToBeDone.Task,
			ProcessingTimestamp: now(),
		},
		ExtractedSections:  make([]models.RankedEntry, len(ranked)),
		SubsectionAnalysis: make([]models.ContentEntry, len(ranked)),
	}
	for i, s := range ranked {
		rep.ExtractedSections[i] = models.RankedEntry{
			Document:       s.DocumentID,
			SectionTitle:   s.Title,
			ImportanceRank: s.Rank,
			PageNumber:     s.Page,
		}
		rep.SubsectionAnalysis[i] = models.ContentEntry{
			Document:    s.DocumentID,
			RefinedText: utils.Truncate(s.Body, opts.TruncateChars),
			PageNumber:  s.Page,
		}
	}
	return rep, nil
}
