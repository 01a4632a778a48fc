// Package cli provides output helpers for the yomu command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/yomu/internal/models"
	"github.com/hyperjump/yomu/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text.
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption (default for reports).
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat accepts "json" or "text"; anything else is an error.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(strings.TrimSpace(s))) {
	case OutputJSON:
		return OutputJSON, nil
	case OutputText:
		return OutputText, nil
	}
	return "", fmt.Errorf("invalid output format %q (use json or text)", s)
}

// WriteReport writes rep to w in the given format.
func WriteReport(w io.Writer, rep *models.Report, format OutputFormat) error {
	if format == OutputText {
		return writeReportText(w, rep)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(rep)
}

func writeReportText(w io.Writer, rep *models.Report) error {
	m := rep.Metadata
	fmt.Fprintf(w, "\nPersona: %s\nTask:    %s\n", m.Persona, m.JobToBeDone)
	fmt.Fprintf(w, "Documents: %s\n", strings.Join(m.InputDocuments, ", "))
	fmt.Fprintf(w, "Generated: %s\n\n", m.ProcessingTimestamp.Format("2006-01-02 15:04:05 MST"))
	if len(rep.ExtractedSections) == 0 {
		_, err := fmt.Fprintln(w, "No sections ranked.")
		return err
	}
	for i, s := range rep.ExtractedSections {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "#%d  %s  (%s, page %d)\n", s.ImportanceRank, s.SectionTitle, s.Document, s.PageNumber)
		fmt.Fprintf(w, "\n%s\n\n", utils.Truncate(rep.SubsectionAnalysis[i].RefinedText, 300))
	}
	return nil
}

// WriteRuns writes archived run summaries to w.
func WriteRuns(w io.Writer, runs []*models.RunSummary, total int64, format OutputFormat) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Runs  []*models.RunSummary `json:"runs"`
			Total int64                `json:"total"`
		}{runs, total})
	}
	fmt.Fprintf(w, "%d archived runs\n\n", total)
	for _, r := range runs {
		fmt.Fprintf(w, "%s  %s  %-24s %2d sections  %s\n",
			r.CreatedAt.Format("2006-01-02 15:04:05"), r.ID,
			utils.Truncate(r.Persona, 21), r.SectionCount, utils.Truncate(r.JobToBeDone, 60))
	}
	return nil
}
