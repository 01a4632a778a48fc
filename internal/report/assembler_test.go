package report

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/hyperjump/yomu/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 7, 10, 15, 31, 22, 0, time.UTC)

func request() *models.Request {
	return &models.Request{
		Documents:   []models.DocumentRef{{Filename: "b.pdf"}, {Filename: "a.pdf"}, {Filename: "empty.pdf"}},
		Persona:     models.Persona{Role: "Travel Planner"},
		JobToBeDone: models.Job{Task: "Plan a trip of 4 days for a group of 10 college friends."},
	}
}

func ranked(n int) []models.ScoredSection {
	out := make([]models.ScoredSection, n)
	for i := range out {
		out[i] = models.ScoredSection{
			Section: models.Section{
				DocumentID: []string{"a.pdf", "b.pdf"}[i%2],
				Title:      "Section " + string(rune('A'+i)),
				Body:       "Body text for section " + string(rune('A'+i)),
				Page:       i + 1,
				PageEnd:    i + 1,
			},
			Score: 1 - float64(i)*0.1,
			Rank:  i + 1,
		}
	}
	return out
}

func TestAssemble_AlignedAndOrdered(t *testing.T) {
	rep, err := Assemble(ranked(4), request(), Options{Now: func() time.Time { return fixedNow }})
	require.NoError(t, err)

	require.Len(t, rep.ExtractedSections, 4)
	require.Len(t, rep.SubsectionAnalysis, 4)
	for i := range rep.ExtractedSections {
		idx, content := rep.ExtractedSections[i], rep.SubsectionAnalysis[i]
		assert.Equal(t, i+1, idx.ImportanceRank)
		assert.Equal(t, idx.Document, content.Document)
		assert.Equal(t, idx.PageNumber, content.PageNumber)
	}
	assert.Equal(t, "Body text for section A", rep.SubsectionAnalysis[0].RefinedText)
	assert.Equal(t, []string{"b.pdf", "a.pdf", "empty.pdf"}, rep.Metadata.InputDocuments)
	assert.Equal(t, "Travel Planner", rep.Metadata.Persona)
	assert.Equal(t, "Plan a trip of 4 days for a group of 10 college friends.", rep.Metadata.JobToBeDone)
	assert.Equal(t, fixedNow, rep.Metadata.ProcessingTimestamp)
}

func TestAssemble_TopKAndTruncation(t *testing.T) {
	rep, err := Assemble(ranked(8), request(), Options{TopK: 5, TruncateChars: 4})
	require.NoError(t, err)
	require.Len(t, rep.ExtractedSections, 5)
	assert.Equal(t, 5, rep.ExtractedSections[4].ImportanceRank)
	assert.Equal(t, "Body...", rep.SubsectionAnalysis[0].RefinedText)
	assert.False(t, rep.Metadata.ProcessingTimestamp.IsZero())
}

func TestAssemble_EmptyPool(t *testing.T) {
	rep, err := Assemble(nil, request(), Options{})
	require.NoError(t, err)
	assert.NotNil(t, rep.ExtractedSections)
	assert.Empty(t, rep.ExtractedSections)

	data, err := json.Marshal(rep)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"extracted_sections":[]`)
}

func TestAssemble_RejectsRankGaps(t *testing.T) {
	bad := ranked(3)
	bad[2].Rank = 4
	_, err := Assemble(bad, request(), Options{})
	assert.Error(t, err)

	_, err = Assemble(ranked(1), nil, Options{})
	assert.ErrorIs(t, err, models.ErrMalformedRequest)
}

func TestAssemble_JSONKeyOrder(t *testing.T) {
	rep, err := Assemble(ranked(1), request(), Options{Now: func() time.Time { return fixedNow }})
	require.NoError(t, err)
	data, err := json.Marshal(rep)
	require.NoError(t, err)

	meta := bytes.Index(data, []byte(`"metadata"`))
	extracted := bytes.Index(data, []byte(`"extracted_sections"`))
	analysis := bytes.Index(data, []byte(`"subsection_analysis"`))
	assert.True(t, meta < extracted && extracted < analysis, "keys out of order: %s", data)
	assert.Contains(t, string(data), `"processing_timestamp":"2025-07-10T15:31:22Z"`)
	assert.Contains(t, string(data), `"importance_rank":1`)
}
