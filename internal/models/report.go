package models

import "time"

// Report is the final ranked output. ExtractedSections and SubsectionAnalysis
// are positionally aligned: entry i of each refers to the same section.
type Report struct {
	Metadata           ReportMetadata `json:"metadata"`
	ExtractedSections  []RankedEntry  `json:"extracted_sections"`
	SubsectionAnalysis []ContentEntry `json:"subsection_analysis"`
}

// ReportMetadata echoes the request and stamps the generation time.
type ReportMetadata struct {
	InputDocuments      []string  `json:"input_documents"`
	Persona             string    `json:"persona"`
	JobToBeDone         string    `json:"job_to_be_done"`
	ProcessingTimestamp time.Time `json:"processing_timestamp"`
}

// RankedEntry is one row of the ranked index.
type RankedEntry struct {
	Document       string `json:"document"`
	SectionTitle   string `json:"section_title"`
	ImportanceRank int    `json:"importance_rank"`
	PageNumber     int    `json:"page_number"`
}

// ContentEntry is the body text for the ranked entry at the same position.
type ContentEntry struct {
	Document    string `json:"document"`
	RefinedText string `json:"refined_text"`
	PageNumber  int    `json:"page_number"`
}

// Run is an archived pipeline invocation.
type Run struct {
	ID         string       `json:"id"`
	RequestKey string       `json:"request_key"`
	Query      string       `json:"query"`
	Report     *Report      `json:"report"`
	Sections   []RunSection `json:"sections"`
	CreatedAt  time.Time    `json:"created_at"`
}

// RunSection records the score behind one ranked entry of a run.
type RunSection struct {
	Rank       int     `json:"rank"`
	DocumentID string  `json:"document"`
	Title      string  `json:"section_title"`
	Page       int     `json:"page_number"`
	Score      float64 `json:"score"`
}

// RunSummary is a lightweight listing row for archived runs.
type RunSummary struct {
	ID           string    `json:"id"`
	RequestKey   string    `json:"request_key"`
	Persona      string    `json:"persona"`
	JobToBeDone  string    `json:"job_to_be_done"`
	SectionCount int       `json:"section_count"`
	CreatedAt    time.Time `json:"created_at"`
}
