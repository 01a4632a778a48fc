package models

// Section is a contiguous span of a document labeled by one heading.
// Body is non-empty after trimming and never starts with Title.
type Section struct {
	DocumentID string `json:"document"`
	Title      string `json:"section_title"`
	Body       string `json:"body"`
	Page       int    `json:"page_number"`
	// PageEnd is the last page of the source span.
	PageEnd int `json:"page_end"`
}

// ScoredSection is a Section with its relevance score and dense 1-based rank.
type ScoredSection struct {
	Section
	Score float64 `json:"score"`
	Rank  int     `json:"rank"`
}
