// Package models defines core data structures for outlines, sections, requests, and reports.
package models

import "strings"

// HeadingLevel is the structural level of an outline entry.
type HeadingLevel string

const (
	LevelTitle HeadingLevel = "TITLE"
	LevelH1    HeadingLevel = "H1"
	LevelH2    HeadingLevel = "H2"
	LevelH3    HeadingLevel = "H3"
	LevelH4    HeadingLevel = "H4"
)

// ParseHeadingLevel parses s case-insensitively. Reports false for unknown levels.
func ParseHeadingLevel(s string) (HeadingLevel, bool) {
	switch HeadingLevel(strings.ToUpper(strings.TrimSpace(s))) {
	case LevelTitle:
		return LevelTitle, true
	case LevelH1:
		return LevelH1, true
	case LevelH2:
		return LevelH2, true
	case LevelH3:
		return LevelH3, true
	case LevelH4:
		return LevelH4, true
	}
	return "", false
}

// IsHeading reports whether l labels a section heading (H1 through H4).
func (l HeadingLevel) IsHeading() bool {
	switch l {
	case LevelH1, LevelH2, LevelH3, LevelH4:
		return true
	}
	return false
}

// HeadingRecord is one outline entry. Page is 1-based.
type HeadingRecord struct {
	Level HeadingLevel `json:"level" yaml:"level"`
	Text  string       `json:"text" yaml:"text"`
	Page  int          `json:"page" yaml:"page"`
}

// CanonicalOutline is the normalized outline of one document.
// Headings never contain TITLE entries and are ordered by ascending page;
// headings sharing a page keep their input order.
type CanonicalOutline struct {
	// Title is empty when the source carries no title.
	Title    string          `json:"title" yaml:"title"`
	Headings []HeadingRecord `json:"outline" yaml:"outline"`
}
