package outline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperjump/yomu/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_LabeledList(t *testing.T) {
	data := `[
		{"text": "Guide to the South", "page": 1, "label_type": "TITLE"},
		{"text": "Second Title", "page": 1, "label_type": "TITLE"},
		{"text": "Cities", "page": 2, "label_type": "H1"},
		{"text": "some body line", "page": 2, "label_type": "BODY"},
		{"text": "Nice", "page": 3, "label_type": "H2"},
		{"text": "Intro", "page": 1, "label_type": "H1"}
	]`
	out, err := Parse([]byte(data), ".json")
	require.NoError(t, err)

	assert.Equal(t, "Guide to the South", out.Title)
	require.Len(t, out.Headings, 3)
	assert.Equal(t, models.HeadingRecord{Level: models.LevelH1, Text: "Intro", Page: 1}, out.Headings[0])
	assert.Equal(t, "Cities", out.Headings[1].Text)
	assert.Equal(t, models.LevelH2, out.Headings[2].Level)
}

func TestParse_Canonical(t *testing.T) {
	data := `{"title": "Manual", "outline": [
		{"level": "H2", "text": "Setup", "page": 4},
		{"text": "Overview", "page": 2},
		{"level": "H1", "text": "   ", "page": 3}
	]}`
	out, err := Parse([]byte(data), ".json")
	require.NoError(t, err)

	assert.Equal(t, "Manual", out.Title)
	require.Len(t, out.Headings, 2)
	assert.Equal(t, models.HeadingRecord{Level: models.LevelH1, Text: "Overview", Page: 2}, out.Headings[0])
	assert.Equal(t, models.HeadingRecord{Level: models.LevelH2, Text: "Setup", Page: 4}, out.Headings[1])
}

func TestParse_YAML(t *testing.T) {
	data := "title: Manual\noutline:\n  - level: H1\n    text: Overview\n    page: 2\n"
	out, err := Parse([]byte(data), ".yaml")
	require.NoError(t, err)
	require.Len(t, out.Headings, 1)
	assert.Equal(t, 2, out.Headings[0].Page)
}

func TestParse_SamePageKeepsInputOrder(t *testing.T) {
	data := `{"title": null, "outline": [
		{"text": "B", "page": 5},
		{"text": "A", "page": 1},
		{"text": "C", "page": 5},
		{"text": "D", "page": 5}
	]}`
	out, err := Parse([]byte(data), ".json")
	require.NoError(t, err)

	var texts []string
	for _, h := range out.Headings {
		texts = append(texts, h.Text)
	}
	assert.Equal(t, []string{"A", "B", "C", "D"}, texts)
	assert.Empty(t, out.Title)
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"scalar", `"hello"`},
		{"object without outline", `{"title": "x", "headings": []}`},
		{"item not object", `[1, 2]`},
		{"missing label_type", `[{"text": "x", "page": 1}]`},
		{"zero page", `[{"text": "x", "page": 0, "label_type": "H1"}]`},
		{"fractional page", `{"outline": [{"text": "x", "page": 1.5}]}`},
		{"string page", `{"outline": [{"text": "x", "page": "2"}]}`},
		{"invalid level", `{"outline": [{"text": "x", "page": 2, "level": "H7"}]}`},
		{"title level in outline", `{"outline": [{"text": "x", "page": 2, "level": "TITLE"}]}`},
		{"non-string title", `{"title": 3, "outline": []}`},
		{"bad json", `{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data), ".json")
			require.Error(t, err)
			assert.ErrorIs(t, err, models.ErrMalformedOutline)
		})
	}
}

func TestParse_EmptyOutlines(t *testing.T) {
	out, err := Parse([]byte(`[]`), ".json")
	require.NoError(t, err)
	assert.Empty(t, out.Headings)

	out, err = Parse([]byte(`{"title": "Only a title", "outline": []}`), ".json")
	require.NoError(t, err)
	assert.Empty(t, out.Headings)
	assert.Equal(t, "Only a title", out.Title)
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "guide_outline.json", FileName("guide.pdf", DefaultSuffix, ".json"))
	assert.Equal(t, "my.report_outline.yaml", FileName("docs/my.report.docx", DefaultSuffix, ".yaml"))
	assert.Equal(t, "notes_outline.json", FileName("notes", DefaultSuffix, ".json"))
}

func TestResolveAndLoad(t *testing.T) {
	dir := t.TempDir()
	_, err := Resolve(dir, "guide.pdf", "", nil)
	assert.ErrorIs(t, err, models.ErrMissingInput)

	yamlPath := filepath.Join(dir, "guide_outline.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("outline:\n  - text: Intro\n    page: 1\n"), 0644))
	got, err := Resolve(dir, "guide.pdf", "", nil)
	require.NoError(t, err)
	assert.Equal(t, yamlPath, got)

	jsonPath := filepath.Join(dir, "guide_outline.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`[{"text":"Intro","page":1,"label_type":"H1"}]`), 0644))
	got, err = Resolve(dir, "guide.pdf", "", nil)
	require.NoError(t, err)
	assert.Equal(t, jsonPath, got, "json is probed before yaml")

	out, err := Load(got)
	require.NoError(t, err)
	require.Len(t, out.Headings, 1)

	_, err = Load(filepath.Join(dir, "missing_outline.json"))
	assert.ErrorIs(t, err, models.ErrMissingInput)
}
