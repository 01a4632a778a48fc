package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/hyperjump/yomu/internal/config"
	"github.com/hyperjump/yomu/internal/embedding"
	"github.com/hyperjump/yomu/internal/models"
)

func TestReorderArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"empty", []string{}, []string{}},
		{"request only", []string{"input.json"}, []string{"input.json"}},
		{"flags first unchanged", []string{"-top-k", "5", "input.json"}, []string{"-top-k", "5", "input.json"}},
		{"flags after request", []string{"input.json", "-top-k", "5"}, []string{"-top-k", "5", "input.json"}},
		{"double dash flags after request", []string{"input.json", "--output", "text", "--debug"}, []string{"--output", "text", "--debug", "input.json"}},
		{"flags on both sides", []string{"-debug", "input.json", "-top-k", "3"}, []string{"-debug", "-top-k", "3", "input.json"}},
		{"bool flag before request", []string{"--debug", "input.json"}, []string{"--debug", "input.json"}},
		{"inline value", []string{"input.json", "-truncate=80", "-debug"}, []string{"-truncate=80", "-debug", "input.json"}},
		{"terminator", []string{"-debug", "--", "-odd.json"}, []string{"-debug", "--", "-odd.json"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs, _ := newRunFlagSet("run")
			assert.Equal(t, tt.want, reorderArgs(fs, tt.args))
		})
	}
}

func TestNewRunFlagSet_ParsesAfterRequest(t *testing.T) {
	fs, opts := newRunFlagSet("run")
	require.NoError(t, fs.Parse(reorderArgs(fs, []string{"-debug", "req.json", "-top-k", "3", "-truncate", "50", "-output", "text"})))
	assert.Equal(t, []string{"req.json"}, fs.Args())
	assert.Equal(t, 3, opts.topK)
	assert.Equal(t, 50, opts.truncate)
	assert.Equal(t, "text", opts.output)
	assert.True(t, opts.debug)
	assert.Equal(t, config.DefaultPath, opts.configPath)
}

func TestApplyOverrides(t *testing.T) {
	cfg := config.Default()
	cfg.Rank.TopK = 10
	cfg.Rank.TruncateChars = 0

	(&runOptions{topK: -1, truncate: -1}).applyOverrides(cfg)
	assert.Equal(t, 10, cfg.Rank.TopK)
	assert.Equal(t, 0, cfg.Rank.TruncateChars)
	assert.False(t, cfg.Debug)

	(&runOptions{topK: 0, truncate: 120, debug: true}).applyOverrides(cfg)
	assert.Equal(t, 0, cfg.Rank.TopK)
	assert.Equal(t, 120, cfg.Rank.TruncateChars)
	assert.True(t, cfg.Debug)
}

// writeCollection lays out a request with its documents under PDFs/.
func writeCollection(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	docs := filepath.Join(dir, "PDFs")
	require.NoError(t, os.MkdirAll(docs, 0755))
	files := map[string]string{
		filepath.Join(docs, "beach.txt"): "Beaches\nSandy coves near Nice are ideal for swimming and snorkeling in summer.",
		filepath.Join(docs, "beach_outline.json"): `{"title": "Riviera", "outline": [{"level": "H1", "text": "Beaches", "page": 1}]}`,
		filepath.Join(docs, "museums.txt"): "Museums\nThe modern art collection is open on weekdays and closed for holidays.",
		filepath.Join(docs, "museums_outline.json"): `{"title": "Culture", "outline": [{"level": "H1", "text": "Museums", "page": 1}]}`,
		filepath.Join(dir, "input.json"): `{
			"documents": [{"filename": "beach.txt"}, {"filename": "museums.txt"}],
			"persona": {"role": "Travel Planner"},
			"job_to_be_done": {"task": "Find places for swimming"}
		}`,
	}
	for path, content := range files {
		require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	}
	return dir
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Embedding.Provider = "hashing"
	cfg.Storage.DatabasePath = filepath.Join(t.TempDir(), "runs.db")
	return cfg
}

func TestExecuteRun_WritesReportToStdout(t *testing.T) {
	dir := writeCollection(t)
	cfg := testConfig(t)
	comps, err := initializeComponents(cfg, zap.NewNop())
	require.NoError(t, err)
	defer comps.Close()

	opts := &runOptions{output: "json", topK: -1, truncate: -1}
	var buf bytes.Buffer
	res, err := executeRun(context.Background(), comps.Pipeline, cfg, opts, filepath.Join(dir, "input.json"), &buf)
	require.NoError(t, err)
	assert.NotEmpty(t, res.RunID)
	assert.Empty(t, res.Skipped)

	var rep models.Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rep))
	assert.Equal(t, []string{"beach.txt", "museums.txt"}, rep.Metadata.InputDocuments)
	require.Len(t, rep.ExtractedSections, 2)
	assert.Equal(t, "Beaches", rep.ExtractedSections[0].SectionTitle)

	count, err := comps.Archive.CountRuns(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestExecuteRun_WritesReportToFile(t *testing.T) {
	dir := writeCollection(t)
	cfg := testConfig(t)
	cfg.Storage.DatabasePath = ""
	comps, err := initializeComponents(cfg, zap.NewNop())
	require.NoError(t, err)
	defer comps.Close()
	assert.Nil(t, comps.Archive)

	out := filepath.Join(dir, "out", "report.json")
	opts := &runOptions{output: "json", outPath: out, topK: -1, truncate: -1}
	var stdout bytes.Buffer
	_, err = executeRun(context.Background(), comps.Pipeline, cfg, opts, filepath.Join(dir, "input.json"), &stdout)
	require.NoError(t, err)
	assert.Empty(t, stdout.String())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"importance_rank": 1`)
}

func TestExecuteRun_Errors(t *testing.T) {
	dir := writeCollection(t)
	cfg := testConfig(t)
	cfg.Storage.DatabasePath = ""
	comps, err := initializeComponents(cfg, zap.NewNop())
	require.NoError(t, err)
	defer comps.Close()

	_, err = executeRun(context.Background(), comps.Pipeline, cfg, &runOptions{output: "xml"}, filepath.Join(dir, "input.json"), &bytes.Buffer{})
	assert.Error(t, err)

	_, err = executeRun(context.Background(), comps.Pipeline, cfg, &runOptions{output: "json"}, filepath.Join(dir, "missing.json"), &bytes.Buffer{})
	assert.ErrorIs(t, err, models.ErrMissingInput)
}

func TestInitializeComponents_BadArchivePath(t *testing.T) {
	cfg := testConfig(t)
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0600))
	cfg.Storage.DatabasePath = filepath.Join(blocker, "runs.db")

	_, err := initializeComponents(cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestComponentsClose_Empty(t *testing.T) {
	assert.NotPanics(t, func() { (&Components{}).Close() })
}

func TestInitializeComponents_FallsBackToHashing(t *testing.T) {
	dir := writeCollection(t)
	cfg := testConfig(t)
	cfg.Storage.DatabasePath = ""
	cfg.Embedding.Provider = embedding.ProviderONNX
	cfg.Embedding.Model = ""

	core, logs := observer.New(zapcore.WarnLevel)
	comps, err := initializeComponents(cfg, zap.New(core))
	require.NoError(t, err)
	defer comps.Close()

	entries := logs.FilterMessageSnippet("falling back to hashing").All()
	require.Len(t, entries, 1)
	assert.Equal(t, embedding.ProviderONNX, entries[0].ContextMap()["provider"])

	res, err := executeRun(context.Background(), comps.Pipeline, cfg, &runOptions{output: "json", topK: -1, truncate: -1}, filepath.Join(dir, "input.json"), &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "Beaches", res.Report.ExtractedSections[0].SectionTitle)
}

func TestInitializeComponents_UnknownProviderIsFatal(t *testing.T) {
	cfg := testConfig(t)
	cfg.Embedding.Provider = "word2vec"
	_, err := initializeComponents(cfg, zap.NewNop())
	assert.Error(t, err)
}
