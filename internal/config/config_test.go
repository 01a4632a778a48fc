package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hyperjump/yomu/internal/embedding"
	"github.com/hyperjump/yomu/internal/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  host: "127.0.0.1"
  port: 9000
rank:
  top_k: 5
  truncate_chars: 200
embedding:
  provider: ollama
  model: nomic-embed-text
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 5, cfg.Rank.TopK)
	assert.Equal(t, 200, cfg.Rank.TruncateChars)
	assert.Equal(t, "ollama", cfg.Embedding.Provider)
	assert.False(t, cfg.Debug, "debug should default to false when unset")
	assert.Empty(t, cfg.Storage.DatabasePath, "archive stays disabled unless configured")
}

func TestLoad_missingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoad_invalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "rank: [unterminated"))
	require.Error(t, err)
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	path := writeConfig(t, `
input:
  documents_dir: "./docs"
  outlines_dir: "./outlines"
storage:
  database_path: "./data/runs.db"
embedding:
  provider: onnx
  model: "./models/minilm.onnx"
`)
	dir := filepath.Dir(path)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "docs"), cfg.Input.DocumentsDir)
	assert.Equal(t, filepath.Join(dir, "outlines"), cfg.Input.OutlinesDir)
	assert.Equal(t, filepath.Join(dir, "data", "runs.db"), cfg.Storage.DatabasePath)
	assert.Equal(t, filepath.Join(dir, "models", "minilm.onnx"), cfg.Embedding.Model)
}

func TestLoad_modelNameNotExpandedForRemoteProviders(t *testing.T) {
	cfg, err := Load(writeConfig(t, "embedding:\n  provider: openai\n  model: text-embedding-3-small\n"))
	require.NoError(t, err)
	assert.Equal(t, "text-embedding-3-small", cfg.Embedding.Model)
}

func TestLoad_envOverrides(t *testing.T) {
	t.Setenv(EnvDebug, "true")
	t.Setenv(EnvEmbeddingProvider, "mock")
	t.Setenv(EnvEmbeddingModel, "tiny")
	t.Setenv(EnvEmbeddingBaseURL, "http://embed:11434")
	t.Setenv(EnvDocumentsDir, "/srv/docs")

	cfg, err := Load(writeConfig(t, "embedding:\n  provider: ollama\n"))
	require.NoError(t, err)
	assert.True(t, cfg.Debug)
	assert.Equal(t, "mock", cfg.Embedding.Provider)
	assert.Equal(t, "tiny", cfg.Embedding.Model)
	assert.Equal(t, "http://embed:11434", cfg.Embedding.BaseURL)
	assert.Equal(t, "/srv/docs", cfg.Input.DocumentsDir)
}

func TestLoad_dotEnvNextToConfig(t *testing.T) {
	path := writeConfig(t, "debug: false\n")
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(path), ".env"),
		[]byte("YOMU_TEST_DOTENV_KEY=from-dotenv\n"), 0600))
	t.Setenv("YOMU_TEST_DOTENV_KEY", "")
	require.NoError(t, os.Unsetenv("YOMU_TEST_DOTENV_KEY"))

	_, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", os.Getenv("YOMU_TEST_DOTENV_KEY"))
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 10, cfg.Rank.TopK)
	assert.Equal(t, 0, cfg.Rank.TruncateChars, "full bodies by default")
	assert.Equal(t, query.DefaultTemplate, cfg.Rank.QueryTemplate)
	assert.Equal(t, embedding.ProviderHashing, cfg.Embedding.Provider)
	assert.Equal(t, 4, cfg.Pipeline.Workers)
	assert.Equal(t, "_outline", cfg.Input.OutlineSuffix)
	assert.Equal(t, []string{".json", ".yaml", ".yml"}, cfg.Input.OutlineExtensions)
	assert.Contains(t, cfg.Watch.Extensions, ".pdf")
	assert.Equal(t, 60*time.Second, cfg.Embedding.Timeout())
	assert.Equal(t, 500*time.Millisecond, cfg.Watch.Debounce())
	assert.Equal(t, "localhost:8080", cfg.Server.Addr())
}

func TestApplyDefaults_keepsExplicitValues(t *testing.T) {
	cfg := &Config{Segment: SegmentConfig{MinBodyChars: -1}, Rank: RankConfig{TopK: 3}}
	ApplyDefaults(cfg)
	assert.Equal(t, -1, cfg.Segment.MinBodyChars)
	assert.Equal(t, 3, cfg.Rank.TopK)
}

func TestEmbeddingOptions(t *testing.T) {
	t.Setenv("YOMU_TEST_API_KEY", "sk-test")
	cfg := &Config{Embedding: EmbeddingConfig{APIKeyEnv: "YOMU_TEST_API_KEY"}}
	ApplyDefaults(cfg)
	opts := cfg.EmbeddingOptions()
	assert.Equal(t, "sk-test", opts.APIKey)
	assert.Equal(t, embedding.ProviderHashing, opts.Provider)
	assert.Equal(t, 10000, opts.CacheSize)
	assert.Equal(t, 60*time.Second, opts.HTTPTimeout)
}

func TestLoadOrDefault_explicitMissingIsError(t *testing.T) {
	_, _, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoadOrDefault_cwdFallback(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("rank:\n  top_k: 7\n"), 0600))
	t.Chdir(dir)

	cfg, used, err := LoadOrDefault(DefaultPath)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Rank.TopK)
	assert.Equal(t, filepath.Join(dir, "config.yaml"), used)
}

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saved.yaml")
	cfg := &Config{Server: ServerConfig{Host: "localhost", Port: 9090}}
	require.NoError(t, Save(path, cfg))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, loaded.Server.Port)
}
