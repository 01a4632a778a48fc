// Package config provides configuration loading and structs for yomu.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hyperjump/yomu/internal/embedding"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config location used when -config is not given.
const DefaultPath = "/usr/local/etc/yomu/config.yaml"

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Input     InputConfig     `yaml:"input"`
	Segment   SegmentConfig   `yaml:"segment"`
	Rank      RankConfig      `yaml:"rank"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Storage   StorageConfig   `yaml:"storage"`
	Server    ServerConfig    `yaml:"server"`
	Watch     WatchConfig     `yaml:"watch"`
}

// InputConfig locates documents and their outlines.
type InputConfig struct {
	DocumentsDir      string   `yaml:"documents_dir"`
	OutlinesDir       string   `yaml:"outlines_dir"`
	OutlineSuffix     string   `yaml:"outline_suffix"`
	OutlineExtensions []string `yaml:"outline_extensions"`
}

// SegmentConfig holds section segmentation settings.
type SegmentConfig struct {
	// MinBodyChars drops sections with shorter bodies; negative keeps every non-empty body.
	MinBodyChars  int    `yaml:"min_body_chars"`
	PageSeparator string `yaml:"page_separator"`
}

// RankConfig holds ranking and report settings.
type RankConfig struct {
	TopK          int    `yaml:"top_k"`
	TruncateChars int    `yaml:"truncate_chars"`
	QueryTemplate string `yaml:"query_template"`
}

// EmbeddingConfig selects and tunes the embedding provider.
type EmbeddingConfig struct {
	Provider    string `yaml:"provider"`
	Model       string `yaml:"model"`
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Dimensions  int    `yaml:"dimensions"`
	MaxTokens   int    `yaml:"max_tokens"`
	CacheSize   int    `yaml:"cache_size"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	MaxRetries  int    `yaml:"max_retries"`
	Analyzer    string `yaml:"analyzer"`
	CacheDir    string `yaml:"cache_dir"`
}

// PipelineConfig holds run orchestration settings.
type PipelineConfig struct {
	Workers int `yaml:"workers"`
}

// StorageConfig holds the run archive location. An empty path disables archiving.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host               string `yaml:"host"`
	Port               int    `yaml:"port"`
	RequestTimeoutSecs int    `yaml:"request_timeout_secs"`
}

// WatchConfig holds watch mode settings.
type WatchConfig struct {
	Extensions []string `yaml:"extensions"`
	DebounceMS int      `yaml:"debounce_ms"`
}

// Timeout returns the embedding deadline for one run.
func (e *EmbeddingConfig) Timeout() time.Duration {
	return time.Duration(e.TimeoutSecs) * time.Second
}

// Debounce returns the watch debounce interval.
func (w *WatchConfig) Debounce() time.Duration {
	return time.Duration(w.DebounceMS) * time.Millisecond
}

// Addr returns host:port for the HTTP listener.
func (s *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// EmbeddingOptions maps the embedding section to provider options. The API key is
// read from the environment variable named by api_key_env.
func (c *Config) EmbeddingOptions() embedding.Options {
	e := c.Embedding
	opts := embedding.Options{
		Provider:    e.Provider,
		Model:       e.Model,
		BaseURL:     e.BaseURL,
		Dimensions:  e.Dimensions,
		MaxTokens:   e.MaxTokens,
		CacheSize:   e.CacheSize,
		CacheDir:    e.CacheDir,
		Analyzer:    e.Analyzer,
		MaxRetries:  e.MaxRetries,
		HTTPTimeout: e.Timeout(),
	}
	if e.APIKeyEnv != "" {
		opts.APIKey = os.Getenv(e.APIKeyEnv)
	}
	return opts
}

// Default returns a config with every default applied and environment overrides.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	applyEnv(cfg)
	return cfg
}

// Load reads and parses the config file at path, applies defaults, expands paths
// and applies environment overrides. Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	configDir := filepath.Dir(path)
	loadDotEnv(configDir)
	ApplyDefaults(&cfg)

	cfg.Input.DocumentsDir = expandPath(cfg.Input.DocumentsDir, configDir)
	cfg.Input.OutlinesDir = expandPath(cfg.Input.OutlinesDir, configDir)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Embedding.CacheDir = expandPath(cfg.Embedding.CacheDir, configDir)
	if strings.EqualFold(cfg.Embedding.Provider, embedding.ProviderONNX) {
		cfg.Embedding.Model = expandPath(cfg.Embedding.Model, configDir)
	}
	applyEnv(&cfg)

	return &cfg, nil
}

// LoadOrDefault loads path. When path is DefaultPath, config.yaml in the current
// directory takes precedence, and a missing file yields Default(). Returns the
// config and the path actually loaded (empty for defaults).
func LoadOrDefault(path string) (*Config, string, error) {
	if path != DefaultPath {
		cfg, err := Load(path)
		return cfg, path, err
	}
	if cwd, err := os.Getwd(); err == nil {
		fallback := filepath.Join(cwd, "config.yaml")
		if _, statErr := os.Stat(fallback); statErr == nil {
			cfg, loadErr := Load(fallback)
			return cfg, fallback, loadErr
		}
	}
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		loadDotEnv(".")
		return Default(), "", nil
	}
	return cfg, path, err
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory. Empty paths stay empty.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if strings.HasPrefix(path, "~/") {
		path = path[2:]
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
