package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables that override the config file.
const (
	EnvDebug             = "YOMU_DEBUG"
	EnvEmbeddingProvider = "YOMU_EMBEDDING_PROVIDER"
	EnvEmbeddingModel    = "YOMU_EMBEDDING_MODEL"
	EnvEmbeddingBaseURL  = "YOMU_EMBEDDING_BASE_URL"
	EnvDocumentsDir      = "YOMU_DOCUMENTS_DIR"
)

// loadDotEnv loads .env from dir when present. Variables already set in the
// process environment win.
func loadDotEnv(dir string) {
	path := filepath.Join(dir, ".env")
	if _, err := os.Stat(path); err != nil {
		return
	}
	_ = godotenv.Load(path)
}

func applyEnv(cfg *Config) {
	if v, ok := lookup(EnvDebug); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Debug = b
		}
	}
	if v, ok := lookup(EnvEmbeddingProvider); ok {
		cfg.Embedding.Provider = v
	}
	if v, ok := lookup(EnvEmbeddingModel); ok {
		cfg.Embedding.Model = v
	}
	if v, ok := lookup(EnvEmbeddingBaseURL); ok {
		cfg.Embedding.BaseURL = v
	}
	if v, ok := lookup(EnvDocumentsDir); ok {
		cfg.Input.DocumentsDir = v
	}
}

func lookup(key string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	return v, v != ""
}
