package config

import (
	"github.com/hyperjump/yomu/internal/embedding"
	"github.com/hyperjump/yomu/internal/extract"
	"github.com/hyperjump/yomu/internal/outline"
	"github.com/hyperjump/yomu/internal/query"
	"github.com/hyperjump/yomu/internal/segment"
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Input.OutlineSuffix == "" {
		cfg.Input.OutlineSuffix = outline.DefaultSuffix
	}
	if cfg.Input.OutlineExtensions == nil {
		cfg.Input.OutlineExtensions = append([]string(nil), outline.DefaultExtensions...)
	}
	if cfg.Segment.MinBodyChars == 0 {
		cfg.Segment.MinBodyChars = segment.DefaultMinBodyChars
	}
	if cfg.Segment.PageSeparator == "" {
		cfg.Segment.PageSeparator = segment.DefaultPageSeparator
	}
	if cfg.Rank.TopK == 0 {
		cfg.Rank.TopK = 10
	}
	if cfg.Rank.QueryTemplate == "" {
		cfg.Rank.QueryTemplate = query.DefaultTemplate
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = embedding.ProviderHashing
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Embedding.TimeoutSecs == 0 {
		cfg.Embedding.TimeoutSecs = 60
	}
	if cfg.Embedding.MaxRetries == 0 {
		cfg.Embedding.MaxRetries = 3
	}
	if cfg.Embedding.Analyzer == "" {
		cfg.Embedding.Analyzer = embedding.AnalyzerEnglish
	}
	if cfg.Embedding.APIKeyEnv == "" {
		cfg.Embedding.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.Pipeline.Workers == 0 {
		cfg.Pipeline.Workers = 4
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RequestTimeoutSecs == 0 {
		cfg.Server.RequestTimeoutSecs = 120
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = extract.SupportedExtensions()
	}
	if cfg.Watch.DebounceMS == 0 {
		cfg.Watch.DebounceMS = 500
	}
}
