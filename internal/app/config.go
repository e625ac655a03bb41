package app

import (
	"errors"
	"strings"
	"time"
)

// Config holds runtime configuration for one pipeline run.
type Config struct {
	SourcesPath string
	OutDir      string

	// Fetching
	UserAgent          string
	FetchWorkers       int
	MaxAttempts        int
	PolitenessDelay    time.Duration
	MinStaticTextChars int
	MaxSectionLinks    int
	EnableBrowser      bool
	ScreenshotDir      string

	// Generative summaries (optional; extractive is the fallback)
	LLMBaseURL string
	LLMModel   string
	LLMAPIKey  string

	// Analysis / aggregation policy
	TopKeywords      int
	ClusterThreshold float64
	NameSimilarity   float64
	MinContentChars  int
	AnalysisWorkers  int

	// Behavior
	FailLogPath string
	Verbose     bool
}

// DefaultConfig returns the knobs a typical run starts from.
func DefaultConfig() Config {
	return Config{
		SourcesPath:     "sources.csv",
		OutDir:          "out",
		UserAgent:       "marketscout/1.0 (+https://github.com/fieldworkhq/marketscout)",
		FetchWorkers:    4,
		MaxAttempts:     3,
		PolitenessDelay: 2 * time.Second,
		MaxSectionLinks: 5,
		AnalysisWorkers: 4,
	}
}

// ValidateConfig performs minimal schema validation.
func ValidateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.SourcesPath) == "" {
		return errors.New("config: sources path is required")
	}
	if strings.TrimSpace(cfg.OutDir) == "" {
		return errors.New("config: output directory is required")
	}
	if cfg.FetchWorkers < 0 || cfg.MaxAttempts < 0 || cfg.MaxSectionLinks < 0 {
		return errors.New("config: negative limits are not allowed")
	}
	if cfg.ClusterThreshold < 0 || cfg.ClusterThreshold > 1 {
		return errors.New("config: cluster threshold must be in [0,1]")
	}
	if cfg.NameSimilarity < 0 || cfg.NameSimilarity > 1 {
		return errors.New("config: name similarity must be in [0,1]")
	}
	return nil
}
