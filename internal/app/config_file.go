package app

import (
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// FileConfig is the YAML configuration schema. Nested sections map
// naturally to flags and keep related knobs together.
type FileConfig struct {
	Sources string `yaml:"sources"`
	OutDir  string `yaml:"outDir"`

	Fetch struct {
		UserAgent   string `yaml:"userAgent"`
		Workers     int    `yaml:"workers"`
		MaxAttempts int    `yaml:"maxAttempts"`
		// PolitenessDelay is a Go duration string such as "2s".
		PolitenessDelay string `yaml:"politenessDelay"`
		MinStaticChars  int    `yaml:"minStaticChars"`
		SectionLinks    int    `yaml:"sectionLinks"`
		Browser         bool   `yaml:"browser"`
		ScreenshotDir   string `yaml:"screenshotDir"`
	} `yaml:"fetch"`

	LLM struct {
		BaseURL string `yaml:"base"`
		Model   string `yaml:"model"`
		APIKey  string `yaml:"key"`
	} `yaml:"llm"`

	Analysis struct {
		TopKeywords      int     `yaml:"topKeywords"`
		ClusterThreshold float64 `yaml:"clusterThreshold"`
		NameSimilarity   float64 `yaml:"nameSimilarity"`
		MinContentChars  int     `yaml:"minContentChars"`
		Workers          int     `yaml:"workers"`
	} `yaml:"analysis"`

	FailLog string `yaml:"failLog"`
	Verbose bool   `yaml:"verbose"`
}

// LoadConfigFile reads YAML into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return fc, fmt.Errorf("parse config: %w", err)
	}
	return fc, nil
}

// ApplyFileConfig overlays file values into cfg for fields still at
// their flag defaults, so explicit flags keep precedence.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	def := DefaultConfig()

	if (cfg.SourcesPath == "" || cfg.SourcesPath == def.SourcesPath) && fc.Sources != "" {
		cfg.SourcesPath = fc.Sources
	}
	if (cfg.OutDir == "" || cfg.OutDir == def.OutDir) && fc.OutDir != "" {
		cfg.OutDir = fc.OutDir
	}

	if (cfg.UserAgent == "" || cfg.UserAgent == def.UserAgent) && fc.Fetch.UserAgent != "" {
		cfg.UserAgent = fc.Fetch.UserAgent
	}
	if (cfg.FetchWorkers == 0 || cfg.FetchWorkers == def.FetchWorkers) && fc.Fetch.Workers > 0 {
		cfg.FetchWorkers = fc.Fetch.Workers
	}
	if (cfg.MaxAttempts == 0 || cfg.MaxAttempts == def.MaxAttempts) && fc.Fetch.MaxAttempts > 0 {
		cfg.MaxAttempts = fc.Fetch.MaxAttempts
	}
	if (cfg.PolitenessDelay == 0 || cfg.PolitenessDelay == def.PolitenessDelay) && fc.Fetch.PolitenessDelay != "" {
		if d, err := time.ParseDuration(fc.Fetch.PolitenessDelay); err == nil && d > 0 {
			cfg.PolitenessDelay = d
		}
	}
	if cfg.MinStaticTextChars == 0 && fc.Fetch.MinStaticChars > 0 {
		cfg.MinStaticTextChars = fc.Fetch.MinStaticChars
	}
	if (cfg.MaxSectionLinks == 0 || cfg.MaxSectionLinks == def.MaxSectionLinks) && fc.Fetch.SectionLinks > 0 {
		cfg.MaxSectionLinks = fc.Fetch.SectionLinks
	}
	if !cfg.EnableBrowser && fc.Fetch.Browser {
		cfg.EnableBrowser = true
	}
	if cfg.ScreenshotDir == "" && fc.Fetch.ScreenshotDir != "" {
		cfg.ScreenshotDir = fc.Fetch.ScreenshotDir
	}

	if cfg.LLMBaseURL == "" && fc.LLM.BaseURL != "" {
		cfg.LLMBaseURL = fc.LLM.BaseURL
	}
	if cfg.LLMModel == "" && fc.LLM.Model != "" {
		cfg.LLMModel = fc.LLM.Model
	}
	if cfg.LLMAPIKey == "" && fc.LLM.APIKey != "" {
		cfg.LLMAPIKey = fc.LLM.APIKey
	}

	if cfg.TopKeywords == 0 && fc.Analysis.TopKeywords > 0 {
		cfg.TopKeywords = fc.Analysis.TopKeywords
	}
	if cfg.ClusterThreshold == 0 && fc.Analysis.ClusterThreshold > 0 {
		cfg.ClusterThreshold = fc.Analysis.ClusterThreshold
	}
	if cfg.NameSimilarity == 0 && fc.Analysis.NameSimilarity > 0 {
		cfg.NameSimilarity = fc.Analysis.NameSimilarity
	}
	if cfg.MinContentChars == 0 && fc.Analysis.MinContentChars > 0 {
		cfg.MinContentChars = fc.Analysis.MinContentChars
	}
	if (cfg.AnalysisWorkers == 0 || cfg.AnalysisWorkers == def.AnalysisWorkers) && fc.Analysis.Workers > 0 {
		cfg.AnalysisWorkers = fc.Analysis.Workers
	}

	if cfg.FailLogPath == "" && fc.FailLog != "" {
		cfg.FailLogPath = fc.FailLog
	}
	if !cfg.Verbose && fc.Verbose {
		cfg.Verbose = true
	}
}
