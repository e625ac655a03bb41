package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadAndApplyFileConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "marketscout.yaml")
	content := `
sources: targets.csv
outDir: results
fetch:
  workers: 8
  politenessDelay: 5s
  browser: true
llm:
  model: local-model
analysis:
  clusterThreshold: 0.4
failLog: failures.log
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	fc, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}

	cfg := DefaultConfig()
	ApplyFileConfig(&cfg, fc)
	if cfg.SourcesPath != "targets.csv" {
		t.Fatalf("sources = %q", cfg.SourcesPath)
	}
	if cfg.OutDir != "results" {
		t.Fatalf("outDir = %q", cfg.OutDir)
	}
	if cfg.FetchWorkers != 8 {
		t.Fatalf("workers = %d", cfg.FetchWorkers)
	}
	if cfg.PolitenessDelay != 5*time.Second {
		t.Fatalf("politeness = %v", cfg.PolitenessDelay)
	}
	if !cfg.EnableBrowser {
		t.Fatalf("browser not enabled")
	}
	if cfg.LLMModel != "local-model" {
		t.Fatalf("model = %q", cfg.LLMModel)
	}
	if cfg.ClusterThreshold != 0.4 {
		t.Fatalf("cluster threshold = %v", cfg.ClusterThreshold)
	}
	if cfg.FailLogPath != "failures.log" {
		t.Fatalf("fail log = %q", cfg.FailLogPath)
	}
}

func TestApplyFileConfigKeepsExplicitValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OutDir = "explicit"
	var fc FileConfig
	fc.OutDir = "fromfile"
	ApplyFileConfig(&cfg, fc)
	if cfg.OutDir != "explicit" {
		t.Fatalf("file config overrode an explicit value: %q", cfg.OutDir)
	}
}

func TestValidateConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := ValidateConfig(cfg); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	cfg.SourcesPath = " "
	if err := ValidateConfig(cfg); err == nil {
		t.Fatalf("blank sources path accepted")
	}
	cfg = DefaultConfig()
	cfg.ClusterThreshold = 1.5
	if err := ValidateConfig(cfg); err == nil {
		t.Fatalf("out-of-range cluster threshold accepted")
	}
}
