package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fieldworkhq/marketscout/internal/aggregate"
	"github.com/fieldworkhq/marketscout/internal/normalize"
)

func pageHTML(title, heading, body string) string {
	return fmt.Sprintf(`<!doctype html><html><head><title>%s</title></head>
<body><h1>%s</h1><h2>About us</h2><p>%s</p></body></html>`, title, heading, body)
}

const techBody = "We design and operate cloud infrastructure for software companies. " +
	"Our deployment pipelines, api gateways and devops tooling keep enterprise platforms online. " +
	"Cloud migration, infrastructure audits and software development round out the services we provide to clients."

const marketingBody = "Our marketing campaigns grow brand audiences through seo, advertising and content strategy. " +
	"We handle acquisition, brand positioning and campaign reporting for ambitious companies. " +
	"Advertising spend turns into measurable audience growth when the brand message is right."

func testConfig(t *testing.T, sourcesCSV string) Config {
	t.Helper()
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "sources.csv")
	if err := os.WriteFile(srcPath, []byte(sourcesCSV), 0o644); err != nil {
		t.Fatalf("write sources: %v", err)
	}
	return Config{
		SourcesPath:  srcPath,
		OutDir:       filepath.Join(dir, "out"),
		UserAgent:    "marketscout-test/1.0",
		FetchWorkers: 2,
		MaxAttempts:  1,
		FailLogPath:  filepath.Join(dir, "failures.log"),
	}
}

func TestRunPartialFailureStillSucceeds(t *testing.T) {
	good1 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, pageHTML("Acme Cloud", "Acme Cloud", techBody))
	}))
	defer good1.Close()
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer broken.Close()
	good2 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, pageHTML("Brand Builders", "Brand Builders", marketingBody))
	}))
	defer good2.Close()

	csv := "url,strategy,category\n" +
		good1.URL + ",static,company\n" +
		broken.URL + ",static,company\n" +
		good2.URL + ",static,freelance\n"
	cfg := testConfig(t, csv)

	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("partial failure must not fail the run: %v", err)
	}

	for _, name := range []string{CapturesFile, CleanedFile, ProfilesFile, StatsFile} {
		if _, err := os.Stat(filepath.Join(cfg.OutDir, name)); err != nil {
			t.Fatalf("artifact %s missing: %v", name, err)
		}
	}

	profiles := readProfiles(t, cfg.OutDir)
	if len(profiles) != 2 {
		t.Fatalf("got %d profiles, want 2 (the surviving sources)", len(profiles))
	}

	logBytes, err := os.ReadFile(cfg.FailLogPath)
	if err != nil {
		t.Fatalf("read failure log: %v", err)
	}
	if !strings.Contains(string(logBytes), "fetch_failed") {
		t.Fatalf("failure log lacks a fetch_failed entry:\n%s", logBytes)
	}
	if !strings.Contains(string(logBytes), broken.URL) {
		t.Fatalf("failure log does not name the broken source:\n%s", logBytes)
	}
}

func TestRunTotalFailureExitsNonZero(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer broken.Close()

	cfg := testConfig(t, "url,strategy,category\n"+broken.URL+",static,company\n")
	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	if err := a.Run(context.Background()); !errors.Is(err, ErrNoLiveCaptures) {
		t.Fatalf("Run = %v, want ErrNoLiveCaptures", err)
	}
}

func TestAnalyzeReRunsOverExistingCorpus(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")
	docs := []normalize.Document{
		{
			CaptureID:   "c1",
			SourceURL:   "https://acme.example",
			SourceName:  "Acme",
			URL:         "https://acme.example",
			Category:    "company",
			Text:        techBody,
			Lang:        "en",
			Fingerprint: "fp1",
			Live:        true,
			FetchedAt:   time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		},
		{
			CaptureID:   "c2",
			SourceURL:   "https://brand.example",
			SourceName:  "Brand Builders",
			URL:         "https://brand.example",
			Category:    "freelance",
			Text:        marketingBody,
			Lang:        "en",
			Fingerprint: "fp2",
			Live:        true,
			FetchedAt:   time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
		},
	}
	if err := writeCleaned(outDir, docs); err != nil {
		t.Fatalf("writeCleaned: %v", err)
	}

	cfg := Config{SourcesPath: "unused.csv", OutDir: outDir, FetchWorkers: 1}
	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	if err := a.Analyze(context.Background()); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	first, err := os.ReadFile(filepath.Join(outDir, ProfilesFile))
	if err != nil {
		t.Fatalf("read profiles: %v", err)
	}

	profiles := readProfiles(t, outDir)
	if len(profiles) != 2 {
		t.Fatalf("got %d profiles, want 2", len(profiles))
	}
	if profiles[0].Theme != "technology" {
		t.Fatalf("acme theme = %q, want technology", profiles[0].Theme)
	}
	if profiles[1].Theme != "marketing" {
		t.Fatalf("brand theme = %q, want marketing", profiles[1].Theme)
	}

	// Re-analysis over the same corpus is byte-identical.
	if err := a.Analyze(context.Background()); err != nil {
		t.Fatalf("second Analyze: %v", err)
	}
	second, err := os.ReadFile(filepath.Join(outDir, ProfilesFile))
	if err != nil {
		t.Fatalf("read profiles again: %v", err)
	}
	if string(first) != string(second) {
		t.Fatalf("re-analysis changed profiles.json")
	}
}

func TestAnalyzeEmptyCorpus(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")
	if err := writeCleaned(outDir, nil); err != nil {
		t.Fatalf("writeCleaned: %v", err)
	}
	a, err := New(Config{SourcesPath: "unused.csv", OutDir: outDir})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()
	if err := a.Analyze(context.Background()); !errors.Is(err, ErrCorpusEmpty) {
		t.Fatalf("Analyze = %v, want ErrCorpusEmpty", err)
	}
}

func readProfiles(t *testing.T, outDir string) []aggregate.Profile {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(outDir, ProfilesFile))
	if err != nil {
		t.Fatalf("read profiles: %v", err)
	}
	var profiles []aggregate.Profile
	if err := json.Unmarshal(b, &profiles); err != nil {
		t.Fatalf("parse profiles: %v", err)
	}
	return profiles
}
