package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/fieldworkhq/marketscout/internal/aggregate"
	"github.com/fieldworkhq/marketscout/internal/fetch"
	"github.com/fieldworkhq/marketscout/internal/normalize"
)

// Artifact file names under the output directory, in pipeline order.
const (
	CapturesFile = "captures.json"
	CleanedFile  = "cleaned.json"
	ProfilesFile = "profiles.json"
	StatsFile    = "stats.json"
)

func writeCaptures(dir string, captures []fetch.Capture) error {
	sorted := make([]fetch.Capture, len(captures))
	copy(sorted, captures)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].URL != sorted[j].URL {
			return sorted[i].URL < sorted[j].URL
		}
		return sorted[i].ID < sorted[j].ID
	})
	return writeJSON(filepath.Join(dir, CapturesFile), sorted)
}

func writeCleaned(dir string, docs []normalize.Document) error {
	sorted := make([]normalize.Document, len(docs))
	copy(sorted, docs)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].URL != sorted[j].URL {
			return sorted[i].URL < sorted[j].URL
		}
		return sorted[i].CaptureID < sorted[j].CaptureID
	})
	return writeJSON(filepath.Join(dir, CleanedFile), sorted)
}

func readCleaned(dir string) ([]normalize.Document, error) {
	b, err := os.ReadFile(filepath.Join(dir, CleanedFile))
	if err != nil {
		return nil, fmt.Errorf("read cleaned corpus: %w", err)
	}
	var docs []normalize.Document
	if err := json.Unmarshal(b, &docs); err != nil {
		return nil, fmt.Errorf("parse cleaned corpus: %w", err)
	}
	return docs, nil
}

func writeProfiles(dir string, profiles []aggregate.Profile) error {
	return writeJSON(filepath.Join(dir, ProfilesFile), profiles)
}

func writeStats(dir string, stats aggregate.Stats) error {
	return writeJSON(filepath.Join(dir, StatsFile), stats)
}

// writeJSON writes via a temp file and rename so readers never see a
// half-written artifact.
func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(b, '\n'), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
