package faillog

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLog_AppendsJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "failures.log")
	l, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	l.Record("fetch", "https://a.example", KindFetchFailed, errors.New("status 404"))
	l.Record("analysis", "doc-2", KindAnalysisFailed, errors.New("no analyzable tokens"))
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("line is not JSON: %v", err)
	}
	if rec["source"] != "https://a.example" || rec["kind"] != "fetch_failed" {
		t.Fatalf("unexpected record: %v", rec)
	}
	if l.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", l.Len())
	}
}

func TestLog_EmptyPathIsInMemoryOnly(t *testing.T) {
	l, err := Open("")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	l.Record("fetch", "x", KindFetchTransient, nil)
	if got := l.Entries(); len(got) != 1 || got[0].Kind != KindFetchTransient {
		t.Fatalf("unexpected entries: %v", got)
	}
}
