// Package faillog records per-source pipeline failures in an append-only
// structured log, so partial success is never silent.
package faillog

import (
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

// Kind classifies a failure for downstream operational tooling.
type Kind string

const (
	// KindFetchTransient marks a retryable condition that exhausted its
	// retry budget and degraded to a skip.
	KindFetchTransient Kind = "fetch_transient"
	// KindFetchFailed marks a permanent fetch failure; the source is
	// skipped for the run.
	KindFetchFailed Kind = "fetch_failed"
	// KindAnalysisFailed marks an isolated per-document analysis failure.
	KindAnalysisFailed Kind = "analysis_failed"
)

// Entry is one recorded failure.
type Entry struct {
	Source string `json:"source"`
	Stage  string `json:"stage"`
	Kind   Kind   `json:"kind"`
	Error  string `json:"error"`
}

// Log appends structured failure records to a file as JSON lines and keeps
// an in-memory copy for the run report. Safe for concurrent use.
type Log struct {
	mu      sync.Mutex
	f       *os.File
	logger  zerolog.Logger
	entries []Entry
}

// Open creates or appends to the failure log at path. An empty path keeps
// the in-memory record but writes nowhere.
func Open(path string) (*Log, error) {
	l := &Log{logger: zerolog.Nop()}
	if path == "" {
		return l, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open failure log: %w", err)
	}
	l.f = f
	l.logger = zerolog.New(f).With().Timestamp().Logger()
	return l, nil
}

// Record appends one failure entry.
func (l *Log) Record(stage, src string, kind Kind, err error) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	l.mu.Lock()
	l.entries = append(l.entries, Entry{Source: src, Stage: stage, Kind: kind, Error: msg})
	l.mu.Unlock()
	l.logger.Warn().
		Str("source", src).
		Str("stage", stage).
		Str("kind", string(kind)).
		Str("error", msg).
		Msg("pipeline failure")
}

// Entries returns a copy of all recorded failures in order.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len reports the number of recorded failures.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Close flushes and closes the underlying file, if any.
func (l *Log) Close() error {
	if l.f == nil {
		return nil
	}
	return l.f.Close()
}
