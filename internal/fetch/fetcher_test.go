package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fieldworkhq/marketscout/internal/faillog"
	"github.com/fieldworkhq/marketscout/internal/source"
)

func staticPage(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(body))
	}
}

func TestFetcher_StaticCapture(t *testing.T) {
	srv := httptest.NewServer(staticPage("<html><body><main>" + longParagraph() + "</main></body></html>"))
	defer srv.Close()

	f := &Fetcher{Static: &Client{MaxAttempts: 1}}
	caps := f.Fetch(context.Background(), source.Source{URL: srv.URL, Strategy: source.StrategyStatic})
	if len(caps) != 1 {
		t.Fatalf("expected 1 capture, got %d", len(caps))
	}
	c := caps[0]
	if c.Strategy != source.StrategyStatic || c.Status != 200 {
		t.Fatalf("unexpected capture metadata: %+v", c)
	}
	if c.ID == "" || c.FetchedAt.IsZero() {
		t.Fatalf("expected populated id and timestamp")
	}
}

func TestFetcher_SessionDedupNeverFetchesTwice(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		staticPage("<html><body>" + longParagraph() + "</body></html>")(w, r)
	}))
	defer srv.Close()

	f := &Fetcher{Static: &Client{MaxAttempts: 1}}
	src := source.Source{URL: srv.URL + "/", Strategy: source.StrategyStatic}
	first := f.Fetch(context.Background(), src)
	// Same URL with a fragment and query normalizes to the same session key.
	second := f.Fetch(context.Background(), source.Source{URL: srv.URL + "/?ref=x#top", Strategy: source.StrategyStatic})
	if len(first) != 1 || len(second) != 0 {
		t.Fatalf("expected dedup to drop the second fetch, got %d and %d", len(first), len(second))
	}
	if hits != 1 {
		t.Fatalf("expected exactly one request, got %d", hits)
	}
}

func TestFetcher_PermanentFailureRecordsMarker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(http.NotFound))
	defer srv.Close()

	failures, _ := faillog.Open("")
	f := &Fetcher{Static: &Client{MaxAttempts: 2, RetryBaseDelay: time.Millisecond}, Failures: failures}
	caps := f.Fetch(context.Background(), source.Source{URL: srv.URL, Strategy: source.StrategyStatic})
	if len(caps) != 0 {
		t.Fatalf("expected no captures for 404 source")
	}
	entries := failures.Entries()
	if len(entries) != 1 || entries[0].Kind != faillog.KindFetchFailed || entries[0].Stage != "fetch" {
		t.Fatalf("unexpected failure entries: %v", entries)
	}
}

func TestFetcher_FollowsSectionLinks(t *testing.T) {
	mux := http.NewServeMux()
	mux.Handle("/", staticPage(`<html><body>`+longParagraph()+`<a href="/about">About us</a></body></html>`))
	mux.Handle("/about", staticPage("<html><body><h1>About</h1>"+longParagraph()+"</body></html>"))
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f := &Fetcher{
		Static:          &Client{MaxAttempts: 1},
		MaxSectionLinks: 3,
		Links: func(body []byte, baseURL string, max int) []string {
			return []string{baseURL + "/about", baseURL + "/about"}
		},
	}
	caps := f.Fetch(context.Background(), source.Source{URL: srv.URL, Strategy: source.StrategyStatic})
	// Root plus one section; the duplicate link is deduped by session state.
	if len(caps) != 2 {
		t.Fatalf("expected 2 captures, got %d", len(caps))
	}
	if caps[1].SourceURL != caps[0].SourceURL {
		t.Fatalf("section capture must belong to the same source")
	}
}

func TestFetcher_PolitenessGateSpacesSameDomainRequests(t *testing.T) {
	var stamps []time.Time
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stamps = append(stamps, time.Now())
		staticPage("<html><body>" + longParagraph() + "</body></html>")(w, r)
	}))
	defer srv.Close()

	delay := 60 * time.Millisecond
	f := &Fetcher{
		Static:          &Client{MaxAttempts: 1},
		PolitenessDelay: delay,
		MaxSectionLinks: 1,
		Links: func(body []byte, baseURL string, max int) []string {
			return []string{baseURL + "/next"}
		},
	}
	_ = f.Fetch(context.Background(), source.Source{URL: srv.URL, Strategy: source.StrategyStatic})
	if len(stamps) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(stamps))
	}
	if gap := stamps[1].Sub(stamps[0]); gap < delay-10*time.Millisecond {
		t.Fatalf("expected at least ~%v between same-domain requests, got %v", delay, gap)
	}
}

func TestFetcher_PermanentFailureNotEscalatedToBrowser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(http.NotFound))
	defer srv.Close()

	failures, _ := faillog.Open("")
	// A configured renderer must stay idle: rendering a 404 error page
	// would admit its content into the corpus as a live capture.
	f := &Fetcher{
		Static:   &Client{MaxAttempts: 1},
		Browser:  &Renderer{},
		Failures: failures,
	}
	caps := f.Fetch(context.Background(), source.Source{URL: srv.URL, Strategy: source.StrategyAuto})
	if len(caps) != 0 {
		t.Fatalf("404 source produced %d captures, want none", len(caps))
	}
	entries := failures.Entries()
	if len(entries) != 1 || entries[0].Kind != faillog.KindFetchFailed {
		t.Fatalf("unexpected failure entries: %v", entries)
	}
	if !strings.Contains(entries[0].Error, "unexpected status 404") {
		t.Fatalf("marker should carry the static error, got %q", entries[0].Error)
	}
}
