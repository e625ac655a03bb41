package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fieldworkhq/marketscout/internal/faillog"
	"github.com/fieldworkhq/marketscout/internal/source"
)

// Capture is the raw content retrieved for one URL under one source.
// Never mutated after creation.
type Capture struct {
	ID        string          `json:"id"`
	SourceURL string          `json:"source_url"`
	URL       string          `json:"url"`
	Strategy  source.Strategy `json:"strategy"`
	Status    int             `json:"status"`
	Body      []byte          `json:"-"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// Fetcher retrieves pages for sources, choosing between static retrieval and
// browser rendering, with a shared politeness gate and session URL dedup.
// One Fetcher is scoped to one pipeline run.
type Fetcher struct {
	Static *Client
	// Browser is optional; nil disables dynamic fetching and auto
	// escalation degrades to the static result.
	Browser *Renderer
	// MinStaticTextChars drives the auto-escalation heuristic.
	MinStaticTextChars int
	// PolitenessDelay is the minimum spacing between requests to the same
	// domain, shared across workers.
	PolitenessDelay time.Duration
	// Links, when set, is asked for additional same-site section URLs to
	// capture after the root page (at most MaxSectionLinks of them).
	Links           func(body []byte, baseURL string, max int) []string
	MaxSectionLinks int
	// Robots, when set, is consulted before every page fetch and its
	// crawl-delay stretches the politeness gap for that domain.
	Robots *RobotsGate
	// Failures receives skip markers; permanent failures are recorded
	// here instead of being returned.
	Failures *faillog.Log

	mu       sync.Mutex
	lastHit  map[string]time.Time
	seenURLs map[string]struct{}
}

// Fetch retrieves zero or more captures for one source. Failures are
// recorded in the failure log, never raised: a source that cannot be
// fetched yields an empty slice.
func (f *Fetcher) Fetch(ctx context.Context, src source.Source) []Capture {
	rootURL, ok := f.admitURL(src.URL)
	if !ok {
		return nil
	}
	var captures []Capture
	root, err := f.fetchOne(ctx, src, rootURL)
	if err != nil {
		f.recordFailure(src.URL, err)
		return nil
	}
	captures = append(captures, root)

	// Follow a bounded number of section links off the root page.
	if f.Links != nil && f.MaxSectionLinks > 0 {
		for _, link := range f.Links(root.Body, root.URL, f.MaxSectionLinks) {
			if ctx.Err() != nil {
				break
			}
			u, ok := f.admitURL(link)
			if !ok {
				continue
			}
			c, err := f.fetchOne(ctx, src, u)
			if err != nil {
				log.Warn().Err(err).Str("url", u).Msg("section fetch failed; skipping page")
				continue
			}
			captures = append(captures, c)
		}
	}
	return captures
}

func (f *Fetcher) fetchOne(ctx context.Context, src source.Source, pageURL string) (Capture, error) {
	strategy := src.Strategy
	if strategy == "" {
		strategy = source.StrategyAuto
	}

	if f.Robots != nil && !f.Robots.Allowed(ctx, pageURL) {
		return Capture{}, fmt.Errorf("%s: disallowed by robots.txt: %w", pageURL, ErrPermanent)
	}

	if strategy == source.StrategyDynamic {
		return f.fetchDynamic(ctx, src, pageURL)
	}

	f.waitPoliteness(ctx, pageURL)
	body, status, err := f.Static.Get(ctx, pageURL)
	if err != nil {
		// Only transient exhaustion is worth a browser retry. A
		// permanent failure (404, bad content type) would just render
		// the error page into the corpus.
		if strategy == source.StrategyAuto && f.Browser != nil && IsTransient(err) {
			log.Info().Str("url", pageURL).Msg("static fetch failed; escalating to browser")
			return f.fetchDynamic(ctx, src, pageURL)
		}
		return Capture{}, err
	}
	if strategy == source.StrategyAuto && f.Browser != nil &&
		(LooksClientRendered(body, f.MinStaticTextChars) || HasAntiBotChallenge(body)) {
		log.Info().Str("url", pageURL).Msg("static result unusable; escalating to browser")
		if c, err := f.fetchDynamic(ctx, src, pageURL); err == nil {
			return c, nil
		}
		// Rendering failed; keep the thin static capture rather than nothing.
	}
	return f.newCapture(src, pageURL, source.StrategyStatic, status, body), nil
}

func (f *Fetcher) fetchDynamic(ctx context.Context, src source.Source, pageURL string) (Capture, error) {
	if f.Browser == nil {
		return Capture{}, errors.New("dynamic fetch requested but browser rendering is disabled")
	}
	f.waitPoliteness(ctx, pageURL)
	body, err := f.Browser.Render(ctx, pageURL)
	if err != nil {
		return Capture{}, err
	}
	return f.newCapture(src, pageURL, source.StrategyDynamic, 200, body), nil
}

func (f *Fetcher) newCapture(src source.Source, pageURL string, used source.Strategy, status int, body []byte) Capture {
	return Capture{
		ID:        uuid.NewString(),
		SourceURL: src.URL,
		URL:       pageURL,
		Strategy:  used,
		Status:    status,
		Body:      body,
		FetchedAt: time.Now().UTC(),
	}
}

func (f *Fetcher) recordFailure(srcURL string, err error) {
	kind := faillog.KindFetchFailed
	if IsTransient(err) {
		// Retries exhausted on a transient condition.
		kind = faillog.KindFetchTransient
	}
	log.Warn().Err(err).Str("source", srcURL).Msg("fetch failed; skipping source")
	if f.Failures != nil {
		f.Failures.Record("fetch", srcURL, kind, err)
	}
}

// admitURL normalizes a URL and claims it for this session. The second
// return is false when the URL is malformed or already visited.
func (f *Fetcher) admitURL(raw string) (string, bool) {
	norm, ok := NormalizeURL(raw)
	if !ok {
		return "", false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seenURLs == nil {
		f.seenURLs = map[string]struct{}{}
	}
	if _, dup := f.seenURLs[norm]; dup {
		return "", false
	}
	f.seenURLs[norm] = struct{}{}
	return norm, true
}

// waitPoliteness blocks until the per-domain minimum delay has elapsed.
// A robots.txt crawl-delay longer than the configured gap takes over.
func (f *Fetcher) waitPoliteness(ctx context.Context, pageURL string) {
	delay := f.PolitenessDelay
	if f.Robots != nil {
		if d := f.Robots.CrawlDelay(pageURL); d > delay {
			delay = d
		}
	}
	if delay <= 0 {
		return
	}
	u, err := url.Parse(pageURL)
	if err != nil {
		return
	}
	domain := strings.ToLower(u.Hostname())
	for {
		f.mu.Lock()
		if f.lastHit == nil {
			f.lastHit = map[string]time.Time{}
		}
		now := time.Now()
		wait := delay - now.Sub(f.lastHit[domain])
		if wait <= 0 {
			f.lastHit[domain] = now
			f.mu.Unlock()
			return
		}
		f.mu.Unlock()
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

// NormalizeURL canonicalizes a URL for session dedup: lower-cased host,
// dropped fragment and query, no trailing slash.
func NormalizeURL(raw string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" || !isHTTPScheme(u) {
		return "", false
	}
	u.Fragment = ""
	u.RawQuery = ""
	u.Host = strings.ToLower(u.Host)
	return strings.TrimSuffix(u.String(), "/"), true
}
