package fetch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"
)

// Renderer captures script-generated content with a headless browser.
// Requires Chrome/Chromium on the host.
type Renderer struct {
	// Timeout bounds one full render including navigation.
	Timeout time.Duration
	// SettleTime is how long to wait after the DOM is ready before
	// capturing, so late script output lands in the snapshot.
	SettleTime time.Duration
	// ScreenshotDir, when set, saves a full-page screenshot next to each
	// render. Screenshot failures never fail the render.
	ScreenshotDir string
	UserAgent     string
}

// Render navigates to url, waits for the page to settle and returns the
// rendered HTML.
func (r *Renderer) Render(ctx context.Context, url string) ([]byte, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	settle := r.SettleTime
	if settle <= 0 {
		settle = 3 * time.Second
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if r.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(r.UserAgent))
	}
	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	defer cancel()
	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()
	browserCtx, cancel = context.WithTimeout(browserCtx, timeout)
	defer cancel()

	var rendered string
	tasks := chromedp.Tasks{
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.Sleep(settle),
		// Dismiss common consent banners; absence is not an error. The
		// click is a query action that waits for a matching node, so it
		// runs under its own short deadline instead of the render's.
		bestEffort(2*time.Second,
			chromedp.Click(`button[id*="accept"], button[class*="accept"], button[class*="consent"]`, chromedp.NodeVisible)),
		chromedp.OuterHTML("html", &rendered),
	}
	if err := chromedp.Run(browserCtx, tasks); err != nil {
		return nil, fmt.Errorf("browser rendering failed: %w", err)
	}

	if r.ScreenshotDir != "" {
		r.saveScreenshot(browserCtx, url)
	}
	return []byte(rendered), nil
}

// bestEffort runs act under its own deadline and swallows its error, so
// an action that waits for something the page never shows cannot consume
// the surrounding render budget.
func bestEffort(limit time.Duration, act chromedp.Action) chromedp.ActionFunc {
	return func(ctx context.Context) error {
		actCtx, cancel := context.WithTimeout(ctx, limit)
		defer cancel()
		_ = act.Do(actCtx)
		return nil
	}
}

// saveScreenshot persists a full-page capture as a side effect. Errors are
// logged and swallowed so a broken screenshot never blocks the capture.
func (r *Renderer) saveScreenshot(ctx context.Context, url string) {
	var buf []byte
	if err := chromedp.Run(ctx, chromedp.FullScreenshot(&buf, 80)); err != nil {
		log.Warn().Err(err).Str("url", url).Msg("screenshot failed")
		return
	}
	if err := os.MkdirAll(r.ScreenshotDir, 0o755); err != nil {
		log.Warn().Err(err).Msg("screenshot dir")
		return
	}
	name := screenshotName(url)
	if err := os.WriteFile(filepath.Join(r.ScreenshotDir, name), buf, 0o644); err != nil {
		log.Warn().Err(err).Str("url", url).Msg("write screenshot")
	}
}

func screenshotName(url string) string {
	s := strings.TrimPrefix(strings.TrimPrefix(url, "https://"), "http://")
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	name := b.String()
	if len(name) > 120 {
		name = name[:120]
	}
	return name + ".png"
}
