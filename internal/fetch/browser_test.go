package fetch

import (
	"context"
	"testing"
	"time"

	"github.com/chromedp/chromedp"
)

func TestBestEffortBoundsBlockingAction(t *testing.T) {
	// Stands in for a query action waiting on a node the page never
	// shows: it only returns when its context dies.
	blocked := chromedp.ActionFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	parent, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	start := time.Now()
	if err := bestEffort(50*time.Millisecond, blocked).Do(parent); err != nil {
		t.Fatalf("bestEffort: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("blocking action held the caller for %v", elapsed)
	}
	if parent.Err() != nil {
		t.Fatalf("parent context must survive the inner deadline: %v", parent.Err())
	}
}

func TestScreenshotName(t *testing.T) {
	got := screenshotName("https://acme.example/about?lang=fr")
	if got != "acme.example_about_lang_fr.png" {
		t.Fatalf("screenshotName = %q", got)
	}
}
