package fetch

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// Markers that indicate a client-rendered application shell: the static
// document is mostly a mount point and the real content arrives via script.
var scriptShellMarkers = []string{
	"data-reactroot",
	"window.__next_data__",
	"id=\"__next\"",
	"id=\"root\"",
	"ng-version",
	"nuxt",
	"webpack",
}

// Markers of bot-protection interstitials; the static body is a challenge
// page, not the site.
var antiBotMarkers = []string{
	"cloudflare",
	"captcha",
	"verify you are human",
	"attention required",
	"just a moment",
}

// LooksClientRendered reports whether a static fetch result is probably a
// placeholder that needs browser rendering: either the visible text is below
// minTextChars, or the markup carries SPA-shell or bot-challenge markers
// alongside thin content.
func LooksClientRendered(body []byte, minTextChars int) bool {
	if minTextChars <= 0 {
		minTextChars = 400
	}
	text := visibleText(body)
	if len(text) >= minTextChars {
		return false
	}
	if len(text) < minTextChars/4 {
		return true
	}
	low := strings.ToLower(string(body))
	for _, m := range scriptShellMarkers {
		if strings.Contains(low, m) {
			return true
		}
	}
	return HasAntiBotChallenge(body)
}

// HasAntiBotChallenge reports whether the body looks like a bot-protection
// interstitial rather than real site content.
func HasAntiBotChallenge(body []byte) bool {
	low := strings.ToLower(string(body))
	for _, m := range antiBotMarkers {
		if strings.Contains(low, m) {
			return true
		}
	}
	return false
}

// visibleText walks the parse tree and accumulates text outside script,
// style and similar non-content containers.
func visibleText(body []byte) string {
	node, err := html.Parse(bytes.NewReader(body))
	if err != nil || node == nil {
		return ""
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch strings.ToLower(n.Data) {
			case "script", "style", "noscript", "iframe", "head":
				return
			}
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				b.WriteString(t)
				b.WriteByte(' ')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(node)
	return strings.TrimSpace(b.String())
}
