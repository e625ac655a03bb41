package fetch

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RobotsGate answers whether a URL may be fetched under the site's
// robots.txt, caching parsed rules per host for the run. A site whose
// robots.txt cannot be retrieved or parsed is treated as allow-all,
// so an unreachable file never blocks a capture.
type RobotsGate struct {
	HTTPClient *http.Client
	UserAgent  string

	mu    sync.Mutex
	rules map[string]robotsRules
}

type robotsRules struct {
	groups []robotsGroup
}

type robotsGroup struct {
	agents     []string
	allow      []string
	disallow   []string
	crawlDelay time.Duration
}

// Allowed reports whether pageURL may be fetched for the gate's user
// agent.
func (g *RobotsGate) Allowed(ctx context.Context, pageURL string) bool {
	u, err := url.Parse(pageURL)
	if err != nil || u.Host == "" {
		return true
	}
	rules := g.rulesFor(ctx, u)
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return rules.isAllowed(g.UserAgent, path)
}

// CrawlDelay returns the crawl delay the site requests for the gate's
// user agent, or zero. Rules are only served from the run cache here;
// Allowed has always populated it first.
func (g *RobotsGate) CrawlDelay(pageURL string) time.Duration {
	u, err := url.Parse(pageURL)
	if err != nil || u.Host == "" {
		return 0
	}
	g.mu.Lock()
	rules, ok := g.rules[robotsKey(u)]
	g.mu.Unlock()
	if !ok {
		return 0
	}
	idx := rules.groupFor(g.UserAgent)
	if idx < 0 {
		return 0
	}
	return rules.groups[idx].crawlDelay
}

func robotsKey(u *url.URL) string {
	return strings.ToLower(u.Scheme + "://" + u.Host)
}

func (g *RobotsGate) rulesFor(ctx context.Context, u *url.URL) robotsRules {
	key := robotsKey(u)
	g.mu.Lock()
	if g.rules == nil {
		g.rules = make(map[string]robotsRules)
	}
	if rules, ok := g.rules[key]; ok {
		g.mu.Unlock()
		return rules
	}
	g.mu.Unlock()

	rules := g.download(ctx, key+"/robots.txt")

	g.mu.Lock()
	g.rules[key] = rules
	g.mu.Unlock()
	return rules
}

func (g *RobotsGate) download(ctx context.Context, robotsURL string) robotsRules {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return robotsRules{}
	}
	if g.UserAgent != "" {
		req.Header.Set("User-Agent", g.UserAgent)
	}
	client := g.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return robotsRules{}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return robotsRules{}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 512*1024))
	if err != nil {
		return robotsRules{}
	}
	return parseRobots(string(body))
}

func parseRobots(text string) robotsRules {
	var groups []robotsGroup
	current := robotsGroup{}
	flush := func() {
		if len(current.agents) == 0 && len(current.allow) == 0 && len(current.disallow) == 0 {
			return
		}
		groups = append(groups, current)
		current = robotsGroup{}
	}
	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		colon := strings.IndexByte(line, ':')
		if colon <= 0 {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(line[:colon]))
		val := strings.TrimSpace(line[colon+1:])
		switch key {
		case "user-agent":
			// A user-agent line after directives starts a new group.
			if len(current.allow) > 0 || len(current.disallow) > 0 || current.crawlDelay > 0 {
				flush()
			}
			current.agents = append(current.agents, strings.ToLower(val))
		case "allow":
			current.allow = append(current.allow, val)
		case "disallow":
			current.disallow = append(current.disallow, val)
		case "crawl-delay":
			if secs, err := strconv.ParseFloat(val, 64); err == nil && secs > 0 {
				current.crawlDelay = time.Duration(secs * float64(time.Second))
			}
		}
	}
	flush()
	return robotsRules{groups: groups}
}

// isAllowed applies the standard precedence: most specific matching
// directive wins, allow beats disallow on a tie, no match means
// allowed.
func (r robotsRules) isAllowed(userAgent, path string) bool {
	idx := r.groupFor(userAgent)
	if idx < 0 {
		return true
	}
	grp := r.groups[idx]

	bestScore, bestAllow := -1, true
	evaluate := func(patterns []string, isAllow bool) {
		for _, p := range patterns {
			if p == "" || !robotsPatternMatches(p, path) {
				continue
			}
			score := len(strings.ReplaceAll(strings.TrimSuffix(p, "$"), "*", ""))
			if score > bestScore || (score == bestScore && isAllow && !bestAllow) {
				bestScore, bestAllow = score, isAllow
			}
		}
	}
	evaluate(grp.disallow, false)
	evaluate(grp.allow, true)
	if bestScore == -1 {
		return true
	}
	return bestAllow
}

// groupFor selects the group with the longest agent token contained
// in the user agent; the "*" group loses to any named match.
func (r robotsRules) groupFor(userAgent string) int {
	ua := strings.ToLower(userAgent)
	bestIdx, bestScore := -1, -1
	for i, g := range r.groups {
		for _, agent := range g.agents {
			var score int
			switch {
			case agent == "*":
				score = 0
			case agent != "" && strings.Contains(ua, agent):
				score = len(agent)
			default:
				continue
			}
			if score > bestScore {
				bestIdx, bestScore = i, score
			}
		}
	}
	return bestIdx
}

// robotsPatternMatches anchors at the path start and supports the two
// robots.txt metacharacters, "*" and a trailing "$".
func robotsPatternMatches(pattern, path string) bool {
	anchorEnd := strings.HasSuffix(pattern, "$")
	p := strings.TrimSuffix(pattern, "$")
	var b strings.Builder
	b.WriteString("^")
	for _, r := range p {
		if r == '*' {
			b.WriteString(".*")
			continue
		}
		b.WriteString(regexp.QuoteMeta(string(r)))
	}
	if anchorEnd {
		b.WriteString("$")
	}
	re, err := regexp.Compile(b.String())
	if err != nil {
		return false
	}
	return re.MatchString(path)
}
