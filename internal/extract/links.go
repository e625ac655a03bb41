package extract

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// sectionLinkKeywords identify same-site pages worth a follow-up capture.
var sectionLinkKeywords = []string{
	"about", "propos", "service", "solution", "contact", "team", "equipe",
	"portfolio", "client", "reference", "blog", "news", "actualit",
	"career", "job", "recrutement", "tarif", "pricing", "offre",
}

var excludedLinkHosts = []string{
	"facebook.", "linkedin.", "instagram.", "twitter.", "x.com", "youtube.",
}

// SectionLinks returns up to max same-domain links from the page whose path
// suggests a semantic section, in document order, deduplicated.
func SectionLinks(body []byte, baseURL string, max int) []string {
	if max <= 0 {
		return nil
	}
	base, err := url.Parse(baseURL)
	if err != nil || base.Host == "" {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil
	}

	seen := map[string]struct{}{}
	var out []string
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") ||
			strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "mailto:") ||
			strings.HasPrefix(href, "tel:") {
			return true
		}
		u, err := url.Parse(href)
		if err != nil {
			return true
		}
		abs := base.ResolveReference(u)
		if !strings.EqualFold(abs.Host, base.Host) {
			return true
		}
		if isExcludedLink(abs) || !pathLooksLikeSection(abs.Path) {
			return true
		}
		abs.Fragment = ""
		abs.RawQuery = ""
		key := strings.TrimSuffix(abs.String(), "/")
		if key == strings.TrimSuffix(baseURL, "/") {
			return true
		}
		if _, dup := seen[key]; dup {
			return true
		}
		seen[key] = struct{}{}
		out = append(out, key)
		return len(out) < max
	})
	return out
}

func pathLooksLikeSection(path string) bool {
	low := strings.ToLower(path)
	for _, kw := range sectionLinkKeywords {
		if strings.Contains(low, kw) {
			return true
		}
	}
	return false
}

func isExcludedLink(u *url.URL) bool {
	host := strings.ToLower(u.Host)
	for _, ex := range excludedLinkHosts {
		if strings.Contains(host, ex) {
			return true
		}
	}
	low := strings.ToLower(u.Path)
	return strings.Contains(low, "privacy") || strings.Contains(low, "terms") ||
		strings.Contains(low, "mentions-legales")
}
