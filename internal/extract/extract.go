// Package extract turns raw page markup into a structured record: semantic
// sections located by heading matching, contact identifiers and technology
// mentions found by pattern matching over the full text.
package extract

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Section is one semantic text field. Found is false when the field was
// defaulted empty rather than actually located in the markup.
type Section struct {
	Text  string `json:"text"`
	Found bool   `json:"found"`
}

// Record holds the structured fields derived from exactly one capture.
// Missing sections are the expected steady state for heterogeneous sources,
// so absence is a confidence flag, never an error.
type Record struct {
	CaptureID       string             `json:"capture_id"`
	URL             string             `json:"url"`
	Title           string             `json:"title"`
	MetaDescription string             `json:"meta_description"`
	Sections        map[string]Section `json:"sections"`
	Emails          []string           `json:"emails"`
	Phones          []string           `json:"phones"`
	Technologies    []string           `json:"technologies"`
	Text            string             `json:"text"`
}

// Labels are the semantic section labels a record carries, in a fixed order.
var Labels = []string{"about", "services", "clients", "jobs", "blog", "offers", "news"}

// sectionSynonyms maps each label to heading phrases that identify it,
// English and French mixed since sources are either.
var sectionSynonyms = map[string][]string{
	"about": {"about us", "about", "who we are", "our story", "our team",
		"qui sommes-nous", "à propos", "a propos", "notre histoire", "notre équipe"},
	"services": {"our services", "services", "what we do", "solutions", "products",
		"nos services", "nos solutions", "prestations", "produits", "expertise"},
	"clients": {"our clients", "clients", "they trust us", "testimonials", "portfolio",
		"case studies", "nos clients", "ils nous font confiance", "références", "témoignages"},
	"jobs": {"careers", "jobs", "join us", "work with us", "we are hiring",
		"recrutement", "carrières", "emplois", "nous rejoindre"},
	"blog": {"blog", "articles", "insights", "resources", "actualités", "le blog"},
	"offers": {"pricing", "our offers", "plans", "tarifs", "nos offres",
		"abonnements", "forfaits", "devis"},
	"news": {"news", "latest news", "what's new", "press", "events",
		"nouveautés", "mises à jour", "événements", "communiqués"},
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// Extract parses a capture body into a Record. It never fails: malformed or
// empty markup yields a record whose sections all carry Found=false.
func Extract(captureID, pageURL string, body []byte) Record {
	rec := Record{
		CaptureID: captureID,
		URL:       pageURL,
		Sections:  map[string]Section{},
	}
	for _, label := range Labels {
		rec.Sections[label] = Section{}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil || doc == nil {
		return rec
	}

	rec.Title = collapse(doc.Find("title").First().Text())
	rec.MetaDescription = metaDescription(doc)

	// Strip non-content nodes before computing the full text.
	clone := doc.Clone()
	clone.Find("script, style, noscript, iframe").Remove()
	rec.Text = collapse(clone.Find("body").Text())

	// Ordered matcher strategies per label: heading synonyms first, then
	// label-specific fallbacks. First match wins.
	headings := collectHeadings(doc)
	for _, label := range Labels {
		for _, m := range matchersFor(label) {
			if text := m(doc, headings, rec); text != "" {
				rec.Sections[label] = Section{Text: text, Found: true}
				break
			}
		}
	}

	rec.Emails = findEmails(string(body), rec.Text)
	rec.Phones = findPhones(rec.Text)
	rec.Technologies = findTechnologies(rec.Text)
	return rec
}

// matcher locates text for one label; empty string means no match.
type matcher func(doc *goquery.Document, headings []heading, rec Record) string

func matchersFor(label string) []matcher {
	ms := []matcher{headingMatcher(label)}
	if label == "about" {
		// Meta description, then the first paragraph after the page
		// title, stand in for a missing about heading.
		ms = append(ms,
			func(_ *goquery.Document, _ []heading, rec Record) string {
				return rec.MetaDescription
			},
			firstParagraphMatcher,
		)
	}
	return ms
}

type heading struct {
	sel   *goquery.Selection
	text  string
	level int
}

func collectHeadings(doc *goquery.Document) []heading {
	var out []heading
	doc.Find("h1, h2, h3, h4").Each(func(_ int, s *goquery.Selection) {
		txt := collapse(s.Text())
		if txt == "" {
			return
		}
		level, ok := headingLevel(goquery.NodeName(s))
		if !ok {
			return
		}
		out = append(out, heading{sel: s, text: strings.ToLower(txt), level: level})
	})
	return out
}

func headingLevel(name string) (int, bool) {
	switch name {
	case "h1":
		return 1, true
	case "h2":
		return 2, true
	case "h3":
		return 3, true
	case "h4":
		return 4, true
	}
	return 0, false
}

// headingMatcher matches a heading against the label's synonym dictionary
// and returns the text that follows it.
func headingMatcher(label string) matcher {
	synonyms := sectionSynonyms[label]
	return func(_ *goquery.Document, headings []heading, _ Record) string {
		for _, h := range headings {
			if !matchesAny(h.text, synonyms) {
				continue
			}
			if text := sectionBody(h); text != "" {
				return text
			}
		}
		return ""
	}
}

// matchesAny reports whether the heading text contains one of the synonym
// phrases. Longer phrases are listed first in the dictionaries so "about us"
// wins over "about" where both apply; the result is the same label either way.
func matchesAny(headingText string, synonyms []string) bool {
	for _, syn := range synonyms {
		if strings.Contains(headingText, syn) {
			return true
		}
	}
	return false
}

// sectionBody accumulates sibling text after a heading until the next
// heading of the same or higher level, falling back to the parent
// container's text minus the heading itself.
func sectionBody(h heading) string {
	var parts []string
	for sib := h.sel.Next(); sib.Length() > 0; sib = sib.Next() {
		if lvl, ok := headingLevel(goquery.NodeName(sib)); ok && lvl <= h.level {
			break
		}
		if t := collapse(sib.Text()); t != "" {
			parts = append(parts, t)
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, " ")
	}
	parent := collapse(h.sel.Parent().Text())
	headingText := collapse(h.sel.Text())
	trimmed := collapse(strings.Replace(parent, headingText, "", 1))
	return trimmed
}

// firstParagraphMatcher is the proximity fallback: the first substantial
// paragraph after the page's primary heading.
func firstParagraphMatcher(doc *goquery.Document, _ []heading, _ Record) string {
	var out string
	doc.Find("p").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		t := collapse(s.Text())
		if len(t) >= 60 {
			out = t
			return false
		}
		return true
	})
	return out
}

func metaDescription(doc *goquery.Document) string {
	if v, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok && strings.TrimSpace(v) != "" {
		return collapse(v)
	}
	if v, ok := doc.Find(`meta[property="og:description"]`).Attr("content"); ok {
		return collapse(v)
	}
	return ""
}

func collapse(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}
