// Package normalize turns extracted records into cleaned, fingerprinted,
// language-tagged documents ready for corpus admission.
package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"time"

	"github.com/abadojack/whatlanggo"
	"golang.org/x/text/language"

	"github.com/fieldworkhq/marketscout/internal/extract"
	"github.com/fieldworkhq/marketscout/internal/source"
)

// DefaultMinContentChars is the liveness threshold: documents with less
// cleaned text are kept but flagged dead so aggregation can deprioritize them.
const DefaultMinContentChars = 150

// Document is the normalized form of one extracted record. Immutable once
// produced; the fingerprint identifies exact duplicates within a run.
type Document struct {
	CaptureID    string                     `json:"capture_id"`
	SourceURL    string                     `json:"source_url"`
	SourceName   string                     `json:"source_name"`
	URL          string                     `json:"url"`
	Title        string                     `json:"title"`
	Category     source.Category            `json:"category"`
	Sections     map[string]extract.Section `json:"sections"`
	Emails       []string                   `json:"emails"`
	Phones       []string                   `json:"phones"`
	Technologies []string                   `json:"technologies"`
	Text         string                     `json:"text"`
	Lang         string                     `json:"lang"`
	Fingerprint  string                     `json:"fingerprint"`
	Live         bool                       `json:"live"`
	FetchedAt    time.Time                  `json:"fetched_at"`
}

var (
	urlRe = regexp.MustCompile(`(?i)(https?://\S+|www\.\S+|ftp://\S+)`)
	// Residual artifacts: image filenames, tracking snippet names, stray
	// markup fragments and literal junk tokens that survive text extraction.
	artifactRe = regexp.MustCompile(`(?i)\S+\.(?:png|jpe?g|webp|svg|gif|bmp|ico|avif)\b` +
		`|<\s*/?\w+[^>]*>` +
		`|\b(?:undefined|null|nan|infinity)\b` +
		`|\b(?:google-analytics|gtag|gtm\.js|fbq|facebook-pixel)\b`)
	spaceRe = regexp.MustCompile(`\s+`)
)

// Navigation and footer phrases treated as boilerplate, dropped sentence-wise.
var boilerplatePhrases = []string{
	"cookie", "consent", "all rights reserved", "tous droits réservés",
	"privacy policy", "politique de confidentialité", "sign in", "sign up",
	"subscribe to our newsletter", "accept", "©",
}

// Normalizer cleans records into documents. Zero value works with defaults.
type Normalizer struct {
	// MinContentChars under which a document is flagged not live.
	// Zero means DefaultMinContentChars.
	MinContentChars int
}

// Clean derives a Document from one record. It never drops the record
// itself; duplicate suppression is the corpus store's job so the dedup
// check-and-insert stays atomic under concurrent writers.
func (n *Normalizer) Clean(rec extract.Record, src source.Source, fetchedAt time.Time) Document {
	minChars := n.MinContentChars
	if minChars <= 0 {
		minChars = DefaultMinContentChars
	}

	text := Scrub(rec.Text)
	sections := make(map[string]extract.Section, len(rec.Sections))
	for label, s := range rec.Sections {
		sections[label] = extract.Section{Text: Scrub(s.Text), Found: s.Found}
	}

	return Document{
		CaptureID:    rec.CaptureID,
		SourceURL:    src.URL,
		SourceName:   src.Name,
		URL:          rec.URL,
		Title:        rec.Title,
		Category:     src.Category,
		Sections:     sections,
		Emails:       rec.Emails,
		Phones:       rec.Phones,
		Technologies: rec.Technologies,
		Text:         text,
		Lang:         DetectLang(text),
		Fingerprint:  Fingerprint(text),
		Live:         len(text) >= minChars,
		FetchedAt:    fetchedAt,
	}
}

// Scrub strips residual markup artifacts, URLs and boilerplate from text and
// collapses whitespace. Deterministic: equal input yields equal output.
func Scrub(text string) string {
	t := urlRe.ReplaceAllString(text, " ")
	t = artifactRe.ReplaceAllString(t, " ")
	t = dropBoilerplateSentences(t)
	return strings.TrimSpace(spaceRe.ReplaceAllString(t, " "))
}

// dropBoilerplateSentences removes sentence-ish fragments dominated by
// navigation/footer phrases.
func dropBoilerplateSentences(text string) string {
	parts := strings.Split(text, ". ")
	kept := parts[:0]
	for _, p := range parts {
		low := strings.ToLower(p)
		drop := false
		for _, phrase := range boilerplatePhrases {
			if strings.Contains(low, phrase) {
				drop = true
				break
			}
		}
		if !drop {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ". ")
}

// Fingerprint hashes the whitespace-collapsed text. Stable across runs.
func Fingerprint(text string) string {
	collapsed := spaceRe.ReplaceAllString(strings.TrimSpace(text), " ")
	sum := sha256.Sum256([]byte(collapsed))
	return hex.EncodeToString(sum[:])
}

// DetectLang identifies the dominant language of the text, returning an
// ISO 639-1 code. Short or undecidable text defaults to "en".
func DetectLang(text string) string {
	if len(strings.TrimSpace(text)) < 20 {
		return "en"
	}
	info := whatlanggo.Detect(text)
	code := info.Lang.Iso6391()
	if code == "" {
		return "en"
	}
	// Canonicalize through x/text so downstream comparisons see base tags.
	tag, err := language.Parse(code)
	if err != nil {
		return "en"
	}
	base, _ := tag.Base()
	return base.String()
}
