// Package aggregate resolves entity identity across captures and merges
// analyzed documents into consolidated profiles.
package aggregate

import (
	"net/url"
	"sort"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/fieldworkhq/marketscout/internal/analysis"
	"github.com/fieldworkhq/marketscout/internal/normalize"
)

// DefaultNameSimilarity is the minimum normalized Levenshtein
// similarity for two entity names to resolve to one identity when no
// domain is available.
const DefaultNameSimilarity = 0.82

// Input pairs one cleaned document with its analysis result.
type Input struct {
	Doc      normalize.Document
	Analysis analysis.Result
}

// Options tunes identity resolution.
type Options struct {
	// NameSimilarity threshold in [0,1]. Zero means
	// DefaultNameSimilarity.
	NameSimilarity float64
}

// Aggregate merges document/analysis pairs sharing an identity into
// profiles, one per resolved entity, sorted by profile id. Inputs are
// canonically reordered first, so any permutation of the same pairs
// produces byte-identical profiles and re-running is a no-op.
func Aggregate(inputs []Input, opts Options) []Profile {
	threshold := opts.NameSimilarity
	if threshold <= 0 {
		threshold = DefaultNameSimilarity
	}

	ordered := make([]Input, len(inputs))
	copy(ordered, inputs)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i].Doc, ordered[j].Doc
		if !a.FetchedAt.Equal(b.FetchedAt) {
			return a.FetchedAt.Before(b.FetchedAt)
		}
		return a.CaptureID < b.CaptureID
	})

	groups := make(map[string][]Input)
	var keys []string
	for _, in := range ordered {
		key := resolveIdentity(in.Doc, keys, threshold)
		if _, ok := groups[key]; !ok {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], in)
	}

	profiles := make([]Profile, 0, len(groups))
	for _, key := range keys {
		profiles = append(profiles, merge(key, groups[key]))
	}
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].ID < profiles[j].ID })
	return profiles
}

// resolveIdentity keys a document by normalized domain, falling back
// to fuzzy name matching against identities seen so far. keys is in
// first-seen order of the canonical input ordering, so the fallback
// is deterministic.
func resolveIdentity(doc normalize.Document, keys []string, threshold float64) string {
	if d := documentDomain(doc); d != "" {
		return d
	}
	name := normalizeName(doc.SourceName)
	if name == "" {
		name = normalizeName(doc.Title)
	}
	if name == "" {
		return doc.CaptureID
	}
	for _, k := range keys {
		if nameSimilarity(name, k) >= threshold {
			return k
		}
	}
	return name
}

func documentDomain(doc normalize.Document) string {
	for _, raw := range []string{doc.URL, doc.SourceURL} {
		u, err := url.Parse(raw)
		if err != nil || u.Host == "" {
			continue
		}
		return strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	}
	return ""
}

var deaccent = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

var legalSuffixes = []string{"sarl", "sas", "sa", "eurl", "inc", "llc", "ltd", "gmbh"}

// normalizeName lowercases, strips accents and legal-form suffixes,
// and collapses whitespace so "Société Exemple SARL" and "societe
// exemple" compare equal.
func normalizeName(name string) string {
	s, _, err := transform.String(deaccent, strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		s = strings.ToLower(strings.TrimSpace(name))
	}
	fields := strings.Fields(s)
	for len(fields) > 1 {
		last := fields[len(fields)-1]
		found := false
		for _, suffix := range legalSuffixes {
			if last == suffix {
				fields = fields[:len(fields)-1]
				found = true
				break
			}
		}
		if !found {
			break
		}
	}
	return strings.Join(fields, " ")
}

func nameSimilarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	la, lb := len([]rune(a)), len([]rune(b))
	longest := la
	if lb > longest {
		longest = lb
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(longest)
}

// merge folds one identity group, already sorted oldest first, into a
// profile. Iterating oldest to newest makes "most recent wins" a
// plain overwrite while unions keep first-seen order.
func merge(key string, group []Input) Profile {
	p := Profile{
		ID:           key,
		Sections:     make(map[string]string),
		FieldSources: make(map[string]string),
	}
	themeVotes := make(map[string]int)
	themeLast := make(map[string]int)
	seenEmails := make(map[string]struct{})
	seenPhones := make(map[string]struct{})
	seenTech := make(map[string]struct{})
	seenKeywords := make(map[string]struct{})

	for i, in := range group {
		doc, res := in.Doc, in.Analysis
		p.Sources = append(p.Sources, Provenance{
			CaptureID: doc.CaptureID,
			SourceURL: doc.SourceURL,
			FetchedAt: doc.FetchedAt,
		})
		if doc.FetchedAt.After(p.LastCaptured) {
			p.LastCaptured = doc.FetchedAt
		}

		setScalar(&p.Name, doc.SourceName, "name", doc.CaptureID, p.FieldSources)
		setScalar(&p.Domain, documentDomain(doc), "domain", doc.CaptureID, p.FieldSources)
		setScalar(&p.Category, string(doc.Category), "category", doc.CaptureID, p.FieldSources)
		setScalar(&p.Lang, doc.Lang, "lang", doc.CaptureID, p.FieldSources)
		setScalar(&p.Summary, res.Summary, "summary", doc.CaptureID, p.FieldSources)
		for label, section := range doc.Sections {
			if !section.Found {
				continue
			}
			p.Sections[label] = section.Text
			p.FieldSources["section:"+label] = doc.CaptureID
			if label == "about" {
				setScalar(&p.About, section.Text, "about", doc.CaptureID, p.FieldSources)
			}
		}

		p.Emails = unionInto(p.Emails, doc.Emails, seenEmails)
		p.Phones = unionInto(p.Phones, doc.Phones, seenPhones)
		p.Technologies = unionInto(p.Technologies, doc.Technologies, seenTech)
		for _, kw := range res.Keywords {
			p.Keywords = unionInto(p.Keywords, []string{kw.Term}, seenKeywords)
		}

		if res.Theme != "" && res.Err == "" {
			themeVotes[res.Theme]++
			themeLast[res.Theme] = i
		}
	}

	p.Theme = electTheme(themeVotes, themeLast)
	p.Score = scoreProfile(&p)
	return p
}

func setScalar(dst *string, value, field, captureID string, sources map[string]string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	*dst = value
	sources[field] = captureID
}

func unionInto(dst, add []string, seen map[string]struct{}) []string {
	for _, v := range add {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		dst = append(dst, v)
	}
	return dst
}

// electTheme picks the majority label; a tie goes to the label whose
// vote arrived most recently in capture order.
func electTheme(votes, last map[string]int) string {
	best, bestVotes, bestLast := "", 0, -1
	for theme, n := range votes {
		if n > bestVotes || (n == bestVotes && last[theme] > bestLast) {
			best, bestVotes, bestLast = theme, n, last[theme]
		}
	}
	return best
}
