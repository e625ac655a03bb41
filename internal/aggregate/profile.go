package aggregate

import (
	"sort"
	"strings"
	"time"
)

// Provenance records one capture that contributed to a profile.
type Provenance struct {
	CaptureID string    `json:"capture_id"`
	SourceURL string    `json:"source_url"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Profile is the consolidated entity-level record handed to
// downstream reporting. Scalar fields carry the most recent capture's
// value; list fields are stable unions across all contributions.
type Profile struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Domain       string            `json:"domain"`
	Category     string            `json:"category"`
	Lang         string            `json:"lang"`
	About        string            `json:"about"`
	Sections     map[string]string `json:"sections,omitempty"`
	Emails       []string          `json:"emails,omitempty"`
	Phones       []string          `json:"phones,omitempty"`
	Technologies []string          `json:"technologies,omitempty"`
	Keywords     []string          `json:"keywords,omitempty"`
	Theme        string            `json:"theme"`
	Summary      string            `json:"summary"`
	Score        int               `json:"score"`
	Sources      []Provenance      `json:"sources"`
	FieldSources map[string]string `json:"field_sources,omitempty"`
	LastCaptured time.Time         `json:"last_captured"`
}

// scoreProfile rates data richness on a 0 to 10 scale. Reporting
// downstream treats 7 and above as priority targets.
func scoreProfile(p *Profile) int {
	score := 0
	if len(p.Keywords) > 3 {
		score += 3
	}
	if strings.TrimSpace(p.Summary) != "" {
		score += 2
	}
	if p.Lang == "fr" || p.Lang == "en" {
		score++
	}
	if len(strings.Fields(p.About)) > 20 {
		score += 2
	}
	if len(p.Emails)+len(p.Phones) > 0 {
		score += 2
	}
	if score > 10 {
		score = 10
	}
	return score
}

// Stats is the run-level synthesis block written next to the
// profiles.
type Stats struct {
	Profiles    int            `json:"profiles"`
	Languages   map[string]int `json:"languages"`
	Themes      map[string]int `json:"themes"`
	TopKeywords []string       `json:"top_keywords"`
	ScoreMean   float64        `json:"score_mean"`
	ScoreMax    int            `json:"score_max"`
	ScoreMin    int            `json:"score_min"`
}

// ComputeStats summarizes a profile set. Top keywords rank by how
// many profiles carry them, ties alphabetical.
func ComputeStats(profiles []Profile) Stats {
	st := Stats{
		Profiles:  len(profiles),
		Languages: make(map[string]int),
		Themes:    make(map[string]int),
	}
	if len(profiles) == 0 {
		return st
	}
	counts := make(map[string]int)
	total := 0
	st.ScoreMin = profiles[0].Score
	for _, p := range profiles {
		if p.Lang != "" {
			st.Languages[p.Lang]++
		}
		if p.Theme != "" {
			st.Themes[p.Theme]++
		}
		for _, kw := range p.Keywords {
			counts[kw]++
		}
		total += p.Score
		if p.Score > st.ScoreMax {
			st.ScoreMax = p.Score
		}
		if p.Score < st.ScoreMin {
			st.ScoreMin = p.Score
		}
	}
	st.ScoreMean = float64(total) / float64(len(profiles))

	terms := make([]string, 0, len(counts))
	for t := range counts {
		terms = append(terms, t)
	}
	sort.Slice(terms, func(i, j int) bool {
		if counts[terms[i]] != counts[terms[j]] {
			return counts[terms[i]] > counts[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > 10 {
		terms = terms[:10]
	}
	st.TopKeywords = terms
	return st
}
