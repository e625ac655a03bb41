package analysis

import (
	"math"
	"sort"
)

// Keyword is a ranked corpus term.
type Keyword struct {
	Term  string  `json:"term"`
	Score float64 `json:"score"`
}

// DocumentFrequencies counts, per stemmed term, how many of the given
// token sets contain it at least once.
func DocumentFrequencies(docs [][]string) map[string]int {
	df := make(map[string]int)
	for _, tokens := range docs {
		seen := make(map[string]struct{}, len(tokens))
		for _, t := range tokens {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			df[t]++
		}
	}
	return df
}

// RankKeywords scores one document's tokens with TF-IDF against
// corpus-wide document frequencies and returns the top n keywords.
// Ties break on the term itself so identical corpora always rank
// identically.
func RankKeywords(tokens []string, df map[string]int, corpusSize, n int) []Keyword {
	if len(tokens) == 0 || corpusSize == 0 {
		return nil
	}
	tf := make(map[string]int, len(tokens))
	for _, t := range tokens {
		tf[t]++
	}
	kws := make([]Keyword, 0, len(tf))
	for term, count := range tf {
		idf := math.Log(float64(1+corpusSize) / float64(1+df[term]))
		score := (float64(count) / float64(len(tokens))) * (idf + 1)
		kws = append(kws, Keyword{Term: term, Score: score})
	}
	sort.Slice(kws, func(i, j int) bool {
		if kws[i].Score != kws[j].Score {
			return kws[i].Score > kws[j].Score
		}
		return kws[i].Term < kws[j].Term
	})
	if n > 0 && len(kws) > n {
		kws = kws[:n]
	}
	return kws
}
