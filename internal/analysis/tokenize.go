package analysis

import (
	"strings"
	"unicode"

	"github.com/kljensen/snowball"
)

// Tokenize lowercases text, splits on every non-letter rune, drops
// stop words and tokens shorter than three letters, and stems the
// remainder for the given language ("en" or "fr"). Tokens containing
// digits never survive the letter-only split, which keeps prices,
// phone fragments and version strings out of the keyword space.
func Tokenize(text, lang string) []string {
	stop := stopwordsFor(lang)
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if len([]rune(f)) < 3 {
			continue
		}
		if _, ok := stop[f]; ok {
			continue
		}
		out = append(out, stem(f, lang))
	}
	return out
}

func stem(token, lang string) string {
	name := "english"
	if lang == "fr" {
		name = "french"
	}
	stemmed, err := snowball.Stem(token, name, false)
	if err != nil || stemmed == "" {
		return token
	}
	return stemmed
}
