package extract

import (
	"regexp"
	"strings"
)

var (
	emailRe = regexp.MustCompile(`[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+`)
	phoneRe = regexp.MustCompile(`(?:\+?\d{1,3}[\s.-]?)?(?:\(?\d{1,4}\)?[\s.-]?)?\d{3,5}[\s.-]?\d{3,5}`)
	digitRe = regexp.MustCompile(`[^\d+]`)
)

// findEmails scans both raw markup and visible text, since addresses often
// hide in mailto: attributes that never render as text.
func findEmails(rawHTML, text string) []string {
	hits := emailRe.FindAllString(rawHTML+"\n"+text, -1)
	out := make([]string, 0, len(hits))
	seen := map[string]struct{}{}
	for _, h := range hits {
		e := strings.ToLower(strings.Trim(h, "."))
		// Image filenames pattern-match as emails surprisingly often.
		if hasImageSuffix(e) {
			continue
		}
		if _, dup := seen[e]; dup {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	return out
}

func findPhones(text string) []string {
	hits := phoneRe.FindAllString(text, -1)
	out := make([]string, 0, len(hits))
	seen := map[string]struct{}{}
	for _, h := range hits {
		if !plausiblePhone(h) {
			continue
		}
		p := digitRe.ReplaceAllString(h, "")
		digits := strings.TrimPrefix(p, "+")
		if len(digits) < 8 || len(digits) > 15 {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// plausiblePhone filters out bare digit runs that pattern-match as numbers:
// year ranges, order ids, SIRET-style codes. A phone either carries a
// dialing prefix (+ or trunk 0) or is written in separated groups.
func plausiblePhone(raw string) bool {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "0") {
		return true
	}
	seps := 0
	for _, r := range s {
		switch r {
		case ' ', '.', '-', '(', ')':
			seps++
		}
	}
	return seps >= 2
}

func hasImageSuffix(s string) bool {
	for _, ext := range []string{".png", ".jpg", ".jpeg", ".webp", ".svg", ".gif"} {
		if strings.HasSuffix(s, ext) {
			return true
		}
	}
	return false
}
