package extract

import (
	"regexp"
	"strings"
	"sync"

	"github.com/cloudflare/ahocorasick"
)

// techTerms is the curated technology/service dictionary. Matching is
// case-insensitive over the full visible text, independent of sections.
var techTerms = []string{
	"python", "java", "javascript", "typescript", "golang", "rust", "kotlin",
	"swift", "php", "ruby on rails", "react", "angular", "vue", "svelte",
	"node.js", "django", "flask", "laravel", "symfony", "spring boot",
	"flutter", "react native", "wordpress", "shopify", "magento", "drupal",
	"salesforce", "sap", "aws", "azure", "google cloud", "docker",
	"kubernetes", "terraform", "ansible", "postgresql", "mysql", "mongodb",
	"redis", "elasticsearch", "kafka", "rabbitmq", "graphql", "devops",
	"machine learning", "deep learning", "artificial intelligence",
	"intelligence artificielle", "data science", "big data", "blockchain",
	"cybersecurity", "cybersécurité", "cloud", "api", "saas", "erp", "crm",
	"seo", "e-commerce",
}

var (
	techMatcherOnce sync.Once
	techMatcher     *ahocorasick.Matcher
	techBoundaryRes []*regexp.Regexp
)

func initTechMatcher() {
	techMatcher = ahocorasick.NewStringMatcher(techTerms)
	techBoundaryRes = make([]*regexp.Regexp, len(techTerms))
	for i, term := range techTerms {
		// Verify candidate hits on word boundaries so "java" does not
		// fire inside "javascript".
		techBoundaryRes[i] = regexp.MustCompile(`(^|[^a-z0-9])` + regexp.QuoteMeta(term) + `($|[^a-z0-9])`)
	}
}

// findTechnologies returns the technology terms mentioned in the text, in
// dictionary order, deduplicated.
func findTechnologies(text string) []string {
	techMatcherOnce.Do(initTechMatcher)
	low := strings.ToLower(text)
	hits := techMatcher.Match([]byte(low))
	if len(hits) == 0 {
		return nil
	}
	seen := map[int]struct{}{}
	for _, h := range hits {
		seen[h] = struct{}{}
	}
	var out []string
	for i, term := range techTerms {
		if _, ok := seen[i]; !ok {
			continue
		}
		if techBoundaryRes[i].MatchString(low) {
			out = append(out, term)
		}
	}
	return out
}
