package analysis

import (
	"strings"

	"github.com/cloudflare/ahocorasick"
)

// Theme labels assigned to analyzed documents. themePriority is also
// the tie-break order: when two labels score equally, the earlier one
// wins.
const (
	ThemeTechnology = "technology"
	ThemeMarketing  = "marketing"
	ThemeDesign     = "design"
	ThemeConsulting = "consulting"
	ThemeCommerce   = "commerce"
	ThemeGeneral    = "general"
)

var themePriority = []string{
	ThemeTechnology,
	ThemeMarketing,
	ThemeDesign,
	ThemeConsulting,
	ThemeCommerce,
}

// Single-word vocabulary per theme. Entries are stemmed for both
// corpus languages at classifier construction so they line up with
// the stemmed keyword space.
var themeVocabulary = map[string][]string{
	ThemeTechnology: {
		"cloud", "api", "deployment", "déploiement", "software", "logiciel",
		"development", "développement", "developer", "développeur",
		"infrastructure", "devops", "data", "données", "hosting",
		"hébergement", "saas", "platform", "plateforme", "code",
		"cybersecurity", "sécurité", "integration", "intégration",
		"backend", "frontend", "database", "microservices",
	},
	ThemeMarketing: {
		"marketing", "seo", "campaign", "campagne", "advertising",
		"publicité", "audience", "brand", "branding", "acquisition",
		"référencement", "communication", "emailing", "growth",
		"visibilité", "conversion", "influence", "notoriété",
	},
	ThemeDesign: {
		"design", "graphic", "graphique", "identity", "identité", "logo",
		"webdesign", "creative", "créatif", "maquette", "prototype",
		"typography", "typographie", "illustration", "visuel",
	},
	ThemeConsulting: {
		"consulting", "conseil", "audit", "strategy", "stratégie",
		"accompagnement", "formation", "training", "expertise",
		"coaching", "transformation", "organisation",
	},
	ThemeCommerce: {
		"ecommerce", "shop", "boutique", "store", "product", "produit",
		"price", "prix", "order", "commande", "payment", "paiement",
		"livraison", "shipping", "catalogue", "panier",
	},
}

// Multi-word phrases per theme, matched against the raw text when the
// stemmed keyword space gives no signal. Phrases survive tokenization
// poorly, so they get their own pass.
var themePhrases = map[string][]string{
	ThemeTechnology: {
		"machine learning", "intelligence artificielle", "web development",
		"développement web", "open source", "big data",
	},
	ThemeMarketing: {
		"social media", "réseaux sociaux", "content marketing",
		"stratégie digitale", "community management",
	},
	ThemeDesign: {
		"user experience", "charte graphique", "direction artistique",
		"identité visuelle",
	},
	ThemeConsulting: {
		"transformation digitale", "business plan",
		"conduite du changement",
	},
	ThemeCommerce: {
		"vente en ligne", "online store", "marketplace b2b",
	},
}

// Classifier assigns a theme label from ranked keywords, falling back
// to a phrase scan over the raw text.
type Classifier struct {
	stems         map[string]map[string]struct{}
	phraseMatcher *ahocorasick.Matcher
	phraseLabels  []string
}

func NewClassifier() *Classifier {
	c := &Classifier{stems: make(map[string]map[string]struct{})}
	for label, words := range themeVocabulary {
		set := make(map[string]struct{}, len(words)*2)
		for _, w := range words {
			set[stem(w, "en")] = struct{}{}
			set[stem(w, "fr")] = struct{}{}
		}
		c.stems[label] = set
	}
	var phrases []string
	for _, label := range themePriority {
		for _, p := range themePhrases[label] {
			phrases = append(phrases, p)
			c.phraseLabels = append(c.phraseLabels, label)
		}
	}
	c.phraseMatcher = ahocorasick.NewStringMatcher(phrases)
	return c
}

// Classify picks the label whose vocabulary overlaps the ranked
// keywords with the highest summed TF-IDF weight. A document with no
// overlap anywhere is labelled general.
func (c *Classifier) Classify(keywords []Keyword, text string) string {
	best, bestScore := ThemeGeneral, 0.0
	for _, label := range themePriority {
		var score float64
		for _, kw := range keywords {
			if _, ok := c.stems[label][kw.Term]; ok {
				score += kw.Score
			}
		}
		if score > bestScore {
			best, bestScore = label, score
		}
	}
	if best != ThemeGeneral {
		return best
	}
	return c.classifyByPhrase(text)
}

func (c *Classifier) classifyByPhrase(text string) string {
	hits := c.phraseMatcher.Match([]byte(strings.ToLower(text)))
	counts := make(map[string]int)
	for _, h := range hits {
		counts[c.phraseLabels[h]]++
	}
	best, bestCount := ThemeGeneral, 0
	for _, label := range themePriority {
		if counts[label] > bestCount {
			best, bestCount = label, counts[label]
		}
	}
	return best
}
