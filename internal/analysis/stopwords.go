package analysis

// Stop-word lists for the two corpus languages. Moderate size on purpose:
// stemming already folds inflections, and over-aggressive lists eat
// domain vocabulary.

var stopwordsEN = toSet([]string{
	"a", "about", "above", "after", "again", "all", "also", "an", "and",
	"any", "are", "as", "at", "be", "because", "been", "before", "being",
	"below", "between", "both", "but", "by", "can", "could", "did", "do",
	"does", "doing", "down", "during", "each", "few", "for", "from",
	"further", "had", "has", "have", "having", "he", "her", "here", "hers",
	"him", "his", "how", "i", "if", "in", "into", "is", "it", "its", "just",
	"me", "more", "most", "my", "no", "nor", "not", "now", "of", "off",
	"on", "once", "only", "or", "other", "our", "ours", "out", "over",
	"own", "same", "she", "should", "so", "some", "such", "than", "that",
	"the", "their", "theirs", "them", "then", "there", "these", "they",
	"this", "those", "through", "to", "too", "under", "until", "up",
	"very", "was", "we", "were", "what", "when", "where", "which", "while",
	"who", "whom", "why", "will", "with", "would", "you", "your", "yours",
})

var stopwordsFR = toSet([]string{
	"à", "ainsi", "alors", "après", "au", "aucun", "aussi", "autre",
	"autres", "aux", "avant", "avec", "avoir", "bon", "car", "ce", "cela",
	"ces", "cet", "cette", "ceux", "chaque", "chez", "comme", "comment",
	"dans", "de", "des", "deux", "donc", "dont", "du", "elle", "elles",
	"en", "encore", "entre", "est", "et", "était", "être", "eu", "fait",
	"faites", "fois", "font", "hors", "ici", "il", "ils", "je", "la", "le",
	"les", "leur", "leurs", "là", "ma", "mais", "même", "mes", "moi",
	"moins", "mon", "mot", "ne", "ni", "nommés", "nos", "notre", "nous",
	"nouveaux", "ou", "où", "par", "parce", "pas", "peut", "peu", "plupart",
	"plus", "pour", "pourquoi", "quand", "que", "quel", "quelle", "quelles",
	"quels", "qui", "sa", "sans", "ses", "seulement", "si", "sien", "son",
	"sont", "sous", "soyez", "sur", "ta", "tandis", "tellement", "tels",
	"tes", "toi", "ton", "tous", "tout", "trop", "très", "tu", "un", "une",
	"vos", "votre", "vous", "vu", "ça", "étaient", "état", "étions",
})

func toSet(words []string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

func stopwordsFor(lang string) map[string]struct{} {
	if lang == "fr" {
		return stopwordsFR
	}
	return stopwordsEN
}
