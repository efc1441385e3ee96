package lemma

// stopwords are function words dropped from both indexed content and
// search queries.
var stopwords = buildSet(
	// English
	"a", "an", "the", "and", "or", "but", "if", "then", "else", "of",
	"to", "in", "on", "at", "by", "for", "with", "about", "as", "is",
	"are", "was", "were", "be", "been", "being", "it", "this", "that",
	"these", "those", "i", "you", "he", "she", "we", "they", "not",
	"no", "do", "does", "did", "from", "up", "out", "so", "than",
	// Russian
	"и", "в", "во", "не", "что", "он", "на", "я", "с", "со", "как",
	"а", "то", "все", "она", "так", "его", "но", "да", "ты", "к",
	"у", "же", "вы", "за", "бы", "по", "только", "ее", "мне", "было",
	"вот", "от", "меня", "еще", "нет", "о", "из", "ему", "теперь",
	"когда", "даже", "ну", "вдруг", "ли", "если", "уже", "или", "ни",
)

func buildSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

func isStopword(w string) bool {
	_, ok := stopwords[w]
	return ok
}
