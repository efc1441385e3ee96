// Package lemma is the pure text-analysis boundary: text → map{lemma
// → count}, and query → ordered list of lemmas.
//
// A true morphological analyzer (stemming/lemmatization proper) is out
// of scope here — it is treated as a pure function boundary the rest
// of the system depends on, not as something this package has to get
// linguistically right. This implementation folds case and strips
// punctuation/stopwords, treating lemmas as equal to normalized words.
package lemma

import (
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

// Analyze tokenizes raw page HTML into a map of lemma → occurrence
// count, dropping stopwords. Malformed HTML degrades gracefully to an
// empty result rather than an error.
func Analyze(html string) map[string]int {
	text := htmlToText(html)
	return countLemmas(tokenize(text))
}

// AnalyzeQuery tokenizes a free-text search query into an ordered,
// deduplicated list of lemmas.
func AnalyzeQuery(query string) []string {
	tokens := tokenize(query)

	seen := make(map[string]struct{}, len(tokens))
	ordered := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		ordered = append(ordered, t)
	}
	return ordered
}

func htmlToText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	doc.Find("script, style, noscript").Remove()
	return doc.Text()
}

// tokenize splits text into normalized word-form lemmas, unicode
// letter runs only, lowercased, stopwords dropped.
func tokenize(text string) []string {
	var tokens []string
	var sb strings.Builder

	flush := func() {
		if sb.Len() == 0 {
			return
		}
		word := sb.String()
		sb.Reset()
		if !isStopword(word) {
			tokens = append(tokens, word)
		}
	}

	for _, r := range text {
		if unicode.IsLetter(r) {
			sb.WriteRune(unicode.ToLower(r))
		} else {
			flush()
		}
	}
	flush()

	return tokens
}

func countLemmas(tokens []string) map[string]int {
	counts := make(map[string]int, len(tokens))
	for _, t := range tokens {
		counts[t]++
	}
	return counts
}
