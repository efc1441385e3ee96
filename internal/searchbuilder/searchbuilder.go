// Package searchbuilder turns lemmafreq.Search's ranked page IDs into
// presentable results carrying a title, a single best-matching-sentence
// snippet, and the hit's relative score.
package searchbuilder

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/avkrylov/searchcore/internal/lemmafreq"
	"github.com/avkrylov/searchcore/internal/store"
)

// Result is one presentable search hit.
type Result struct {
	SiteURL   string
	PagePath  string
	Title     string
	Snippet   string
	Relevance float64
}

// Builder loads the page/site rows a SearchHit refers to and renders
// them into a Result.
type Builder struct {
	store *store.Store
}

func New(st *store.Store) *Builder {
	return &Builder{store: st}
}

// Build renders every hit in order, skipping (without erroring) a hit
// whose page or site has since been deleted out from under it.
func (b *Builder) Build(hits []lemmafreq.SearchHit, queryLemmas []string) ([]Result, error) {
	results := make([]Result, 0, len(hits))
	for _, hit := range hits {
		page, err := b.store.Page.FindByID(hit.PageID)
		if err != nil {
			return nil, fmt.Errorf("loading page %d: %w", hit.PageID, err)
		}
		if page == nil {
			continue
		}
		site, err := b.store.Site.FindByID(page.SiteID)
		if err != nil {
			return nil, fmt.Errorf("loading site %d: %w", page.SiteID, err)
		}
		if site == nil {
			continue
		}

		doc, _ := goquery.NewDocumentFromReader(strings.NewReader(page.Content))

		results = append(results, Result{
			SiteURL:   site.URL,
			PagePath:  page.Path,
			Title:     extractTitle(doc, page.Path),
			Snippet:   bestSentence(doc, queryLemmas),
			Relevance: hit.Score,
		})
	}
	return results, nil
}

// extractTitle prefers <title>, falls back to the first <h1>, and
// finally the page's own path so a result is never titleless.
func extractTitle(doc *goquery.Document, fallback string) string {
	if doc != nil {
		if t := strings.TrimSpace(doc.Find("title").First().Text()); t != "" {
			return t
		}
		if t := strings.TrimSpace(doc.Find("h1").First().Text()); t != "" {
			return t
		}
	}
	return fallback
}

// bestSentence picks the sentence containing the most distinct query
// lemmas as a snippet, in place of real highlighting.
func bestSentence(doc *goquery.Document, queryLemmas []string) string {
	if doc == nil {
		return ""
	}
	doc.Find("script, style, noscript").Remove()

	sentences := splitSentences(doc.Text())
	if len(sentences) == 0 {
		return ""
	}

	best := sentences[0]
	bestScore := -1
	for _, sentence := range sentences {
		lower := strings.ToLower(sentence)
		score := 0
		for _, l := range queryLemmas {
			if strings.Contains(lower, l) {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			best = sentence
		}
	}
	return strings.TrimSpace(best)
}

func splitSentences(text string) []string {
	raw := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?' || r == '\n'
	})
	sentences := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}
