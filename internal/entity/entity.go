// Package entity constructs new Site/Page/Lemma/Index values with
// correct defaults and timestamps.
package entity

import "time"

type SiteStatus string

const (
	StatusIndexing SiteStatus = "INDEXING"
	StatusIndexed  SiteStatus = "INDEXED"
	StatusFailed   SiteStatus = "FAILED"
)

// Site is a configured crawl root.
type Site struct {
	ID         int64
	URL        string
	Name       string
	Status     SiteStatus
	StatusTime time.Time
	LastError  string
}

// Page is a single fetched document.
type Page struct {
	ID      int64
	SiteID  int64
	Path    string
	Code    int
	Content string
}

// Lemma is a normalized word form scoped to a Site.
type Lemma struct {
	ID        int64
	SiteID    int64
	Lemma     string
	Frequency int
}

// Index is one edge of the inverted index: lemma × page.
type Index struct {
	ID      int64
	PageID  int64
	LemmaID int64
	Rank    float64
}

// NewSite constructs a Site entity starting its crawl, status
// INDEXING and no recorded error.
func NewSite(url, name string) *Site {
	return &Site{
		URL:        url,
		Name:       name,
		Status:     StatusIndexing,
		StatusTime: time.Now().UTC(),
		LastError:  "",
	}
}

// NewPage constructs a Page entity for a freshly fetched document.
func NewPage(siteID int64, path string, code int, content string) *Page {
	return &Page{
		SiteID:  siteID,
		Path:    path,
		Code:    code,
		Content: content,
	}
}

// NewLemma constructs a Lemma entity with an initial occurrence count.
func NewLemma(siteID int64, lemma string, frequency int) *Lemma {
	return &Lemma{
		SiteID:    siteID,
		Lemma:     lemma,
		Frequency: frequency,
	}
}

// NewIndex constructs an Index row with its initial raw-count rank;
// the IDF pass rewrites Rank in place afterwards.
func NewIndex(pageID, lemmaID int64, rawCount int) *Index {
	return &Index{
		PageID:  pageID,
		LemmaID: lemmaID,
		Rank:    float64(rawCount),
	}
}

// MarkIndexed transitions a Site to INDEXED, clearing any prior error.
func (s *Site) MarkIndexed() {
	s.Status = StatusIndexed
	s.LastError = ""
	s.StatusTime = time.Now().UTC()
}

// MarkFailed transitions a Site to FAILED with the given message.
func (s *Site) MarkFailed(reason string) {
	s.Status = StatusFailed
	s.LastError = reason
	s.StatusTime = time.Now().UTC()
}

// Touch updates StatusTime, used by PageTask as a freshness heartbeat.
func (s *Site) Touch() {
	s.StatusTime = time.Now().UTC()
}
