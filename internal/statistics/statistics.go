// Package statistics aggregates per-site and total page/lemma counts
// together with whether a crawl is currently in flight, backing the
// /statistics endpoint and the `stats` CLI subcommand.
package statistics

import (
	"fmt"

	"github.com/avkrylov/searchcore/internal/entity"
	"github.com/avkrylov/searchcore/internal/store"
	"github.com/avkrylov/searchcore/internal/visited"
)

// SiteStats is the per-site slice of a Summary.
type SiteStats struct {
	SiteID     int64
	URL        string
	Name       string
	Status     entity.SiteStatus
	LastError  string
	PageCount  int
	LemmaCount int
}

// Summary is the full statistics snapshot.
type Summary struct {
	Sites       []SiteStats
	TotalPages  int
	TotalLemmas int
	Indexing    bool
}

// Service computes Summary snapshots on demand; it holds no cached
// state of its own.
type Service struct {
	store   *store.Store
	visited *visited.Store
}

func New(st *store.Store, vs *visited.Store) *Service {
	return &Service{store: st, visited: vs}
}

// Summary walks every configured Site and counts its pages and
// lemmas. It is O(sites) queries, acceptable for a modest site count.
func (s *Service) Summary() (*Summary, error) {
	sites, err := s.store.Site.FindAll()
	if err != nil {
		return nil, fmt.Errorf("listing sites: %w", err)
	}

	summary := &Summary{
		Sites:    make([]SiteStats, 0, len(sites)),
		Indexing: s.visited.ActiveSiteCount() > 0,
	}

	for _, site := range sites {
		pageCount, err := s.store.Page.CountBySite(site.ID)
		if err != nil {
			return nil, fmt.Errorf("counting pages for site %d: %w", site.ID, err)
		}
		lemmaCount, err := s.store.Lemma.CountBySiteID(site.ID)
		if err != nil {
			return nil, fmt.Errorf("counting lemmas for site %d: %w", site.ID, err)
		}

		summary.Sites = append(summary.Sites, SiteStats{
			SiteID:     site.ID,
			URL:        site.URL,
			Name:       site.Name,
			Status:     site.Status,
			LastError:  site.LastError,
			PageCount:  pageCount,
			LemmaCount: lemmaCount,
		})
		summary.TotalPages += pageCount
		summary.TotalLemmas += lemmaCount
	}

	return summary, nil
}
