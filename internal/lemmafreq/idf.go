package lemmafreq

import (
	"fmt"
	"math"

	"github.com/avkrylov/searchcore/internal/store"
)

// RecalculateRankForAllSites runs the IDF pass across every site.
// Every Index row's rank — up to this point the
// raw in-page occurrence count NewIndex wrote it with — is rewritten
// in place to rank * ln(N/(df+1)), where N is the site's page count
// and df is the matching Lemma's document frequency; a negative factor
// (a lemma on every page) is clamped to 0. This pass is not
// idempotent: running it twice against the same Index rows applies
// the IDF factor twice. Callers run it exactly once per site, right
// after that site's crawl completes.
func (s *Service) RecalculateRankForAllSites() error {
	sites, err := s.store.Site.FindAll()
	if err != nil {
		return fmt.Errorf("listing sites: %w", err)
	}
	for _, site := range sites {
		if err := s.recalculateRankForSite(site.ID); err != nil {
			return fmt.Errorf("recalculating rank for site %d: %w", site.ID, err)
		}
	}
	return nil
}

// RecalculateRankForSite runs the IDF pass for a single site, used by
// SiteTask right after a crawl finishes so other sites' ranks aren't
// disturbed by an unrelated site's recrawl.
func (s *Service) RecalculateRankForSite(siteID int64) error {
	return s.recalculateRankForSite(siteID)
}

func (s *Service) recalculateRankForSite(siteID int64) error {
	pageCount, err := s.store.Page.CountBySite(siteID)
	if err != nil {
		return fmt.Errorf("counting pages: %w", err)
	}
	if pageCount == 0 {
		return nil
	}

	lemmas, err := s.store.Lemma.FindBySite(siteID)
	if err != nil {
		return fmt.Errorf("listing lemmas: %w", err)
	}

	return s.store.WithinTx(func(tx *store.Store) error {
		for _, l := range lemmas {
			df, err := tx.Index.CountDistinctByLemmaAndPageSite(l.ID, siteID)
			if err != nil {
				return fmt.Errorf("counting document frequency for lemma %q: %w", l.Lemma, err)
			}
			factor := math.Log(float64(pageCount) / float64(df+1))
			if factor < 0 {
				factor = 0
			}

			rows, err := tx.Index.FindByLemmaAndPageSite(l.ID, siteID)
			if err != nil {
				return fmt.Errorf("finding indexes for lemma %q: %w", l.Lemma, err)
			}
			for _, idx := range rows {
				idx.Rank = idx.Rank * factor
				if err := tx.Index.Save(idx); err != nil {
					return fmt.Errorf("saving rewritten rank for index %d: %w", idx.ID, err)
				}
			}
		}
		return nil
	})
}
