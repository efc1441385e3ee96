package lemmafreq

import (
	"fmt"

	"github.com/avkrylov/searchcore/internal/entity"
	"github.com/avkrylov/searchcore/internal/lemma"
	"github.com/avkrylov/searchcore/internal/store"
)

// SavePageLemmasAndIndexes records a freshly-persisted page's lemmas:
// for every distinct word in counts, find-or-create the site-scoped
// Lemma row, accumulate its occurrence count into the Lemma's
// frequency (this page contributed count more occurrences of the
// word across the site), and write an Index row carrying the raw
// in-page occurrence count as its initial rank — the IDF pass
// rewrites that rank later. The whole operation runs inside one
// transaction and is serialized by the monitor so two pages finishing
// concurrently never race on the same Lemma row's frequency.
func (s *Service) SavePageLemmasAndIndexes(siteID, pageID int64, counts map[string]int) error {
	s.monitor.Lock()
	defer s.monitor.Unlock()

	return s.store.WithinTx(func(tx *store.Store) error {
		for word, count := range counts {
			l, err := tx.Lemma.FindByLemmaAndSite(word, siteID)
			if err != nil {
				return fmt.Errorf("finding lemma %q: %w", word, err)
			}
			if l == nil {
				l = entity.NewLemma(siteID, word, count)
			} else {
				l.Frequency += count
			}
			if err := tx.Lemma.Save(l); err != nil {
				return fmt.Errorf("saving lemma %q: %w", word, err)
			}

			idx := entity.NewIndex(pageID, l.ID, count)
			if err := tx.Index.Save(idx); err != nil {
				return fmt.Errorf("saving index for lemma %q: %w", word, err)
			}
		}
		return nil
	})
}

// DecreaseLemmaFrequencies is the inverse of SavePageLemmasAndIndexes:
// called when a page is removed from the index (a re-crawl discarding
// stale content, or an explicit delete). It re-analyzes the page's
// stored content to recover the same (word → count) counts the write
// path used, decrements each matching Lemma's frequency by that count
// (clamped at 0), deletes the Index rows this page owns, and deletes
// the Lemma itself once its frequency reaches 0.
func (s *Service) DecreaseLemmaFrequencies(pageID int64) error {
	s.monitor.Lock()
	defer s.monitor.Unlock()

	return s.store.WithinTx(func(tx *store.Store) error {
		page, err := tx.Page.FindByID(pageID)
		if err != nil {
			return fmt.Errorf("finding page: %w", err)
		}
		if page == nil {
			return nil
		}

		counts := lemma.Analyze(page.Content)
		for word, count := range counts {
			l, err := tx.Lemma.FindByLemmaAndSite(word, page.SiteID)
			if err != nil {
				return fmt.Errorf("finding lemma %q: %w", word, err)
			}
			if l == nil {
				continue
			}

			rows, err := tx.Index.FindByLemmaAndPageSite(l.ID, page.SiteID)
			if err != nil {
				return fmt.Errorf("finding indexes for lemma %q: %w", word, err)
			}
			for _, idx := range rows {
				if idx.PageID != pageID {
					continue
				}
				if err := tx.Index.DeleteByID(idx.ID); err != nil {
					return fmt.Errorf("deleting index %d: %w", idx.ID, err)
				}
			}

			l.Frequency -= count
			if l.Frequency <= 0 {
				if err := tx.Lemma.DeleteByID(l.ID); err != nil {
					return fmt.Errorf("deleting exhausted lemma %q: %w", word, err)
				}
				continue
			}
			if err := tx.Lemma.Save(l); err != nil {
				return fmt.Errorf("saving decremented lemma %q: %w", word, err)
			}
		}

		return nil
	})
}
