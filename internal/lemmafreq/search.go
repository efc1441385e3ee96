package lemmafreq

import (
	"fmt"
	"sort"

	"github.com/avkrylov/searchcore/internal/entity"
	"github.com/avkrylov/searchcore/internal/lemma"
)

// DefaultHighFrequencyThreshold is the fallback document-frequency
// ratio above which a query lemma is dropped as too common to be
// selective.
const DefaultHighFrequencyThreshold = 0.30

// SearchHit is one ranked candidate page from Search, before
// searchbuilder.Build enriches it with a title and snippet.
type SearchHit struct {
	PageID     int64
	SiteID     int64
	Score      float64
	MatchCount int
}

type pageMatch struct {
	siteID     int64
	rankSum    float64
	matchCount int
	lemmasSeen map[int64]struct{}
}

// Search runs the ranking algorithm: tokenize the query, drop
// stopwords and duplicates, load the matching site-scoped Lemma rows,
// filter out lemmas too common to be selective, rank candidate pages
// by a TF-IDF-like score, and paginate. siteURL == "" means a
// cross-site search (candidates are the UNION of pages matching any
// qualifying lemma); a non-empty siteURL scopes the search to that
// site and requires the INTERSECTION — a page must match every
// qualifying lemma to qualify.
func (s *Service) Search(query, siteURL string, threshold float64, offset, limit int) ([]SearchHit, error) {
	if threshold <= 0 {
		threshold = DefaultHighFrequencyThreshold
	}

	tokens := lemma.AnalyzeQuery(query)
	if len(tokens) == 0 {
		return nil, nil
	}

	var lemmas []*entity.Lemma
	var err error
	if siteURL != "" {
		lemmas, err = s.store.Lemma.FindByLemmaInAndSiteURL(tokens, siteURL)
	} else {
		lemmas, err = s.store.Lemma.FindByLemmaIn(tokens)
	}
	if err != nil {
		return nil, fmt.Errorf("loading matching lemmas: %w", err)
	}
	if len(lemmas) == 0 {
		return nil, nil
	}

	qualifying, err := s.dropHighFrequencyLemmas(lemmas, threshold)
	if err != nil {
		return nil, err
	}
	if len(qualifying) == 0 {
		return nil, nil
	}

	sort.Slice(qualifying, func(i, j int) bool {
		return qualifying[i].Frequency < qualifying[j].Frequency
	})

	matches, err := s.collectCandidates(qualifying)
	if err != nil {
		return nil, err
	}

	if siteURL != "" {
		for pageID, pm := range matches {
			if pm.matchCount != len(qualifying) {
				delete(matches, pageID)
			}
		}
	}
	if len(matches) == 0 {
		return nil, nil
	}

	hits := scoreCandidates(matches, len(tokens))
	return paginate(hits, offset, limit), nil
}

// dropHighFrequencyLemmas filters out lemmas whose document-frequency
// ratio (pages containing the lemma / pages on that lemma's site)
// exceeds threshold — words common enough to appear on most pages
// carry little discriminating signal. This is distinct from
// Lemma.Frequency, which counts total occurrences rather than pages.
func (s *Service) dropHighFrequencyLemmas(lemmas []*entity.Lemma, threshold float64) ([]*entity.Lemma, error) {
	pageCounts := make(map[int64]int, 4)
	qualifying := lemmas[:0]

	for _, l := range lemmas {
		n, ok := pageCounts[l.SiteID]
		if !ok {
			var err error
			n, err = s.store.Page.CountBySite(l.SiteID)
			if err != nil {
				return nil, fmt.Errorf("counting pages for site %d: %w", l.SiteID, err)
			}
			pageCounts[l.SiteID] = n
		}
		if n == 0 {
			continue
		}
		df, err := s.store.Index.CountDistinctByLemmaAndPageSite(l.ID, l.SiteID)
		if err != nil {
			return nil, fmt.Errorf("counting document frequency for lemma %q: %w", l.Lemma, err)
		}
		if float64(df)/float64(n) > threshold {
			continue
		}
		qualifying = append(qualifying, l)
	}
	return qualifying, nil
}

// collectCandidates loads every Index row for the qualifying lemmas
// and accumulates, per page, the summed rank and the count of
// distinct qualifying lemmas it matched.
func (s *Service) collectCandidates(qualifying []*entity.Lemma) (map[int64]*pageMatch, error) {
	matches := make(map[int64]*pageMatch)

	for _, l := range qualifying {
		rows, err := s.store.Index.FindByLemmaAndPageSite(l.ID, l.SiteID)
		if err != nil {
			return nil, fmt.Errorf("loading indexes for lemma %q: %w", l.Lemma, err)
		}
		for _, idx := range rows {
			pm, ok := matches[idx.PageID]
			if !ok {
				pm = &pageMatch{siteID: l.SiteID, lemmasSeen: make(map[int64]struct{})}
				matches[idx.PageID] = pm
			}
			if _, seen := pm.lemmasSeen[l.ID]; !seen {
				pm.lemmasSeen[l.ID] = struct{}{}
				pm.matchCount++
			}
			pm.rankSum += idx.Rank
		}
	}
	return matches, nil
}

// scoreCandidates turns accumulated page matches into sorted hits:
// score = (page's summed rank / the highest summed rank among
// candidates) * (1 + matched lemma count / total query lemmas).
func scoreCandidates(matches map[int64]*pageMatch, totalQueryLemmas int) []SearchHit {
	var maxRank float64
	for _, pm := range matches {
		if pm.rankSum > maxRank {
			maxRank = pm.rankSum
		}
	}
	if maxRank == 0 {
		maxRank = 1
	}

	hits := make([]SearchHit, 0, len(matches))
	for pageID, pm := range matches {
		score := (pm.rankSum / maxRank) * (1 + float64(pm.matchCount)/float64(totalQueryLemmas))
		hits = append(hits, SearchHit{PageID: pageID, SiteID: pm.siteID, Score: score, MatchCount: pm.matchCount})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].PageID < hits[j].PageID
	})
	return hits
}

func paginate(hits []SearchHit, offset, limit int) []SearchHit {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(hits) {
		return nil
	}
	end := len(hits)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return hits[offset:end]
}
