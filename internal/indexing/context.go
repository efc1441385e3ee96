// Package indexing implements the fork-join crawl/index orchestration:
// the shared Context, the recursive PageTask, the per-site SiteTask,
// and the operator-facing Service.
package indexing

import (
	"log/slog"
	"sync/atomic"

	"github.com/avkrylov/searchcore/internal/fetcher"
	"github.com/avkrylov/searchcore/internal/store"
	"github.com/avkrylov/searchcore/internal/visited"
)

// LemmaFrequencyService is the slice of lemmafreq.Service that
// PageTask depends on: persisting a page's lemma occurrence counts
// and rewriting the lemma/index rows for it, serialized against
// concurrent writers.
type LemmaFrequencyService interface {
	SavePageLemmasAndIndexes(siteID, pageID int64, counts map[string]int) error
	RecalculateRankForSite(siteID int64) error
	DecreaseLemmaFrequencies(pageID int64) error
}

// StopReason is the lastError recorded on a Site transitioned to
// FAILED because of a stop request — either its own SiteTask
// observing the stop flag mid-crawl, or the IndexingService
// finalizer sweeping a Site whose SiteTask never ran at all.
const StopReason = "Индексация остановлена пользователем"

// Context is the composition root every SiteTask and PageTask runs
// against: shared store, fetcher, dedup set, lemma-frequency service,
// and the run-wide stop flag and fetch-concurrency semaphore.
type Context struct {
	Store     *store.Store
	Fetcher   *fetcher.Fetcher
	Visited   *visited.Store
	LemmaFreq LemmaFrequencyService
	Log       *slog.Logger

	stopFlag atomic.Bool
	fetchSem chan struct{}
}

// NewContext builds an indexing Context. fetchConcurrency bounds how
// many fetches may be in flight at once, independent of how deep a
// site's PageTask recursion tree goes — the fork-join bound governs
// tasks, not network concurrency.
func NewContext(st *store.Store, f *fetcher.Fetcher, vs *visited.Store, lf LemmaFrequencyService, fetchConcurrency int, log *slog.Logger) *Context {
	if fetchConcurrency <= 0 {
		fetchConcurrency = 1
	}
	if log == nil {
		log = slog.Default()
	}
	return &Context{
		Store:     st,
		Fetcher:   f,
		Visited:   vs,
		LemmaFreq: lf,
		Log:       log,
		fetchSem:  make(chan struct{}, fetchConcurrency),
	}
}

// Stop requests every in-flight task stop at its next checkpoint. It
// does not block for tasks to drain.
func (c *Context) Stop() {
	c.stopFlag.Store(true)
}

// Reset clears the stop flag, called at the start of a fresh
// startIndexing run.
func (c *Context) Reset() {
	c.stopFlag.Store(false)
}

// Stopped reports whether a stop has been requested. Checked at task
// entry and immediately after each fetch.
func (c *Context) Stopped() bool {
	return c.stopFlag.Load()
}

// acquireFetch blocks until a fetch slot is free, bounding concurrent
// network fetches to the configured parallelism.
func (c *Context) acquireFetch() {
	c.fetchSem <- struct{}{}
}

func (c *Context) releaseFetch() {
	<-c.fetchSem
}
