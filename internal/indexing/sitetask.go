package indexing

import (
	"context"
	"fmt"
	"sync"

	"github.com/avkrylov/searchcore/internal/entity"
)

// siteTask runs the full crawl of one configured site: it replaces any
// Site row left by an earlier run (cascading to its pages, lemmas and
// indexes) with a fresh one, registers the site as active in the VisitedStore for the
// duration of the crawl, forks the root pageTask, and recovers any
// panic escaping the PageTask tree. A caught panic transitions the
// Site to FAILED with the panic's message instead of crashing the
// process or the other sites being crawled alongside it.
//
// If the stop flag is already set when siteTask would start, it
// returns immediately without creating a Site row: a site queued
// behind a full worker pool when stopIndexing was called never runs
// at all, rather than running and then immediately failing.
func siteTask(ctx context.Context, ic *Context, siteURL, siteName string) {
	if ic.Stopped() {
		return
	}

	if err := ic.Store.Site.DeleteByURL(siteURL); err != nil {
		ic.Log.Error("clearing previous site data", "url", siteURL, "err", err)
		return
	}

	site := entity.NewSite(siteURL, siteName)
	if err := ic.Store.Site.Save(site); err != nil {
		ic.Log.Error("saving site", "url", siteURL, "err", err)
		return
	}

	ic.Visited.ActivateSite(siteURL)
	defer ic.Visited.DeactivateSite(siteURL)

	var siteMu sync.Mutex

	func() {
		defer func() {
			if r := recover(); r != nil {
				siteMu.Lock()
				site.MarkFailed(fmt.Sprintf("%v", r))
				siteMu.Unlock()
				ic.Log.Error("site crawl aborted", "url", siteURL, "reason", r)
			}
		}()
		pageTask(ctx, ic, site, &siteMu, siteURL)
	}()

	siteMu.Lock()
	switch {
	case site.Status == entity.StatusFailed:
		// Already marked FAILED by the recover above; keep its message.
	case ic.Stopped():
		site.MarkFailed(StopReason)
	default:
		site.MarkIndexed()
	}
	succeeded := site.Status == entity.StatusIndexed
	saveErr := ic.Store.Site.Save(site)
	siteMu.Unlock()

	if saveErr != nil {
		ic.Log.Error("persisting final site status", "url", siteURL, "err", saveErr)
		return
	}

	if succeeded {
		if err := ic.LemmaFreq.RecalculateRankForSite(site.ID); err != nil {
			ic.Log.Error("recalculating rank", "url", siteURL, "err", err)
		}
	}
}
