package indexing

import (
	"context"
	"net/url"
	"sync"

	"github.com/sourcegraph/conc"

	"github.com/avkrylov/searchcore/internal/entity"
	"github.com/avkrylov/searchcore/internal/lemma"
)

// pageTask is one node of the recursive fork-join crawl tree. It
// claims pageURL in the VisitedStore, fetches it,
// persists the Page row, hands its lemma counts to the
// LemmaFrequencyService, then forks a child pageTask for every
// freshly discovered outbound link and joins on them before
// returning — children are only forked after the parent's own row is
// persisted, so a page is never indexed before its own content is.
//
// Any error that escapes here (a failed Save, a LemmaFreq failure)
// panics rather than returning an error: pageTask has no caller that
// could sensibly continue past a partially-written page, so the
// panic is left to propagate to siteTask's recover.
func pageTask(ctx context.Context, ic *Context, site *entity.Site, siteMu *sync.Mutex, pageURL string) {
	if ic.Stopped() {
		return
	}
	// A bare root ("http://host") and its "/" form are the same page;
	// claim and fetch it under one spelling.
	if u, err := url.Parse(pageURL); err == nil && u.Path == "" {
		u.Path = "/"
		pageURL = u.String()
	}
	if !ic.Visited.VisitURL(pageURL) {
		return
	}

	ic.acquireFetch()
	result := ic.Fetcher.Fetch(ctx, site.URL, pageURL)
	ic.releaseFetch()

	if result.Err != nil {
		ic.Log.Warn("fetch failed", "url", pageURL, "err", result.Err)
		errPage := entity.NewPage(site.ID, pagePath(pageURL), result.StatusCode, "")
		if err := ic.Store.Page.Save(errPage); err != nil {
			panic(err)
		}
		return
	}

	if ic.Stopped() {
		return
	}

	page := entity.NewPage(site.ID, pagePath(pageURL), result.StatusCode, result.HTML)
	if err := ic.Store.Page.Save(page); err != nil {
		panic(err)
	}

	siteMu.Lock()
	site.Touch()
	saveErr := ic.Store.Site.Save(site)
	siteMu.Unlock()
	if saveErr != nil {
		panic(saveErr)
	}

	if result.StatusCode >= 200 && result.StatusCode < 300 {
		counts := lemma.Analyze(result.HTML)
		if len(counts) > 0 {
			if err := ic.LemmaFreq.SavePageLemmasAndIndexes(site.ID, page.ID, counts); err != nil {
				panic(err)
			}
		}
	}

	if ic.Stopped() {
		return
	}

	var wg conc.WaitGroup
	for _, link := range result.Links {
		link := link
		wg.Go(func() {
			pageTask(ctx, ic, site, siteMu, link)
		})
	}
	wg.Wait()
}

// pagePath extracts the path a Page row stores: the URL's path plus
// query string, "/" for a bare root.
func pagePath(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return pageURL
	}
	path := u.Path
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	if path == "" {
		path = "/"
	}
	return path
}
