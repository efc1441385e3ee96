package indexing

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/sourcegraph/conc/pool"

	"github.com/avkrylov/searchcore/internal/config"
	"github.com/avkrylov/searchcore/internal/entity"
)

// ErrSiteNotConfigured is returned by IndexPage when the target URL
// doesn't start with any configured site's URL.
var ErrSiteNotConfigured = errors.New("url lies outside configured sites (запрошенный адрес находится за пределами настроенных сайтов)")

// Service is the operator-facing entry point: startIndexing,
// stopIndexing, indexPage, isIndexing.
type Service struct {
	ctx   *Context
	sites []config.SiteConfig
}

func NewService(ctx *Context, sites []config.SiteConfig) *Service {
	return &Service{ctx: ctx, sites: sites}
}

// StartIndexing resets dedup state and the stop flag, then crawls
// every configured site concurrently, bounded to one SiteTask per
// pool slot. It returns once every site's crawl has been launched,
// not once they've finished — callers observe completion through
// IsIndexing / statistics.Service.
func (s *Service) StartIndexing(ctx context.Context, parallelism int) {
	s.ctx.Reset()
	s.ctx.Visited.Reset()

	if parallelism <= 0 {
		parallelism = len(s.sites)
	}
	if parallelism <= 0 {
		parallelism = 1
	}

	p := s.buildPool(ctx, parallelism)
	go func() {
		p.Wait()
		s.finalizeStoppedSites()
	}()
}

// RunSync crawls every configured site and blocks until they've all
// finished, for the `index` CLI subcommand where an operator wants a
// synchronous one-shot reindex rather than the fire-and-forget
// behavior StartIndexing exposes over HTTP.
func (s *Service) RunSync(ctx context.Context, parallelism int) {
	s.ctx.Reset()
	s.ctx.Visited.Reset()

	if parallelism <= 0 {
		parallelism = len(s.sites)
	}
	if parallelism <= 0 {
		parallelism = 1
	}

	s.buildPool(ctx, parallelism).Wait()
	s.finalizeStoppedSites()
}

func (s *Service) buildPool(ctx context.Context, parallelism int) *pool.Pool {
	p := pool.New().WithMaxGoroutines(parallelism)
	for _, site := range s.sites {
		site := site
		p.Go(func() {
			siteTask(ctx, s.ctx, site.URL, site.Name)
		})
	}
	return p
}

// finalizeStoppedSites sweeps every Site still in INDEXING once a run
// has ended, transitioning it to FAILED with StopReason. siteTask
// already does this for a site whose crawl was actually in flight
// when stopped; this covers sites still queued behind a full worker
// pool that never got to run a single PageTask.
func (s *Service) finalizeStoppedSites() {
	if !s.ctx.Stopped() {
		return
	}

	sites, err := s.ctx.Store.Site.FindAll()
	if err != nil {
		s.ctx.Log.Error("listing sites for stop finalizer", "err", err)
		return
	}
	for _, site := range sites {
		if site.Status != entity.StatusIndexing {
			continue
		}
		site.MarkFailed(StopReason)
		if err := s.ctx.Store.Site.Save(site); err != nil {
			s.ctx.Log.Error("persisting stopped site", "url", site.URL, "err", err)
		}
	}
}

// StopIndexing requests every in-flight task stop at its next
// checkpoint. It does not block for tasks to drain; IsIndexing
// reflects drain progress.
func (s *Service) StopIndexing() {
	s.ctx.Stop()
}

// IsIndexing reports whether any site currently has an in-flight crawl.
func (s *Service) IsIndexing() bool {
	return s.ctx.Visited.ActiveSiteCount() > 0
}

// resolveSite finds the configured site pageURL belongs to, matching
// by prefix against each configured site's root URL. Returns nil if
// no configured site matches.
func (s *Service) resolveSite(pageURL string) *config.SiteConfig {
	for i := range s.sites {
		if strings.HasPrefix(pageURL, s.sites[i].URL) {
			return &s.sites[i]
		}
	}
	return nil
}

// IndexPage indexes a single page outside of a full site crawl. It
// rejects pageURL outright if it doesn't fall under any configured
// site. If the page already exists (a re-index), its previous lemma
// contributions are decremented and the old Page row deleted before
// the page is re-fetched, so a re-index never collides with the
// (site, path) uniqueness constraint and never double-counts a lemma
// that persists across both versions of the page.
func (s *Service) IndexPage(ctx context.Context, pageURL string) error {
	cfg := s.resolveSite(pageURL)
	if cfg == nil {
		return ErrSiteNotConfigured
	}

	site, err := s.ctx.Store.Site.FindByURL(cfg.URL)
	if err != nil {
		return err
	}
	if site == nil {
		site = entity.NewSite(cfg.URL, cfg.Name)
		if err := s.ctx.Store.Site.Save(site); err != nil {
			return err
		}
	}

	existing, err := s.ctx.Store.Page.FindByPath(site.ID, pagePath(pageURL))
	if err != nil {
		return err
	}
	if existing != nil {
		if err := s.ctx.LemmaFreq.DecreaseLemmaFrequencies(existing.ID); err != nil {
			return err
		}
		if err := s.ctx.Store.Page.Delete(existing.ID); err != nil {
			return err
		}
	}

	s.ctx.Visited.Forget(pageURL)

	var siteMu sync.Mutex
	pageTask(ctx, s.ctx, site, &siteMu, pageURL)
	return nil
}
