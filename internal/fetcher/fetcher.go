// Package fetcher fetches a single page: given a target URL it
// returns the HTTP status, the raw HTML, and the outbound same-origin
// links discovered on the page, while enforcing a per-host
// politeness delay.
package fetcher

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"golang.org/x/time/rate"
)

// Config holds the fetcher's tunables: identity headers, request
// timeout, and the politeness delay between requests to the same host.
type Config struct {
	UserAgent       string
	Referrer        string
	RequestTimeout  time.Duration
	PolitenessDelay time.Duration
}

// Result is the outcome of fetching a single page.
type Result struct {
	StatusCode int
	HTML       string
	Links      []string
	Err        error
}

type pendingFetch struct {
	statusCode int
	html       []byte
	err        error
	done       chan struct{}
}

// Fetcher issues politeness-limited HTTP fetches and extracts
// same-origin links from the response body.
type Fetcher struct {
	collector *colly.Collector
	cfg       Config

	mu       sync.RWMutex
	limiters map[string]*rate.Limiter

	pending sync.Map // url string -> *pendingFetch
}

func New(cfg Config) *Fetcher {
	c := colly.NewCollector(
		colly.UserAgent(cfg.UserAgent),
		colly.Async(true),
		// Crawl dedup is the VisitedStore's job; colly's own revisit
		// guard would block a single-page re-index from re-fetching.
		colly.AllowURLRevisit(),
	)
	c.SetRequestTimeout(cfg.RequestTimeout)
	// Non-2xx responses reach OnResponse, so Fetch reports their status
	// code without an error.
	c.ParseHTTPErrorResponse = true

	f := &Fetcher{
		collector: c,
		cfg:       cfg,
		limiters:  make(map[string]*rate.Limiter),
	}

	c.OnRequest(func(r *colly.Request) {
		if cfg.Referrer != "" {
			r.Headers.Set("Referer", cfg.Referrer)
		}
	})

	c.OnResponse(func(r *colly.Response) {
		key := r.Request.URL.String()
		if v, ok := f.pending.Load(key); ok {
			pf := v.(*pendingFetch)
			pf.statusCode = r.StatusCode
			pf.html = append([]byte(nil), r.Body...)
			close(pf.done)
		}
	})

	c.OnError(func(r *colly.Response, err error) {
		key := r.Request.URL.String()
		if v, ok := f.pending.Load(key); ok {
			pf := v.(*pendingFetch)
			pf.statusCode = r.StatusCode
			if pf.statusCode == 0 {
				pf.statusCode = 0
			}
			pf.err = err
			close(pf.done)
		}
	})

	return f
}

// Fetch retrieves targetURL, enforcing a per-host politeness delay,
// and extracts outbound links scoped to baseURL's origin.
func (f *Fetcher) Fetch(ctx context.Context, baseURL, targetURL string) *Result {
	parsedTarget, err := url.Parse(targetURL)
	if err != nil {
		return &Result{Err: fmt.Errorf("parsing target url: %w", err)}
	}

	if err := f.limiterFor(parsedTarget.Host).Wait(ctx); err != nil {
		return &Result{Err: fmt.Errorf("politeness wait: %w", err)}
	}

	pf := &pendingFetch{done: make(chan struct{})}
	f.pending.Store(targetURL, pf)
	defer f.pending.Delete(targetURL)

	if err := f.collector.Visit(targetURL); err != nil {
		return &Result{Err: err}
	}

	select {
	case <-pf.done:
	case <-ctx.Done():
		return &Result{Err: ctx.Err()}
	}

	if pf.err != nil {
		return &Result{StatusCode: pf.statusCode, Err: pf.err}
	}

	result := &Result{StatusCode: pf.statusCode, HTML: string(pf.html)}

	if pf.statusCode >= 200 && pf.statusCode < 300 {
		links, err := extractInternalLinks(baseURL, targetURL, pf.html)
		if err != nil {
			result.Err = fmt.Errorf("extracting links: %w", err)
			return result
		}
		result.Links = links
	}

	return result
}

// limiterFor returns (creating if necessary) the politeness limiter
// for a host, the same double-checked-lock idiom used for the API's
// per-client rate limiters.
func (f *Fetcher) limiterFor(host string) *rate.Limiter {
	f.mu.RLock()
	limiter, ok := f.limiters[host]
	f.mu.RUnlock()
	if ok {
		return limiter
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if limiter, ok = f.limiters[host]; ok {
		return limiter
	}

	interval := f.cfg.PolitenessDelay
	if interval <= 0 {
		interval = time.Millisecond
	}
	limiter = rate.NewLimiter(rate.Every(interval), 1)
	f.limiters[host] = limiter
	return limiter
}

// extractInternalLinks walks <a href> in the document body and keeps
// only links that resolve to baseURL's origin, deduplicated and
// normalized to absolute URLs.
func extractInternalLinks(baseURL, pageURL string, html []byte) ([]string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(html)))
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}

	current, err := url.Parse(pageURL)
	if err != nil {
		current = base
	}

	seen := make(map[string]struct{})
	var links []string

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || href == "" || strings.HasPrefix(href, "#") {
			return
		}

		resolved, err := current.Parse(href)
		if err != nil {
			return
		}
		resolved.Fragment = ""

		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			return
		}
		if !strings.EqualFold(resolved.Host, base.Host) {
			return
		}

		abs := resolved.String()
		if _, dup := seen[abs]; dup {
			return
		}
		seen[abs] = struct{}{}
		links = append(links, abs)
	})

	return links, nil
}
