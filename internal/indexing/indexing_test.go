package indexing

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/avkrylov/searchcore/internal/config"
	"github.com/avkrylov/searchcore/internal/database"
	"github.com/avkrylov/searchcore/internal/entity"
	"github.com/avkrylov/searchcore/internal/fetcher"
	"github.com/avkrylov/searchcore/internal/lemmafreq"
	"github.com/avkrylov/searchcore/internal/store"
	"github.com/avkrylov/searchcore/internal/visited"
)

type recordingLemmaFreq struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (r *recordingLemmaFreq) SavePageLemmasAndIndexes(siteID, pageID int64, counts map[string]int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return r.err
}

func (r *recordingLemmaFreq) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func (r *recordingLemmaFreq) RecalculateRankForSite(siteID int64) error {
	return nil
}

func (r *recordingLemmaFreq) DecreaseLemmaFrequencies(pageID int64) error {
	return nil
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(); err != nil {
		t.Fatalf("migrating: %v", err)
	}
	return store.New(db)
}

func newTestFetcher() *fetcher.Fetcher {
	return fetcher.New(fetcher.Config{
		UserAgent:       "test-agent",
		RequestTimeout:  5 * time.Second,
		PolitenessDelay: time.Millisecond,
	})
}

func TestSiteTaskCrawlsAndMarksIndexed(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>home page content <a href="/about">about</a></body></html>`))
	})
	mux.HandleFunc("/about", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>about page content</body></html>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	st := newTestStore(t)
	lf := &recordingLemmaFreq{}
	ic := NewContext(st, newTestFetcher(), visited.New(), lf, 4, slog.Default())

	svc := NewService(ic, nil)
	siteTask(context.Background(), svc.ctx, srv.URL, "Test Site")

	site, err := st.Site.FindByURL(srv.URL)
	if err != nil {
		t.Fatalf("FindByURL: %v", err)
	}
	if site == nil {
		t.Fatal("expected site to be persisted")
	}
	if site.Status != entity.StatusIndexed {
		t.Errorf("Status = %q, want INDEXED", site.Status)
	}

	count, err := st.Page.CountBySite(site.ID)
	if err != nil {
		t.Fatalf("CountBySite: %v", err)
	}
	if count != 2 {
		t.Errorf("page count = %d, want 2", count)
	}

	if lf.callCount() != 2 {
		t.Errorf("LemmaFreq calls = %d, want 2", lf.callCount())
	}
}

func TestSiteTaskPanicMarksFailed(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>boom content</body></html>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	st := newTestStore(t)
	lf := &recordingLemmaFreq{err: errors.New("lemma write failed")}
	ic := NewContext(st, newTestFetcher(), visited.New(), lf, 4, slog.Default())

	siteTask(context.Background(), ic, srv.URL, "Test Site")

	site, err := st.Site.FindByURL(srv.URL)
	if err != nil {
		t.Fatalf("FindByURL: %v", err)
	}
	if site == nil {
		t.Fatal("expected site to be persisted")
	}
	if site.Status != entity.StatusFailed {
		t.Errorf("Status = %q, want FAILED", site.Status)
	}
	if site.LastError == "" {
		t.Error("expected LastError to be set")
	}
}

func TestVisitedStoreSkipsAlreadyCrawledPage(t *testing.T) {
	mux := http.NewServeMux()
	hits := 0
	var mu sync.Mutex
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits++
		mu.Unlock()
		w.Write([]byte(`<html><body>self-link page <a href="/">self</a></body></html>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	st := newTestStore(t)
	lf := &recordingLemmaFreq{}
	ic := NewContext(st, newTestFetcher(), visited.New(), lf, 4, slog.Default())

	siteTask(context.Background(), ic, srv.URL, "Self Linking Site")

	site, err := st.Site.FindByURL(srv.URL)
	if err != nil {
		t.Fatalf("FindByURL: %v", err)
	}
	count, err := st.Page.CountBySite(site.ID)
	if err != nil {
		t.Fatalf("CountBySite: %v", err)
	}
	if count != 1 {
		t.Errorf("page count = %d, want 1 (self-link must not re-crawl)", count)
	}
	mu.Lock()
	defer mu.Unlock()
	if hits != 1 {
		t.Errorf("server hits = %d, want 1", hits)
	}
}

func TestIndexPageIndexesSinglePage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/only", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>lonely page content</body></html>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	st := newTestStore(t)
	lf := &recordingLemmaFreq{}
	ic := NewContext(st, newTestFetcher(), visited.New(), lf, 4, slog.Default())
	svc := NewService(ic, []config.SiteConfig{{URL: srv.URL, Name: "Adhoc"}})

	if err := svc.IndexPage(context.Background(), srv.URL+"/only"); err != nil {
		t.Fatalf("IndexPage: %v", err)
	}

	site, err := st.Site.FindByURL(srv.URL)
	if err != nil || site == nil {
		t.Fatalf("FindByURL: %v, %+v", err, site)
	}
	count, err := st.Page.CountBySite(site.ID)
	if err != nil {
		t.Fatalf("CountBySite: %v", err)
	}
	if count != 1 {
		t.Errorf("page count = %d, want 1", count)
	}
	if lf.callCount() != 1 {
		t.Errorf("LemmaFreq calls = %d, want 1", lf.callCount())
	}
}

func TestIndexPageRejectsURLOutsideConfiguredSites(t *testing.T) {
	st := newTestStore(t)
	lf := &recordingLemmaFreq{}
	ic := NewContext(st, newTestFetcher(), visited.New(), lf, 4, slog.Default())
	svc := NewService(ic, []config.SiteConfig{{URL: "http://configured.test", Name: "Configured"}})

	err := svc.IndexPage(context.Background(), "http://other.test/")
	if !errors.Is(err, ErrSiteNotConfigured) {
		t.Fatalf("IndexPage error = %v, want ErrSiteNotConfigured", err)
	}
}

func TestIndexPageReindexesExistingPage(t *testing.T) {
	body := "fresh content"
	mux := http.NewServeMux()
	mux.HandleFunc("/only", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>" + body + "</body></html>"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	st := newTestStore(t)
	svc := NewService(
		NewContext(st, newTestFetcher(), visited.New(), lemmafreq.New(st), 4, slog.Default()),
		[]config.SiteConfig{{URL: srv.URL, Name: "Adhoc"}},
	)

	if err := svc.IndexPage(context.Background(), srv.URL+"/only"); err != nil {
		t.Fatalf("first IndexPage: %v", err)
	}
	site, err := st.Site.FindByURL(srv.URL)
	if err != nil || site == nil {
		t.Fatalf("FindByURL: %v, %+v", err, site)
	}
	firstPage, err := st.Page.FindByPath(site.ID, "/only")
	if err != nil || firstPage == nil {
		t.Fatalf("FindByPath: %v, %+v", err, firstPage)
	}

	if err := svc.IndexPage(context.Background(), srv.URL+"/only"); err != nil {
		t.Fatalf("second IndexPage: %v", err)
	}

	count, err := st.Page.CountBySite(site.ID)
	if err != nil {
		t.Fatalf("CountBySite: %v", err)
	}
	if count != 1 {
		t.Errorf("page count = %d, want 1 (re-index replaces, doesn't duplicate)", count)
	}

	secondPage, err := st.Page.FindByPath(site.ID, "/only")
	if err != nil || secondPage == nil {
		t.Fatalf("FindByPath after reindex: %v, %+v", err, secondPage)
	}
	if secondPage.ID == firstPage.ID {
		t.Errorf("expected re-index to delete and recreate the page row, got same ID %d", firstPage.ID)
	}

	fresh, err := st.Lemma.FindByLemmaAndSite("fresh", site.ID)
	if err != nil || fresh == nil || fresh.Frequency != 1 {
		t.Errorf("fresh lemma = %+v, %v, want single occurrence after reindex", fresh, err)
	}
}

// TestSiteTaskStoppedMidCrawlEndsFailed exercises the case where a
// SiteTask is actually in flight (past its initial stop check) when
// stopIndexing fires partway through the root fetch: its own
// end-of-run branch, not the service-level finalizer, must mark the
// Site FAILED with StopReason instead of INDEXED.
func TestSiteTaskStoppedMidCrawlEndsFailed(t *testing.T) {
	st := newTestStore(t)
	lf := &recordingLemmaFreq{}
	ic := NewContext(st, newTestFetcher(), visited.New(), lf, 4, slog.Default())

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		ic.Stop()
		w.Write([]byte(`<html><body>root page <a href="/a">a</a></body></html>`))
	})
	mux.HandleFunc("/a", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>a page content</body></html>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	siteTask(context.Background(), ic, srv.URL, "Test Site")

	site, err := st.Site.FindByURL(srv.URL)
	if err != nil || site == nil {
		t.Fatalf("FindByURL: %v, %+v", err, site)
	}
	if site.Status != entity.StatusFailed || site.LastError != StopReason {
		t.Errorf("status=%q lastError=%q, want FAILED/%q", site.Status, site.LastError, StopReason)
	}
}

// TestFinalizeStoppedSitesSweepsQueuedSites covers a Site that never
// got its own SiteTask to run at all (queued behind a full worker
// pool when stopIndexing fired): the service-level finalizer must
// still sweep it from INDEXING to FAILED with StopReason.
func TestFinalizeStoppedSitesSweepsQueuedSites(t *testing.T) {
	st := newTestStore(t)
	lf := &recordingLemmaFreq{}
	ic := NewContext(st, newTestFetcher(), visited.New(), lf, 1, slog.Default())
	svc := NewService(ic, nil)

	site := entity.NewSite("http://queued.test", "Queued")
	if err := st.Site.Save(site); err != nil {
		t.Fatalf("saving site: %v", err)
	}

	ic.Stop()
	svc.finalizeStoppedSites()

	got, err := st.Site.FindByURL("http://queued.test")
	if err != nil || got == nil {
		t.Fatalf("FindByURL: %v, %+v", err, got)
	}
	if got.Status != entity.StatusFailed || got.LastError != StopReason {
		t.Errorf("status=%q lastError=%q, want FAILED/%q", got.Status, got.LastError, StopReason)
	}
}

func TestSiteTaskSkipsCreatingSiteWhenAlreadyStopped(t *testing.T) {
	st := newTestStore(t)
	lf := &recordingLemmaFreq{}
	ic := NewContext(st, newTestFetcher(), visited.New(), lf, 4, slog.Default())
	ic.Stop()

	siteTask(context.Background(), ic, "http://never-visited.test", "Never")

	site, err := st.Site.FindByURL("http://never-visited.test")
	if err != nil {
		t.Fatalf("FindByURL: %v", err)
	}
	if site != nil {
		t.Errorf("expected no Site row when already stopped, got %+v", site)
	}
}
