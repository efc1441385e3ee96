package lemmafreq

import (
	"path/filepath"
	"testing"

	"github.com/avkrylov/searchcore/internal/database"
	"github.com/avkrylov/searchcore/internal/entity"
	"github.com/avkrylov/searchcore/internal/store"
)

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

func seedSite(t *testing.T, st *store.Store, url string) *entity.Site {
	t.Helper()
	site := entity.NewSite(url, "Test")
	if err := st.Site.Save(site); err != nil {
		t.Fatalf("saving site: %v", err)
	}
	return site
}

func seedPage(t *testing.T, st *store.Store, siteID int64, path, content string) *entity.Page {
	t.Helper()
	page := entity.NewPage(siteID, path, 200, content)
	if err := st.Page.Save(page); err != nil {
		t.Fatalf("saving page: %v", err)
	}
	return page
}

func TestSavePageLemmasAndIndexesBuildsDocumentFrequency(t *testing.T) {
	st := newTestStore(t)
	svc := New(st)

	site := seedSite(t, st, "http://example.test")
	pageA := seedPage(t, st, site.ID, "/a", "foo bar baz")
	pageB := seedPage(t, st, site.ID, "/b", "bar bar qux")

	if err := svc.SavePageLemmasAndIndexes(site.ID, pageA.ID, map[string]int{"foo": 1, "bar": 1, "baz": 1}); err != nil {
		t.Fatalf("saving page a lemmas: %v", err)
	}
	if err := svc.SavePageLemmasAndIndexes(site.ID, pageB.ID, map[string]int{"bar": 2, "qux": 1}); err != nil {
		t.Fatalf("saving page b lemmas: %v", err)
	}

	bar, err := st.Lemma.FindByLemmaAndSite("bar", site.ID)
	if err != nil {
		t.Fatalf("FindByLemmaAndSite: %v", err)
	}
	if bar == nil {
		t.Fatal("expected lemma \"bar\" to exist")
	}
	if bar.Frequency != 3 {
		t.Errorf("bar.Frequency = %d, want 3 (1 occurrence on /a + 2 occurrences on /b)", bar.Frequency)
	}

	df, err := st.Index.CountDistinctByLemmaAndPageSite(bar.ID, site.ID)
	if err != nil {
		t.Fatalf("CountDistinctByLemmaAndPageSite: %v", err)
	}
	if df != 2 {
		t.Errorf("df = %d, want 2", df)
	}

	foo, err := st.Lemma.FindByLemmaAndSite("foo", site.ID)
	if err != nil {
		t.Fatalf("FindByLemmaAndSite: %v", err)
	}
	if foo == nil || foo.Frequency != 1 {
		t.Errorf("foo = %+v, want frequency 1", foo)
	}
}

func TestRecalculateRankForSiteRewritesRank(t *testing.T) {
	st := newTestStore(t)
	svc := New(st)

	site := seedSite(t, st, "http://example.test")
	pageA := seedPage(t, st, site.ID, "/a", "foo bar baz")
	pageB := seedPage(t, st, site.ID, "/b", "bar bar qux")

	if err := svc.SavePageLemmasAndIndexes(site.ID, pageA.ID, map[string]int{"foo": 1, "bar": 1, "baz": 1}); err != nil {
		t.Fatalf("saving page a lemmas: %v", err)
	}
	if err := svc.SavePageLemmasAndIndexes(site.ID, pageB.ID, map[string]int{"bar": 2, "qux": 1}); err != nil {
		t.Fatalf("saving page b lemmas: %v", err)
	}

	if err := svc.RecalculateRankForSite(site.ID); err != nil {
		t.Fatalf("RecalculateRankForSite: %v", err)
	}

	foo, err := st.Lemma.FindByLemmaAndSite("foo", site.ID)
	if err != nil {
		t.Fatalf("FindByLemmaAndSite: %v", err)
	}
	rows, err := st.Index.FindByLemmaAndPageSite(foo.ID, site.ID)
	if err != nil {
		t.Fatalf("FindByLemmaAndPageSite: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 index row for foo, got %d", len(rows))
	}
	// "foo" appears on 1 of 2 pages: rank = 1 * ln(2/2) = 0.
	if rows[0].Rank != 0 {
		t.Errorf("foo rank = %v, want 0 (ln(2/(1+1)) == 0)", rows[0].Rank)
	}
}

func TestDecreaseLemmaFrequenciesRemovesExhaustedLemma(t *testing.T) {
	st := newTestStore(t)
	svc := New(st)

	site := seedSite(t, st, "http://example.test")
	page := seedPage(t, st, site.ID, "/a", "foo")

	if err := svc.SavePageLemmasAndIndexes(site.ID, page.ID, map[string]int{"foo": 1}); err != nil {
		t.Fatalf("saving page lemmas: %v", err)
	}

	foo, err := st.Lemma.FindByLemmaAndSite("foo", site.ID)
	if err != nil || foo == nil {
		t.Fatalf("FindByLemmaAndSite: %v, %+v", err, foo)
	}
	if foo.Frequency != 1 {
		t.Fatalf("precondition: foo.Frequency = %d, want 1", foo.Frequency)
	}

	if err := svc.DecreaseLemmaFrequencies(page.ID); err != nil {
		t.Fatalf("DecreaseLemmaFrequencies: %v", err)
	}

	foo, err = st.Lemma.FindByLemmaAndSite("foo", site.ID)
	if err != nil {
		t.Fatalf("FindByLemmaAndSite after decrement: %v", err)
	}
	if foo != nil {
		t.Errorf("expected lemma \"foo\" to be deleted once its frequency hit 0, got %+v", foo)
	}
}

func TestSearchReturnsOnlyMatchingPages(t *testing.T) {
	st := newTestStore(t)
	svc := New(st)

	site := seedSite(t, st, "http://example.test")
	pageA := seedPage(t, st, site.ID, "/a", "go programming language")
	pageB := seedPage(t, st, site.ID, "/b", "go language tutorial")
	pageC := seedPage(t, st, site.ID, "/c", "completely unrelated content")

	if err := svc.SavePageLemmasAndIndexes(site.ID, pageA.ID, map[string]int{"go": 1, "programming": 1, "language": 1}); err != nil {
		t.Fatalf("page a: %v", err)
	}
	if err := svc.SavePageLemmasAndIndexes(site.ID, pageB.ID, map[string]int{"go": 1, "language": 1, "tutorial": 1}); err != nil {
		t.Fatalf("page b: %v", err)
	}
	if err := svc.SavePageLemmasAndIndexes(site.ID, pageC.ID, map[string]int{"completely": 1, "unrelated": 1, "content": 1}); err != nil {
		t.Fatalf("page c: %v", err)
	}

	hits, err := svc.Search("go language", "", 0.9, 0, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits (pages a and b), got %d: %+v", len(hits), hits)
	}
	for _, h := range hits {
		if h.PageID == pageC.ID {
			t.Errorf("unrelated page %d should not have matched", pageC.ID)
		}
	}
}

func TestSearchEmptyQueryReturnsNoHits(t *testing.T) {
	st := newTestStore(t)
	svc := New(st)

	hits, err := svc.Search("the and of", "", 0.3, 0, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if hits != nil {
		t.Errorf("expected no hits for an all-stopword query, got %+v", hits)
	}
}
