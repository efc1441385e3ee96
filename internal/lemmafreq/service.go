// Package lemmafreq implements the lemma-frequency write path that
// turns a page's lemma counts into Lemma/Index rows, the decrement
// path that undoes it, the per-site IDF rewrite, and the TF-IDF-like
// search/ranking algorithm.
package lemmafreq

import (
	"sync"

	"github.com/avkrylov/searchcore/internal/store"
)

// Service holds the store and the process-wide monitor mutex that
// serializes the write and decrement paths against each other: both
// read-then-write a Lemma row's frequency, and running them
// concurrently on the same (site, lemma) pair is a classic
// lost-update race. The IDF pass (which rewrites only Index ranks) and
// the read-only search path are not serialized by the monitor.
type Service struct {
	store *store.Store

	monitor sync.Mutex
}

func New(st *store.Store) *Service {
	return &Service{store: st}
}
