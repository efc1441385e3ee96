// Package store is the typed persistence layer for Site/Page/Lemma/Index,
// backed by modernc.org/sqlite.
package store

import (
	"database/sql"
	"fmt"

	"github.com/avkrylov/searchcore/internal/database"
)

// conn is satisfied by both *sql.DB and *sql.Tx, letting every repo
// method run either standalone or inside a caller-managed transaction.
type conn interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// Store is the composition root for the four repositories.
type Store struct {
	db    *database.DB
	Site  *SiteRepo
	Page  *PageRepo
	Lemma *LemmaRepo
	Index *IndexRepo
}

// New builds a Store bound directly to the database (no transaction).
func New(db *database.DB) *Store {
	return &Store{
		db:    db,
		Site:  &SiteRepo{c: db},
		Page:  &PageRepo{c: db},
		Lemma: &LemmaRepo{c: db},
		Index: &IndexRepo{c: db},
	}
}

// WithinTx runs fn against a Store bound to a single transaction,
// committing on success and rolling back on error or panic. Every
// write path that mutates more than one row should run through this.
func (s *Store) WithinTx(fn func(tx *Store) error) (err error) {
	sqlTx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	txStore := &Store{
		db:    s.db,
		Site:  &SiteRepo{c: sqlTx},
		Page:  &PageRepo{c: sqlTx},
		Lemma: &LemmaRepo{c: sqlTx},
		Index: &IndexRepo{c: sqlTx},
	}

	defer func() {
		if p := recover(); p != nil {
			sqlTx.Rollback()
			panic(p)
		}
		if err != nil {
			sqlTx.Rollback()
			return
		}
		err = sqlTx.Commit()
	}()

	err = fn(txStore)
	return err
}
