package store

import (
	"database/sql"
	"fmt"

	"github.com/avkrylov/searchcore/internal/entity"
)

type IndexRepo struct{ c conn }

const indexColumns = "id, page_id, lemma_id, rank"

func scanIndex(s interface{ Scan(dest ...any) error }) (*entity.Index, error) {
	var idx entity.Index
	if err := s.Scan(&idx.ID, &idx.PageID, &idx.LemmaID, &idx.Rank); err != nil {
		return nil, err
	}
	return &idx, nil
}

func (r *IndexRepo) Save(idx *entity.Index) error {
	if idx.ID == 0 {
		result, err := r.c.Exec(
			`INSERT INTO indexes (page_id, lemma_id, rank) VALUES (?, ?, ?)`,
			idx.PageID, idx.LemmaID, idx.Rank,
		)
		if err != nil {
			return fmt.Errorf("inserting index: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("getting last insert id: %w", err)
		}
		idx.ID = id
		return nil
	}

	_, err := r.c.Exec(`UPDATE indexes SET page_id = ?, lemma_id = ?, rank = ? WHERE id = ?`,
		idx.PageID, idx.LemmaID, idx.Rank, idx.ID)
	if err != nil {
		return fmt.Errorf("updating index: %w", err)
	}
	return nil
}

// SaveAll persists a batch of Index rows. Callers typically call this
// inside Store.WithinTx so the batch commits atomically.
func (r *IndexRepo) SaveAll(rows []*entity.Index) error {
	for _, idx := range rows {
		if err := r.Save(idx); err != nil {
			return err
		}
	}
	return nil
}

func (r *IndexRepo) DeleteByID(id int64) error {
	_, err := r.c.Exec(`DELETE FROM indexes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting index: %w", err)
	}
	return nil
}

func (r *IndexRepo) FindByID(id int64) (*entity.Index, error) {
	row := r.c.QueryRow(`SELECT `+indexColumns+` FROM indexes WHERE id = ?`, id)
	idx, err := scanIndex(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying index by id: %w", err)
	}
	return idx, nil
}

// FindByLemmaAndPageSite returns all Index rows for a lemma whose page
// belongs to the given site.
func (r *IndexRepo) FindByLemmaAndPageSite(lemmaID, siteID int64) ([]*entity.Index, error) {
	rows, err := r.c.Query(`
		SELECT i.id, i.page_id, i.lemma_id, i.rank
		FROM indexes i JOIN pages p ON p.id = i.page_id
		WHERE i.lemma_id = ? AND p.site_id = ?
	`, lemmaID, siteID)
	if err != nil {
		return nil, fmt.Errorf("querying indexes by lemma and site: %w", err)
	}
	defer rows.Close()

	var result []*entity.Index
	for rows.Next() {
		idx, err := scanIndex(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning index: %w", err)
		}
		result = append(result, idx)
	}
	return result, rows.Err()
}

// CountDistinctByLemmaAndPageSite is the document-frequency count (df)
// used by the IDF pass.
func (r *IndexRepo) CountDistinctByLemmaAndPageSite(lemmaID, siteID int64) (int, error) {
	var count int
	err := r.c.QueryRow(`
		SELECT COUNT(DISTINCT i.page_id)
		FROM indexes i JOIN pages p ON p.id = i.page_id
		WHERE i.lemma_id = ? AND p.site_id = ?
	`, lemmaID, siteID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting distinct pages for lemma: %w", err)
	}
	return count, nil
}

