package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/avkrylov/searchcore/internal/entity"
)

type LemmaRepo struct{ c conn }

const lemmaColumns = "id, site_id, lemma, frequency"

func scanLemma(s interface{ Scan(dest ...any) error }) (*entity.Lemma, error) {
	var l entity.Lemma
	if err := s.Scan(&l.ID, &l.SiteID, &l.Lemma, &l.Frequency); err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *LemmaRepo) Save(lemma *entity.Lemma) error {
	if lemma.ID == 0 {
		result, err := r.c.Exec(
			`INSERT INTO lemmas (site_id, lemma, frequency) VALUES (?, ?, ?)`,
			lemma.SiteID, lemma.Lemma, lemma.Frequency,
		)
		if err != nil {
			return fmt.Errorf("inserting lemma: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("getting last insert id: %w", err)
		}
		lemma.ID = id
		return nil
	}

	_, err := r.c.Exec(
		`UPDATE lemmas SET site_id = ?, lemma = ?, frequency = ? WHERE id = ?`,
		lemma.SiteID, lemma.Lemma, lemma.Frequency, lemma.ID,
	)
	if err != nil {
		return fmt.Errorf("updating lemma: %w", err)
	}
	return nil
}

func (r *LemmaRepo) DeleteByID(id int64) error {
	_, err := r.c.Exec(`DELETE FROM lemmas WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting lemma: %w", err)
	}
	return nil
}

func (r *LemmaRepo) FindByLemmaAndSite(lemma string, siteID int64) (*entity.Lemma, error) {
	row := r.c.QueryRow(`SELECT `+lemmaColumns+` FROM lemmas WHERE site_id = ? AND lemma = ?`, siteID, lemma)
	l, err := scanLemma(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying lemma: %w", err)
	}
	return l, nil
}

func (r *LemmaRepo) FindBySite(siteID int64) ([]*entity.Lemma, error) {
	rows, err := r.c.Query(`SELECT `+lemmaColumns+` FROM lemmas WHERE site_id = ?`, siteID)
	if err != nil {
		return nil, fmt.Errorf("querying lemmas by site: %w", err)
	}
	defer rows.Close()
	return scanLemmas(rows)
}

// FindByLemmaIn returns all Lemma rows (any site) whose text is in names.
func (r *LemmaRepo) FindByLemmaIn(names []string) ([]*entity.Lemma, error) {
	if len(names) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(names)), ",")
	args := make([]any, len(names))
	for i, n := range names {
		args[i] = n
	}

	rows, err := r.c.Query(`SELECT `+lemmaColumns+` FROM lemmas WHERE lemma IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying lemmas by name set: %w", err)
	}
	defer rows.Close()
	return scanLemmas(rows)
}

// FindByLemmaInAndSiteURL returns Lemma rows restricted to one site,
// identified by its URL.
func (r *LemmaRepo) FindByLemmaInAndSiteURL(names []string, siteURL string) ([]*entity.Lemma, error) {
	if len(names) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(names)), ",")
	args := make([]any, 0, len(names)+1)
	for _, n := range names {
		args = append(args, n)
	}
	args = append(args, siteURL)

	query := `SELECT l.id, l.site_id, l.lemma, l.frequency
		FROM lemmas l JOIN sites s ON s.id = l.site_id
		WHERE l.lemma IN (` + placeholders + `) AND s.url = ?`

	rows, err := r.c.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying lemmas by name set and site: %w", err)
	}
	defer rows.Close()
	return scanLemmas(rows)
}

func (r *LemmaRepo) CountBySiteID(siteID int64) (int, error) {
	var count int
	if err := r.c.QueryRow(`SELECT COUNT(*) FROM lemmas WHERE site_id = ?`, siteID).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting lemmas by site: %w", err)
	}
	return count, nil
}

// HasAny reports whether any Lemma row exists for the site.
func (r *LemmaRepo) HasAny(siteID int64) (bool, error) {
	count, err := r.CountBySiteID(siteID)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func scanLemmas(rows *sql.Rows) ([]*entity.Lemma, error) {
	var lemmas []*entity.Lemma
	for rows.Next() {
		l, err := scanLemma(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning lemma: %w", err)
		}
		lemmas = append(lemmas, l)
	}
	return lemmas, rows.Err()
}
