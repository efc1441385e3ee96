package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/avkrylov/searchcore/internal/entity"
)

type SiteRepo struct{ c conn }

const siteColumns = "id, url, name, status, status_time, last_error"

func scanSite(s interface{ Scan(dest ...any) error }) (*entity.Site, error) {
	var site entity.Site
	var statusTime string
	var lastError sql.NullString

	if err := s.Scan(&site.ID, &site.URL, &site.Name, &site.Status, &statusTime, &lastError); err != nil {
		return nil, err
	}

	t, err := time.Parse(time.RFC3339, statusTime)
	if err != nil {
		return nil, fmt.Errorf("parsing status_time: %w", err)
	}
	site.StatusTime = t
	site.LastError = lastError.String

	return &site, nil
}

// Save inserts a new Site or updates an existing one (matched by ID;
// ID == 0 inserts and populates the ID).
func (r *SiteRepo) Save(site *entity.Site) error {
	statusTime := site.StatusTime.UTC().Format(time.RFC3339)
	var lastError *string
	if site.LastError != "" {
		lastError = &site.LastError
	}

	if site.ID == 0 {
		result, err := r.c.Exec(
			`INSERT INTO sites (url, name, status, status_time, last_error) VALUES (?, ?, ?, ?, ?)`,
			site.URL, site.Name, site.Status, statusTime, lastError,
		)
		if err != nil {
			return fmt.Errorf("inserting site: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("getting last insert id: %w", err)
		}
		site.ID = id
		return nil
	}

	_, err := r.c.Exec(
		`UPDATE sites SET url = ?, name = ?, status = ?, status_time = ?, last_error = ? WHERE id = ?`,
		site.URL, site.Name, site.Status, statusTime, lastError, site.ID,
	)
	if err != nil {
		return fmt.Errorf("updating site: %w", err)
	}
	return nil
}

// Delete removes a Site by ID, cascading to pages/lemmas/indexes.
func (r *SiteRepo) Delete(id int64) error {
	_, err := r.c.Exec(`DELETE FROM sites WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting site: %w", err)
	}
	return nil
}

// DeleteByURL removes a Site by URL, cascading to pages/lemmas/indexes.
// A no-op (no error) if no such Site exists.
func (r *SiteRepo) DeleteByURL(url string) error {
	_, err := r.c.Exec(`DELETE FROM sites WHERE url = ?`, url)
	if err != nil {
		return fmt.Errorf("deleting site by url: %w", err)
	}
	return nil
}

func (r *SiteRepo) FindByURL(url string) (*entity.Site, error) {
	row := r.c.QueryRow(`SELECT `+siteColumns+` FROM sites WHERE url = ?`, url)
	site, err := scanSite(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying site by url: %w", err)
	}
	return site, nil
}

func (r *SiteRepo) FindByID(id int64) (*entity.Site, error) {
	row := r.c.QueryRow(`SELECT `+siteColumns+` FROM sites WHERE id = ?`, id)
	site, err := scanSite(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying site by id: %w", err)
	}
	return site, nil
}

func (r *SiteRepo) FindAll() ([]*entity.Site, error) {
	rows, err := r.c.Query(`SELECT ` + siteColumns + ` FROM sites ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying all sites: %w", err)
	}
	defer rows.Close()

	var sites []*entity.Site
	for rows.Next() {
		site, err := scanSite(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning site: %w", err)
		}
		sites = append(sites, site)
	}
	return sites, rows.Err()
}

// ExistsBy reports whether any Site row exists at all.
func (r *SiteRepo) ExistsBy() (bool, error) {
	var count int
	if err := r.c.QueryRow(`SELECT COUNT(*) FROM sites`).Scan(&count); err != nil {
		return false, fmt.Errorf("counting sites: %w", err)
	}
	return count > 0, nil
}
