package store

import (
	"database/sql"
	"fmt"

	"github.com/avkrylov/searchcore/internal/entity"
)

type PageRepo struct{ c conn }

const pageColumns = "id, site_id, path, code, content"

func scanPage(s interface{ Scan(dest ...any) error }) (*entity.Page, error) {
	var p entity.Page
	if err := s.Scan(&p.ID, &p.SiteID, &p.Path, &p.Code, &p.Content); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PageRepo) Save(page *entity.Page) error {
	if page.ID == 0 {
		result, err := r.c.Exec(
			`INSERT INTO pages (site_id, path, code, content) VALUES (?, ?, ?, ?)`,
			page.SiteID, page.Path, page.Code, page.Content,
		)
		if err != nil {
			return fmt.Errorf("inserting page: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("getting last insert id: %w", err)
		}
		page.ID = id
		return nil
	}

	_, err := r.c.Exec(
		`UPDATE pages SET site_id = ?, path = ?, code = ?, content = ? WHERE id = ?`,
		page.SiteID, page.Path, page.Code, page.Content, page.ID,
	)
	if err != nil {
		return fmt.Errorf("updating page: %w", err)
	}
	return nil
}

func (r *PageRepo) Delete(id int64) error {
	_, err := r.c.Exec(`DELETE FROM pages WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting page: %w", err)
	}
	return nil
}

func (r *PageRepo) FindByID(id int64) (*entity.Page, error) {
	row := r.c.QueryRow(`SELECT `+pageColumns+` FROM pages WHERE id = ?`, id)
	page, err := scanPage(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying page by id: %w", err)
	}
	return page, nil
}

// FindByPath looks up a page by its (site, path) pair, which is unique.
func (r *PageRepo) FindByPath(siteID int64, path string) (*entity.Page, error) {
	row := r.c.QueryRow(`SELECT `+pageColumns+` FROM pages WHERE site_id = ? AND path = ?`, siteID, path)
	page, err := scanPage(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying page by path: %w", err)
	}
	return page, nil
}

func (r *PageRepo) FindAllBySite(siteID int64) ([]*entity.Page, error) {
	rows, err := r.c.Query(`SELECT `+pageColumns+` FROM pages WHERE site_id = ? ORDER BY id`, siteID)
	if err != nil {
		return nil, fmt.Errorf("querying pages by site: %w", err)
	}
	defer rows.Close()

	var pages []*entity.Page
	for rows.Next() {
		page, err := scanPage(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning page: %w", err)
		}
		pages = append(pages, page)
	}
	return pages, rows.Err()
}

func (r *PageRepo) CountBySite(siteID int64) (int, error) {
	var count int
	if err := r.c.QueryRow(`SELECT COUNT(*) FROM pages WHERE site_id = ?`, siteID).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting pages by site: %w", err)
	}
	return count, nil
}
