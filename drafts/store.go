// Package drafts persists locally composed note bodies that have not been
// published yet.
package drafts

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/realiefan/note-exte/types"
	_ "modernc.org/sqlite"
)

var logger = log.New("module", "drafts")

// ErrNotFound is returned when a draft id does not exist.
var ErrNotFound = errors.New("draft not found")

// Store is a sqlite-backed ordered list of drafts. Drafts keep their
// creation order; every mutation is written through immediately.
type Store struct {
	db *sql.DB
}

// Open creates or opens the draft database at path, creating parent
// directories as needed.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating drafts dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening drafts db: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS drafts (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			body       TEXT NOT NULL,
			updated_at DATETIME NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("initializing drafts schema: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// List returns all drafts in creation order.
func (s *Store) List() ([]types.Draft, error) {
	rows, err := s.db.Query(`SELECT id, body, updated_at FROM drafts ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	drafts := make([]types.Draft, 0)
	for rows.Next() {
		var d types.Draft
		if err := rows.Scan(&d.ID, &d.Body, &d.UpdatedAt); err != nil {
			return nil, err
		}
		drafts = append(drafts, d)
	}
	return drafts, rows.Err()
}

// Add appends a new draft and returns it.
func (s *Store) Add(body string) (types.Draft, error) {
	now := time.Now().UTC()
	res, err := s.db.Exec(`INSERT INTO drafts (body, updated_at) VALUES (?, ?)`, body, now)
	if err != nil {
		return types.Draft{}, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return types.Draft{}, err
	}

	logger.Debug("draft added", "id", id)
	return types.Draft{ID: id, Body: body, UpdatedAt: now}, nil
}

// Update replaces the body of an existing draft.
func (s *Store) Update(id int64, body string) error {
	res, err := s.db.Exec(`UPDATE drafts SET body = ?, updated_at = ? WHERE id = ?`,
		body, time.Now().UTC(), id)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a draft.
func (s *Store) Delete(id int64) error {
	res, err := s.db.Exec(`DELETE FROM drafts WHERE id = ?`, id)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}

	logger.Debug("draft deleted", "id", id)
	return nil
}
