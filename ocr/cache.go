package ocr

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// cacheSchema for the ocr_results table. Keyed by engine name plus the
// SHA-256 of the PDF bytes, so a re-exported PDF re-runs the model.
const cacheSchema = `
CREATE TABLE IF NOT EXISTS ocr_results (
	key        TEXT PRIMARY KEY,
	markup     TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_ocr_results_created ON ocr_results(created_at);
`

// Cache persists raw OCR markup in SQLite so repeated parses of the same
// paper skip the model run.
type Cache struct {
	db *sql.DB
}

// OpenCache opens (creating if needed) the cache database at path.
func OpenCache(path string) (*Cache, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(cacheSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache schema: %w", err)
	}
	return &Cache{db: db}, nil
}

// Get returns the cached markup for key, reporting whether it was found.
func (c *Cache) Get(ctx context.Context, key string) (string, bool, error) {
	var markup string
	err := c.db.QueryRowContext(ctx,
		`SELECT markup FROM ocr_results WHERE key = ?`, key).Scan(&markup)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return markup, true, nil
}

// Put stores markup under key, replacing any previous entry.
func (c *Cache) Put(ctx context.Context, key, markup string) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO ocr_results (key, markup, created_at) VALUES (?, ?, ?)`,
		key, markup, time.Now().UnixMilli())
	return err
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}
