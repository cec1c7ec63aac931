// Package refdb persists extracted rate entries and serves the exact-code
// and prefix lookups the matcher depends on. Entries are stored in insertion
// order (rowid) so duplicate-code ambiguity survives the round trip.
package refdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"estimatex/internal"
)

type DB struct {
	conn *sql.DB
}

// Open creates the database (and schema) if needed.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

// OpenExisting fails fast when the reference database is missing; a missing
// table is a setup error, not a per-item outcome.
func OpenExisting(path string) (*DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("reference database not found: %s", path)
	}
	return Open(path)
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS dsr_codes (
  code TEXT NOT NULL,
  category TEXT NOT NULL DEFAULT 'civil',
  chapter TEXT,
  section TEXT,
  description TEXT,
  unit TEXT,
  rate REAL,
  volume TEXT,
  page INTEGER,
  source TEXT,
  keywords TEXT
);
CREATE INDEX IF NOT EXISTS idx_code ON dsr_codes(code);
CREATE INDEX IF NOT EXISTS idx_category ON dsr_codes(category);
CREATE INDEX IF NOT EXISTS idx_category_code ON dsr_codes(category, code);
CREATE INDEX IF NOT EXISTS idx_chapter ON dsr_codes(chapter);
CREATE INDEX IF NOT EXISTS idx_section ON dsr_codes(section);
CREATE INDEX IF NOT EXISTS idx_rate ON dsr_codes(rate);
CREATE INDEX IF NOT EXISTS idx_unit ON dsr_codes(unit);
`
	_, err := d.conn.Exec(schema)
	return err
}

// InsertEntries appends rate entries under one category in a single
// transaction. Existing rows are kept; duplicates per code are expected.
func (d *DB) InsertEntries(category string, entries []internal.RateEntry) (int, error) {
	tx, err := d.conn.Begin()
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
INSERT INTO dsr_codes (code, category, chapter, section, description, unit, rate, volume, page, source, keywords)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	count := 0
	for _, e := range entries {
		cat := category
		if cat == "" {
			cat = e.Category
		}
		if cat == "" {
			cat = "civil"
		}
		if _, err := stmt.Exec(
			e.Code, cat, e.Chapter, e.Section, e.Description, e.Unit,
			e.Rate, e.Volume, e.Page, string(e.Source), strings.Join(e.Keywords, ","),
		); err != nil {
			return count, err
		}
		count++
	}

	return count, tx.Commit()
}

const selectColumns = `code, category, chapter, section, description, unit, rate, volume, page, source, keywords`

// Lookup returns all entries for a code, across categories, in insertion
// order. An empty result is a normal outcome.
func (d *DB) Lookup(code string) ([]internal.RateEntry, error) {
	return d.queryEntries(`SELECT `+selectColumns+` FROM dsr_codes WHERE code = ? ORDER BY rowid`, code)
}

// LookupCategory restricts the lookup to one category.
func (d *DB) LookupCategory(code, category string) ([]internal.RateEntry, error) {
	return d.queryEntries(`SELECT `+selectColumns+` FROM dsr_codes WHERE code = ? AND category = ? ORDER BY rowid`, code, category)
}

// ByChapter returns every entry whose chapter matches.
func (d *DB) ByChapter(chapter string) ([]internal.RateEntry, error) {
	return d.queryEntries(`SELECT `+selectColumns+` FROM dsr_codes WHERE chapter = ? ORDER BY rowid`, chapter)
}

// BySectionPrefix returns entries whose section starts with the prefix.
func (d *DB) BySectionPrefix(prefix string) ([]internal.RateEntry, error) {
	return d.queryEntries(`SELECT `+selectColumns+` FROM dsr_codes WHERE section LIKE ? || '%' ORDER BY rowid`, prefix)
}

// All returns the full table in insertion order.
func (d *DB) All() ([]internal.RateEntry, error) {
	return d.queryEntries(`SELECT ` + selectColumns + ` FROM dsr_codes ORDER BY rowid`)
}

func (d *DB) Count() (int, error) {
	var n int
	err := d.conn.QueryRow(`SELECT COUNT(*) FROM dsr_codes`).Scan(&n)
	return n, err
}

// Stats aggregates the whole table.
func (d *DB) Stats() (internal.RateStats, error) {
	stats := internal.RateStats{ByCategory: map[string]int{}}

	err := d.conn.QueryRow(`
SELECT COUNT(*), COALESCE(MIN(rate), 0), COALESCE(MAX(rate), 0), COALESCE(AVG(rate), 0)
FROM dsr_codes`).Scan(&stats.TotalCodes, &stats.MinRate, &stats.MaxRate, &stats.AvgRate)
	if err != nil {
		return stats, err
	}

	rows, err := d.conn.Query(`SELECT category, COUNT(*) FROM dsr_codes GROUP BY category`)
	if err != nil {
		return stats, err
	}
	defer rows.Close()
	for rows.Next() {
		var cat string
		var n int
		if err := rows.Scan(&cat, &n); err != nil {
			return stats, err
		}
		stats.ByCategory[cat] = n
	}

	return stats, rows.Err()
}

func (d *DB) queryEntries(query string, args ...any) ([]internal.RateEntry, error) {
	rows, err := d.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.RateEntry
	for rows.Next() {
		var e internal.RateEntry
		var source, keywords string
		if err := rows.Scan(
			&e.Code, &e.Category, &e.Chapter, &e.Section, &e.Description,
			&e.Unit, &e.Rate, &e.Volume, &e.Page, &source, &keywords,
		); err != nil {
			return nil, err
		}
		e.Source = internal.RateSource(source)
		if keywords != "" {
			e.Keywords = strings.Split(keywords, ",")
		}
		out = append(out, e)
	}

	return out, rows.Err()
}
