// Package replhist persists REPL line history across sessions, the way
// a shell's history file does, but backed by a small SQLite database
// (modernc.org/sqlite's pure-Go driver, no cgo) instead of a flat file,
// so multiple concurrent REPL sessions can append without clobbering
// each other.
package replhist

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Store wraps a sqlite-backed history table.
type Store struct {
	db *sql.DB
}

// Open creates (if needed) and opens the history database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("replhist: open %s: %w", path, err)
	}
	const schema = `
CREATE TABLE IF NOT EXISTS history (
	id   INTEGER PRIMARY KEY AUTOINCREMENT,
	line TEXT NOT NULL,
	ts   INTEGER NOT NULL
);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("replhist: init schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// Append records line with the given unix timestamp. Blank lines are
// not recorded (mirrors a shell history's HISTIGNORE-empty behavior).
func (s *Store) Append(line string, unixTS int64) error {
	if line == "" {
		return nil
	}
	_, err := s.db.Exec(`INSERT INTO history(line, ts) VALUES(?, ?)`, line, unixTS)
	if err != nil {
		return fmt.Errorf("replhist: append: %w", err)
	}
	return nil
}

// Recent returns the last n lines, oldest first.
func (s *Store) Recent(n int) ([]string, error) {
	rows, err := s.db.Query(`SELECT line FROM history ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("replhist: recent: %w", err)
	}
	defer rows.Close()

	var lines []string
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return nil, fmt.Errorf("replhist: scan: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// reverse into oldest-first order
	for i, j := 0, len(lines)-1; i < j; i, j = i+1, j-1 {
		lines[i], lines[j] = lines[j], lines[i]
	}
	return lines, nil
}
