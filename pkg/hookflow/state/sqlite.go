package state

import (
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/randalmurphal/hookflow/pkg/hookflow/event"
)

// SQLiteStore persists property sets to SQLite.
// It is suitable for single-process production use.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewSQLiteStore creates a new SQLite state store.
// The path should be a file path (e.g., "./state.db") or ":memory:" for testing.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for better concurrent read performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS state (
			name TEXT NOT NULL,
			seq INTEGER NOT NULL,
			key TEXT NOT NULL,
			value TEXT NOT NULL,
			PRIMARY KEY (name, key)
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	if _, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_state_name
		ON state(name)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create index: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Save implements Store. All rows for the name are replaced in one
// transaction; seq preserves the property insertion order for Load.
func (s *SQLiteStore) Save(name string, props *event.Properties) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM state WHERE name = ?`, name); err != nil {
		return fmt.Errorf("save state: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO state (name, seq, key, value) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	defer stmt.Close()

	seq := 0
	var insertErr error
	props.Range(func(key, value string) bool {
		if _, insertErr = stmt.Exec(name, seq, key, value); insertErr != nil {
			return false
		}
		seq++
		return true
	})
	if insertErr != nil {
		return fmt.Errorf("save state: %w", insertErr)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

// Load implements Store. A name with no rows yields an empty set.
func (s *SQLiteStore) Load(name string) (*event.Properties, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.Query(`
		SELECT key, value FROM state
		WHERE name = ?
		ORDER BY seq
	`, name)
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	defer rows.Close()

	props := event.NewProperties()
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("load state: %w", err)
		}
		props.Set(key, value)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	return props, nil
}

// Clear implements Store.
func (s *SQLiteStore) Clear(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	if _, err := s.db.Exec(`DELETE FROM state WHERE name = ?`, name); err != nil {
		return fmt.Errorf("clear state: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
