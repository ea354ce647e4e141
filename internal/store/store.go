// Package store implements the unified persistent state behind Umbrasol:
// the task queue, audit trail, knowledge base, semantic cache, habit table
// and experience library, all in one embedded SQLite database.
//
// Writers are serialized behind a single connection and mutex; readers may
// proceed in parallel with last-committed visibility.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"umbrasol/internal/logging"

	_ "modernc.org/sqlite"
)

// Store owns the embedded database. All rows are owned here exclusively;
// higher layers get copies.
type Store struct {
	db     *sql.DB
	mu     sync.Mutex // serializes writers
	dbPath string
}

// Open initializes the SQLite database at the given path, creating the
// schema if absent.
func Open(path string) (*Store, error) {
	logging.Debugf("store: opening database at %s", path)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create memory directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.Debugf("store: failed to set busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.Debugf("store: failed to set journal_mode=WAL: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL"); err != nil {
		logging.Debugf("store: failed to set synchronous=NORMAL: %v", err)
	}

	s := &Store{db: db, dbPath: path}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	schema := []string{
		// Task queue: reboot survival.
		`CREATE TABLE IF NOT EXISTS tasks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			request TEXT NOT NULL,
			status TEXT DEFAULT 'pending',
			checkpoint TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		// Audit trail: immutable history.
		`CREATE TABLE IF NOT EXISTS audit_trail (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			command TEXT NOT NULL,
			result TEXT,
			risk_level TEXT,
			timestamp TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		// Knowledge base: learned facts and preferences.
		`CREATE TABLE IF NOT EXISTS knowledge (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			category TEXT,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		// Semantic cache: request fingerprint -> command mapping.
		`CREATE TABLE IF NOT EXISTS semantic_cache (
			hash TEXT PRIMARY KEY,
			tool TEXT NOT NULL,
			command TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		// Habits: (time slot | app) -> command frequencies.
		`CREATE TABLE IF NOT EXISTS habits (
			context_key TEXT PRIMARY KEY,
			counts TEXT NOT NULL,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		// Experience: task key -> lesson.
		`CREATE TABLE IF NOT EXISTS experience (
			task_key TEXT PRIMARY KEY,
			lesson TEXT NOT NULL,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
	}
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}
	return nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.dbPath }

// Close closes the underlying database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
