package store

import (
	"database/sql"
	"fmt"
)

// SavePreference upserts a knowledge pair.
func (s *Store) SavePreference(key, value, category string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO knowledge (key, value, category)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value=excluded.value, category=excluded.category, updated_at=CURRENT_TIMESTAMP`,
		key, value, category)
	if err != nil {
		return fmt.Errorf("failed to save preference %q: %w", key, err)
	}
	return nil
}

// GetPreference returns the stored value for key, or ("", false) when the
// key is unknown.
func (s *Store) GetPreference(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM knowledge WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get preference %q: %w", key, err)
	}
	return value, true, nil
}
