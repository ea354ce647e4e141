package store

import (
	"crypto/md5"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strings"
)

// Fingerprint derives the semantic cache key for a request:
// md5(lowercase(trim(request))). Inner whitespace is preserved.
func Fingerprint(request string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(request))))
	return hex.EncodeToString(sum[:])
}

// GetCache looks up a cached (tool, cmd) by fingerprint.
func (s *Store) GetCache(fingerprint string) (tool, cmd string, ok bool, err error) {
	err = s.db.QueryRow(`SELECT tool, COALESCE(command, '') FROM semantic_cache WHERE hash = ?`,
		fingerprint).Scan(&tool, &cmd)
	if err == sql.ErrNoRows {
		return "", "", false, nil
	}
	if err != nil {
		return "", "", false, fmt.Errorf("failed to get cache entry: %w", err)
	}
	return tool, cmd, true, nil
}

// SetCache upserts a (tool, cmd) mapping under the fingerprint. Written only
// after a single-action request succeeds end to end; never invalidated here.
func (s *Store) SetCache(fingerprint, tool, cmd string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO semantic_cache (hash, tool, command)
		VALUES (?, ?, ?)
		ON CONFLICT(hash) DO UPDATE SET tool=excluded.tool, command=excluded.command`,
		fingerprint, tool, cmd)
	if err != nil {
		return fmt.Errorf("failed to set cache entry: %w", err)
	}
	return nil
}
