package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// TimeSlot buckets an hour of day into Morning/Afternoon/Evening/Night.
func TimeSlot(t time.Time) string {
	switch h := t.Hour(); {
	case h >= 5 && h < 12:
		return "Morning"
	case h >= 12 && h < 17:
		return "Afternoon"
	case h >= 17 && h < 22:
		return "Evening"
	default:
		return "Night"
	}
}

// AppName reduces an active-window title to a short app identifier: the
// last dash-delimited token, trimmed and capped at 20 characters.
func AppName(windowTitle string) string {
	if windowTitle == "" {
		return "Unknown"
	}
	parts := strings.Split(windowTitle, "-")
	name := windowTitle
	if len(parts) > 1 {
		name = strings.TrimSpace(parts[len(parts)-1])
	}
	if r := []rune(name); len(r) > 20 {
		name = string(r[:20])
	}
	return name
}

// ContextKey builds the habit table key: "slot|app".
func ContextKey(t time.Time, windowTitle string) string {
	return TimeSlot(t) + "|" + AppName(windowTitle)
}

// GetHabit returns the command frequency map for a context key. Unknown
// keys yield an empty map.
func (s *Store) GetHabit(contextKey string) (map[string]int, error) {
	var blob string
	err := s.db.QueryRow(`SELECT counts FROM habits WHERE context_key = ?`, contextKey).Scan(&blob)
	if err == sql.ErrNoRows {
		return map[string]int{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get habit %q: %w", contextKey, err)
	}
	counts := map[string]int{}
	if err := json.Unmarshal([]byte(blob), &counts); err != nil {
		return nil, fmt.Errorf("failed to decode habit counts: %w", err)
	}
	return counts, nil
}

// SaveHabit upserts the frequency map for a context key.
func (s *Store) SaveHabit(contextKey string, counts map[string]int) error {
	blob, err := json.Marshal(counts)
	if err != nil {
		return fmt.Errorf("failed to encode habit counts: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.Exec(`
		INSERT INTO habits (context_key, counts)
		VALUES (?, ?)
		ON CONFLICT(context_key) DO UPDATE SET counts=excluded.counts, updated_at=CURRENT_TIMESTAMP`,
		contextKey, string(blob))
	if err != nil {
		return fmt.Errorf("failed to save habit %q: %w", contextKey, err)
	}
	return nil
}

// LearnHabit increments the counter for command under the context key.
// Counts are monotonically non-decreasing per (context, command).
func (s *Store) LearnHabit(contextKey, command string) error {
	counts, err := s.GetHabit(contextKey)
	if err != nil {
		return err
	}
	counts[command]++
	return s.SaveHabit(contextKey, counts)
}

// PredictHabit returns the most frequent command for a context key once its
// count reaches threshold, else ("", 0).
func (s *Store) PredictHabit(contextKey string, threshold int) (string, int, error) {
	counts, err := s.GetHabit(contextKey)
	if err != nil {
		return "", 0, err
	}
	best, bestCount := "", 0
	for cmd, n := range counts {
		if n > bestCount || (n == bestCount && cmd < best) {
			best, bestCount = cmd, n
		}
	}
	if bestCount < threshold {
		return "", 0, nil
	}
	return best, bestCount, nil
}
