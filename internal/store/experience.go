package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
)

// Lesson records the outcome of a past task: the action taken and, when it
// failed, the error it produced. Success holds exactly when Error is empty.
type Lesson struct {
	Tool    string `json:"tool"`
	Action  string `json:"action"`
	Error   string `json:"error,omitempty"`
	Success bool   `json:"success"`
}

// TaskKey derives the experience table key: lowercase(trim(request)).
func TaskKey(request string) string {
	return strings.ToLower(strings.TrimSpace(request))
}

// SaveExperience upserts the lesson for a task key. Success is forced to
// match the presence of an error.
func (s *Store) SaveExperience(taskKey string, lesson Lesson) error {
	lesson.Success = lesson.Error == ""
	blob, err := json.Marshal(lesson)
	if err != nil {
		return fmt.Errorf("failed to encode lesson: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.Exec(`
		INSERT INTO experience (task_key, lesson)
		VALUES (?, ?)
		ON CONFLICT(task_key) DO UPDATE SET lesson=excluded.lesson, updated_at=CURRENT_TIMESTAMP`,
		taskKey, string(blob))
	if err != nil {
		return fmt.Errorf("failed to save experience %q: %w", taskKey, err)
	}
	return nil
}

// GetExperience returns the stored lesson for a task key, if any.
func (s *Store) GetExperience(taskKey string) (Lesson, bool, error) {
	var blob string
	err := s.db.QueryRow(`SELECT lesson FROM experience WHERE task_key = ?`, taskKey).Scan(&blob)
	if err == sql.ErrNoRows {
		return Lesson{}, false, nil
	}
	if err != nil {
		return Lesson{}, false, fmt.Errorf("failed to get experience %q: %w", taskKey, err)
	}
	var lesson Lesson
	if err := json.Unmarshal([]byte(blob), &lesson); err != nil {
		return Lesson{}, false, fmt.Errorf("failed to decode lesson: %w", err)
	}
	return lesson, true, nil
}
