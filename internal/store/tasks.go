package store

import (
	"fmt"
)

// Task statuses. A task not in a terminal state at process start is a
// recovery candidate.
const (
	TaskPending   = "pending"
	TaskRunning   = "running"
	TaskCompleted = "completed"
	TaskFailed    = "failed"
)

// Task is one row of the task queue.
type Task struct {
	ID         int64
	Request    string
	Status     string
	Checkpoint string // opaque JSON
	CreatedAt  string
	UpdatedAt  string
}

// AddTask creates a new pending task and returns its id.
func (s *Store) AddTask(request string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`INSERT INTO tasks (request) VALUES (?)`, request)
	if err != nil {
		return 0, fmt.Errorf("failed to add task: %w", err)
	}
	return res.LastInsertId()
}

// UpdateTaskCheckpoint transitions a task's status and stores an opaque
// checkpoint blob.
func (s *Store) UpdateTaskCheckpoint(id int64, status, checkpoint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		UPDATE tasks
		SET status = ?, checkpoint = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, status, checkpoint, id)
	if err != nil {
		return fmt.Errorf("failed to update task %d: %w", id, err)
	}
	return nil
}

// GetPendingTasks returns every task not in a terminal state, oldest first.
func (s *Store) GetPendingTasks() ([]Task, error) {
	rows, err := s.db.Query(`
		SELECT id, request, status, COALESCE(checkpoint, ''), created_at, updated_at
		FROM tasks
		WHERE status NOT IN (?, ?)
		ORDER BY id`, TaskCompleted, TaskFailed)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending tasks: %w", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		var t Task
		if err := rows.Scan(&t.ID, &t.Request, &t.Status, &t.Checkpoint, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}
