package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"umbrasol/internal/logging"
)

// AcquireLock claims the single-instance PID lock. A leftover lock means
// the previous run died uncleanly: it is logged, removed, and replaced.
func AcquireLock(path string) error {
	if data, err := os.ReadFile(path); err == nil {
		pid := strings.TrimSpace(string(data))
		logging.Warnf("stale lock found (pid %s), previous run did not shut down cleanly", pid)
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to remove stale lock: %w", err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())+"\n"), 0644); err != nil {
		return fmt.Errorf("failed to write lock: %w", err)
	}
	return nil
}

// ReleaseLock removes the PID lock. Safe to call when it is already gone.
func ReleaseLock(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logging.Warnf("failed to remove lock: %v", err)
	}
}

// ResumePending re-executes tasks that were not terminal when the previous
// process died, capped at the configured resume limit.
func (o *Orchestrator) ResumePending(ctx context.Context) error {
	tasks, err := o.store.GetPendingTasks()
	if err != nil {
		return fmt.Errorf("failed to read pending tasks: %w", err)
	}
	if len(tasks) == 0 {
		return nil
	}
	if max := o.cfg.Execution.MaxTaskResume; len(tasks) > max {
		logging.Warnf("recovery: %d pending tasks, resuming first %d", len(tasks), max)
		tasks = tasks[:max]
	}
	logging.Infof("recovery: resuming %d task(s)", len(tasks))

	g, ctx := errgroup.WithContext(ctx)
	for _, task := range tasks {
		task := task
		g.Go(func() error {
			if _, err := o.Resume(ctx, task); err != nil {
				logging.Errorf("recovery: task %d: %v", task.ID, err)
			}
			return nil
		})
	}
	return g.Wait()
}
