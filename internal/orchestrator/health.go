package orchestrator

import (
	"context"
	"runtime"
	"strings"
	"time"

	"umbrasol/internal/logging"
)

// RunHealthMonitor records a liveness event on every tick until the context
// is cancelled. It never mutates state and its failures stay in the log.
func (o *Orchestrator) RunHealthMonitor(ctx context.Context) {
	ticker := time.NewTicker(o.cfg.HealthCheckInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			logging.Debugf("health: alive, %d goroutines", runtime.NumGoroutine())
			zombies := o.hands.CheckZombies(ctx)
			if zombies != "" && !strings.HasPrefix(zombies, "ERROR:") && !strings.HasPrefix(zombies, "No zombie") {
				logging.Warnf("health: zombie processes present:\n%s", zombies)
			}
		}
	}
}
