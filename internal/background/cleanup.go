package background

import (
	"context"
	"log/slog"
	"time"

	"github.com/svargasl/finpanel/internal/screens"
	"github.com/svargasl/finpanel/internal/session"
)

// Janitor periodically evicts expired sessions and abandoned pending
// confirmations. Both live in in-memory maps with no other eviction path:
// a browser that never comes back leaves its registry entry behind, and a
// confirmation nobody answers keeps its record locked.
type Janitor struct {
	registry    *session.Registry
	coordinator *screens.Coordinator
	logger      *slog.Logger
	interval    time.Duration
	sessionTTL  time.Duration
	pendingTTL  time.Duration
	stopCh      chan struct{}
}

// NewJanitor creates a janitor sweeping every interval. Sessions older than
// sessionTTL and pending confirmations older than pendingTTL are evicted.
func NewJanitor(
	registry *session.Registry,
	coordinator *screens.Coordinator,
	logger *slog.Logger,
	interval time.Duration,
	sessionTTL time.Duration,
	pendingTTL time.Duration,
) *Janitor {
	return &Janitor{
		registry:    registry,
		coordinator: coordinator,
		logger:      logger,
		interval:    interval,
		sessionTTL:  sessionTTL,
		pendingTTL:  pendingTTL,
		stopCh:      make(chan struct{}),
	}
}

// Start begins the periodic sweep and blocks until Stop or ctx cancellation.
func (j *Janitor) Start(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	// Run immediately on startup
	j.sweep()

	for {
		select {
		case <-ticker.C:
			j.sweep()
		case <-j.stopCh:
			j.logger.Info("janitor stopped")
			return
		case <-ctx.Done():
			j.logger.Info("janitor context cancelled")
			return
		}
	}
}

func (j *Janitor) sweep() {
	sessions := j.registry.DeleteExpired(j.sessionTTL)
	actions := j.coordinator.ExpirePending(j.pendingTTL)

	if sessions > 0 || actions > 0 {
		j.logger.Info("eviction sweep completed",
			slog.Int("sessions_removed", sessions),
			slog.Int("pending_actions_removed", actions))
	}
}

// Stop signals the janitor to stop.
func (j *Janitor) Stop() {
	close(j.stopCh)
}
