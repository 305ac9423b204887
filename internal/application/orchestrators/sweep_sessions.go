package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// ExpiredSessionDeleter removes sessions past their expiry.
type ExpiredSessionDeleter interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// ExpiredScreenDiscarder drops in-memory state owned by expired sessions.
type ExpiredScreenDiscarder interface {
	DiscardExpired(now time.Time) int
}

// SweepSessionsDeps holds dependencies for SweepSessions.
// Screens is optional.
type SweepSessionsDeps struct {
	Sessions ExpiredSessionDeleter
	Screens  ExpiredScreenDiscarder
	Now      func() time.Time
}

// ExecuteSweepSessions deletes expired sessions once, along with their screens.
// POST: Returns the number of sessions removed; screens are dropped even when
// the store fails
func ExecuteSweepSessions(ctx context.Context, deps SweepSessionsDeps) (int64, error) {
	now := deps.Now()
	if deps.Screens != nil {
		if dropped := deps.Screens.DiscardExpired(now); dropped > 0 {
			slog.Info("screen_sweep", "removed", dropped)
		}
	}
	n, err := deps.Sessions.DeleteExpired(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep sessions: %w", err)
	}
	if n > 0 {
		slog.Info("session_sweep", "removed", n)
	}
	return n, nil
}

// SessionSweepConfig holds configuration for the sweeper.
type SessionSweepConfig struct {
	Interval time.Duration
	Enabled  bool
}

// DefaultSessionSweepConfig returns sensible defaults.
func DefaultSessionSweepConfig() SessionSweepConfig {
	return SessionSweepConfig{Interval: 15 * time.Minute, Enabled: true}
}

// StartSessionSweeper runs ExecuteSweepSessions on a ticker until the returned
// cancel function is called or ctx ends.
// PRE: Context is valid, deps are initialized
// POST: Goroutine started, returns cancel function
func StartSessionSweeper(ctx context.Context, deps SweepSessionsDeps, cfg SessionSweepConfig) func() {
	if !cfg.Enabled || cfg.Interval <= 0 {
		return func() {}
	}

	ctx, cancel := context.WithCancel(ctx)
	go func() {
		ticker := time.NewTicker(cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := ExecuteSweepSessions(ctx, deps); err != nil {
					slog.Error("session_sweep_error", "error", err)
				}
			}
		}
	}()
	return cancel
}
