package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/ashureev/hrdesk/internal/shared"
)

// Expirer deletes session contexts that have been idle for longer than ttl.
type Expirer interface {
	DeleteExpiredSessions(ctx context.Context, ttl time.Duration) (int64, error)
}

// StartSweeper runs a background goroutine that periodically removes expired
// session contexts. The returned channel is closed once the goroutine exits
// after ctx is cancelled.
func StartSweeper(ctx context.Context, repo Expirer, ttl, interval time.Duration) <-chan struct{} {
	done := make(chan struct{})
	ticker := time.NewTicker(interval)
	go func() {
		defer close(done)
		defer ticker.Stop()
		slog.Info("Session sweeper started", "interval", interval, "ttl", ttl)

		for {
			select {
			case <-ticker.C:
				sweep(ctx, repo, ttl)
			case <-ctx.Done():
				slog.Info("Session sweeper shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
	return done
}

// sweep retries with exponential backoff when the database is busy.
func sweep(ctx context.Context, repo Expirer, ttl time.Duration) {
	var deleted int64
	err := shared.RetryOnConflict(ctx, "sweep_sessions", 3, 50*time.Millisecond, func() error {
		var err error
		deleted, err = repo.DeleteExpiredSessions(ctx, ttl)
		return err
	})
	switch {
	case err == nil:
		if deleted > 0 {
			slog.Info("Session sweeper removed expired sessions", "count", deleted)
		}
	case ctx.Err() != nil:
		slog.Debug("Session sweeper: context canceled during cleanup", "error", err)
	default:
		slog.Error("Session sweeper failed to delete expired sessions", "error", err)
	}
}
