// internal/app/system/workers/sessioncleanup.go
package workers

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dalemusser/civicbridge/internal/app/system/apperr"
	"github.com/dalemusser/civicbridge/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// ExpiredSessionSweeper deletes sessions whose expiry has passed.
// *sessions.Store satisfies it.
type ExpiredSessionSweeper interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// SessionCleanup periodically removes expired sessions. The TTL index does
// the same job eventually; this keeps the collection tidy when the TTL
// monitor lags or the deployment does not run one.
type SessionCleanup struct {
	sessions ExpiredSessionSweeper
	log      *zap.Logger
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewSessionCleanup creates a cleanup worker that runs every interval.
func NewSessionCleanup(sessions ExpiredSessionSweeper, logger *zap.Logger, interval time.Duration) *SessionCleanup {
	return &SessionCleanup{
		sessions: sessions,
		log:      logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background cleanup loop.
func (w *SessionCleanup) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("session cleanup worker started", zap.Duration("interval", w.interval))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *SessionCleanup) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	w.wg.Wait()
	w.log.Info("session cleanup worker stopped")
}

func (w *SessionCleanup) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.cleanup()
		}
	}
}

func (w *SessionCleanup) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Long())
	defer cancel()

	count, err := w.sessions.CleanupExpired(ctx)
	if err != nil {
		if errors.Is(err, apperr.ErrStoreNotConfigured) {
			return
		}
		w.log.Error("failed to remove expired sessions", zap.Error(err))
		return
	}
	if count > 0 {
		w.log.Info("removed expired sessions", zap.Int64("count", count))
	}
}
