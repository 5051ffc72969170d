package workers_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dalemusser/civicbridge/internal/app/store/sessions"
	"github.com/dalemusser/civicbridge/internal/app/system/workers"
	"github.com/dalemusser/civicbridge/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type countingSweeper struct {
	calls atomic.Int32
	err   error
}

func (s *countingSweeper) CleanupExpired(context.Context) (int64, error) {
	s.calls.Add(1)
	return 2, s.err
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestSessionCleanup_RunsUntilStopped(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	sweeper := &countingSweeper{}
	w := workers.NewSessionCleanup(sweeper, zap.New(core), 10*time.Millisecond)

	w.Start()
	waitFor(t, func() bool { return sweeper.calls.Load() >= 2 })
	w.Stop()
	w.Stop() // second Stop is harmless

	after := sweeper.calls.Load()
	time.Sleep(30 * time.Millisecond)
	if sweeper.calls.Load() != after {
		t.Error("worker kept running after Stop")
	}
	if logs.FilterMessage("removed expired sessions").Len() == 0 {
		t.Error("expected removal to be logged")
	}
}

func TestSessionCleanup_LogsErrors(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	sweeper := &countingSweeper{err: errors.New("boom")}
	w := workers.NewSessionCleanup(sweeper, zap.New(core), 10*time.Millisecond)

	w.Start()
	waitFor(t, func() bool { return logs.FilterMessage("failed to remove expired sessions").Len() > 0 })
	w.Stop()
}

func TestSessionCleanup_RemovesExpiredFromStore(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := sessions.New(db)
	now := time.Now().UTC()
	_, err := db.Collection("sessions").InsertOne(ctx, sessions.Session{
		ID:        primitive.NewObjectID(),
		Token:     "expired-token",
		UserID:    primitive.NewObjectID(),
		Role:      "resident",
		CreatedAt: now.Add(-8 * 24 * time.Hour),
		ExpiresAt: now.Add(-time.Hour),
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	live, err := store.Create(ctx, primitive.NewObjectID(), "official")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	w := workers.NewSessionCleanup(store, zap.NewNop(), 10*time.Millisecond)
	w.Start()
	waitFor(t, func() bool {
		n, _ := db.Collection("sessions").CountDocuments(ctx, map[string]string{"token": "expired-token"})
		return n == 0
	})
	w.Stop()

	if _, ok, _ := store.Resolve(ctx, live.Token); !ok {
		t.Error("unexpired session should survive cleanup")
	}
}
