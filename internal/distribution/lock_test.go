package distribution

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"estate_crm_backend/platform/apperr"
)

func newTestRedisLocker(t *testing.T) *RedisLocker {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisLocker(client, 30*time.Second)
}

func TestRedisLockerSerializesOverlappingAgentSets(t *testing.T) {
	locker := newTestRedisLocker(t)
	agents := []uuid.UUID{uuid.New(), uuid.New()}

	release, err := locker.Acquire(context.Background(), agents)
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}

	// Same agents in reverse order contend on the same key.
	reversed := []uuid.UUID{agents[1], agents[0]}
	if _, err := locker.Acquire(context.Background(), reversed); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	release()
	release2, err := locker.Acquire(context.Background(), agents)
	if err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	release2()
}

func TestRedisLockerDisjointAgentSetsDoNotContend(t *testing.T) {
	locker := newTestRedisLocker(t)

	release1, err := locker.Acquire(context.Background(), []uuid.UUID{uuid.New()})
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	defer release1()

	release2, err := locker.Acquire(context.Background(), []uuid.UUID{uuid.New()})
	if err != nil {
		t.Fatalf("second acquire: %v", err)
	}
	release2()
}

func TestLocalLockerConflictAndRelease(t *testing.T) {
	locker := NewLocalLocker()
	agents := []uuid.UUID{uuid.New()}

	release, err := locker.Acquire(context.Background(), agents)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if _, err := locker.Acquire(context.Background(), agents); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	release()
	release() // safe to call twice

	release2, err := locker.Acquire(context.Background(), agents)
	if err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	release2()
}
