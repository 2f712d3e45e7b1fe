package distribution

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"estate_crm_backend/platform/apperr"
)

// Locker serializes distribution runs that target overlapping agent sets
// so concurrent batches cannot race each other past capacity checks.
type Locker interface {
	// Acquire takes the lock for the given agent set or fails with a
	// Conflict error when another run holds it. The returned release
	// function is safe to call once.
	Acquire(ctx context.Context, agentIDs []uuid.UUID) (release func(), err error)
}

// lockKey is stable under agent ordering so two runs over the same agents
// always contend on the same key.
func lockKey(agentIDs []uuid.UUID) string {
	ids := make([]string, len(agentIDs))
	for i, id := range agentIDs {
		ids[i] = id.String()
	}
	sort.Strings(ids)
	return "distribution:lock:" + strings.Join(ids, ",")
}

// RedisLocker implements Locker with a redis SET NX lease.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisLocker{client: client, ttl: ttl}
}

func (l *RedisLocker) Acquire(ctx context.Context, agentIDs []uuid.UUID) (func(), error) {
	const op = "distribution.RedisLocker.Acquire"

	key := lockKey(agentIDs)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "acquiring distribution lock", err).WithOp(op)
	}
	if !ok {
		return nil, apperr.Conflict("a distribution run for these agents is already in progress").WithOp(op)
	}

	release := func() {
		// Delete only our own lease; an expired lock may have been
		// re-acquired by another run.
		const script = `if redis.call("get", KEYS[1]) == ARGV[1] then return redis.call("del", KEYS[1]) else return 0 end`
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
		defer cancel()
		_ = l.client.Eval(releaseCtx, script, []string{key}, token).Err()
	}
	return release, nil
}

// LocalLocker serializes runs within a single process. It is the fallback
// when no redis connection is configured.
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]bool)}
}

func (l *LocalLocker) Acquire(_ context.Context, agentIDs []uuid.UUID) (func(), error) {
	const op = "distribution.LocalLocker.Acquire"

	key := lockKey(agentIDs)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] {
		return nil, apperr.Conflict("a distribution run for these agents is already in progress").WithOp(op)
	}
	l.held[key] = true

	var once sync.Once
	release := func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
		})
	}
	return release, nil
}
