// Package lock serializes statement commits per company across server
// instances. Correctness never depends on it; it only keeps two operators from
// racing on the same selection.
package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"fibra-backend/internal/config"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

const (
	defaultTTL   = 30 * time.Second
	retryBackoff = 100 * time.Millisecond
	retryLimit   = 20
)

// ErrNotObtained is returned when the key stays held past the retry window.
var ErrNotObtained = errors.New("lock not obtained")

type Locker interface {
	// Obtain blocks until key is held or the retries run out. The returned
	// func releases it.
	Obtain(ctx context.Context, key string) (release func(), err error)
}

// Local locks inside one process. It is used when no Redis is configured.
type Local struct {
	mu   sync.Mutex
	held map[string]bool
}

func NewLocal() *Local {
	return &Local{held: make(map[string]bool)}
}

func (l *Local) Obtain(ctx context.Context, key string) (func(), error) {
	for i := 0; ; i++ {
		l.mu.Lock()
		if !l.held[key] {
			l.held[key] = true
			l.mu.Unlock()
			return func() {
				l.mu.Lock()
				delete(l.held, key)
				l.mu.Unlock()
			}, nil
		}
		l.mu.Unlock()

		if i >= retryLimit {
			return nil, ErrNotObtained
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryBackoff):
		}
	}
}

// Redis locks through redislock so every server instance sees the same keys.
type Redis struct {
	client *redislock.Client
	ttl    time.Duration
}

func NewRedis(rdb *redis.Client) *Redis {
	return &Redis{client: redislock.New(rdb), ttl: defaultTTL}
}

// Connect pings addr and returns a Redis locker on success.
func Connect(ctx context.Context, addr string) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		DB:       0,
		PoolSize: 20,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return NewRedis(rdb), nil
}

func (r *Redis) Obtain(ctx context.Context, key string) (func(), error) {
	l, err := r.client.Obtain(ctx, "lock:"+key, r.ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(retryBackoff), retryLimit),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrNotObtained
	}
	if err != nil {
		return nil, err
	}
	return func() {
		if err := l.Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			config.LogError(config.GetLogger(), "lock", "Release", "release redis lock", key, err)
		}
	}, nil
}

// StatementKey is the lock key of commits for company.
func StatementKey(company string) string {
	return "statement:" + company
}
