// Package inflight rejects a second submission of a draft while the first one
// is still running.
package inflight

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"grantintake/pkg/platform/sentinel"
)

// DefaultTTL bounds how long a crashed submission can hold its key.
const DefaultTTL = 2 * time.Minute

const keyPrefix = "intake:inflight:"

// Memory is a process-local guard.
type Memory struct {
	mu   sync.Mutex
	held map[string]time.Time
	ttl  time.Duration
	now  func() time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Memory{held: make(map[string]time.Time), ttl: ttl, now: time.Now}
}

func (m *Memory) Acquire(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	if exp, ok := m.held[key]; ok && now.Before(exp) {
		return sentinel.ErrInFlight
	}
	m.held[key] = now.Add(m.ttl)
	return nil
}

func (m *Memory) Release(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.held, key)
	return nil
}

// Redis shares the guard between instances using SET NX with an expiry.
type Redis struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedis(client redis.UniversalClient, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{client: client, ttl: ttl}
}

func (r *Redis) Acquire(ctx context.Context, key string) error {
	err := r.client.SetArgs(ctx, keyPrefix+key, "1", redis.SetArgs{Mode: "NX", TTL: r.ttl}).Err()
	if errors.Is(err, redis.Nil) {
		return sentinel.ErrInFlight
	}
	if err != nil {
		return fmt.Errorf("acquire in-flight key: %w: %w", sentinel.ErrUnavailable, err)
	}
	return nil
}

func (r *Redis) Release(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("release in-flight key: %w", err)
	}
	return nil
}
