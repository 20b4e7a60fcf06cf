package auth

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/suiscode/ai-resume/internal/shared/telemetry"
)

// StateStore holds one-time OAuth state values.
type StateStore interface {
	Put(ctx context.Context, state string, ttl time.Duration) error
	// Consume reports whether state was issued and unexpired, and removes it.
	Consume(ctx context.Context, state string) bool
}

// MemoryStates keeps state in process memory. Expired entries are pruned on Put.
type MemoryStates struct {
	mu    sync.Mutex
	items map[string]time.Time
	now   func() time.Time
}

func NewMemoryStates(now func() time.Time) *MemoryStates {
	if now == nil {
		now = time.Now
	}
	return &MemoryStates{items: make(map[string]time.Time), now: now}
}

func (m *MemoryStates) Put(_ context.Context, state string, ttl time.Duration) error {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, exp := range m.items {
		if now.After(exp) {
			delete(m.items, k)
		}
	}
	m.items[state] = now.Add(ttl)
	return nil
}

func (m *MemoryStates) Consume(_ context.Context, state string) bool {
	m.mu.Lock()
	exp, ok := m.items[state]
	delete(m.items, state)
	m.mu.Unlock()
	return ok && !m.now().After(exp)
}

// RedisStates shares state across instances so the callback may land on
// a different replica than the start.
type RedisStates struct {
	client redis.Cmdable
	prefix string
}

func NewRedisStates(client redis.Cmdable) *RedisStates {
	return &RedisStates{client: client, prefix: "oauth:state:"}
}

func (r *RedisStates) Put(ctx context.Context, state string, ttl time.Duration) error {
	return r.client.Set(ctx, r.prefix+state, "1", ttl).Err()
}

func (r *RedisStates) Consume(ctx context.Context, state string) bool {
	n, err := r.client.Del(ctx, r.prefix+state).Result()
	if err != nil {
		telemetry.Warn("auth.google.state_consume_failed", map[string]any{"error": err.Error()})
		return false
	}
	return n == 1
}
