// Package ratelimit enforces the fixed-window request budgets named
// in configuration (spec.md §5 "shared resources"). cmd/gateway builds
// one limiter, for the gateway's own global inbound budget; no limiter
// is built from the subgraphs.<name>.rate_limit sections. Allow
// never blocks a caller; it reports over-budget immediately so the
// caller can fail the request with gqlerr.CodeRateLimited rather than
// queue.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/gomodule/redigo/redis"
)

// Limiter is satisfied by both backends.
type Limiter interface {
	// Allow reports whether a request identified by key may proceed
	// under the configured limit for the current window.
	Allow(ctx context.Context, key string) (bool, error)
}

// NewMemory returns an in-process fixed-window limiter: limit
// requests per duration, keyed independently per key.
func NewMemory(limit int, duration time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		limit:    limit,
		duration: duration,
		windows:  make(map[string]*window),
	}
}

type window struct {
	count     int
	expiresAt time.Time
}

// MemoryLimiter is a mutex-guarded map of fixed windows, one per key.
type MemoryLimiter struct {
	mu       sync.Mutex
	limit    int
	duration time.Duration
	windows  map[string]*window
}

func (m *MemoryLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if m.limit <= 0 {
		return true, nil
	}

	now := time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.windows[key]
	if !ok || now.After(w.expiresAt) {
		w = &window{count: 0, expiresAt: now.Add(m.duration)}
		m.windows[key] = w
	}
	if w.count >= m.limit {
		return false, nil
	}
	w.count++
	return true, nil
}

// NewRedis returns a limiter backed by a shared redis.Pool, suitable
// for rate limiting across multiple gateway instances. limit and
// duration mirror MemoryLimiter's semantics; duration is truncated to
// whole seconds for the Redis EXPIRE call.
func NewRedis(pool *redis.Pool, limit int, duration time.Duration) *RedisLimiter {
	return &RedisLimiter{pool: pool, limit: limit, duration: duration}
}

// RedisLimiter implements a fixed window with INCR+EXPIRE, the same
// connection-per-call pool usage the teacher's live Redis binlog
// client uses (dial from a pool, defer Close, no held state).
type RedisLimiter struct {
	pool     *redis.Pool
	limit    int
	duration time.Duration
}

func (r *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if r.limit <= 0 {
		return true, nil
	}

	conn, err := r.pool.GetContext(ctx)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	count, err := redis.Int(conn.Do("INCR", key))
	if err != nil {
		return false, err
	}
	if count == 1 {
		seconds := int(r.duration / time.Second)
		if seconds < 1 {
			seconds = 1
		}
		if _, err := conn.Do("EXPIRE", key, seconds); err != nil {
			return false, err
		}
	}
	return count <= r.limit, nil
}

// NewPool builds a redis.Pool dialing addr, grounded on the teacher's
// experimental/liveredis pool configuration.
func NewPool(addr string) *redis.Pool {
	return &redis.Pool{
		MaxIdle:     16,
		MaxActive:   64,
		Wait:        true,
		IdleTimeout: 240 * time.Second,
		Dial: func() (redis.Conn, error) {
			return redis.Dial("tcp", addr)
		},
		TestOnBorrow: func(c redis.Conn, t time.Time) error {
			_, err := c.Do("PING")
			return err
		},
	}
}
