package ratelimit

import (
	"github.com/thunderfed/gateway/internal/config"
)

// FromConfig builds the Limiter named by cfg's storage selection. A
// zero-value cfg (Limit == 0) yields an always-allow limiter so
// omitting a [rate_limit] section entirely disables enforcement,
// matching spec.md §6's "every section is optional" posture.
func FromConfig(cfg config.RateLimitConfig) Limiter {
	if cfg.Limit <= 0 {
		return NewMemory(0, cfg.Duration)
	}
	switch cfg.Storage {
	case "redis":
		pool := NewPool(cfg.Redis.Address)
		return NewRedis(pool, cfg.Limit, cfg.Duration)
	default:
		return NewMemory(cfg.Limit, cfg.Duration)
	}
}
