package config

import "time"

// RateLimitConfig drives the Redis token bucket. It only takes effect when
// REDIS_ADDR is set.
type RateLimitConfig struct {
	Enabled        bool          // RATE_LIMIT_ENABLED
	Capacity       int           // RATE_LIMIT_CAPACITY: bucket size (burst)
	RefillTokens   int           // RATE_LIMIT_REFILL_TOKENS
	RefillInterval time.Duration // RATE_LIMIT_REFILL_INTERVAL
	TTL            time.Duration // RATE_LIMIT_TTL: idle bucket expiry
	KeyStrategy    string        // RATE_LIMIT_KEY_STRATEGY: user, ip, ip_user, user_route
	Prefix         string        // RATE_LIMIT_PREFIX
}

func loadRateLimit(env *envReader) RateLimitConfig {
	c := RateLimitConfig{
		Enabled:        env.bool("RATE_LIMIT_ENABLED", true),
		Capacity:       env.int("RATE_LIMIT_CAPACITY", 60),
		RefillTokens:   env.int("RATE_LIMIT_REFILL_TOKENS", 1),
		RefillInterval: env.dur("RATE_LIMIT_REFILL_INTERVAL", time.Second),
		TTL:            env.dur("RATE_LIMIT_TTL", 10*time.Minute),
		KeyStrategy:    env.str("RATE_LIMIT_KEY_STRATEGY", "user"),
		Prefix:         env.str("RATE_LIMIT_PREFIX", "ecoguardian:rl"),
	}
	return c.normalized()
}

// normalized clamps nonsensical values instead of rejecting them. A bucket
// must outlive a few refill intervals or it would reset to full on every
// request.
func (c RateLimitConfig) normalized() RateLimitConfig {
	if c.Capacity < 1 {
		c.Capacity = 1
	}
	if c.RefillTokens < 1 {
		c.RefillTokens = 1
	}
	if c.RefillInterval <= 0 {
		c.RefillInterval = time.Second
	}
	if minTTL := 5 * c.RefillInterval; c.TTL < minTTL {
		c.TTL = minTTL
	}
	return c
}
