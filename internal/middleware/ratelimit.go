package middleware

import (
	"encoding/json"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sakif/ecoguardian/internal/auth"
	"github.com/sakif/ecoguardian/internal/config"
)

// tokenBucket refills and takes one token atomically inside Redis, so every
// server instance shares the same bucket per key.
//
// KEYS[1] bucket key
// ARGV    now_ms, capacity, refill_tokens, interval_ms, ttl_seconds
// returns {allowed (0|1), tokens_left, retry_after_ms}
var tokenBucket = redis.NewScript(`
local key = KEYS[1]
local now_ms = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local refill_tokens = tonumber(ARGV[3])
local interval_ms = tonumber(ARGV[4])
local ttl_seconds = tonumber(ARGV[5])

local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
local tokens = tonumber(state[1])
local last_refill = tonumber(state[2])

if tokens == nil or last_refill == nil then
	tokens = capacity
	last_refill = now_ms
end

if interval_ms > 0 and refill_tokens > 0 then
	local elapsed = math.max(0, now_ms - last_refill)
	local intervals = math.floor(elapsed / interval_ms)
	if intervals > 0 then
		tokens = math.min(capacity, tokens + (intervals * refill_tokens))
		last_refill = last_refill + (intervals * interval_ms)
	end
end

local allowed = 0
local retry_after_ms = 0
if tokens > 0 then
	allowed = 1
	tokens = tokens - 1
else
	retry_after_ms = math.max(0, interval_ms - (now_ms - last_refill))
end

redis.call('HSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
redis.call('EXPIRE', key, ttl_seconds)

return { allowed, tokens, retry_after_ms }
`)

// RateLimit limits requests per key with a Redis token bucket. It is a
// pass-through when limiting is disabled or rdb is nil, and it fails open
// when Redis errors: an outage must not take the API down with it.
//
// Mount it after auth.RequireAuth so the "user" strategies see the user ID.
// Anonymous requests fall back to the client IP.
func RateLimit(cfg config.RateLimitConfig, rdb *redis.Client, logger *slog.Logger) func(http.Handler) http.Handler {
	if !cfg.Enabled || rdb == nil {
		return func(next http.Handler) http.Handler { return next }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := buildRateKey(cfg, r)

			vals, err := tokenBucket.Run(r.Context(), rdb, []string{key},
				time.Now().UnixMilli(),
				cfg.Capacity,
				cfg.RefillTokens,
				cfg.RefillInterval.Milliseconds(),
				int64(cfg.TTL/time.Second),
			).Slice()
			if err != nil || len(vals) != 3 {
				logger.Warn("rate limiter unavailable, allowing request",
					slog.String("key", key),
					slog.Any("error", err),
				)
				next.ServeHTTP(w, r)
				return
			}

			allowed := asInt64(vals[0]) == 1
			remaining := asInt64(vals[1])
			retryMs := asInt64(vals[2])

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

			if !allowed {
				secs := retryAfterSeconds(retryMs)
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"error":       "too_many_requests",
					"message":     "rate limit exceeded",
					"retry_after": secs,
				})
				logger.Debug("rate limited", slog.String("key", key), slog.Int("retry_after", secs))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func retryAfterSeconds(ms int64) int {
	secs := int(math.Ceil(float64(ms) / 1000))
	if secs < 1 {
		secs = 1
	}
	return secs
}

func asInt64(v any) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	case string:
		if n, err := strconv.ParseInt(t, 10, 64); err == nil {
			return n
		}
	}
	return 0
}

func buildRateKey(cfg config.RateLimitConfig, r *http.Request) string {
	ip := clientIP(r)
	uid, _ := auth.UserIDFromContext(r.Context())
	route := r.Method + " " + r.URL.Path

	parts := []string{cfg.Prefix}
	switch strings.ToLower(cfg.KeyStrategy) {
	case "ip":
		parts = append(parts, "ip", ip)
	case "ip_user":
		parts = append(parts, "ip", ip, "user", orAnon(uid))
	case "user_route":
		parts = append(parts, userOrIP(uid, ip)...)
		parts = append(parts, "route", route)
	case "route":
		parts = append(parts, "ip", ip, "route", route)
	default: // "user"
		parts = append(parts, userOrIP(uid, ip)...)
	}
	return strings.Join(parts, ":")
}

func userOrIP(uid, ip string) []string {
	if uid != "" {
		return []string{"user", uid}
	}
	return []string{"ip", ip}
}

func orAnon(uid string) string {
	if uid == "" {
		return "anon"
	}
	return uid
}

// clientIP strips the port from RemoteAddr. chi's RealIP middleware has
// already replaced it with the forwarded address when one was sent.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}

