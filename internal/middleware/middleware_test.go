package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/ecoguardian/internal/auth"
	"github.com/sakif/ecoguardian/internal/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func okHandler(status int, body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	})
}

func TestLoggerRecordsRequest(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	h := chimiddleware.RequestID(Logger(logger)(okHandler(http.StatusCreated, "hello")))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/goals", nil))

	assert.Equal(t, http.StatusCreated, rec.Code)
	line := buf.String()
	assert.Contains(t, line, "level=INFO")
	assert.Contains(t, line, "method=POST")
	assert.Contains(t, line, "path=/api/goals")
	assert.Contains(t, line, "status=201")
	assert.Contains(t, line, "bytes=5")
	assert.Contains(t, line, "request_id=")
}

func TestLoggerLevelFollowsStatus(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "level=INFO"},
		{http.StatusNotFound, "level=WARN"},
		{http.StatusInternalServerError, "level=ERROR"},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, nil))

			rec := httptest.NewRecorder()
			Logger(logger)(okHandler(tt.status, "")).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Contains(t, buf.String(), tt.level)
		})
	}
}

func TestLoggerDefaultsStatusToOK(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{}"))
	})
	Logger(logger)(h).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Contains(t, buf.String(), "status=200")
}

func TestRateLimitPassThrough(t *testing.T) {
	cfg := config.RateLimitConfig{Enabled: true, Capacity: 1, RefillTokens: 1, RefillInterval: time.Second, TTL: time.Minute}

	t.Run("nil client", func(t *testing.T) {
		h := RateLimit(cfg, nil, discardLogger())(okHandler(http.StatusOK, "ok"))
		for i := 0; i < 3; i++ {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
		}
	})

	t.Run("disabled", func(t *testing.T) {
		disabled := cfg
		disabled.Enabled = false
		rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
		defer rdb.Close()

		rec := httptest.NewRecorder()
		RateLimit(disabled, rdb, discardLogger())(okHandler(http.StatusOK, "ok")).
			ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestRateLimitFailsOpen(t *testing.T) {
	cfg := config.RateLimitConfig{Enabled: true, Capacity: 1, RefillTokens: 1, RefillInterval: time.Second, TTL: time.Minute, KeyStrategy: "ip", Prefix: "test"}
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		MaxRetries:  -1,
		DialTimeout: 200 * time.Millisecond,
	})
	defer rdb.Close()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	rec := httptest.NewRecorder()
	RateLimit(cfg, rdb, logger)(okHandler(http.StatusOK, "ok")).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/goals", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
	assert.Contains(t, buf.String(), "rate limiter unavailable")
}

func TestBuildRateKey(t *testing.T) {
	anon := httptest.NewRequest(http.MethodGet, "/api/goals", nil)
	anon.RemoteAddr = "203.0.113.7:51234"

	authed := anon.WithContext(auth.WithUserID(anon.Context(), "u1"))

	tests := []struct {
		strategy string
		req      *http.Request
		want     string
	}{
		{"user", authed, "rl:user:u1"},
		{"user", anon, "rl:ip:203.0.113.7"},
		{"", authed, "rl:user:u1"},
		{"ip", authed, "rl:ip:203.0.113.7"},
		{"IP_USER", authed, "rl:ip:203.0.113.7:user:u1"},
		{"ip_user", anon, "rl:ip:203.0.113.7:user:anon"},
		{"user_route", authed, "rl:user:u1:route:GET /api/goals"},
		{"route", anon, "rl:ip:203.0.113.7:route:GET /api/goals"},
	}
	for _, tt := range tests {
		name := tt.strategy
		if name == "" {
			name = "default"
		}
		t.Run(name, func(t *testing.T) {
			cfg := config.RateLimitConfig{Prefix: "rl", KeyStrategy: tt.strategy}
			assert.Equal(t, tt.want, buildRateKey(cfg, tt.req))
		})
	}
}

func TestClientIPWithoutPort(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "198.51.100.2"
	assert.Equal(t, "198.51.100.2", clientIP(r))

	r.RemoteAddr = ""
	assert.Equal(t, "unknown", clientIP(r))
}

func TestAsInt64(t *testing.T) {
	assert.Equal(t, int64(3), asInt64(int64(3)))
	assert.Equal(t, int64(4), asInt64(4))
	assert.Equal(t, int64(5), asInt64(5.9))
	assert.Equal(t, int64(6), asInt64("6"))
	assert.Equal(t, int64(0), asInt64("six"))
	assert.Equal(t, int64(0), asInt64(nil))
}

func TestRetryAfterSeconds(t *testing.T) {
	assert.Equal(t, 1, retryAfterSeconds(0))
	assert.Equal(t, 1, retryAfterSeconds(250))
	assert.Equal(t, 2, retryAfterSeconds(1001))
}

// newBucketRedis starts an in-process Redis that runs the Lua bucket script.
func newBucketRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return rdb
}

func limitedRequest(userID string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/api/goals", nil)
	return r.WithContext(auth.WithUserID(r.Context(), userID))
}

func TestRateLimitBlocksAfterCapacity(t *testing.T) {
	const capacity = 3
	cfg := config.RateLimitConfig{
		Enabled:        true,
		Capacity:       capacity,
		RefillTokens:   1,
		RefillInterval: time.Minute,
		TTL:            10 * time.Minute,
		KeyStrategy:    "user",
		Prefix:         "test",
	}
	h := RateLimit(cfg, newBucketRedis(t), discardLogger())(okHandler(http.StatusOK, "ok"))

	for i := 0; i < capacity; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, limitedRequest("u1"))
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i+1)
		assert.Equal(t, "3", rec.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, strconv.Itoa(capacity-1-i), rec.Header().Get("X-RateLimit-Remaining"))
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, limitedRequest("u1"))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	retryAfter, err := strconv.Atoi(rec.Header().Get("Retry-After"))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, retryAfter, 1)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "too_many_requests", body["error"])
	assert.Equal(t, float64(retryAfter), body["retry_after"])

	// Buckets are per user.
	other := httptest.NewRecorder()
	h.ServeHTTP(other, limitedRequest("u2"))
	assert.Equal(t, http.StatusOK, other.Code)
}

func TestRateLimitRefills(t *testing.T) {
	cfg := config.RateLimitConfig{
		Enabled:        true,
		Capacity:       1,
		RefillTokens:   1,
		RefillInterval: 100 * time.Millisecond,
		TTL:            time.Minute,
		KeyStrategy:    "user",
		Prefix:         "test",
	}
	h := RateLimit(cfg, newBucketRedis(t), discardLogger())(okHandler(http.StatusOK, "ok"))

	first := httptest.NewRecorder()
	h.ServeHTTP(first, limitedRequest("u1"))
	require.Equal(t, http.StatusOK, first.Code)

	blocked := httptest.NewRecorder()
	h.ServeHTTP(blocked, limitedRequest("u1"))
	require.Equal(t, http.StatusTooManyRequests, blocked.Code)

	time.Sleep(cfg.RefillInterval + 50*time.Millisecond)

	refilled := httptest.NewRecorder()
	h.ServeHTTP(refilled, limitedRequest("u1"))
	assert.Equal(t, http.StatusOK, refilled.Code)
}
