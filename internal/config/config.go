// Package config loads runtime settings from the environment.
//
// An optional .env file is read first with godotenv. Variables that are
// already set in the process environment win over the file, so a deployment
// can override a checked-in development .env without editing it.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreSQL    = "sql"
	StoreMemory = "memory"

	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"

	defaultDBPath = "data/ecoguardian.db"
)

// Config holds every setting the binary reads. Each field maps to one
// environment variable, listed next to it.
type Config struct {
	Port     int        // PORT
	LogLevel slog.Level // LOG_LEVEL: debug, info, warn, error
	Store    string     // STORE: sql or memory

	DB        DBConfig
	Auth      AuthConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig

	AMQPURL string // AMQP_URL; empty disables event publishing
}

type DBConfig struct {
	Driver string // DB_DRIVER: sqlite or mysql
	// DSN comes from DB_DSN. For sqlite it falls back to DB_PATH.
	DSN string
}

type AuthConfig struct {
	JWTSecret     string        // JWT_SECRET
	TokenTTL      time.Duration // TOKEN_TTL
	SecureCookies bool          // SECURE_COOKIES; set when served over HTTPS

	GitHubClientID     string // GITHUB_CLIENT_ID
	GitHubClientSecret string // GITHUB_CLIENT_SECRET
	GitHubCallbackURL  string // GITHUB_CALLBACK_URL
}

// GitHubEnabled reports whether both OAuth credentials are present.
func (a AuthConfig) GitHubEnabled() bool {
	return a.GitHubClientID != "" && a.GitHubClientSecret != ""
}

// Load reads the optional env files (".env" when none are given) and then
// the environment. Every invalid value is reported, not just the first.
func Load(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: reading env file: %w", err)
	}

	var env envReader

	cfg := Config{
		Port:     env.int("PORT", 8080),
		LogLevel: env.level("LOG_LEVEL", slog.LevelInfo),
		Store:    strings.ToLower(env.str("STORE", StoreSQL)),
		DB: DBConfig{
			Driver: strings.ToLower(env.str("DB_DRIVER", DriverSQLite)),
			DSN:    env.str("DB_DSN", ""),
		},
		Auth: AuthConfig{
			JWTSecret:          env.str("JWT_SECRET", ""),
			TokenTTL:           env.dur("TOKEN_TTL", 7*24*time.Hour),
			SecureCookies:      env.bool("SECURE_COOKIES", false),
			GitHubClientID:     env.str("GITHUB_CLIENT_ID", ""),
			GitHubClientSecret: env.str("GITHUB_CLIENT_SECRET", ""),
		},
		Redis: RedisConfig{
			Addr:     env.str("REDIS_ADDR", ""),
			Password: env.str("REDIS_PASSWORD", ""),
			DB:       env.int("REDIS_DB", 0),
		},
		RateLimit: loadRateLimit(&env),
		AMQPURL:   env.str("AMQP_URL", ""),
	}

	cfg.Auth.GitHubCallbackURL = env.str("GITHUB_CALLBACK_URL",
		fmt.Sprintf("http://localhost:%d/auth/github/callback", cfg.Port))

	if cfg.DB.DSN == "" && cfg.DB.Driver == DriverSQLite {
		cfg.DB.DSN = env.str("DB_PATH", defaultDBPath)
	}

	env.check(cfg.Port > 0 && cfg.Port <= 65535, "PORT must be between 1 and 65535, got %d", cfg.Port)
	env.check(cfg.Store == StoreSQL || cfg.Store == StoreMemory, "STORE must be %q or %q, got %q", StoreSQL, StoreMemory, cfg.Store)
	if cfg.Store == StoreSQL {
		env.check(cfg.DB.Driver == DriverSQLite || cfg.DB.Driver == DriverMySQL,
			"DB_DRIVER must be %q or %q, got %q", DriverSQLite, DriverMySQL, cfg.DB.Driver)
		env.check(cfg.DB.DSN != "", "DB_DSN is required for DB_DRIVER=%s", cfg.DB.Driver)
	}
	env.check(cfg.Auth.TokenTTL > 0, "TOKEN_TTL must be positive, got %s", cfg.Auth.TokenTTL)

	if err := errors.Join(env.errs...); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// envReader reads typed variables and collects parse errors instead of
// stopping at the first one.
type envReader struct {
	errs []error
}

func (r *envReader) check(ok bool, format string, args ...any) {
	if !ok {
		r.errs = append(r.errs, fmt.Errorf(format, args...))
	}
}

func (r *envReader) str(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func (r *envReader) int(key string, def int) int {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: invalid integer %q", key, v))
		return def
	}
	return n
}

func (r *envReader) dur(key string, def time.Duration) time.Duration {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: invalid duration %q", key, v))
		return def
	}
	return d
}

func (r *envReader) bool(key string, def bool) bool {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	r.errs = append(r.errs, fmt.Errorf("%s: invalid boolean %q", key, v))
	return def
}

func (r *envReader) level(key string, def slog.Level) slog.Level {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(v)); err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: invalid log level %q", key, v))
		return def
	}
	return l
}
