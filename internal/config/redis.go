package config

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisConfig struct {
	Addr     string // REDIS_ADDR (host:port); empty disables Redis
	Password string // REDIS_PASSWORD
	DB       int    // REDIS_DB
}

func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

// NewRedisClient connects and pings with a short timeout so a wrong address
// shows up at startup. The caller decides whether that is fatal.
func NewRedisClient(ctx context.Context, c RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     c.Addr,
		Password: c.Password,
		DB:       c.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("config: pinging redis at %s: %w", c.Addr, err)
	}
	return client, nil
}
