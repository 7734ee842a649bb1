package database

import (
	"context"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds Redis connection settings. Redis is optional; when it is
// absent the stream module falls back to in-memory connection tracking.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

const redisPingTimeout = 5 * time.Second

// NewRedis connects and verifies the connection with a ping before handing
// the client out.
func NewRedis(cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}
