package config

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClient backs the result cache, the async generation queue, and
// the progress pub/sub. Nil after a failed Init means redis-less mode.
var RedisClient *redis.Client

// InitRedis connects and pings the client. The address may be a plain
// host:port (REDIS_ADDR) or a redis:// / rediss:// URL (REDIS_URI or
// REDIS_URL, checked in that order).
func InitRedis() error {
	addr := firstEnv("REDIS_ADDR", "REDIS_URI", "REDIS_URL")
	if addr == "" {
		return errors.New("REDIS_ADDR (or REDIS_URI/REDIS_URL) environment variable is not set")
	}

	var client *redis.Client
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		opt, err := redis.ParseURL(addr)
		if err != nil {
			return err
		}
		client = redis.NewClient(opt)
	} else {
		client = redis.NewClient(&redis.Options{Addr: addr})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return err
	}

	RedisClient = client
	return nil
}
