package cookies

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RedisKeyPrefix is the key prefix for cookie strings stored in Redis.
const RedisKeyPrefix = "jianshu:cookies:"

// RedisSource shares cookie strings between processes through Redis.
type RedisSource struct {
	client *redis.Client
}

var _ Source = (*RedisSource)(nil)

// NewRedisSource connects to Redis at addr and verifies the connection.
func NewRedisSource(ctx context.Context, addr string) (*RedisSource, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("cookies: redis connection failed: %w", err)
	}

	log.Debug().Str("addr", addr).Msg("redis cookie source connected")

	return &RedisSource{client: client}, nil
}

// NewRedisSourceFromClient wraps an existing client.
func NewRedisSourceFromClient(client *redis.Client) *RedisSource {
	return &RedisSource{client: client}
}

func (r *RedisSource) Cookie(ctx context.Context, domain string) (string, bool, error) {
	raw, err := r.client.Get(ctx, RedisKeyPrefix+domain).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("cookies: redis get: %w", err)
	}
	return raw, true, nil
}

// Set stores raw for domain. A zero ttl keeps the value until deleted.
func (r *RedisSource) Set(ctx context.Context, domain, raw string, ttl time.Duration) error {
	if domain == "" {
		return ErrEmptyDomain
	}
	if err := r.client.Set(ctx, RedisKeyPrefix+domain, raw, ttl).Err(); err != nil {
		return fmt.Errorf("cookies: redis set: %w", err)
	}
	return nil
}

// Delete removes the cookie string for domain.
func (r *RedisSource) Delete(ctx context.Context, domain string) error {
	n, err := r.client.Del(ctx, RedisKeyPrefix+domain).Result()
	if err != nil {
		return fmt.Errorf("cookies: redis del: %w", err)
	}
	if n == 0 {
		return ErrCookieNotFound
	}
	return nil
}

// Close closes the underlying client.
func (r *RedisSource) Close() error {
	return r.client.Close()
}
