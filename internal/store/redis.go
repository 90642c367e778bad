package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "breakfast:session:"

// Redis keeps the record under one key per profile, for terminals whose home
// directory does not outlive a login.
type Redis struct {
	rdb redis.UniversalClient
	key string
}

// NewRedis returns a Redis store for profile.
func NewRedis(rdb redis.UniversalClient, profile string) *Redis {
	if profile == "" {
		profile = "default"
	}
	return &Redis{rdb: rdb, key: redisKeyPrefix + profile}
}

// ConnectRedis parses a redis:// URL and pings the server.
func ConnectRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("store.ConnectRedis: parse url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close() //nolint:errcheck
		return nil, fmt.Errorf("store.ConnectRedis: ping: %w", err)
	}
	return rdb, nil
}

// Key returns the redis key holding the record.
func (r *Redis) Key() string { return r.key }

func (r *Redis) Load(ctx context.Context) (string, error) {
	record, err := r.rdb.Get(ctx, r.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("store.Redis.Load: %w", err)
	}
	if record == "" {
		return "", ErrNotFound
	}
	return record, nil
}

func (r *Redis) Save(ctx context.Context, record string) error {
	if err := r.rdb.Set(ctx, r.key, record, 0).Err(); err != nil {
		return fmt.Errorf("store.Redis.Save: %w", err)
	}
	return nil
}

func (r *Redis) Clear(ctx context.Context) error {
	if err := r.rdb.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("store.Redis.Clear: %w", err)
	}
	return nil
}
