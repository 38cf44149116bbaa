package store

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// Redis keeps the token under a single key.
type Redis struct {
	client *redis.Client
	key    string
}

// NewRedis returns a store using key prefix:slot.
func NewRedis(client *redis.Client, prefix, slot string) *Redis {
	return &Redis{client: client, key: prefix + ":" + slot}
}

// Key returns the redis key holding the token.
func (r *Redis) Key() string {
	return r.key
}

func (r *Redis) Read(ctx context.Context) (string, bool, error) {
	token, err := r.client.Get(ctx, r.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, unavailable("read", err)
	}
	if token == "" {
		return "", false, nil
	}
	return token, true, nil
}

func (r *Redis) Write(ctx context.Context, token string) error {
	if err := r.client.Set(ctx, r.key, token, 0).Err(); err != nil {
		return unavailable("write", err)
	}
	return nil
}

func (r *Redis) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return unavailable("clear", err)
	}
	return nil
}

func (r *Redis) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return unavailable("ping", err)
	}
	return nil
}
