package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/asset-console/internal/config"
	"github.com/spec-kit/asset-console/internal/store"
)

const redisDialCheck = 2 * time.Second

// Redis owns the go-redis client backing the redis session store.
type Redis struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

// NewRedis builds the client. An unreachable server is logged, not fatal:
// reads then fail as unavailable and the session starts anonymous.
func NewRedis(cfg config.RedisConfig, logger *zap.Logger) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	r := &Redis{client: client, prefix: cfg.KeyPrefix, logger: logger}

	ctx, cancel := context.WithTimeout(context.Background(), redisDialCheck)
	defer cancel()
	if err := r.Ping(ctx); err != nil {
		logger.Warn("unable to reach redis; session store will start anonymous",
			zap.String("addr", cfg.Addr), zap.Error(err))
	} else {
		logger.Info("connected to redis", zap.String("addr", cfg.Addr), zap.Int("db", cfg.DB))
	}
	return r
}

// SessionStore returns the store bound to slot under the configured prefix.
func (r *Redis) SessionStore(slot string) *store.Redis {
	s := store.NewRedis(r.client, r.prefix, slot)
	r.logger.Info("redis session store ready", zap.String("key", s.Key()))
	return s
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.client != nil {
		_ = r.client.Close()
	}
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.client == nil {
		return errors.New("redis client not configured")
	}
	return r.client.Ping(ctx).Err()
}
