package persistence

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-tracker/internal/config"
)

// Redis wraps the go-redis client used for ticket locks.
type Redis struct {
	Client    *redis.Client
	available bool
}

// NewRedis builds a client and probes it once. An unreachable server is not fatal;
// callers check Available and fall back to process-local locking.
func NewRedis(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	r := &Redis{Client: client}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unreachable; ticket locks stay in-process", zap.String("addr", cfg.Addr), zap.Error(err))
		return r
	}
	r.available = true
	logger.Info("connected to redis", zap.String("addr", cfg.Addr))
	return r
}

// Available reports whether the startup probe succeeded.
func (r *Redis) Available() bool {
	return r != nil && r.available
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	return r.Client.Ping(ctx).Err()
}
