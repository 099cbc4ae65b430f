package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"LiveDesk/internal/config"
	"LiveDesk/internal/lib/sl"
)

// RedisDB wraps the shared Redis client used for transient users,
// agent presence, token revocation and rate limiting.
type RedisDB struct {
	client *redis.Client
	log    *slog.Logger
}

func NewRedisClient(conf *config.Config, logger *slog.Logger) (*RedisDB, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", conf.Redis.Host, conf.Redis.Port),
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connect error: %w", err)
	}

	return &RedisDB{
		client: client,
		log:    logger.With(sl.Module("redis")),
	}, nil
}

func (r *RedisDB) Close() error {
	return r.client.Close()
}

// TempUsers returns the transient user store bound to one tenant scope.
func (r *RedisDB) TempUsers(orgID, envType string, ttl time.Duration) *TempUserStore {
	return &TempUserStore{
		db:      r,
		orgID:   orgID,
		envType: envType,
		ttl:     ttl,
	}
}

// AgentStatuses returns the presence store.
func (r *RedisDB) AgentStatuses() *AgentStatusStore {
	return &AgentStatusStore{db: r}
}

// TokenBlacklist returns the revoked-token store.
func (r *RedisDB) TokenBlacklist() *TokenBlacklistStore {
	return &TokenBlacklistStore{db: r}
}

// RateLimiter returns the fixed-window limiter.
func (r *RedisDB) RateLimiter() *RateLimiter {
	return &RateLimiter{db: r}
}
