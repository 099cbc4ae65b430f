package repository

import (
	"context"
	"fmt"
	"time"
)

// TokenBlacklistStore records revoked token ids until their natural
// expiry, after which Redis drops them on its own.
type TokenBlacklistStore struct {
	db *RedisDB
}

func (s *TokenBlacklistStore) key(jti string) string {
	return fmt.Sprintf("jwt_blacklist:%s", jti)
}

// Revoke blacklists the token id for the remaining token lifetime.
// Already-expired tokens need no entry.
func (s *TokenBlacklistStore) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}

	if err := s.db.client.SetEx(ctx, s.key(jti), "1", ttl).Err(); err != nil {
		return fmt.Errorf("redis revoke token: %w", err)
	}
	return nil
}

func (s *TokenBlacklistStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	exists, err := s.db.client.Exists(ctx, s.key(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("redis check token: %w", err)
	}
	return exists > 0, nil
}
