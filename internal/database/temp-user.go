package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"LiveDesk/entity"
)

// TempUserStore keeps anonymous visitor identities in Redis with a
// bounded TTL. Expiry is silent: an expired session reads as absent.
type TempUserStore struct {
	db      *RedisDB
	orgID   string
	envType string
	ttl     time.Duration
}

func (s *TempUserStore) key(sessionID string) string {
	return fmt.Sprintf("temp_user:%s:%s:%s", s.orgID, s.envType, sessionID)
}

func (s *TempUserStore) Create(ctx context.Context, user *entity.TempUser) error {
	now := time.Now().UTC()
	user.OrgID = s.orgID
	user.EnvType = s.envType
	user.CreatedAt = now
	user.LastActivityAt = now
	if user.ChatIDs == nil {
		user.ChatIDs = []string{}
	}

	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal temp user: %w", err)
	}

	if err := s.db.client.SetEx(ctx, s.key(user.SessionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set temp user: %w", err)
	}
	return nil
}

// Get returns nil without error when the session is missing or expired.
func (s *TempUserStore) Get(ctx context.Context, sessionID string) (*entity.TempUser, error) {
	data, err := s.db.client.Get(ctx, s.key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get temp user: %w", err)
	}

	var user entity.TempUser
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("unmarshal temp user: %w", err)
	}
	return &user, nil
}

// Update rewrites the record, preserving the remaining TTL rather than
// resetting it.
func (s *TempUserStore) Update(ctx context.Context, user *entity.TempUser) error {
	key := s.key(user.SessionID)

	ttl, err := s.db.client.TTL(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("redis ttl temp user: %w", err)
	}
	if ttl < 0 {
		ttl = s.ttl
	}

	user.LastActivityAt = time.Now().UTC()
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal temp user: %w", err)
	}

	if err := s.db.client.SetEx(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis update temp user: %w", err)
	}
	return nil
}

func (s *TempUserStore) Delete(ctx context.Context, sessionID string) (bool, error) {
	removed, err := s.db.client.Del(ctx, s.key(sessionID)).Result()
	if err != nil {
		return false, fmt.Errorf("redis delete temp user: %w", err)
	}
	return removed > 0, nil
}

// AddChatID appends the chat to the session's history unless already
// present. A missing or expired session is a silent no-op.
func (s *TempUserStore) AddChatID(ctx context.Context, sessionID, chatID string) error {
	user, err := s.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if user == nil {
		return nil
	}

	for _, id := range user.ChatIDs {
		if id == chatID {
			return s.Update(ctx, user)
		}
	}
	user.ChatIDs = append(user.ChatIDs, chatID)
	return s.Update(ctx, user)
}
