package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"LiveDesk/entity"
)

// AgentStatusStore tracks per-agent presence in a Redis hash per
// organization, keyed agent_status:{org}.
type AgentStatusStore struct {
	db *RedisDB
}

func (s *AgentStatusStore) key(orgID string) string {
	return fmt.Sprintf("agent_status:%s", orgID)
}

func (s *AgentStatusStore) Set(ctx context.Context, orgID, agentID string, status entity.AgentStatus) error {
	if err := s.db.client.HSet(ctx, s.key(orgID), agentID, string(status)).Err(); err != nil {
		return fmt.Errorf("redis set agent status: %w", err)
	}
	return nil
}

// Get defaults to offline when the agent has never reported a status.
func (s *AgentStatusStore) Get(ctx context.Context, orgID, agentID string) (entity.AgentStatus, error) {
	val, err := s.db.client.HGet(ctx, s.key(orgID), agentID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return entity.AgentOffline, nil
		}
		return "", fmt.Errorf("redis get agent status: %w", err)
	}
	return entity.AgentStatus(val), nil
}

func (s *AgentStatusStore) All(ctx context.Context, orgID string) (map[string]entity.AgentStatus, error) {
	vals, err := s.db.client.HGetAll(ctx, s.key(orgID)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list agent statuses: %w", err)
	}

	statuses := make(map[string]entity.AgentStatus, len(vals))
	for agentID, status := range vals {
		statuses[agentID] = entity.AgentStatus(status)
	}
	return statuses, nil
}

func (s *AgentStatusStore) Remove(ctx context.Context, orgID, agentID string) error {
	if err := s.db.client.HDel(ctx, s.key(orgID), agentID).Err(); err != nil {
		return fmt.Errorf("redis remove agent status: %w", err)
	}
	return nil
}
