package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"LiveDesk/entity"
)

// EnvironmentStore reads the credential documents the tenant context
// resolver authenticates against. Environments and agents are global
// collections; everything they unlock is tenant scoped.
type EnvironmentStore struct {
	db *MongoDB
}

// GetByPluginKey returns the active environment for a widget plugin
// key, or nil when the key is unknown or the environment is disabled.
func (s *EnvironmentStore) GetByPluginKey(ctx context.Context, pluginKey string) (*entity.Environment, error) {
	filter := bson.D{
		{Key: "plugin_key", Value: pluginKey},
		{Key: "is_active", Value: true},
	}

	var env entity.Environment
	err := s.db.collection(environmentsCollection).FindOne(ctx, filter).Decode(&env)
	if err != nil {
		return nil, s.db.findError(err)
	}
	return &env, nil
}

// GetByAPIKey returns the active environment for a backend API key, or
// nil when unknown. The caller verifies the secret against the stored
// hash.
func (s *EnvironmentStore) GetByAPIKey(ctx context.Context, apiKey string) (*entity.Environment, error) {
	filter := bson.D{
		{Key: "api_key", Value: apiKey},
		{Key: "is_active", Value: true},
	}

	var env entity.Environment
	err := s.db.collection(environmentsCollection).FindOne(ctx, filter).Decode(&env)
	if err != nil {
		return nil, s.db.findError(err)
	}
	return &env, nil
}

// GetAgentByID returns the active agent, or nil when absent/disabled.
func (s *EnvironmentStore) GetAgentByID(ctx context.Context, agentID string) (*entity.Agent, error) {
	oid, err := primitive.ObjectIDFromHex(agentID)
	if err != nil {
		return nil, nil
	}

	filter := bson.D{
		{Key: "_id", Value: oid},
		{Key: "is_active", Value: true},
	}

	var agent entity.Agent
	err = s.db.collection(agentsCollection).FindOne(ctx, filter).Decode(&agent)
	if err != nil {
		return nil, s.db.findError(err)
	}
	return &agent, nil
}

// GetAgentByEmail returns the active agent for a login email, or nil.
func (s *EnvironmentStore) GetAgentByEmail(ctx context.Context, email string) (*entity.Agent, error) {
	filter := bson.D{
		{Key: "email", Value: email},
		{Key: "is_active", Value: true},
	}

	var agent entity.Agent
	err := s.db.collection(agentsCollection).FindOne(ctx, filter).Decode(&agent)
	if err != nil {
		return nil, s.db.findError(err)
	}
	return &agent, nil
}

// EnsureIndexes creates the credential lookup indexes.
func (s *EnvironmentStore) EnsureIndexes(ctx context.Context) error {
	if err := ensureIndexes(ctx, s.db.collection(environmentsCollection), []mongoIndex{
		{keys: bson.D{{Key: "plugin_key", Value: 1}}, unique: true},
		{keys: bson.D{{Key: "api_key", Value: 1}}, unique: true},
	}); err != nil {
		return fmt.Errorf("environment indexes: %w", err)
	}
	if err := ensureIndexes(ctx, s.db.collection(agentsCollection), []mongoIndex{
		{keys: bson.D{{Key: "email", Value: 1}}, unique: true},
	}); err != nil {
		return fmt.Errorf("agent indexes: %w", err)
	}
	return nil
}
