package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type EnvType string

const (
	EnvDevelopment EnvType = "development"
	EnvStaging     EnvType = "staging"
	EnvProduction  EnvType = "production"
)

type AgentRole string

const (
	RoleAgent      AgentRole = "agent"
	RoleAdmin      AgentRole = "admin"
	RoleSuperAdmin AgentRole = "super_admin"
)

// AgentStatus is the realtime presence state broadcast to the dashboard.
type AgentStatus string

const (
	AgentOnline  AgentStatus = "online"
	AgentAway    AgentStatus = "away"
	AgentBusy    AgentStatus = "busy"
	AgentOffline AgentStatus = "offline"
)

// ValidAgentStatus reports whether s is one of the fixed presence values.
func ValidAgentStatus(s AgentStatus) bool {
	switch s {
	case AgentOnline, AgentAway, AgentBusy, AgentOffline:
		return true
	}
	return false
}

// Environment is one deployment context (dev/staging/prod) of an
// organization, carrying the credentials issued for it.
type Environment struct {
	ID      primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	OrgID   string             `json:"org_id" bson:"org_id"`
	EnvType EnvType            `json:"env_type" bson:"env_type"`

	PluginKey      string   `json:"plugin_key" bson:"plugin_key"`
	APIKey         string   `json:"api_key" bson:"api_key"`
	APISecretHash  string   `json:"-" bson:"api_secret_hash"`
	AllowedDomains []string `json:"allowed_domains" bson:"allowed_domains"`

	IsActive  bool      `json:"is_active" bson:"is_active"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// Agent is a dashboard operator account scoped to one organization.
type Agent struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	OrgID        string             `json:"org_id" bson:"org_id"`
	Email        string             `json:"email" bson:"email" validate:"required,email"`
	Name         string             `json:"name" bson:"name"`
	PasswordHash string             `json:"-" bson:"password_hash"`
	Role         AgentRole          `json:"role" bson:"role"`
	IsActive     bool               `json:"is_active" bson:"is_active"`
	CreatedAt    time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at" bson:"updated_at"`
}

// TenantContext is the resolved scope of a plugin-key or api-key
// credential. Every store accessor is constructed from it.
type TenantContext struct {
	OrgID          string   `json:"org_id"`
	EnvType        EnvType  `json:"env_type"`
	EnvID          string   `json:"env_id"`
	AllowedDomains []string `json:"allowed_domains,omitempty"`
}

// AgentContext is the resolved identity of a dashboard bearer token.
type AgentContext struct {
	AgentID string    `json:"agent_id"`
	OrgID   string    `json:"org_id"`
	Role    AgentRole `json:"role"`
	Email   string    `json:"email"`
	Name    string    `json:"name"`
}
