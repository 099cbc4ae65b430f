package auth

import (
	"context"
	"log/slog"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/crypto/bcrypt"

	"LiveDesk/entity"
	"LiveDesk/internal/lib/apperr"
	"LiveDesk/internal/lib/sl"
)

// EnvironmentRepository reads tenant credentials and agent accounts.
// The store returns only active environments; inactive ones read as
// absent.
type EnvironmentRepository interface {
	GetByPluginKey(ctx context.Context, pluginKey string) (*entity.Environment, error)
	GetByAPIKey(ctx context.Context, apiKey string) (*entity.Environment, error)
	GetAgentByID(ctx context.Context, agentID string) (*entity.Agent, error)
	GetAgentByEmail(ctx context.Context, email string) (*entity.Agent, error)
}

// TokenBlacklist tracks revoked token ids until their expiry.
type TokenBlacklist interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Tokens carries the signing configuration for agent tokens.
type Tokens struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type Service struct {
	envs      EnvironmentRepository
	blacklist TokenBlacklist
	cache     *gocache.Cache
	tokens    Tokens
	log       *slog.Logger
}

func NewAuthService(logger *slog.Logger, envs EnvironmentRepository, blacklist TokenBlacklist, tokens Tokens, cacheTTL time.Duration) *Service {
	return &Service{
		envs:      envs,
		blacklist: blacklist,
		cache:     gocache.New(cacheTTL, 2*cacheTTL),
		tokens:    tokens,
		log:       logger.With(sl.Module("auth-service")),
	}
}

// ResolvePluginKey maps a widget credential onto its tenant scope.
// Resolution has no side effects beyond cache population.
func (s *Service) ResolvePluginKey(ctx context.Context, pluginKey string) (*entity.TenantContext, error) {
	if pluginKey == "" {
		return nil, apperr.ErrInvalidCredential
	}

	if cached, ok := s.cache.Get("plugin:" + pluginKey); ok {
		tenant := *cached.(*entity.TenantContext)
		return &tenant, nil
	}

	env, err := s.envs.GetByPluginKey(ctx, pluginKey)
	if err != nil {
		return nil, err
	}
	if env == nil {
		return nil, apperr.ErrInvalidCredential
	}

	tenant := tenantContext(env)
	s.cache.SetDefault("plugin:"+pluginKey, tenant)
	return tenant, nil
}

// ResolveAPIKey authenticates a backend credential pair. The cache
// keeps the environment record with its secret hash, so a cache hit
// still verifies the presented secret.
func (s *Service) ResolveAPIKey(ctx context.Context, apiKey, apiSecret string) (*entity.TenantContext, error) {
	if apiKey == "" || apiSecret == "" {
		return nil, apperr.ErrInvalidCredential
	}

	var env *entity.Environment
	if cached, ok := s.cache.Get("api:" + apiKey); ok {
		env = cached.(*entity.Environment)
	} else {
		found, err := s.envs.GetByAPIKey(ctx, apiKey)
		if err != nil {
			return nil, err
		}
		if found == nil {
			return nil, apperr.ErrInvalidCredential
		}
		env = found
		s.cache.SetDefault("api:"+apiKey, env)
	}

	if bcrypt.CompareHashAndPassword([]byte(env.APISecretHash), []byte(apiSecret)) != nil {
		return nil, apperr.ErrInvalidCredential
	}

	return tenantContext(env), nil
}

// ResolveAgentToken verifies a dashboard bearer token and returns the
// agent identity baked into it.
func (s *Service) ResolveAgentToken(ctx context.Context, token string) (*entity.AgentContext, error) {
	claims, err := s.parseToken(token)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != tokenTypeAccess {
		return nil, apperr.ErrInvalidToken
	}

	revoked, err := s.blacklist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, apperr.ErrTokenRevoked
	}

	return &entity.AgentContext{
		AgentID: claims.Subject,
		OrgID:   claims.OrgID,
		Role:    entity.AgentRole(claims.Role),
		Email:   claims.Email,
		Name:    claims.Name,
	}, nil
}

// Login authenticates an agent by email and password and issues a
// fresh token pair.
func (s *Service) Login(ctx context.Context, email, password string) (*entity.Agent, *TokenPair, error) {
	agent, err := s.envs.GetAgentByEmail(ctx, email)
	if err != nil {
		return nil, nil, err
	}
	if agent == nil || !agent.IsActive {
		return nil, nil, apperr.ErrInvalidCredential
	}

	if bcrypt.CompareHashAndPassword([]byte(agent.PasswordHash), []byte(password)) != nil {
		return nil, nil, apperr.ErrInvalidCredential
	}

	pair, err := s.IssueTokens(agent)
	if err != nil {
		return nil, nil, err
	}
	return agent, pair, nil
}

func tenantContext(env *entity.Environment) *entity.TenantContext {
	return &entity.TenantContext{
		OrgID:          env.OrgID,
		EnvType:        env.EnvType,
		EnvID:          env.ID.Hex(),
		AllowedDomains: env.AllowedDomains,
	}
}
