package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"LiveDesk/entity"
	"LiveDesk/internal/lib/apperr"
)

type fakeEnvRepo struct {
	envs    []*entity.Environment
	agents  []*entity.Agent
	lookups int
}

func (f *fakeEnvRepo) GetByPluginKey(ctx context.Context, pluginKey string) (*entity.Environment, error) {
	f.lookups++
	for _, env := range f.envs {
		if env.PluginKey == pluginKey && env.IsActive {
			copied := *env
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeEnvRepo) GetByAPIKey(ctx context.Context, apiKey string) (*entity.Environment, error) {
	f.lookups++
	for _, env := range f.envs {
		if env.APIKey == apiKey && env.IsActive {
			copied := *env
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeEnvRepo) GetAgentByID(ctx context.Context, agentID string) (*entity.Agent, error) {
	for _, agent := range f.agents {
		if agent.ID.Hex() == agentID {
			copied := *agent
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeEnvRepo) GetAgentByEmail(ctx context.Context, email string) (*entity.Agent, error) {
	for _, agent := range f.agents {
		if agent.Email == email {
			copied := *agent
			return &copied, nil
		}
	}
	return nil, nil
}

type fakeBlacklist struct {
	revoked map[string]bool
}

func newFakeBlacklist() *fakeBlacklist {
	return &fakeBlacklist{revoked: make(map[string]bool)}
}

func (f *fakeBlacklist) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	f.revoked[jti] = true
	return nil
}

func (f *fakeBlacklist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	return f.revoked[jti], nil
}

func mustHash(t *testing.T, secret string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	return string(hash)
}

func testTokens() Tokens {
	return Tokens{
		Secret:     "test-signing-secret",
		AccessTTL:  30 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
	}
}

func newTestAuth(t *testing.T) (*Service, *fakeEnvRepo, *fakeBlacklist) {
	t.Helper()
	repo := &fakeEnvRepo{
		envs: []*entity.Environment{
			{
				ID:            primitive.NewObjectID(),
				OrgID:         "org1",
				EnvType:       entity.EnvProduction,
				PluginKey:     "pk_live_abc",
				APIKey:        "ak_live_abc",
				APISecretHash: mustHash(t, "s3cret"),
				IsActive:      true,
			},
		},
		agents: []*entity.Agent{
			{
				ID:           primitive.NewObjectID(),
				OrgID:        "org1",
				Email:        "agent@example.com",
				Name:         "Agent One",
				PasswordHash: mustHash(t, "password1"),
				Role:         entity.RoleAgent,
				IsActive:     true,
			},
		},
	}
	blacklist := newFakeBlacklist()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewAuthService(logger, repo, blacklist, testTokens(), 5*time.Minute), repo, blacklist
}

func TestResolvePluginKey(t *testing.T) {
	svc, repo, _ := newTestAuth(t)
	ctx := context.Background()

	tenant, err := svc.ResolvePluginKey(ctx, "pk_live_abc")
	if err != nil {
		t.Fatalf("ResolvePluginKey: %v", err)
	}
	if tenant.OrgID != "org1" || tenant.EnvType != entity.EnvProduction {
		t.Fatalf("tenant = %+v, want org1/production", tenant)
	}

	// Second resolution is served from cache.
	if _, err := svc.ResolvePluginKey(ctx, "pk_live_abc"); err != nil {
		t.Fatalf("cached ResolvePluginKey: %v", err)
	}
	if repo.lookups != 1 {
		t.Fatalf("store lookups = %d, want 1", repo.lookups)
	}

	if _, err := svc.ResolvePluginKey(ctx, "pk_unknown"); !errors.Is(err, apperr.ErrInvalidCredential) {
		t.Fatalf("unknown key err = %v, want invalid credential", err)
	}
	if _, err := svc.ResolvePluginKey(ctx, ""); !errors.Is(err, apperr.ErrAuthentication) {
		t.Fatalf("empty key err = %v, want authentication error", err)
	}
}

func TestResolveAPIKeyVerifiesSecretOnCacheHit(t *testing.T) {
	svc, repo, _ := newTestAuth(t)
	ctx := context.Background()

	if _, err := svc.ResolveAPIKey(ctx, "ak_live_abc", "s3cret"); err != nil {
		t.Fatalf("ResolveAPIKey: %v", err)
	}

	// Wrong secret against the cached record must still fail.
	if _, err := svc.ResolveAPIKey(ctx, "ak_live_abc", "wrong"); !errors.Is(err, apperr.ErrInvalidCredential) {
		t.Fatalf("wrong secret err = %v, want invalid credential", err)
	}
	if repo.lookups != 1 {
		t.Fatalf("store lookups = %d, want 1 (cache hit)", repo.lookups)
	}

	if _, err := svc.ResolveAPIKey(ctx, "ak_unknown", "s3cret"); !errors.Is(err, apperr.ErrInvalidCredential) {
		t.Fatalf("unknown key err = %v, want invalid credential", err)
	}
}

func TestInactiveEnvironmentRejected(t *testing.T) {
	svc, repo, _ := newTestAuth(t)
	repo.envs[0].IsActive = false

	if _, err := svc.ResolvePluginKey(context.Background(), "pk_live_abc"); !errors.Is(err, apperr.ErrInvalidCredential) {
		t.Fatalf("inactive env err = %v, want invalid credential", err)
	}
}

func TestLoginAndAgentToken(t *testing.T) {
	svc, repo, _ := newTestAuth(t)
	ctx := context.Background()

	agent, pair, err := svc.Login(ctx, "agent@example.com", "password1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("token pair incomplete")
	}

	identity, err := svc.ResolveAgentToken(ctx, pair.AccessToken)
	if err != nil {
		t.Fatalf("ResolveAgentToken: %v", err)
	}
	if identity.AgentID != agent.ID.Hex() || identity.OrgID != "org1" || identity.Role != entity.RoleAgent {
		t.Fatalf("identity = %+v, want the logged-in agent", identity)
	}

	if _, err := svc.ResolveAgentToken(ctx, pair.RefreshToken); !errors.Is(err, apperr.ErrInvalidToken) {
		t.Fatalf("refresh-as-access err = %v, want invalid token", err)
	}

	if _, _, err := svc.Login(ctx, "agent@example.com", "nope"); !errors.Is(err, apperr.ErrInvalidCredential) {
		t.Fatalf("wrong password err = %v, want invalid credential", err)
	}
	if _, _, err := svc.Login(ctx, "nobody@example.com", "password1"); !errors.Is(err, apperr.ErrInvalidCredential) {
		t.Fatalf("unknown email err = %v, want invalid credential", err)
	}

	repo.agents[0].IsActive = false
	if _, _, err := svc.Login(ctx, "agent@example.com", "password1"); !errors.Is(err, apperr.ErrInvalidCredential) {
		t.Fatalf("inactive agent err = %v, want invalid credential", err)
	}
}

func TestRevokeAndRefresh(t *testing.T) {
	svc, _, _ := newTestAuth(t)
	ctx := context.Background()

	_, pair, err := svc.Login(ctx, "agent@example.com", "password1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if err := svc.Revoke(ctx, pair.AccessToken); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if _, err := svc.ResolveAgentToken(ctx, pair.AccessToken); !errors.Is(err, apperr.ErrTokenRevoked) {
		t.Fatalf("revoked token err = %v, want token revoked", err)
	}

	fresh, err := svc.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if _, err := svc.ResolveAgentToken(ctx, fresh.AccessToken); err != nil {
		t.Fatalf("new access token rejected: %v", err)
	}

	// The spent refresh token cannot be replayed.
	if _, err := svc.Refresh(ctx, pair.RefreshToken); !errors.Is(err, apperr.ErrTokenRevoked) {
		t.Fatalf("replayed refresh err = %v, want token revoked", err)
	}

	if _, err := svc.Refresh(ctx, fresh.AccessToken); !errors.Is(err, apperr.ErrInvalidToken) {
		t.Fatalf("access-as-refresh err = %v, want invalid token", err)
	}
}

func TestExpiredAndTamperedTokens(t *testing.T) {
	svc, repo, _ := newTestAuth(t)
	ctx := context.Background()

	expiredTokens := testTokens()
	expiredTokens.AccessTTL = -time.Minute
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	expiredIssuer := NewAuthService(logger, repo, newFakeBlacklist(), expiredTokens, time.Minute)

	pair, err := expiredIssuer.IssueTokens(repo.agents[0])
	if err != nil {
		t.Fatalf("IssueTokens: %v", err)
	}
	if _, err := svc.ResolveAgentToken(ctx, pair.AccessToken); !errors.Is(err, apperr.ErrTokenExpired) {
		t.Fatalf("expired token err = %v, want token expired", err)
	}

	otherTokens := testTokens()
	otherTokens.Secret = "another-secret"
	otherIssuer := NewAuthService(logger, repo, newFakeBlacklist(), otherTokens, time.Minute)
	pair, err = otherIssuer.IssueTokens(repo.agents[0])
	if err != nil {
		t.Fatalf("IssueTokens: %v", err)
	}
	if _, err := svc.ResolveAgentToken(ctx, pair.AccessToken); !errors.Is(err, apperr.ErrInvalidToken) {
		t.Fatalf("foreign-signature err = %v, want invalid token", err)
	}

	if _, err := svc.ResolveAgentToken(ctx, "not-a-token"); !errors.Is(err, apperr.ErrInvalidToken) {
		t.Fatalf("garbage token err = %v, want invalid token", err)
	}
}
