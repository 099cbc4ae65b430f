package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"LiveDesk/entity"
	"LiveDesk/internal/lib/apperr"
	"LiveDesk/internal/lib/sl"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// Claims is the agent token payload. TokenType separates access from
// refresh tokens so one can never be presented as the other.
type Claims struct {
	OrgID     string `json:"org_id"`
	Role      string `json:"role"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// IssueTokens signs a fresh access+refresh pair for the agent. Each
// token carries its own jti so they revoke independently.
func (s *Service) IssueTokens(agent *entity.Agent) (*TokenPair, error) {
	access, err := s.signToken(agent, tokenTypeAccess, s.tokens.AccessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := s.signToken(agent, tokenTypeRefresh, s.tokens.RefreshTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.tokens.AccessTTL.Seconds()),
	}, nil
}

// Refresh exchanges a valid refresh token for a new pair. The spent
// refresh token is blacklisted so it cannot be replayed.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.parseToken(refreshToken)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != tokenTypeRefresh {
		return nil, apperr.ErrInvalidToken
	}

	revoked, err := s.blacklist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, apperr.ErrTokenRevoked
	}

	agent, err := s.envs.GetAgentByID(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	if agent == nil || !agent.IsActive {
		return nil, apperr.ErrInvalidCredential
	}

	if err := s.blacklist.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		s.log.Warn("blacklist spent refresh token", sl.Err(err))
	}

	return s.IssueTokens(agent)
}

// Revoke blacklists the token until its natural expiry. Revoking an
// already-expired token is a no-op.
func (s *Service) Revoke(ctx context.Context, token string) error {
	claims, err := s.parseToken(token)
	if err != nil {
		if errors.Is(err, apperr.ErrTokenExpired) {
			return nil
		}
		return err
	}
	return s.blacklist.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}

func (s *Service) signToken(agent *entity.Agent, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		OrgID:     agent.OrgID,
		Role:      string(agent.Role),
		Email:     agent.Email,
		Name:      agent.Name,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   agent.ID.Hex(),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.tokens.Secret))
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", tokenType, err)
	}
	return signed, nil
}

func (s *Service) parseToken(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.tokens.Secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperr.ErrTokenExpired
		}
		return nil, apperr.ErrInvalidToken
	}
	if !parsed.Valid || claims.ExpiresAt == nil {
		return nil, apperr.ErrInvalidToken
	}
	return claims, nil
}
