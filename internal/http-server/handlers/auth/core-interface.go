package auth

import (
	"context"

	"LiveDesk/entity"
	"LiveDesk/internal/service/auth"
)

type Core interface {
	Login(ctx context.Context, email, password string) (*entity.Agent, *auth.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error)
	Revoke(ctx context.Context, token string) error
}
