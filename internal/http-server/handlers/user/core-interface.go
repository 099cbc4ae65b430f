package user

import (
	"context"

	"LiveDesk/entity"
	"LiveDesk/internal/service/user"
)

type Core interface {
	CreateUser(ctx context.Context, tenant *entity.TenantContext, p user.CreateUserParams) (*entity.User, error)
	GetByMemberID(ctx context.Context, tenant *entity.TenantContext, memberID string) (*entity.User, error)
	GetOrCreate(ctx context.Context, tenant *entity.TenantContext, p user.CreateUserParams) (*entity.User, error)
	UpdateUser(ctx context.Context, tenant *entity.TenantContext, memberID string, p user.UpdateUserParams) (*entity.User, error)
	DeleteUser(ctx context.Context, tenant *entity.TenantContext, memberID string) error
	ListUsers(ctx context.Context, tenant *entity.TenantContext, skip, limit int, status entity.UserStatus, tags []string) ([]entity.User, int64, error)

	CreateTempUser(ctx context.Context, tenant *entity.TenantContext, profile entity.UserProfile) (*entity.TempUser, error)
	TrackChat(ctx context.Context, tenant *entity.TenantContext, sessionID, chatID string) error
	GetTempUser(ctx context.Context, tenant *entity.TenantContext, sessionID string) (*entity.TempUser, error)
	UpdateTempUser(ctx context.Context, tenant *entity.TenantContext, sessionID string, profile entity.UserProfile) (*entity.TempUser, error)
	ConvertToPermanent(ctx context.Context, tenant *entity.TenantContext, sessionID, memberID string, profile entity.UserProfile) (*entity.User, error)
}
