package user

import (
	"context"

	"github.com/google/uuid"

	"LiveDesk/entity"
	"LiveDesk/internal/lib/apperr"
	"LiveDesk/internal/lib/sl"
)

// TempUserRepository is the Redis-backed transient identity store.
// Records expire on their own; an expired session reads as absent.
type TempUserRepository interface {
	Create(ctx context.Context, user *entity.TempUser) error
	Get(ctx context.Context, sessionID string) (*entity.TempUser, error)
	Update(ctx context.Context, user *entity.TempUser) error
	Delete(ctx context.Context, sessionID string) (bool, error)
	AddChatID(ctx context.Context, sessionID, chatID string) error
}

// CreateTempUser opens an anonymous session with a generated id.
func (s *Service) CreateTempUser(ctx context.Context, tenant *entity.TenantContext, profile entity.UserProfile) (*entity.TempUser, error) {
	temp := &entity.TempUser{
		SessionID: uuid.NewString(),
		Profile:   profile,
	}
	if err := s.repos.TempUsers(tenant.OrgID, string(tenant.EnvType)).Create(ctx, temp); err != nil {
		return nil, err
	}
	return temp, nil
}

func (s *Service) GetTempUser(ctx context.Context, tenant *entity.TenantContext, sessionID string) (*entity.TempUser, error) {
	temp, err := s.repos.TempUsers(tenant.OrgID, string(tenant.EnvType)).Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if temp == nil {
		return nil, apperr.NotFound("temp user", sessionID)
	}
	return temp, nil
}

// UpdateTempUser overlays profile fields without resetting the
// session's remaining lifetime.
func (s *Service) UpdateTempUser(ctx context.Context, tenant *entity.TenantContext, sessionID string, profile entity.UserProfile) (*entity.TempUser, error) {
	tempUsers := s.repos.TempUsers(tenant.OrgID, string(tenant.EnvType))

	temp, err := tempUsers.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if temp == nil {
		return nil, apperr.NotFound("temp user", sessionID)
	}

	temp.Profile.Merge(profile)
	if err := tempUsers.Update(ctx, temp); err != nil {
		return nil, err
	}
	return temp, nil
}

// TrackChat links a chat to the session's history. Expired sessions
// are a silent no-op.
func (s *Service) TrackChat(ctx context.Context, tenant *entity.TenantContext, sessionID, chatID string) error {
	return s.repos.TempUsers(tenant.OrgID, string(tenant.EnvType)).AddChatID(ctx, sessionID, chatID)
}

// ConvertToPermanent upgrades an anonymous session into a durable
// user. The duplicate check runs before any write, so a retry after a
// partial failure fails with Conflict instead of creating a second
// user; the session is kept on every failure path.
func (s *Service) ConvertToPermanent(ctx context.Context, tenant *entity.TenantContext, sessionID, memberID string, profile entity.UserProfile) (*entity.User, error) {
	if memberID == "" {
		return nil, apperr.Validation("member_id is required")
	}

	tempUsers := s.repos.TempUsers(tenant.OrgID, string(tenant.EnvType))
	users := s.repos.Users(tenant.OrgID, string(tenant.EnvType))

	temp, err := tempUsers.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if temp == nil {
		return nil, apperr.NotFound("temp user", sessionID)
	}

	existing, err := users.GetByMemberID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Conflict("user with member_id '%s' already exists", memberID)
	}

	merged := temp.Profile
	merged.Merge(profile)

	user := &entity.User{
		MemberID:    memberID,
		Profile:     merged,
		TotalChats:  len(temp.ChatIDs),
		FirstSeenAt: temp.CreatedAt,
	}
	if err := users.Create(ctx, user); err != nil {
		return nil, err
	}

	if _, err := tempUsers.Delete(ctx, sessionID); err != nil {
		// The durable user exists; the stale session will expire on
		// its own and a conversion retry stops at the Conflict check.
		s.log.Warn("delete converted temp user", sl.Err(err))
	}

	return user, nil
}
