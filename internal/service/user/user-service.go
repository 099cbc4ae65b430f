package user

import (
	"context"
	"log/slog"

	"LiveDesk/entity"
	"LiveDesk/internal/lib/apperr"
	"LiveDesk/internal/lib/sl"
)

// UserRepository is the tenant-scoped durable user store.
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, userID string) (*entity.User, error)
	GetByMemberID(ctx context.Context, memberID string) (*entity.User, error)
	List(ctx context.Context, skip, limit int, status entity.UserStatus, tags []string) ([]entity.User, int64, error)
	Update(ctx context.Context, user *entity.User) error
	Delete(ctx context.Context, userID string) error
	IncrementStats(ctx context.Context, userID string, chats, messages int) error
}

// Repositories hands out user stores bound to one (org, env) scope.
type Repositories interface {
	Users(orgID, envType string) UserRepository
	TempUsers(orgID, envType string) TempUserRepository
}

type Service struct {
	repos Repositories
	log   *slog.Logger
}

func NewUserService(logger *slog.Logger, repos Repositories) *Service {
	return &Service{
		repos: repos,
		log:   logger.With(sl.Module("user-service")),
	}
}

type CreateUserParams struct {
	MemberID     string
	Profile      entity.UserProfile
	CustomFields map[string]string
	Tags         []string
}

// CreateUser registers a durable user. member_id is the caller's own
// identifier and must be unique within the tenant.
func (s *Service) CreateUser(ctx context.Context, tenant *entity.TenantContext, p CreateUserParams) (*entity.User, error) {
	if p.MemberID == "" {
		return nil, apperr.Validation("member_id is required")
	}

	users := s.repos.Users(tenant.OrgID, string(tenant.EnvType))

	existing, err := users.GetByMemberID(ctx, p.MemberID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Conflict("user with member_id '%s' already exists", p.MemberID)
	}

	user := &entity.User{
		MemberID:     p.MemberID,
		Profile:      p.Profile,
		CustomFields: p.CustomFields,
		Tags:         p.Tags,
	}
	if err := users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) GetUser(ctx context.Context, tenant *entity.TenantContext, userID string) (*entity.User, error) {
	user, err := s.repos.Users(tenant.OrgID, string(tenant.EnvType)).GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.NotFound("user", userID)
	}
	return user, nil
}

func (s *Service) GetByMemberID(ctx context.Context, tenant *entity.TenantContext, memberID string) (*entity.User, error) {
	user, err := s.repos.Users(tenant.OrgID, string(tenant.EnvType)).GetByMemberID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.NotFound("user", memberID)
	}
	return user, nil
}

// GetOrCreate looks the member up and registers them on first contact.
// An existing user gets their last-seen stamp refreshed.
func (s *Service) GetOrCreate(ctx context.Context, tenant *entity.TenantContext, p CreateUserParams) (*entity.User, error) {
	users := s.repos.Users(tenant.OrgID, string(tenant.EnvType))

	user, err := users.GetByMemberID(ctx, p.MemberID)
	if err != nil {
		return nil, err
	}
	if user != nil {
		if err := users.IncrementStats(ctx, user.ID.Hex(), 0, 0); err != nil {
			s.log.Warn("refresh last seen", sl.Err(err))
		}
		return user, nil
	}
	return s.CreateUser(ctx, tenant, p)
}

type UpdateUserParams struct {
	Profile      *entity.UserProfile
	CustomFields map[string]string
	Tags         []string
	Status       entity.UserStatus
}

// UpdateUser merges the supplied profile fields over the stored ones;
// absent fields keep their values.
func (s *Service) UpdateUser(ctx context.Context, tenant *entity.TenantContext, memberID string, p UpdateUserParams) (*entity.User, error) {
	users := s.repos.Users(tenant.OrgID, string(tenant.EnvType))

	user, err := users.GetByMemberID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.NotFound("user", memberID)
	}

	if p.Profile != nil {
		user.Profile.Merge(*p.Profile)
	}
	if p.CustomFields != nil {
		user.CustomFields = p.CustomFields
	}
	if p.Tags != nil {
		user.Tags = p.Tags
	}
	if p.Status != "" {
		if p.Status != entity.UserActive && p.Status != entity.UserBlocked && p.Status != entity.UserDeleted {
			return nil, apperr.Validation("unknown user status '%s'", p.Status)
		}
		user.Status = p.Status
	}

	if err := users.Update(ctx, user); err != nil {
		return nil, err
	}
	return users.GetByMemberID(ctx, memberID)
}

// DeleteUser soft deletes: the document stays for chat history, the
// status flips to deleted.
func (s *Service) DeleteUser(ctx context.Context, tenant *entity.TenantContext, memberID string) error {
	users := s.repos.Users(tenant.OrgID, string(tenant.EnvType))

	user, err := users.GetByMemberID(ctx, memberID)
	if err != nil {
		return err
	}
	if user == nil {
		return apperr.NotFound("user", memberID)
	}
	return users.Delete(ctx, user.ID.Hex())
}

// ListUsers pages users with optional status and tag filters.
func (s *Service) ListUsers(ctx context.Context, tenant *entity.TenantContext, skip, limit int, status entity.UserStatus, tags []string) ([]entity.User, int64, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.repos.Users(tenant.OrgID, string(tenant.EnvType)).List(ctx, skip, limit, status, tags)
}

// IncrementStats bumps the user's chat/message totals. Callers pass
// whatever id they have; ids of transient sessions are ignored by the
// store.
func (s *Service) IncrementStats(ctx context.Context, tenant *entity.TenantContext, userID string, chats, messages int) error {
	return s.repos.Users(tenant.OrgID, string(tenant.EnvType)).IncrementStats(ctx, userID, chats, messages)
}
