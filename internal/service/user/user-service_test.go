package user

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"LiveDesk/entity"
	"LiveDesk/internal/lib/apperr"
)

type fakeUserRepo struct {
	users map[string]*entity.User // by member_id
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*entity.User)}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *entity.User) error {
	now := time.Now().UTC()
	user.ID = primitive.NewObjectID()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.Status == "" {
		user.Status = entity.UserActive
	}
	if user.FirstSeenAt.IsZero() {
		user.FirstSeenAt = now
	}
	if user.LastSeenAt.IsZero() {
		user.LastSeenAt = now
	}
	stored := *user
	f.users[user.MemberID] = &stored
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, userID string) (*entity.User, error) {
	for _, user := range f.users {
		if user.ID.Hex() == userID {
			copied := *user
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) GetByMemberID(ctx context.Context, memberID string) (*entity.User, error) {
	user, ok := f.users[memberID]
	if !ok {
		return nil, nil
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserRepo) List(ctx context.Context, skip, limit int, status entity.UserStatus, tags []string) ([]entity.User, int64, error) {
	var matched []entity.User
	for _, user := range f.users {
		if status != "" && user.Status != status {
			continue
		}
		matched = append(matched, *user)
	}
	total := int64(len(matched))
	if skip > len(matched) {
		skip = len(matched)
	}
	matched = matched[skip:]
	if limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, total, nil
}

func (f *fakeUserRepo) Update(ctx context.Context, user *entity.User) error {
	stored, ok := f.users[user.MemberID]
	if !ok {
		return nil
	}
	stored.Profile = user.Profile
	stored.CustomFields = user.CustomFields
	stored.Tags = user.Tags
	stored.Status = user.Status
	stored.UpdatedAt = time.Now().UTC()
	return nil
}

func (f *fakeUserRepo) Delete(ctx context.Context, userID string) error {
	for _, user := range f.users {
		if user.ID.Hex() == userID {
			user.Status = entity.UserDeleted
		}
	}
	return nil
}

func (f *fakeUserRepo) IncrementStats(ctx context.Context, userID string, chats, messages int) error {
	for _, user := range f.users {
		if user.ID.Hex() == userID {
			user.TotalChats += chats
			user.TotalMessages += messages
			user.LastSeenAt = time.Now().UTC()
		}
	}
	return nil
}

type fakeTempRepo struct {
	sessions map[string]*entity.TempUser
}

func newFakeTempRepo() *fakeTempRepo {
	return &fakeTempRepo{sessions: make(map[string]*entity.TempUser)}
}

func (f *fakeTempRepo) Create(ctx context.Context, user *entity.TempUser) error {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.LastActivityAt = now
	if user.ChatIDs == nil {
		user.ChatIDs = []string{}
	}
	stored := *user
	f.sessions[user.SessionID] = &stored
	return nil
}

func (f *fakeTempRepo) Get(ctx context.Context, sessionID string) (*entity.TempUser, error) {
	temp, ok := f.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	copied := *temp
	return &copied, nil
}

func (f *fakeTempRepo) Update(ctx context.Context, user *entity.TempUser) error {
	if _, ok := f.sessions[user.SessionID]; !ok {
		return nil
	}
	user.LastActivityAt = time.Now().UTC()
	stored := *user
	f.sessions[user.SessionID] = &stored
	return nil
}

func (f *fakeTempRepo) Delete(ctx context.Context, sessionID string) (bool, error) {
	if _, ok := f.sessions[sessionID]; !ok {
		return false, nil
	}
	delete(f.sessions, sessionID)
	return true, nil
}

func (f *fakeTempRepo) AddChatID(ctx context.Context, sessionID, chatID string) error {
	temp, ok := f.sessions[sessionID]
	if !ok {
		return nil
	}
	for _, id := range temp.ChatIDs {
		if id == chatID {
			return nil
		}
	}
	temp.ChatIDs = append(temp.ChatIDs, chatID)
	return nil
}

type fakeRepos struct {
	users *fakeUserRepo
	temp  *fakeTempRepo
}

func (r fakeRepos) Users(orgID, envType string) UserRepository {
	return r.users
}

func (r fakeRepos) TempUsers(orgID, envType string) TempUserRepository {
	return r.temp
}

func newTestService(t *testing.T) (*Service, fakeRepos) {
	t.Helper()
	repos := fakeRepos{users: newFakeUserRepo(), temp: newFakeTempRepo()}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewUserService(logger, repos), repos
}

func testTenant() *entity.TenantContext {
	return &entity.TenantContext{OrgID: "org1", EnvType: "production"}
}

func TestCreateUserConflict(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	tenant := testTenant()

	created, err := svc.CreateUser(ctx, tenant, CreateUserParams{
		MemberID: "member-1",
		Profile:  entity.UserProfile{Name: "Ann"},
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if created.Status != entity.UserActive {
		t.Fatalf("status = %s, want active", created.Status)
	}

	_, err = svc.CreateUser(ctx, tenant, CreateUserParams{MemberID: "member-1"})
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("duplicate err = %v, want conflict", err)
	}

	_, err = svc.CreateUser(ctx, tenant, CreateUserParams{})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("empty member_id err = %v, want validation error", err)
	}
}

func TestGetOrCreate(t *testing.T) {
	svc, repos := newTestService(t)
	ctx := context.Background()
	tenant := testTenant()

	first, err := svc.GetOrCreate(ctx, tenant, CreateUserParams{MemberID: "member-1"})
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}

	again, err := svc.GetOrCreate(ctx, tenant, CreateUserParams{MemberID: "member-1"})
	if err != nil {
		t.Fatalf("repeat GetOrCreate: %v", err)
	}
	if again.ID != first.ID {
		t.Fatalf("repeat returned a different user: %s vs %s", again.ID.Hex(), first.ID.Hex())
	}
	if len(repos.users.users) != 1 {
		t.Fatalf("stored users = %d, want 1", len(repos.users.users))
	}
}

func TestUpdateUserMergesProfile(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	tenant := testTenant()

	if _, err := svc.CreateUser(ctx, tenant, CreateUserParams{
		MemberID: "member-1",
		Profile:  entity.UserProfile{Name: "Ann", Email: "ann@example.com"},
	}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	updated, err := svc.UpdateUser(ctx, tenant, "member-1", UpdateUserParams{
		Profile: &entity.UserProfile{Phone: "+1555000"},
	})
	if err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	if updated.Profile.Name != "Ann" || updated.Profile.Email != "ann@example.com" {
		t.Fatalf("profile lost fields on merge: %+v", updated.Profile)
	}
	if updated.Profile.Phone != "+1555000" {
		t.Fatalf("phone = %q, want merged value", updated.Profile.Phone)
	}

	if _, err := svc.UpdateUser(ctx, tenant, "member-1", UpdateUserParams{Status: "frozen"}); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("bad status err = %v, want validation error", err)
	}

	if _, err := svc.UpdateUser(ctx, tenant, "nobody", UpdateUserParams{}); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("unknown member err = %v, want not found", err)
	}
}

func TestDeleteUserIsSoft(t *testing.T) {
	svc, repos := newTestService(t)
	ctx := context.Background()
	tenant := testTenant()

	if _, err := svc.CreateUser(ctx, tenant, CreateUserParams{MemberID: "member-1"}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if err := svc.DeleteUser(ctx, tenant, "member-1"); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}

	stored := repos.users.users["member-1"]
	if stored == nil {
		t.Fatal("user document removed, want soft delete")
	}
	if stored.Status != entity.UserDeleted {
		t.Fatalf("status = %s, want deleted", stored.Status)
	}

	if err := svc.DeleteUser(ctx, tenant, "nobody"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("unknown member err = %v, want not found", err)
	}
}

func TestTempUserLifecycle(t *testing.T) {
	svc, repos := newTestService(t)
	ctx := context.Background()
	tenant := testTenant()

	temp, err := svc.CreateTempUser(ctx, tenant, entity.UserProfile{Name: "Guest"})
	if err != nil {
		t.Fatalf("CreateTempUser: %v", err)
	}
	if temp.SessionID == "" {
		t.Fatal("session id not generated")
	}

	if err := svc.TrackChat(ctx, tenant, temp.SessionID, "chat-1"); err != nil {
		t.Fatalf("TrackChat: %v", err)
	}
	if err := svc.TrackChat(ctx, tenant, temp.SessionID, "chat-1"); err != nil {
		t.Fatalf("repeat TrackChat: %v", err)
	}

	got, err := svc.GetTempUser(ctx, tenant, temp.SessionID)
	if err != nil {
		t.Fatalf("GetTempUser: %v", err)
	}
	if len(got.ChatIDs) != 1 || got.ChatIDs[0] != "chat-1" {
		t.Fatalf("chat_ids = %v, want single chat-1", got.ChatIDs)
	}

	// Expiry presents as absence, and tracking against an expired
	// session is a silent no-op.
	delete(repos.temp.sessions, temp.SessionID)
	if _, err := svc.GetTempUser(ctx, tenant, temp.SessionID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expired session err = %v, want not found", err)
	}
	if err := svc.TrackChat(ctx, tenant, temp.SessionID, "chat-2"); err != nil {
		t.Fatalf("TrackChat on expired session: %v", err)
	}
}

func TestConvertToPermanent(t *testing.T) {
	svc, repos := newTestService(t)
	ctx := context.Background()
	tenant := testTenant()

	temp, _ := svc.CreateTempUser(ctx, tenant, entity.UserProfile{Name: "Guest"})
	if err := svc.TrackChat(ctx, tenant, temp.SessionID, "chat-1"); err != nil {
		t.Fatalf("TrackChat: %v", err)
	}

	user, err := svc.ConvertToPermanent(ctx, tenant, temp.SessionID, "member-9", entity.UserProfile{Email: "g@example.com"})
	if err != nil {
		t.Fatalf("ConvertToPermanent: %v", err)
	}
	if user.MemberID != "member-9" {
		t.Fatalf("member_id = %q, want member-9", user.MemberID)
	}
	if user.Profile.Name != "Guest" || user.Profile.Email != "g@example.com" {
		t.Fatalf("profile = %+v, want merged session + supplied fields", user.Profile)
	}
	if user.TotalChats != 1 {
		t.Fatalf("total_chats = %d, want 1", user.TotalChats)
	}
	if _, ok := repos.temp.sessions[temp.SessionID]; ok {
		t.Fatal("session survived a successful conversion")
	}
}

func TestConvertToPermanentConflictKeepsSession(t *testing.T) {
	svc, repos := newTestService(t)
	ctx := context.Background()
	tenant := testTenant()

	if _, err := svc.CreateUser(ctx, tenant, CreateUserParams{MemberID: "member-9"}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	temp, _ := svc.CreateTempUser(ctx, tenant, entity.UserProfile{})

	_, err := svc.ConvertToPermanent(ctx, tenant, temp.SessionID, "member-9", entity.UserProfile{})
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("err = %v, want conflict", err)
	}
	if _, ok := repos.temp.sessions[temp.SessionID]; !ok {
		t.Fatal("session lost on conflicting conversion")
	}

	if _, err := svc.ConvertToPermanent(ctx, tenant, "missing", "member-10", entity.UserProfile{}); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("unknown session err = %v, want not found", err)
	}
	if _, err := svc.ConvertToPermanent(ctx, tenant, temp.SessionID, "", entity.UserProfile{}); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("empty member_id err = %v, want validation error", err)
	}
}
