package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"LiveDesk/entity"
)

// UserStore owns the durable end-user documents of one (org, env)
// scope. Users are soft deleted by status, never removed.
type UserStore struct {
	db         *MongoDB
	collection string
	orgID      string
	envType    string
}

func (s *UserStore) Create(ctx context.Context, user *entity.User) error {
	now := time.Now().UTC()
	user.OrgID = s.orgID
	user.EnvType = s.envType
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
	if user.CustomFields == nil {
		user.CustomFields = map[string]string{}
	}
	if user.Tags == nil {
		user.Tags = []string{}
	}

	result, err := s.db.collection(s.collection).InsertOne(ctx, user)
	if err != nil {
		return fmt.Errorf("mongodb insert user: %w", err)
	}
	user.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

func (s *UserStore) GetByID(ctx context.Context, userID string) (*entity.User, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, nil
	}

	var user entity.User
	err = s.db.collection(s.collection).FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&user)
	if err != nil {
		return nil, s.db.findError(err)
	}
	return &user, nil
}

func (s *UserStore) GetByMemberID(ctx context.Context, memberID string) (*entity.User, error) {
	var user entity.User
	err := s.db.collection(s.collection).FindOne(ctx, bson.D{{Key: "member_id", Value: memberID}}).Decode(&user)
	if err != nil {
		return nil, s.db.findError(err)
	}
	return &user, nil
}

// List returns users ordered by last_seen_at desc with offset
// pagination and the matching total, optionally filtered by status and
// tags (all tags must match).
func (s *UserStore) List(ctx context.Context, skip, limit int, status entity.UserStatus, tags []string) ([]entity.User, int64, error) {
	query := bson.D{}
	if status != "" {
		query = append(query, bson.E{Key: "status", Value: status})
	}
	if len(tags) > 0 {
		query = append(query, bson.E{Key: "tags", Value: bson.D{{Key: "$all", Value: tags}}})
	}

	coll := s.db.collection(s.collection)

	total, err := coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("mongodb count users: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "last_seen_at", Value: -1}}).
		SetSkip(int64(skip)).
		SetLimit(int64(limit))

	result, err := coll.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("mongodb find users: %w", err)
	}
	defer result.Close(ctx)

	var users []entity.User
	if err = result.All(ctx, &users); err != nil {
		return nil, 0, fmt.Errorf("mongodb decode users: %w", err)
	}

	return users, total, nil
}

func (s *UserStore) Update(ctx context.Context, user *entity.User) error {
	user.UpdatedAt = time.Now().UTC()
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "profile", Value: user.Profile},
		{Key: "custom_fields", Value: user.CustomFields},
		{Key: "tags", Value: user.Tags},
		{Key: "status", Value: user.Status},
		{Key: "last_seen_at", Value: user.LastSeenAt},
		{Key: "updated_at", Value: user.UpdatedAt},
	}}}

	_, err := s.db.collection(s.collection).UpdateOne(ctx, bson.D{{Key: "_id", Value: user.ID}}, update)
	if err != nil {
		return fmt.Errorf("mongodb update user: %w", err)
	}
	return nil
}

// Delete soft deletes by flipping the status.
func (s *UserStore) Delete(ctx context.Context, userID string) error {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return fmt.Errorf("invalid user id: %w", err)
	}

	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "status", Value: entity.UserDeleted},
		{Key: "updated_at", Value: time.Now().UTC()},
	}}}

	_, err = s.db.collection(s.collection).UpdateOne(ctx, bson.D{{Key: "_id", Value: oid}}, update)
	if err != nil {
		return fmt.Errorf("mongodb delete user: %w", err)
	}
	return nil
}

// IncrementStats bumps the per-user chat/message counters and refreshes
// last_seen_at in one write.
func (s *UserStore) IncrementStats(ctx context.Context, userID string, chats, messages int) error {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil // transient session ids are not tracked here
	}

	update := bson.D{{Key: "$set", Value: bson.D{{Key: "last_seen_at", Value: time.Now().UTC()}}}}
	inc := bson.D{}
	if chats != 0 {
		inc = append(inc, bson.E{Key: "total_chats", Value: chats})
	}
	if messages != 0 {
		inc = append(inc, bson.E{Key: "total_messages", Value: messages})
	}
	if len(inc) > 0 {
		update = append(update, bson.E{Key: "$inc", Value: inc})
	}

	_, err = s.db.collection(s.collection).UpdateOne(ctx, bson.D{{Key: "_id", Value: oid}}, update)
	if err != nil {
		return fmt.Errorf("mongodb increment user stats: %w", err)
	}
	return nil
}

// EnsureIndexes creates the member_id uniqueness constraint and the
// listing index.
func (s *UserStore) EnsureIndexes(ctx context.Context) error {
	models := []mongoIndex{
		{keys: bson.D{{Key: "member_id", Value: 1}}, unique: true},
		{keys: bson.D{{Key: "last_seen_at", Value: -1}}},
	}
	return ensureIndexes(ctx, s.db.collection(s.collection), models)
}
