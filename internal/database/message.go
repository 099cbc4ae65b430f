package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"LiveDesk/entity"
	"LiveDesk/internal/lib/cursor"
)

// MessageStore owns the message documents of one (org, env) scope and
// is the source of truth for read status.
type MessageStore struct {
	db         *MongoDB
	collection string
	orgID      string
	envType    string
}

func (s *MessageStore) Create(ctx context.Context, msg *entity.Message) error {
	now := time.Now().UTC()
	msg.OrgID = s.orgID
	msg.CreatedAt = now
	msg.UpdatedAt = now
	if msg.Attachments == nil {
		msg.Attachments = []entity.Attachment{}
	}

	result, err := s.db.collection(s.collection).InsertOne(ctx, msg)
	if err != nil {
		return fmt.Errorf("mongodb insert message: %w", err)
	}
	msg.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

func (s *MessageStore) GetByID(ctx context.Context, messageID string) (*entity.Message, error) {
	oid, err := primitive.ObjectIDFromHex(messageID)
	if err != nil {
		return nil, nil
	}

	var msg entity.Message
	err = s.db.collection(s.collection).FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&msg)
	if err != nil {
		return nil, s.db.findError(err)
	}
	return &msg, nil
}

// List pages messages of one chat. before=true walks backwards in time
// (load older history) and returns the page in ascending order for
// display; before=false walks forward from the cursor (catch up).
// Ties on created_at are broken by _id so the ordering is total.
func (s *MessageStore) List(ctx context.Context, chatID string, limit int, cur string, before bool) ([]entity.Message, string, bool, error) {
	query := bson.D{{Key: "chat_id", Value: chatID}}

	if ts, lastID, ok := cursor.Decode(cur); ok {
		if oid, err := primitive.ObjectIDFromHex(lastID); err == nil {
			op := "$lt"
			if !before {
				op = "$gt"
			}
			query = append(query, bson.E{Key: "$or", Value: bson.A{
				bson.D{{Key: "created_at", Value: bson.D{{Key: op, Value: ts}}}},
				bson.D{{Key: "created_at", Value: ts}, {Key: "_id", Value: bson.D{{Key: op, Value: oid}}}},
			}})
		}
	}

	order := -1
	if !before {
		order = 1
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: order}, {Key: "_id", Value: order}}).
		SetLimit(int64(limit + 1))

	result, err := s.db.collection(s.collection).Find(ctx, query, opts)
	if err != nil {
		return nil, "", false, fmt.Errorf("mongodb find messages: %w", err)
	}
	defer result.Close(ctx)

	var messages []entity.Message
	if err = result.All(ctx, &messages); err != nil {
		return nil, "", false, fmt.Errorf("mongodb decode messages: %w", err)
	}

	hasMore := len(messages) > limit
	if hasMore {
		messages = messages[:limit]
	}

	if before {
		for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
			messages[i], messages[j] = messages[j], messages[i]
		}
	}

	nextCursor := ""
	if hasMore && len(messages) > 0 {
		// Backwards pagination continues from the oldest row on the
		// page, forwards from the newest.
		edge := messages[0]
		if !before {
			edge = messages[len(messages)-1]
		}
		nextCursor = cursor.Encode(edge.CreatedAt, edge.ID.Hex())
	}

	return messages, nextCursor, hasMore, nil
}

// MarkRead flags every unread message of the chat at or before upTo as
// read by the reader and returns how many documents actually changed.
// Marking an already-read range is a no-op, not an error.
func (s *MessageStore) MarkRead(ctx context.Context, chatID string, reader entity.SenderType, upTo string) (int64, error) {
	field := "read_by_agent"
	if reader == entity.SenderUser {
		field = "read_by_user"
	}

	query := bson.D{
		{Key: "chat_id", Value: chatID},
		{Key: field, Value: false},
	}
	if upTo != "" {
		if oid, err := primitive.ObjectIDFromHex(upTo); err == nil {
			query = append(query, bson.E{Key: "_id", Value: bson.D{{Key: "$lte", Value: oid}}})
		}
	}

	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: field, Value: true},
		{Key: "updated_at", Value: time.Now().UTC()},
	}}}

	result, err := s.db.collection(s.collection).UpdateMany(ctx, query, update)
	if err != nil {
		return 0, fmt.Errorf("mongodb mark messages read: %w", err)
	}
	return result.ModifiedCount, nil
}

// EnsureIndexes creates the indexes backing pagination and mark-read.
func (s *MessageStore) EnsureIndexes(ctx context.Context) error {
	models := []mongoIndex{
		{keys: bson.D{{Key: "chat_id", Value: 1}, {Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}},
		{keys: bson.D{{Key: "chat_id", Value: 1}, {Key: "read_by_user", Value: 1}}},
		{keys: bson.D{{Key: "chat_id", Value: 1}, {Key: "read_by_agent", Value: 1}}},
	}
	return ensureIndexes(ctx, s.db.collection(s.collection), models)
}
