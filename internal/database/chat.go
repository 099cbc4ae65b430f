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

// ChatStore owns the chat documents of one (org, env) scope.
type ChatStore struct {
	db         *MongoDB
	collection string
	orgID      string
	envType    string
}

func (s *ChatStore) Create(ctx context.Context, chat *entity.Chat) error {
	now := time.Now().UTC()
	chat.OrgID = s.orgID
	chat.EnvType = s.envType
	chat.CreatedAt = now
	chat.UpdatedAt = now
	if chat.Status == "" {
		chat.Status = entity.ChatWaiting
	}
	if chat.Tags == nil {
		chat.Tags = []string{}
	}
	if chat.Metadata == nil {
		chat.Metadata = map[string]string{}
	}

	result, err := s.db.collection(s.collection).InsertOne(ctx, chat)
	if err != nil {
		return fmt.Errorf("mongodb insert chat: %w", err)
	}
	chat.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

// GetByID returns nil without error when the chat does not exist or the
// id is not a valid object id.
func (s *ChatStore) GetByID(ctx context.Context, chatID string) (*entity.Chat, error) {
	oid, err := primitive.ObjectIDFromHex(chatID)
	if err != nil {
		return nil, nil
	}

	var chat entity.Chat
	err = s.db.collection(s.collection).FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&chat)
	if err != nil {
		return nil, s.db.findError(err)
	}
	return &chat, nil
}

// List pages chats ordered by (updated_at desc, _id desc). The cursor
// encodes the sort key of the last returned row; a malformed cursor
// starts from the first page. Fetches limit+1 rows to detect has_more
// without a count query.
func (s *ChatStore) List(ctx context.Context, filter entity.ChatFilter, limit int, cur string) ([]entity.Chat, string, bool, error) {
	query := bson.D{}
	if filter.Status != "" {
		query = append(query, bson.E{Key: "status", Value: filter.Status})
	}
	if filter.AgentID != "" {
		query = append(query, bson.E{Key: "assigned_agent_id", Value: filter.AgentID})
	}
	if filter.UserID != "" {
		query = append(query, bson.E{Key: "user_id", Value: filter.UserID})
	}

	if ts, lastID, ok := cursor.Decode(cur); ok {
		if oid, err := primitive.ObjectIDFromHex(lastID); err == nil {
			query = append(query, bson.E{Key: "$or", Value: bson.A{
				bson.D{{Key: "updated_at", Value: bson.D{{Key: "$lt", Value: ts}}}},
				bson.D{{Key: "updated_at", Value: ts}, {Key: "_id", Value: bson.D{{Key: "$lt", Value: oid}}}},
			}})
		}
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "updated_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit + 1))

	result, err := s.db.collection(s.collection).Find(ctx, query, opts)
	if err != nil {
		return nil, "", false, fmt.Errorf("mongodb find chats: %w", err)
	}
	defer result.Close(ctx)

	var chats []entity.Chat
	if err = result.All(ctx, &chats); err != nil {
		return nil, "", false, fmt.Errorf("mongodb decode chats: %w", err)
	}

	hasMore := len(chats) > limit
	if hasMore {
		chats = chats[:limit]
	}

	nextCursor := ""
	if hasMore && len(chats) > 0 {
		last := chats[len(chats)-1]
		nextCursor = cursor.Encode(last.UpdatedAt, last.ID.Hex())
	}

	return chats, nextCursor, hasMore, nil
}

// Update rewrites the mutable descriptive fields (tags, metadata).
// Counters and status are never written through here; they have their
// own serialized-by-document update operations below.
func (s *ChatStore) Update(ctx context.Context, chat *entity.Chat) error {
	chat.UpdatedAt = time.Now().UTC()
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "tags", Value: chat.Tags},
		{Key: "metadata", Value: chat.Metadata},
		{Key: "updated_at", Value: chat.UpdatedAt},
	}}}

	_, err := s.db.collection(s.collection).UpdateOne(ctx, bson.D{{Key: "_id", Value: chat.ID}}, update)
	if err != nil {
		return fmt.Errorf("mongodb update chat: %w", err)
	}
	return nil
}

// UpdateStatus transitions the chat and stamps resolved_at/closed_at
// for the terminal-ish states.
func (s *ChatStore) UpdateStatus(ctx context.Context, chatID string, status entity.ChatStatus) error {
	oid, err := primitive.ObjectIDFromHex(chatID)
	if err != nil {
		return fmt.Errorf("invalid chat id: %w", err)
	}

	now := time.Now().UTC()
	set := bson.D{
		{Key: "status", Value: status},
		{Key: "updated_at", Value: now},
	}
	switch status {
	case entity.ChatResolved:
		set = append(set, bson.E{Key: "resolved_at", Value: now})
	case entity.ChatClosed:
		set = append(set, bson.E{Key: "closed_at", Value: now})
	}

	_, err = s.db.collection(s.collection).UpdateOne(ctx, bson.D{{Key: "_id", Value: oid}}, bson.D{{Key: "$set", Value: set}})
	if err != nil {
		return fmt.Errorf("mongodb update chat status: %w", err)
	}
	return nil
}

// AssignAgent sets the assignee and flips status to active in one
// write. The caller rejects closed chats before getting here.
func (s *ChatStore) AssignAgent(ctx context.Context, chatID, agentID string) error {
	oid, err := primitive.ObjectIDFromHex(chatID)
	if err != nil {
		return fmt.Errorf("invalid chat id: %w", err)
	}

	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "assigned_agent_id", Value: agentID},
		{Key: "status", Value: entity.ChatActive},
		{Key: "updated_at", Value: time.Now().UTC()},
	}}}

	_, err = s.db.collection(s.collection).UpdateOne(ctx, bson.D{{Key: "_id", Value: oid}}, update)
	if err != nil {
		return fmt.Errorf("mongodb assign agent: %w", err)
	}
	return nil
}

// IncrementMessageCount bumps message_count and the other party's
// unread counter and replaces the last-message preview, all in a single
// atomic update so concurrent sends never lose increments.
func (s *ChatStore) IncrementMessageCount(ctx context.Context, chatID string, sender entity.SenderType, last entity.LastMessage) error {
	oid, err := primitive.ObjectIDFromHex(chatID)
	if err != nil {
		return fmt.Errorf("invalid chat id: %w", err)
	}

	inc := bson.D{{Key: "message_count", Value: 1}}
	if sender == entity.SenderUser {
		inc = append(inc, bson.E{Key: "unread_count_agent", Value: 1})
	} else if sender == entity.SenderAgent || sender == entity.SenderBot {
		inc = append(inc, bson.E{Key: "unread_count_user", Value: 1})
	}

	update := bson.D{
		{Key: "$inc", Value: inc},
		{Key: "$set", Value: bson.D{
			{Key: "last_message", Value: last},
			{Key: "updated_at", Value: time.Now().UTC()},
		}},
	}

	_, err = s.db.collection(s.collection).UpdateOne(ctx, bson.D{{Key: "_id", Value: oid}}, update)
	if err != nil {
		return fmt.Errorf("mongodb increment message count: %w", err)
	}
	return nil
}

// ResetUnreadCount zeroes the reader's unread counter.
func (s *ChatStore) ResetUnreadCount(ctx context.Context, chatID string, reader entity.SenderType) error {
	oid, err := primitive.ObjectIDFromHex(chatID)
	if err != nil {
		return fmt.Errorf("invalid chat id: %w", err)
	}

	field := "unread_count_agent"
	if reader == entity.SenderUser {
		field = "unread_count_user"
	}

	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: field, Value: 0},
		{Key: "updated_at", Value: time.Now().UTC()},
	}}}

	_, err = s.db.collection(s.collection).UpdateOne(ctx, bson.D{{Key: "_id", Value: oid}}, update)
	if err != nil {
		return fmt.Errorf("mongodb reset unread count: %w", err)
	}
	return nil
}

// SetFirstResponseAt stamps the first agent contact. The filter matches
// only while the field is still unset, so the stamp sticks exactly once
// even when two agent actions race.
func (s *ChatStore) SetFirstResponseAt(ctx context.Context, chatID string, at time.Time) error {
	oid, err := primitive.ObjectIDFromHex(chatID)
	if err != nil {
		return fmt.Errorf("invalid chat id: %w", err)
	}

	filter := bson.D{
		{Key: "_id", Value: oid},
		{Key: "first_response_at", Value: bson.D{{Key: "$eq", Value: nil}}},
	}
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "first_response_at", Value: at.UTC()},
		{Key: "updated_at", Value: time.Now().UTC()},
	}}}

	_, err = s.db.collection(s.collection).UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("mongodb set first response: %w", err)
	}
	return nil
}

// Statistics aggregates status counts and mean response/resolution
// latency for the tenant.
func (s *ChatStore) Statistics(ctx context.Context) (*entity.ChatStatistics, error) {
	coll := s.db.collection(s.collection)

	pipeline := []bson.D{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$status"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}

	result, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("mongodb aggregate chat statistics: %w", err)
	}
	defer result.Close(ctx)

	stats := &entity.ChatStatistics{}
	for result.Next(ctx) {
		var row struct {
			ID    entity.ChatStatus `bson:"_id"`
			Count int               `bson:"count"`
		}
		if err := result.Decode(&row); err != nil {
			continue
		}
		stats.TotalChats += row.Count
		switch row.ID {
		case entity.ChatWaiting:
			stats.WaitingChats = row.Count
		case entity.ChatActive:
			stats.ActiveChats = row.Count
		case entity.ChatResolved:
			stats.ResolvedChats = row.Count
		case entity.ChatClosed:
			stats.ClosedChats = row.Count
		}
	}

	if avg, err := s.averageLatencySeconds(ctx, "first_response_at"); err == nil {
		stats.AvgResponseTimeSeconds = avg
	}
	if avg, err := s.averageLatencySeconds(ctx, "resolved_at"); err == nil {
		stats.AvgResolutionTimeSeconds = avg
	}

	return stats, nil
}

func (s *ChatStore) averageLatencySeconds(ctx context.Context, field string) (*float64, error) {
	pipeline := []bson.D{
		{{Key: "$match", Value: bson.D{{Key: field, Value: bson.D{{Key: "$ne", Value: nil}}}}}},
		{{Key: "$project", Value: bson.D{
			{Key: "latency", Value: bson.D{{Key: "$subtract", Value: bson.A{"$" + field, "$created_at"}}}},
		}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "avg", Value: bson.D{{Key: "$avg", Value: "$latency"}}},
		}}},
	}

	result, err := s.db.collection(s.collection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("mongodb aggregate latency: %w", err)
	}
	defer result.Close(ctx)

	if result.Next(ctx) {
		var row struct {
			Avg float64 `bson:"avg"`
		}
		if err := result.Decode(&row); err != nil {
			return nil, err
		}
		seconds := row.Avg / 1000 // Mongo $subtract on dates yields milliseconds
		return &seconds, nil
	}
	return nil, nil
}

// EnsureIndexes creates the indexes backing list ordering and lookups.
func (s *ChatStore) EnsureIndexes(ctx context.Context) error {
	models := []mongoIndex{
		{keys: bson.D{{Key: "updated_at", Value: -1}, {Key: "_id", Value: -1}}},
		{keys: bson.D{{Key: "status", Value: 1}, {Key: "updated_at", Value: -1}}},
		{keys: bson.D{{Key: "user_id", Value: 1}}},
		{keys: bson.D{{Key: "assigned_agent_id", Value: 1}}},
	}
	return ensureIndexes(ctx, s.db.collection(s.collection), models)
}
