package chat

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"LiveDesk/entity"
	"LiveDesk/internal/lib/apperr"
	"LiveDesk/internal/lib/sl"
)

const closedMessageFormat = "Chat closed by %s"

// ChatRepository is the tenant-scoped chat aggregate store.
type ChatRepository interface {
	Create(ctx context.Context, chat *entity.Chat) error
	GetByID(ctx context.Context, chatID string) (*entity.Chat, error)
	List(ctx context.Context, filter entity.ChatFilter, limit int, cur string) ([]entity.Chat, string, bool, error)
	Update(ctx context.Context, chat *entity.Chat) error
	UpdateStatus(ctx context.Context, chatID string, status entity.ChatStatus) error
	AssignAgent(ctx context.Context, chatID, agentID string) error
	IncrementMessageCount(ctx context.Context, chatID string, sender entity.SenderType, last entity.LastMessage) error
	ResetUnreadCount(ctx context.Context, chatID string, reader entity.SenderType) error
	SetFirstResponseAt(ctx context.Context, chatID string, at time.Time) error
	Statistics(ctx context.Context) (*entity.ChatStatistics, error)
}

// MessageRepository is the tenant-scoped message store.
type MessageRepository interface {
	Create(ctx context.Context, msg *entity.Message) error
	GetByID(ctx context.Context, messageID string) (*entity.Message, error)
	List(ctx context.Context, chatID string, limit int, cur string, before bool) ([]entity.Message, string, bool, error)
	MarkRead(ctx context.Context, chatID string, reader entity.SenderType, upTo string) (int64, error)
}

// Repositories hands out stores bound to one (org, env) scope.
type Repositories interface {
	Chats(orgID, envType string) ChatRepository
	Messages(orgID, envType string) MessageRepository
}

// Notifier fans chat events out to connected realtime sessions. All
// methods are fire-and-forget.
type Notifier interface {
	NewChat(chat *entity.Chat)
	NewMessage(chat *entity.Chat, msg *entity.Message)
	ChatAssigned(chat *entity.Chat, agentID string)
	MessagesRead(chat *entity.Chat, reader entity.SenderType, upToID string)
}

// Transformer optionally rewrites agent text before it is persisted.
type Transformer interface {
	Transform(ctx context.Context, text string) (string, error)
}

// UserStats bumps per-user counters. Ids that do not belong to a
// durable user are ignored by the implementation.
type UserStats interface {
	IncrementStats(ctx context.Context, tenant *entity.TenantContext, userID string, chats, messages int) error
}

// Limits carries the tunables of the chat surface.
type Limits struct {
	MaxContentLength int
	PreviewLength    int
	DefaultChatPage  int
	DefaultMsgPage   int
}

type Service struct {
	repos    Repositories
	stats    UserStats
	notifier Notifier
	tone     Transformer
	limits   Limits
	log      *slog.Logger
}

func NewChatService(logger *slog.Logger, repos Repositories, limits Limits) *Service {
	return &Service{
		repos:  repos,
		limits: limits,
		log:    logger.With(sl.Module("chat-service")),
	}
}

func (s *Service) SetNotifier(notifier Notifier) {
	s.notifier = notifier
}

func (s *Service) SetTransformer(tone Transformer) {
	s.tone = tone
}

func (s *Service) SetUserStats(stats UserStats) {
	s.stats = stats
}

type CreateChatParams struct {
	UserID         string
	MemberID       string
	InitialMessage string
	Tags           []string
	Metadata       map[string]string
}

// CreateChat opens a new waiting chat. When an initial message is
// supplied it is sent on behalf of the user before the chat is
// returned, so the caller sees the counters it produced.
func (s *Service) CreateChat(ctx context.Context, tenant *entity.TenantContext, p CreateChatParams) (*entity.Chat, error) {
	if p.UserID == "" {
		return nil, apperr.Validation("user_id is required")
	}

	chats := s.repos.Chats(tenant.OrgID, string(tenant.EnvType))

	chat := &entity.Chat{
		UserID:   p.UserID,
		MemberID: p.MemberID,
		Status:   entity.ChatWaiting,
		Tags:     p.Tags,
		Metadata: p.Metadata,
	}
	if err := chats.Create(ctx, chat); err != nil {
		return nil, err
	}

	if s.stats != nil {
		if err := s.stats.IncrementStats(ctx, tenant, p.UserID, 1, 0); err != nil {
			s.log.Warn("increment user chat count", sl.Err(err))
		}
	}

	if p.InitialMessage != "" {
		_, err := s.SendMessage(ctx, tenant, SendMessageParams{
			ChatID:     chat.ID.Hex(),
			SenderType: entity.SenderUser,
			SenderID:   p.UserID,
			Content:    p.InitialMessage,
		})
		if err != nil {
			return nil, err
		}
		updated, err := chats.GetByID(ctx, chat.ID.Hex())
		if err != nil {
			return nil, err
		}
		if updated != nil {
			chat = updated
		}
	}

	s.notifyNewChat(chat)

	return chat, nil
}

// GetChat returns the chat or a not-found error.
func (s *Service) GetChat(ctx context.Context, tenant *entity.TenantContext, chatID string) (*entity.Chat, error) {
	chat, err := s.repos.Chats(tenant.OrgID, string(tenant.EnvType)).GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if chat == nil {
		return nil, apperr.NotFound("chat", chatID)
	}
	return chat, nil
}

// ListChats pages the tenant's chats, newest activity first.
func (s *Service) ListChats(ctx context.Context, tenant *entity.TenantContext, filter entity.ChatFilter, limit int, cur string) ([]entity.Chat, string, bool, error) {
	if limit <= 0 {
		limit = s.limits.DefaultChatPage
	}
	return s.repos.Chats(tenant.OrgID, string(tenant.EnvType)).List(ctx, filter, limit, cur)
}

type SendMessageParams struct {
	ChatID      string
	SenderType  entity.SenderType
	SenderID    string
	Content     string
	MessageType entity.MessageType
	Attachments []entity.Attachment
}

// SendMessage appends a message and keeps the chat aggregate in step:
// one atomic counter/preview update, plus the first-response stamp when
// an agent replies for the first time.
func (s *Service) SendMessage(ctx context.Context, tenant *entity.TenantContext, p SendMessageParams) (*entity.Message, error) {
	if p.Content == "" && len(p.Attachments) == 0 {
		return nil, apperr.Validation("message content is empty")
	}
	if max := s.limits.MaxContentLength; max > 0 && len([]rune(p.Content)) > max {
		return nil, apperr.Validation("message content exceeds %d characters", max)
	}
	if p.MessageType == "" {
		p.MessageType = entity.MessageText
	}

	chats := s.repos.Chats(tenant.OrgID, string(tenant.EnvType))
	messages := s.repos.Messages(tenant.OrgID, string(tenant.EnvType))

	chat, err := chats.GetByID(ctx, p.ChatID)
	if err != nil {
		return nil, err
	}
	if chat == nil {
		return nil, apperr.NotFound("chat", p.ChatID)
	}
	if chat.IsClosed() {
		return nil, apperr.Validation("chat '%s' is closed", p.ChatID)
	}

	content := p.Content
	if s.tone != nil && p.SenderType == entity.SenderAgent && p.MessageType == entity.MessageText {
		transformed, err := s.tone.Transform(ctx, content)
		if err != nil {
			s.log.Warn("tone transform failed, keeping original text", sl.Err(err))
		} else if transformed != "" {
			content = transformed
		}
	}

	msg := &entity.Message{
		ChatID:      p.ChatID,
		SenderType:  p.SenderType,
		SenderID:    p.SenderID,
		MessageType: p.MessageType,
		Content:     content,
		Attachments: p.Attachments,
	}
	markSenderRead(msg)

	if err := messages.Create(ctx, msg); err != nil {
		return nil, err
	}

	last := entity.LastMessage{
		SenderType:  msg.SenderType,
		Content:     truncate(content, s.limits.PreviewLength),
		MessageType: msg.MessageType,
		CreatedAt:   msg.CreatedAt,
	}
	if err := chats.IncrementMessageCount(ctx, p.ChatID, msg.SenderType, last); err != nil {
		return nil, err
	}

	if msg.SenderType == entity.SenderAgent && chat.FirstResponseAt == nil {
		if err := chats.SetFirstResponseAt(ctx, p.ChatID, msg.CreatedAt); err != nil {
			s.log.Error("set first response time", sl.Err(err))
		}
	}

	if s.stats != nil && msg.SenderType == entity.SenderUser {
		if err := s.stats.IncrementStats(ctx, tenant, chat.UserID, 0, 1); err != nil {
			s.log.Warn("increment user message count", sl.Err(err))
		}
	}

	s.notifyNewMessage(chat, msg)

	return msg, nil
}

// AssignAgent puts the chat into the agent's queue and activates it.
// Assignment counts as first agent contact: the first-response stamp
// is set here when no agent has touched the chat yet.
func (s *Service) AssignAgent(ctx context.Context, tenant *entity.TenantContext, chatID, agentID string) (*entity.Chat, error) {
	chats := s.repos.Chats(tenant.OrgID, string(tenant.EnvType))

	chat, err := chats.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if chat == nil {
		return nil, apperr.NotFound("chat", chatID)
	}
	if chat.IsClosed() {
		return nil, apperr.Validation("chat '%s' is closed", chatID)
	}

	if err := chats.AssignAgent(ctx, chatID, agentID); err != nil {
		return nil, err
	}

	if chat.FirstResponseAt == nil {
		if err := chats.SetFirstResponseAt(ctx, chatID, time.Now().UTC()); err != nil {
			s.log.Error("set first response time", sl.Err(err))
		}
	}

	chat, err = chats.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}

	s.notifyChatAssigned(chat, agentID)

	return chat, nil
}

// ResolveChat marks the chat resolved. The chat stays open for further
// messages until it is closed.
func (s *Service) ResolveChat(ctx context.Context, tenant *entity.TenantContext, chatID string) (*entity.Chat, error) {
	chats := s.repos.Chats(tenant.OrgID, string(tenant.EnvType))

	chat, err := chats.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if chat == nil {
		return nil, apperr.NotFound("chat", chatID)
	}
	if chat.IsClosed() {
		return nil, apperr.Validation("chat '%s' is closed", chatID)
	}

	if err := chats.UpdateStatus(ctx, chatID, entity.ChatResolved); err != nil {
		return nil, err
	}

	return chats.GetByID(ctx, chatID)
}

// CloseChat is idempotent: closing an already closed chat returns it
// unchanged, and the closing system message is written exactly once.
// The system message records which party closed the chat.
func (s *Service) CloseChat(ctx context.Context, tenant *entity.TenantContext, chatID string, closer entity.SenderType) (*entity.Chat, error) {
	chats := s.repos.Chats(tenant.OrgID, string(tenant.EnvType))
	messages := s.repos.Messages(tenant.OrgID, string(tenant.EnvType))

	chat, err := chats.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if chat == nil {
		return nil, apperr.NotFound("chat", chatID)
	}
	if chat.IsClosed() {
		return chat, nil
	}

	if err := chats.UpdateStatus(ctx, chatID, entity.ChatClosed); err != nil {
		return nil, err
	}

	// The guard above already ran, so the system message is written
	// directly rather than through SendMessage.
	msg := &entity.Message{
		ChatID:      chatID,
		SenderType:  entity.SenderSystem,
		MessageType: entity.MessageSystem,
		Content:     fmt.Sprintf(closedMessageFormat, closer),
	}
	markSenderRead(msg)
	if err := messages.Create(ctx, msg); err != nil {
		s.log.Error("write close system message", sl.Err(err))
	} else {
		last := entity.LastMessage{
			SenderType:  msg.SenderType,
			Content:     msg.Content,
			MessageType: msg.MessageType,
			CreatedAt:   msg.CreatedAt,
		}
		if err := chats.IncrementMessageCount(ctx, chatID, msg.SenderType, last); err != nil {
			s.log.Error("count close system message", sl.Err(err))
		}
	}

	chat, err = chats.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}

	s.notifyNewMessage(chat, msg)

	return chat, nil
}

// MarkMessagesRead flips the reader's read flags up to and including
// the given message and zeroes the reader's unread counter. A failed
// counter reset is an error even after a successful flag update, so
// the caller can retry and reconverge.
func (s *Service) MarkMessagesRead(ctx context.Context, tenant *entity.TenantContext, chatID string, reader entity.SenderType, upToID string) (int64, error) {
	chats := s.repos.Chats(tenant.OrgID, string(tenant.EnvType))
	messages := s.repos.Messages(tenant.OrgID, string(tenant.EnvType))

	chat, err := chats.GetByID(ctx, chatID)
	if err != nil {
		return 0, err
	}
	if chat == nil {
		return 0, apperr.NotFound("chat", chatID)
	}

	modified, err := messages.MarkRead(ctx, chatID, reader, upToID)
	if err != nil {
		return 0, err
	}

	if err := chats.ResetUnreadCount(ctx, chatID, reader); err != nil {
		return modified, err
	}

	s.notifyMessagesRead(chat, reader, upToID)

	return modified, nil
}

// ListMessages pages a chat's history in either direction.
func (s *Service) ListMessages(ctx context.Context, tenant *entity.TenantContext, chatID string, limit int, cur string, before bool) ([]entity.Message, string, bool, error) {
	chats := s.repos.Chats(tenant.OrgID, string(tenant.EnvType))

	chat, err := chats.GetByID(ctx, chatID)
	if err != nil {
		return nil, "", false, err
	}
	if chat == nil {
		return nil, "", false, apperr.NotFound("chat", chatID)
	}

	if limit <= 0 {
		limit = s.limits.DefaultMsgPage
	}
	return s.repos.Messages(tenant.OrgID, string(tenant.EnvType)).List(ctx, chatID, limit, cur, before)
}

// UpdateChat rewrites tags and metadata.
func (s *Service) UpdateChat(ctx context.Context, tenant *entity.TenantContext, chatID string, tags []string, metadata map[string]string) (*entity.Chat, error) {
	chats := s.repos.Chats(tenant.OrgID, string(tenant.EnvType))

	chat, err := chats.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if chat == nil {
		return nil, apperr.NotFound("chat", chatID)
	}

	if tags != nil {
		chat.Tags = tags
	}
	if metadata != nil {
		chat.Metadata = metadata
	}
	if err := chats.Update(ctx, chat); err != nil {
		return nil, err
	}
	return chats.GetByID(ctx, chatID)
}

// Statistics returns the tenant's chat counts and mean latencies.
func (s *Service) Statistics(ctx context.Context, tenant *entity.TenantContext) (*entity.ChatStatistics, error) {
	return s.repos.Chats(tenant.OrgID, string(tenant.EnvType)).Statistics(ctx)
}

func (s *Service) notifyNewChat(chat *entity.Chat) {
	if s.notifier != nil && chat != nil {
		s.notifier.NewChat(chat)
	}
}

func (s *Service) notifyNewMessage(chat *entity.Chat, msg *entity.Message) {
	if s.notifier != nil && chat != nil {
		s.notifier.NewMessage(chat, msg)
	}
}

func (s *Service) notifyChatAssigned(chat *entity.Chat, agentID string) {
	if s.notifier != nil && chat != nil {
		s.notifier.ChatAssigned(chat, agentID)
	}
}

func (s *Service) notifyMessagesRead(chat *entity.Chat, reader entity.SenderType, upToID string) {
	if s.notifier != nil && chat != nil {
		s.notifier.MessagesRead(chat, reader, upToID)
	}
}

// markSenderRead flags the message as read for the party that wrote
// it. System messages need no reading by anyone.
func markSenderRead(msg *entity.Message) {
	switch msg.SenderType {
	case entity.SenderUser:
		msg.ReadByUser = true
	case entity.SenderAgent, entity.SenderBot:
		msg.ReadByAgent = true
	case entity.SenderSystem:
		msg.ReadByUser = true
		msg.ReadByAgent = true
	}
}

func truncate(text string, max int) string {
	if max <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max])
}
