package chat

import (
	"context"

	"LiveDesk/entity"
	"LiveDesk/internal/service/chat"
)

type Core interface {
	CreateChat(ctx context.Context, tenant *entity.TenantContext, p chat.CreateChatParams) (*entity.Chat, error)
	GetChat(ctx context.Context, tenant *entity.TenantContext, chatID string) (*entity.Chat, error)
	ListChats(ctx context.Context, tenant *entity.TenantContext, filter entity.ChatFilter, limit int, cur string) ([]entity.Chat, string, bool, error)
	SendMessage(ctx context.Context, tenant *entity.TenantContext, p chat.SendMessageParams) (*entity.Message, error)
	ListMessages(ctx context.Context, tenant *entity.TenantContext, chatID string, limit int, cur string, before bool) ([]entity.Message, string, bool, error)
	MarkMessagesRead(ctx context.Context, tenant *entity.TenantContext, chatID string, reader entity.SenderType, upToID string) (int64, error)
	AssignAgent(ctx context.Context, tenant *entity.TenantContext, chatID, agentID string) (*entity.Chat, error)
	ResolveChat(ctx context.Context, tenant *entity.TenantContext, chatID string) (*entity.Chat, error)
	CloseChat(ctx context.Context, tenant *entity.TenantContext, chatID string, closer entity.SenderType) (*entity.Chat, error)
	UpdateChat(ctx context.Context, tenant *entity.TenantContext, chatID string, tags []string, metadata map[string]string) (*entity.Chat, error)
	Statistics(ctx context.Context, tenant *entity.TenantContext) (*entity.ChatStatistics, error)
}
