package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"LiveDesk/entity"
	"LiveDesk/internal/lib/sl"
	"LiveDesk/internal/service/chat"
)

type Namespace string

const (
	NamespaceUser  Namespace = "user"
	NamespaceAgent Namespace = "agent"
)

// Room names. A connection can sit in any number of rooms; events are
// fanned out per room, never to the whole hub.
func ChatRoom(chatID string) string { return "chat:" + chatID }
func OrgRoom(orgID string) string   { return "org:" + orgID }
func AgentRoom(agentID string) string {
	return "agent:" + agentID
}

// Event is the wire envelope for everything the hub pushes.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Core is the slice of the chat service the realtime commands drive.
type Core interface {
	GetChat(ctx context.Context, tenant *entity.TenantContext, chatID string) (*entity.Chat, error)
	SendMessage(ctx context.Context, tenant *entity.TenantContext, p chat.SendMessageParams) (*entity.Message, error)
	MarkMessagesRead(ctx context.Context, tenant *entity.TenantContext, chatID string, reader entity.SenderType, upToID string) (int64, error)
	AssignAgent(ctx context.Context, tenant *entity.TenantContext, chatID, agentID string) (*entity.Chat, error)
}

// Presence persists agent availability.
type Presence interface {
	Set(ctx context.Context, orgID, agentID string, status entity.AgentStatus) error
	Remove(ctx context.Context, orgID, agentID string) error
}

// Hub owns every live connection and the room memberships. All maps
// are guarded by mu; fan-out happens under a read lock and only ever
// touches the clients' send channels.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool
	rooms   map[string]map[*Client]bool

	core     Core
	presence Presence
	log      *slog.Logger
}

func NewHub(logger *slog.Logger, core Core, presence Presence) *Hub {
	return &Hub{
		clients:  make(map[*Client]bool),
		rooms:    make(map[string]map[*Client]bool),
		core:     core,
		presence: presence,
		log:      logger.With(sl.Module("ws-hub")),
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()

	if c.namespace == NamespaceAgent {
		h.Join(c, OrgRoom(c.agent.OrgID))
		h.Join(c, AgentRoom(c.agent.AgentID))
		h.setAgentStatus(c, entity.AgentOnline)
	}
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	for room := range c.rooms {
		h.leaveLocked(c, room)
	}
	close(c.send)
	h.mu.Unlock()

	if c.namespace == NamespaceAgent {
		h.setAgentStatus(c, entity.AgentOffline)
	}
}

// Join adds the connection to a room, creating it on first entry.
func (h *Hub) Join(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]bool)
		h.rooms[room] = members
	}
	members[c] = true
	c.rooms[room] = true
}

// Leave removes the connection from a room; empty rooms are dropped.
func (h *Hub) Leave(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(c, room)
}

func (h *Hub) leaveLocked(c *Client, room string) {
	if members, ok := h.rooms[room]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	delete(c.rooms, room)
}

// Broadcast sends the event to every connection in the room.
func (h *Hub) Broadcast(room string, event *Event) {
	h.broadcast(room, event, nil)
}

// BroadcastExcept sends the event to every connection in the room but
// the originating one.
func (h *Hub) BroadcastExcept(room string, event *Event, except *Client) {
	h.broadcast(room, event, func(c *Client) bool { return c != except })
}

func (h *Hub) broadcast(room string, event *Event, keep func(*Client) bool) {
	data, err := json.Marshal(event)
	if err != nil {
		h.log.Error("marshal event", sl.Err(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[room] {
		if keep != nil && !keep(c) {
			continue
		}
		select {
		case c.send <- data:
		default:
			// Slow consumer; the write pump will notice the closed
			// connection and unregister it.
		}
	}
}

func (h *Hub) setAgentStatus(c *Client, status entity.AgentStatus) {
	ctx := context.Background()
	if status == entity.AgentOffline {
		if err := h.presence.Remove(ctx, c.agent.OrgID, c.agent.AgentID); err != nil {
			h.log.Warn("clear agent presence", sl.Err(err))
		}
	} else {
		if err := h.presence.Set(ctx, c.agent.OrgID, c.agent.AgentID, status); err != nil {
			h.log.Warn("persist agent presence", sl.Err(err))
		}
	}

	h.Broadcast(OrgRoom(c.agent.OrgID), &Event{
		Type: "agent_status_changed",
		Data: map[string]interface{}{
			"agent_id": c.agent.AgentID,
			"status":   status,
		},
	})
}

// The hub doubles as the chat service's notifier, so chat activity
// reaches realtime sessions no matter which transport produced it.

func (h *Hub) NewChat(c *entity.Chat) {
	h.Broadcast(OrgRoom(c.OrgID), &Event{Type: "new_chat", Data: c})
}

func (h *Hub) NewMessage(c *entity.Chat, msg *entity.Message) {
	h.Broadcast(ChatRoom(c.ID.Hex()), &Event{Type: "new_message", Data: msg})
}

func (h *Hub) ChatAssigned(c *entity.Chat, agentID string) {
	h.Broadcast(ChatRoom(c.ID.Hex()), &Event{
		Type: "chat_assigned",
		Data: map[string]interface{}{"chat_id": c.ID.Hex(), "agent_id": agentID},
	})
	h.Broadcast(AgentRoom(agentID), &Event{Type: "agent_assigned", Data: c})
	h.Broadcast(OrgRoom(c.OrgID), &Event{
		Type: "chat_assigned",
		Data: map[string]interface{}{"chat_id": c.ID.Hex(), "agent_id": agentID},
	})
}

// MessagesRead notifies the opposite side of the conversation; the
// reading side initiated the action and needs no echo.
func (h *Hub) MessagesRead(c *entity.Chat, reader entity.SenderType, upToID string) {
	readerNS := NamespaceUser
	if reader == entity.SenderAgent {
		readerNS = NamespaceAgent
	}
	event := &Event{
		Type: "message_read",
		Data: map[string]interface{}{
			"chat_id":  c.ID.Hex(),
			"reader":   reader,
			"up_to_id": upToID,
		},
	}
	h.broadcast(ChatRoom(c.ID.Hex()), event, func(cl *Client) bool {
		return cl.namespace != readerNS
	})
}
