package ws

import (
	"context"
	"encoding/json"

	"LiveDesk/entity"
	"LiveDesk/internal/lib/sl"
	"LiveDesk/internal/service/chat"
)

// command is the wire envelope for everything a client sends.
type command struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func (h *Hub) handleCommand(c *Client, raw []byte) {
	var cmd command
	if err := json.Unmarshal(raw, &cmd); err != nil {
		h.sendError(c, "", "malformed command")
		return
	}

	switch cmd.Type {
	case "join_chat":
		h.handleJoinChat(c, cmd)
	case "leave_chat":
		h.handleLeaveChat(c, cmd)
	case "send_message":
		h.handleSendMessage(c, cmd)
	case "typing_start":
		h.handleTyping(c, cmd, true)
	case "typing_stop":
		h.handleTyping(c, cmd, false)
	case "mark_read":
		h.handleMarkRead(c, cmd)
	case "status_change":
		h.handleStatusChange(c, cmd)
	case "assign_chat":
		h.handleAssignChat(c, cmd)
	default:
		h.sendError(c, cmd.Type, "unknown command")
	}
}

func (h *Hub) handleJoinChat(c *Client, cmd command) {
	var data struct {
		ChatID string `json:"chat_id"`
	}
	if err := json.Unmarshal(cmd.Data, &data); err != nil || data.ChatID == "" {
		h.sendError(c, cmd.Type, "chat_id is required")
		return
	}

	chatDoc, err := h.core.GetChat(context.Background(), c.tenant, data.ChatID)
	if err != nil {
		h.sendError(c, cmd.Type, err.Error())
		return
	}
	if c.namespace == NamespaceUser && !ownsChat(c, chatDoc) {
		h.sendError(c, cmd.Type, "chat belongs to another user")
		return
	}

	h.Join(c, ChatRoom(data.ChatID))
	h.sendEvent(c, &Event{Type: "joined", Data: map[string]string{"chat_id": data.ChatID}})
}

func (h *Hub) handleLeaveChat(c *Client, cmd command) {
	var data struct {
		ChatID string `json:"chat_id"`
	}
	if err := json.Unmarshal(cmd.Data, &data); err != nil || data.ChatID == "" {
		h.sendError(c, cmd.Type, "chat_id is required")
		return
	}
	h.Leave(c, ChatRoom(data.ChatID))
}

func (h *Hub) handleSendMessage(c *Client, cmd command) {
	var data struct {
		ChatID      string              `json:"chat_id"`
		Content     string              `json:"content"`
		MessageType entity.MessageType  `json:"message_type"`
		Attachments []entity.Attachment `json:"attachments"`
	}
	if err := json.Unmarshal(cmd.Data, &data); err != nil || data.ChatID == "" {
		h.sendError(c, cmd.Type, "chat_id is required")
		return
	}

	senderType := entity.SenderUser
	if c.namespace == NamespaceAgent {
		senderType = entity.SenderAgent
	}

	_, err := h.core.SendMessage(context.Background(), c.tenant, chat.SendMessageParams{
		ChatID:      data.ChatID,
		SenderType:  senderType,
		SenderID:    c.id,
		Content:     data.Content,
		MessageType: data.MessageType,
		Attachments: data.Attachments,
	})
	if err != nil {
		h.sendError(c, cmd.Type, err.Error())
	}
}

func (h *Hub) handleTyping(c *Client, cmd command, typing bool) {
	var data struct {
		ChatID string `json:"chat_id"`
	}
	if err := json.Unmarshal(cmd.Data, &data); err != nil || data.ChatID == "" {
		h.sendError(c, cmd.Type, "chat_id is required")
		return
	}

	senderType := entity.SenderUser
	if c.namespace == NamespaceAgent {
		senderType = entity.SenderAgent
	}

	h.BroadcastExcept(ChatRoom(data.ChatID), &Event{
		Type: "typing",
		Data: map[string]interface{}{
			"chat_id":     data.ChatID,
			"sender_type": senderType,
			"sender_id":   c.id,
			"is_typing":   typing,
		},
	}, c)
}

func (h *Hub) handleMarkRead(c *Client, cmd command) {
	var data struct {
		ChatID string `json:"chat_id"`
		UpToID string `json:"up_to_id"`
	}
	if err := json.Unmarshal(cmd.Data, &data); err != nil || data.ChatID == "" {
		h.sendError(c, cmd.Type, "chat_id is required")
		return
	}

	reader := entity.SenderUser
	if c.namespace == NamespaceAgent {
		reader = entity.SenderAgent
	}

	if _, err := h.core.MarkMessagesRead(context.Background(), c.tenant, data.ChatID, reader, data.UpToID); err != nil {
		h.sendError(c, cmd.Type, err.Error())
	}
}

func (h *Hub) handleStatusChange(c *Client, cmd command) {
	if c.namespace != NamespaceAgent {
		h.sendError(c, cmd.Type, "agents only")
		return
	}

	var data struct {
		Status entity.AgentStatus `json:"status"`
	}
	if err := json.Unmarshal(cmd.Data, &data); err != nil || !entity.ValidAgentStatus(data.Status) {
		h.sendError(c, cmd.Type, "status must be one of online, away, busy, offline")
		return
	}

	h.setAgentStatus(c, data.Status)
}

func (h *Hub) handleAssignChat(c *Client, cmd command) {
	if c.namespace != NamespaceAgent {
		h.sendError(c, cmd.Type, "agents only")
		return
	}

	var data struct {
		ChatID  string `json:"chat_id"`
		AgentID string `json:"agent_id"`
	}
	if err := json.Unmarshal(cmd.Data, &data); err != nil || data.ChatID == "" {
		h.sendError(c, cmd.Type, "chat_id is required")
		return
	}
	if data.AgentID == "" {
		data.AgentID = c.agent.AgentID
	}

	if _, err := h.core.AssignAgent(context.Background(), c.tenant, data.ChatID, data.AgentID); err != nil {
		h.sendError(c, cmd.Type, err.Error())
	}
}

func ownsChat(c *Client, chatDoc *entity.Chat) bool {
	if chatDoc.UserID == c.id {
		return true
	}
	return c.memberID != "" && chatDoc.MemberID == c.memberID
}

func (h *Hub) sendEvent(c *Client, event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.log.Error("marshal event", sl.Err(err))
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func (h *Hub) sendError(c *Client, cmdType, msg string) {
	h.sendEvent(c, &Event{
		Type: "error",
		Data: map[string]string{"command": cmdType, "error": msg},
	})
}
