package chat

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"LiveDesk/entity"
	"LiveDesk/internal/lib/api/cont"
	"LiveDesk/internal/lib/api/response"
	"LiveDesk/internal/lib/apperr"
	"LiveDesk/internal/lib/sl"
	"LiveDesk/internal/service/chat"
)

type SendMessageRequest struct {
	SenderID    string              `json:"sender_id"`
	Content     string              `json:"content"`
	MessageType entity.MessageType  `json:"message_type"`
	Attachments []entity.Attachment `json:"attachments"`
}

// SendMessage serves both the widget and the dashboard: the sender
// party is taken from the authenticated identity, never the payload.
func SendMessage(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SendMessageRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			response.RenderError(w, r, apperr.Validation("invalid request body"))
			return
		}

		senderType := entity.SenderUser
		senderID := req.SenderID
		if agent := cont.Agent(r.Context()); agent != nil {
			senderType = entity.SenderAgent
			senderID = agent.AgentID
		}

		msg, err := handler.SendMessage(r.Context(), cont.Tenant(r.Context()), chat.SendMessageParams{
			ChatID:      chi.URLParam(r, "id"),
			SenderType:  senderType,
			SenderID:    senderID,
			Content:     req.Content,
			MessageType: req.MessageType,
			Attachments: req.Attachments,
		})
		if err != nil {
			log.Error("send message", sl.Err(err))
			response.RenderError(w, r, err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, response.Ok(msg))
	}
}
