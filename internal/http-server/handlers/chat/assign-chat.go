package chat

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"LiveDesk/internal/lib/api/cont"
	"LiveDesk/internal/lib/api/response"
	"LiveDesk/internal/lib/apperr"
	"LiveDesk/internal/lib/sl"
)

type AssignChatRequest struct {
	AgentID string `json:"agent_id"`
}

// AssignChat puts a chat on an agent's desk. Without an explicit
// agent_id the caller assigns the chat to themselves.
func AssignChat(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AssignChatRequest
		_ = render.DecodeJSON(r.Body, &req)

		agentID := req.AgentID
		if agentID == "" {
			if agent := cont.Agent(r.Context()); agent != nil {
				agentID = agent.AgentID
			}
		}
		if agentID == "" {
			response.RenderError(w, r, apperr.Validation("agent_id is required"))
			return
		}

		chat, err := handler.AssignAgent(r.Context(), cont.Tenant(r.Context()), chi.URLParam(r, "id"), agentID)
		if err != nil {
			log.Error("assign chat", sl.Err(err))
			response.RenderError(w, r, err)
			return
		}

		render.JSON(w, r, response.Ok(chat))
	}
}
