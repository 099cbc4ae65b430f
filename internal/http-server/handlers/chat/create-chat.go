package chat

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"LiveDesk/entity"
	"LiveDesk/internal/lib/api/cont"
	"LiveDesk/internal/lib/api/response"
	"LiveDesk/internal/lib/apperr"
	"LiveDesk/internal/lib/sl"
	"LiveDesk/internal/service/chat"
)

type CreateChatRequest struct {
	UserID         string            `json:"user_id"`
	SessionID      string            `json:"session_id"`
	MemberID       string            `json:"member_id"`
	InitialMessage string            `json:"message"`
	Tags           []string          `json:"tags"`
	Metadata       map[string]string `json:"metadata"`
}

// SessionTracker records the chat on an anonymous visitor session so
// the history survives a later conversion.
type SessionTracker interface {
	TrackChat(ctx context.Context, tenant *entity.TenantContext, sessionID, chatID string) error
}

func CreateChat(log *slog.Logger, handler Core, sessions SessionTracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateChatRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			response.RenderError(w, r, apperr.Validation("invalid request body"))
			return
		}

		userID := req.UserID
		if userID == "" {
			userID = req.SessionID
		}

		created, err := handler.CreateChat(r.Context(), cont.Tenant(r.Context()), chat.CreateChatParams{
			UserID:         userID,
			MemberID:       req.MemberID,
			InitialMessage: req.InitialMessage,
			Tags:           req.Tags,
			Metadata:       req.Metadata,
		})
		if err != nil {
			log.Error("create chat", sl.Err(err))
			response.RenderError(w, r, err)
			return
		}

		if req.SessionID != "" {
			if err := sessions.TrackChat(r.Context(), cont.Tenant(r.Context()), req.SessionID, created.ID.Hex()); err != nil {
				log.Warn("track chat on session", sl.Err(err))
			}
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, response.Ok(created))
	}
}
