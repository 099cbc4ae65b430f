package chat

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"LiveDesk/entity"
	"LiveDesk/internal/lib/api/cont"
	"LiveDesk/internal/lib/api/response"
	"LiveDesk/internal/lib/sl"
)

type MarkReadRequest struct {
	UpToID string `json:"up_to_id"`
}

type markReadResponse struct {
	Modified int64 `json:"modified"`
}

// MarkRead flags the other party's messages as read. The reading side
// is the authenticated one: an agent token reads as the agent, a
// widget request reads as the user.
func MarkRead(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req MarkReadRequest
		// The body is optional: absent up_to_id marks everything.
		_ = render.DecodeJSON(r.Body, &req)

		reader := entity.SenderUser
		if cont.Agent(r.Context()) != nil {
			reader = entity.SenderAgent
		}

		modified, err := handler.MarkMessagesRead(r.Context(), cont.Tenant(r.Context()),
			chi.URLParam(r, "id"), reader, req.UpToID)
		if err != nil {
			log.Error("mark messages read", sl.Err(err))
			response.RenderError(w, r, err)
			return
		}

		render.JSON(w, r, response.Ok(markReadResponse{Modified: modified}))
	}
}
