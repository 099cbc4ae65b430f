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

type UpdateChatRequest struct {
	Tags     []string          `json:"tags"`
	Metadata map[string]string `json:"metadata"`
}

func UpdateChat(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req UpdateChatRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			response.RenderError(w, r, apperr.Validation("invalid request body"))
			return
		}

		chat, err := handler.UpdateChat(r.Context(), cont.Tenant(r.Context()), chi.URLParam(r, "id"), req.Tags, req.Metadata)
		if err != nil {
			log.Error("update chat", sl.Err(err))
			response.RenderError(w, r, err)
			return
		}

		render.JSON(w, r, response.Ok(chat))
	}
}
