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

// CloseChat serves both surfaces; the closing party is the
// authenticated one.
func CloseChat(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		closer := entity.SenderUser
		if cont.Agent(r.Context()) != nil {
			closer = entity.SenderAgent
		}

		chat, err := handler.CloseChat(r.Context(), cont.Tenant(r.Context()), chi.URLParam(r, "id"), closer)
		if err != nil {
			log.Error("close chat", sl.Err(err))
			response.RenderError(w, r, err)
			return
		}

		render.JSON(w, r, response.Ok(chat))
	}
}
