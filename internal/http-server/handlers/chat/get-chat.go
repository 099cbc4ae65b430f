package chat

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"LiveDesk/internal/lib/api/cont"
	"LiveDesk/internal/lib/api/response"
)

func GetChat(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		found, err := handler.GetChat(r.Context(), cont.Tenant(r.Context()), chi.URLParam(r, "id"))
		if err != nil {
			response.RenderError(w, r, err)
			return
		}
		render.JSON(w, r, response.Ok(found))
	}
}
