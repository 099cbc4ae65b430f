package chat

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"LiveDesk/internal/lib/api/cont"
	"LiveDesk/internal/lib/api/response"
	"LiveDesk/internal/lib/sl"
)

func Statistics(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := handler.Statistics(r.Context(), cont.Tenant(r.Context()))
		if err != nil {
			log.Error("chat statistics", sl.Err(err))
			response.RenderError(w, r, err)
			return
		}

		render.JSON(w, r, response.Ok(stats))
	}
}
