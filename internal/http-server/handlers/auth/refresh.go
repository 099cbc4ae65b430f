package auth

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"LiveDesk/internal/lib/api/response"
	"LiveDesk/internal/lib/apperr"
	"LiveDesk/internal/lib/sl"
)

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

func Refresh(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RefreshRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			response.RenderError(w, r, apperr.Validation("invalid request body"))
			return
		}
		if req.RefreshToken == "" {
			response.RenderError(w, r, apperr.Validation("refresh_token is required"))
			return
		}

		tokens, err := handler.Refresh(r.Context(), req.RefreshToken)
		if err != nil {
			log.Error("token refresh", sl.Err(err))
			response.RenderError(w, r, err)
			return
		}

		render.JSON(w, r, response.Ok(tokens))
	}
}
