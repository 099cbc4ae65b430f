package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/render"

	"LiveDesk/internal/lib/api/response"
	"LiveDesk/internal/lib/apperr"
	"LiveDesk/internal/lib/sl"
)

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Logout revokes the bearer access token and, when supplied, the
// refresh token too, so neither survives the session.
func Logout(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			response.RenderError(w, r, apperr.ErrInvalidToken)
			return
		}

		if err := handler.Revoke(r.Context(), token); err != nil {
			log.Error("revoke access token", sl.Err(err))
			response.RenderError(w, r, err)
			return
		}

		var req LogoutRequest
		_ = render.DecodeJSON(r.Body, &req)
		if req.RefreshToken != "" {
			if err := handler.Revoke(r.Context(), req.RefreshToken); err != nil {
				log.Warn("revoke refresh token", sl.Err(err))
			}
		}

		render.JSON(w, r, response.Ok(nil))
	}
}
