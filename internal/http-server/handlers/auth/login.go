package auth

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"LiveDesk/entity"
	"LiveDesk/internal/lib/api/response"
	"LiveDesk/internal/lib/apperr"
	"LiveDesk/internal/lib/sl"
	"LiveDesk/internal/service/auth"
)

var validate = validator.New()

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Agent  *entity.Agent   `json:"agent"`
	Tokens *auth.TokenPair `json:"tokens"`
}

func Login(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			response.RenderError(w, r, apperr.Validation("invalid request body"))
			return
		}
		if err := validate.Struct(req); err != nil {
			response.RenderError(w, r, apperr.Validation("%s", err.Error()))
			return
		}

		agent, tokens, err := handler.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			log.Error("agent login", sl.Err(err))
			response.RenderError(w, r, err)
			return
		}

		render.JSON(w, r, response.Ok(loginResponse{Agent: agent, Tokens: tokens}))
	}
}
