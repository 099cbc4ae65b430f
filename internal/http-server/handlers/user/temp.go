package user

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"LiveDesk/entity"
	"LiveDesk/internal/lib/api/cont"
	"LiveDesk/internal/lib/api/response"
	"LiveDesk/internal/lib/apperr"
	"LiveDesk/internal/lib/sl"
)

type TempUserRequest struct {
	Profile entity.UserProfile `json:"profile"`
}

// CreateTemp starts an anonymous visitor session. The returned
// session_id is the widget's handle until the visitor identifies.
func CreateTemp(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TempUserRequest
		_ = render.DecodeJSON(r.Body, &req)

		temp, err := handler.CreateTempUser(r.Context(), cont.Tenant(r.Context()), req.Profile)
		if err != nil {
			log.Error("create temp user", sl.Err(err))
			response.RenderError(w, r, err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, response.Ok(temp))
	}
}

func GetTemp(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		temp, err := handler.GetTempUser(r.Context(), cont.Tenant(r.Context()), chi.URLParam(r, "session_id"))
		if err != nil {
			log.Error("get temp user", sl.Err(err))
			response.RenderError(w, r, err)
			return
		}

		render.JSON(w, r, response.Ok(temp))
	}
}

func UpdateTemp(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TempUserRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			response.RenderError(w, r, apperr.Validation("invalid request body"))
			return
		}

		temp, err := handler.UpdateTempUser(r.Context(), cont.Tenant(r.Context()), chi.URLParam(r, "session_id"), req.Profile)
		if err != nil {
			log.Error("update temp user", sl.Err(err))
			response.RenderError(w, r, err)
			return
		}

		render.JSON(w, r, response.Ok(temp))
	}
}
