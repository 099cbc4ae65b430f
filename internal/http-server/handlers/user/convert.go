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

type ConvertRequest struct {
	MemberID string             `json:"member_id" validate:"required"`
	Profile  entity.UserProfile `json:"profile"`
}

// Convert upgrades an anonymous session into a durable user keyed by
// member_id.
func Convert(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ConvertRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			response.RenderError(w, r, apperr.Validation("invalid request body"))
			return
		}
		if err := validate.Struct(req); err != nil {
			response.RenderError(w, r, apperr.Validation("%s", err.Error()))
			return
		}

		converted, err := handler.ConvertToPermanent(r.Context(), cont.Tenant(r.Context()),
			chi.URLParam(r, "session_id"), req.MemberID, req.Profile)
		if err != nil {
			log.Error("convert temp user", sl.Err(err))
			response.RenderError(w, r, err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, response.Ok(converted))
	}
}
