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
	"LiveDesk/internal/service/user"
)

type UpdateUserRequest struct {
	Profile      *entity.UserProfile `json:"profile"`
	CustomFields map[string]string   `json:"custom_fields"`
	Tags         []string            `json:"tags"`
	Status       entity.UserStatus   `json:"status"`
}

func Update(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req UpdateUserRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			response.RenderError(w, r, apperr.Validation("invalid request body"))
			return
		}
		if req.Profile != nil {
			if err := validate.Struct(req.Profile); err != nil {
				response.RenderError(w, r, apperr.Validation("%s", err.Error()))
				return
			}
		}

		updated, err := handler.UpdateUser(r.Context(), cont.Tenant(r.Context()), chi.URLParam(r, "member_id"), user.UpdateUserParams{
			Profile:      req.Profile,
			CustomFields: req.CustomFields,
			Tags:         req.Tags,
			Status:       req.Status,
		})
		if err != nil {
			log.Error("update user", sl.Err(err))
			response.RenderError(w, r, err)
			return
		}

		render.JSON(w, r, response.Ok(updated))
	}
}
