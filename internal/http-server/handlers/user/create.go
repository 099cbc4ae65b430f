package user

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"LiveDesk/entity"
	"LiveDesk/internal/lib/api/cont"
	"LiveDesk/internal/lib/api/response"
	"LiveDesk/internal/lib/apperr"
	"LiveDesk/internal/lib/sl"
	"LiveDesk/internal/service/user"
)

var validate = validator.New()

type CreateUserRequest struct {
	MemberID     string             `json:"member_id" validate:"required"`
	Profile      entity.UserProfile `json:"profile"`
	CustomFields map[string]string  `json:"custom_fields"`
	Tags         []string           `json:"tags"`
}

func Create(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateUserRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			response.RenderError(w, r, apperr.Validation("invalid request body"))
			return
		}
		if err := validate.Struct(req); err != nil {
			response.RenderError(w, r, apperr.Validation("%s", err.Error()))
			return
		}

		created, err := handler.CreateUser(r.Context(), cont.Tenant(r.Context()), user.CreateUserParams{
			MemberID:     req.MemberID,
			Profile:      req.Profile,
			CustomFields: req.CustomFields,
			Tags:         req.Tags,
		})
		if err != nil {
			log.Error("create user", sl.Err(err))
			response.RenderError(w, r, err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, response.Ok(created))
	}
}
