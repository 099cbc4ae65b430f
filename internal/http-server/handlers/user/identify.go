package user

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"LiveDesk/internal/lib/api/cont"
	"LiveDesk/internal/lib/api/response"
	"LiveDesk/internal/lib/apperr"
	"LiveDesk/internal/lib/sl"
	"LiveDesk/internal/service/user"
)

// Identify is the widget's idempotent entry point: it returns the
// existing user for the member_id or registers one on first sight.
func Identify(log *slog.Logger, handler Core) http.HandlerFunc {
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

		found, err := handler.GetOrCreate(r.Context(), cont.Tenant(r.Context()), user.CreateUserParams{
			MemberID:     req.MemberID,
			Profile:      req.Profile,
			CustomFields: req.CustomFields,
			Tags:         req.Tags,
		})
		if err != nil {
			log.Error("identify user", sl.Err(err))
			response.RenderError(w, r, err)
			return
		}

		render.JSON(w, r, response.Ok(found))
	}
}
