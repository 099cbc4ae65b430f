package response

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"LiveDesk/internal/lib/apperr"
)

// RenderError writes err as an enveloped JSON reply with the status
// code its kind maps to. Unclassified errors become an opaque 500 so
// infrastructure details never leak to clients.
func RenderError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, Error("internal error"))
		return
	}

	render.Status(r, statusOf(appErr.Kind))
	if appErr.Code != "" {
		render.JSON(w, r, ErrorCode(appErr.Code, appErr.Message))
		return
	}
	render.JSON(w, r, ErrorCode(string(appErr.Kind), appErr.Message))
}

func statusOf(kind apperr.Kind) int {
	switch kind {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindAuthentication:
		return http.StatusUnauthorized
	case apperr.KindAuthorization:
		return http.StatusForbidden
	case apperr.KindRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
