package user

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/render"

	"LiveDesk/entity"
	"LiveDesk/internal/lib/api/cont"
	"LiveDesk/internal/lib/api/response"
	"LiveDesk/internal/lib/sl"
)

type userPage struct {
	Users []entity.User `json:"users"`
	Total int64         `json:"total"`
}

func List(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		skip, _ := strconv.Atoi(query.Get("skip"))
		limit, _ := strconv.Atoi(query.Get("limit"))

		var tags []string
		if raw := query.Get("tags"); raw != "" {
			tags = strings.Split(raw, ",")
		}

		users, total, err := handler.ListUsers(r.Context(), cont.Tenant(r.Context()),
			skip, limit, entity.UserStatus(query.Get("status")), tags)
		if err != nil {
			log.Error("list users", sl.Err(err))
			response.RenderError(w, r, err)
			return
		}
		if users == nil {
			users = []entity.User{}
		}

		render.JSON(w, r, response.Ok(userPage{Users: users, Total: total}))
	}
}
