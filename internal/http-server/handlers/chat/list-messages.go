package chat

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"LiveDesk/entity"
	"LiveDesk/internal/lib/api/cont"
	"LiveDesk/internal/lib/api/response"
	"LiveDesk/internal/lib/sl"
)

type messagePage struct {
	Messages   []entity.Message `json:"messages"`
	NextCursor string           `json:"next_cursor,omitempty"`
	HasMore    bool             `json:"has_more"`
}

// ListMessages pages chat history. direction=before walks towards
// older messages (the widget's scroll-up), direction=after replays
// forward from a cursor.
func ListMessages(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		limit, _ := strconv.Atoi(query.Get("limit"))
		before := query.Get("direction") != "after"

		messages, next, hasMore, err := handler.ListMessages(r.Context(), cont.Tenant(r.Context()),
			chi.URLParam(r, "id"), limit, query.Get("cursor"), before)
		if err != nil {
			log.Error("list messages", sl.Err(err))
			response.RenderError(w, r, err)
			return
		}
		if messages == nil {
			messages = []entity.Message{}
		}

		render.JSON(w, r, response.Ok(messagePage{
			Messages:   messages,
			NextCursor: next,
			HasMore:    hasMore,
		}))
	}
}
