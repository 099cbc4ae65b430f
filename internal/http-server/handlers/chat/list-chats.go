package chat

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/render"

	"LiveDesk/entity"
	"LiveDesk/internal/lib/api/cont"
	"LiveDesk/internal/lib/api/response"
	"LiveDesk/internal/lib/sl"
)

type chatPage struct {
	Chats      []entity.Chat `json:"chats"`
	NextCursor string        `json:"next_cursor,omitempty"`
	HasMore    bool          `json:"has_more"`
}

func ListChats(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		limit, _ := strconv.Atoi(query.Get("limit"))

		filter := entity.ChatFilter{
			Status:  entity.ChatStatus(query.Get("status")),
			AgentID: query.Get("agent_id"),
			UserID:  query.Get("user_id"),
		}

		chats, next, hasMore, err := handler.ListChats(r.Context(), cont.Tenant(r.Context()), filter, limit, query.Get("cursor"))
		if err != nil {
			log.Error("list chats", sl.Err(err))
			response.RenderError(w, r, err)
			return
		}
		if chats == nil {
			chats = []entity.Chat{}
		}

		render.JSON(w, r, response.Ok(chatPage{
			Chats:      chats,
			NextCursor: next,
			HasMore:    hasMore,
		}))
	}
}
