package ws

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"LiveDesk/entity"
	"LiveDesk/internal/lib/sl"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 16384
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client is one live connection. Identity is fixed at upgrade time:
// user connections carry a tenant scope and a user or session id,
// agent connections carry the resolved agent identity.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	namespace Namespace
	id        string
	memberID  string
	tenant    *entity.TenantContext
	agent     *entity.AgentContext

	rooms map[string]bool
}

// readPump feeds incoming frames into the command dispatcher and
// handles the pong keepalive.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
		c.hub.handleCommand(c, raw)
	}
}

// writePump drains the send channel into the connection and keeps the
// ping ticker running.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Authenticator resolves the credentials presented at upgrade time.
type Authenticator interface {
	ResolvePluginKey(ctx context.Context, pluginKey string) (*entity.TenantContext, error)
	ResolveAgentToken(ctx context.Context, token string) (*entity.AgentContext, error)
}

// ServeUserWs upgrades a widget connection. Auth comes from query
// parameters: plugin_key plus user_id or session_id, optionally
// member_id. A failed resolution rejects the upgrade.
func ServeUserWs(hub *Hub, auth Authenticator, log *slog.Logger, w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	tenant, err := auth.ResolvePluginKey(r.Context(), query.Get("plugin_key"))
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	userID := query.Get("user_id")
	if userID == "" {
		userID = query.Get("session_id")
	}
	if userID == "" {
		http.Error(w, "user_id or session_id is required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("websocket upgrade failed", sl.Err(err))
		return
	}

	client := &Client{
		hub:       hub,
		conn:      conn,
		send:      make(chan []byte, 256),
		namespace: NamespaceUser,
		id:        userID,
		memberID:  query.Get("member_id"),
		tenant:    tenant,
		rooms:     make(map[string]bool),
	}

	hub.register(client)

	go client.writePump()
	go client.readPump()
}

// ServeAgentWs upgrades a dashboard connection authenticated by a
// bearer token (query parameter or Authorization header). The agent
// joins the org and personal rooms and goes online immediately.
func ServeAgentWs(hub *Hub, auth Authenticator, log *slog.Logger, w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	}

	agent, err := auth.ResolveAgentToken(r.Context(), token)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	envType := entity.EnvType(r.URL.Query().Get("env_type"))
	if envType == "" {
		envType = entity.EnvProduction
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("websocket upgrade failed", sl.Err(err))
		return
	}

	client := &Client{
		hub:       hub,
		conn:      conn,
		send:      make(chan []byte, 256),
		namespace: NamespaceAgent,
		id:        agent.AgentID,
		tenant:    &entity.TenantContext{OrgID: agent.OrgID, EnvType: envType},
		agent:     agent,
		rooms:     make(map[string]bool),
	}

	hub.register(client)

	go client.writePump()
	go client.readPump()
}
