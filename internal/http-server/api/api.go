package api

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"LiveDesk/internal/config"
	authhandler "LiveDesk/internal/http-server/handlers/auth"
	chathandler "LiveDesk/internal/http-server/handlers/chat"
	"LiveDesk/internal/http-server/handlers/errors"
	userhandler "LiveDesk/internal/http-server/handlers/user"
	"LiveDesk/internal/http-server/middleware/authenticate"
	"LiveDesk/internal/http-server/middleware/ratelimit"
	"LiveDesk/internal/lib/sl"
	"LiveDesk/internal/ws"
)

type Server struct {
	conf       *config.Config
	httpServer *http.Server
	log        *slog.Logger
}

// AuthCore is the single credential surface: it resolves middleware
// credentials and serves the login endpoints.
type AuthCore interface {
	authenticate.Auth
	authhandler.Core
}

type Deps struct {
	Auth    AuthCore
	Chats   chathandler.Core
	Users   userhandler.Core
	Hub     *ws.Hub
	Limiter ratelimit.Limiter
}

// New builds the router and serves it. The call blocks for the
// lifetime of the server.
func New(conf *config.Config, log *slog.Logger, deps Deps) error {

	server := Server{
		conf: conf,
		log:  log.With(sl.Module("api.server")),
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)

	router.NotFound(errors.NotFound(log))
	router.MethodNotAllowed(errors.NotAllowed(log))

	router.Route("/api/v1", func(v1 chi.Router) {
		v1.Use(middleware.Timeout(30 * time.Second))
		v1.Use(render.SetContentType(render.ContentTypeJSON))

		v1.Route("/auth", func(r chi.Router) {
			r.Post("/login", authhandler.Login(log, deps.Auth))
			r.Post("/refresh", authhandler.Refresh(log, deps.Auth))
			r.Post("/logout", authhandler.Logout(log, deps.Auth))
		})

		// Widget surface: browser clients holding a plugin key.
		v1.Route("/widget", func(r chi.Router) {
			r.Use(authenticate.Widget(log, deps.Auth))
			r.Use(ratelimit.New(log, deps.Limiter,
				conf.Auth.RateLimit.Requests, time.Duration(conf.Auth.RateLimit.WindowSeconds)*time.Second))

			r.Post("/chats", chathandler.CreateChat(log, deps.Chats, deps.Users))
			r.Get("/chats/{id}", chathandler.GetChat(log, deps.Chats))
			r.Get("/chats/{id}/messages", chathandler.ListMessages(log, deps.Chats))
			r.Post("/chats/{id}/messages", chathandler.SendMessage(log, deps.Chats))
			r.Post("/chats/{id}/read", chathandler.MarkRead(log, deps.Chats))
			r.Post("/chats/{id}/close", chathandler.CloseChat(log, deps.Chats))

			r.Post("/users/identify", userhandler.Identify(log, deps.Users))
			r.Post("/users/temp", userhandler.CreateTemp(log, deps.Users))
			r.Get("/users/temp/{session_id}", userhandler.GetTemp(log, deps.Users))
			r.Patch("/users/temp/{session_id}", userhandler.UpdateTemp(log, deps.Users))
			r.Post("/users/temp/{session_id}/convert", userhandler.Convert(log, deps.Users))
		})

		// Backend surface: server-to-server calls with api key + secret.
		v1.Route("/backend", func(r chi.Router) {
			r.Use(authenticate.Backend(log, deps.Auth))

			r.Post("/users", userhandler.Create(log, deps.Users))
			r.Get("/users", userhandler.List(log, deps.Users))
			r.Get("/users/{member_id}", userhandler.Get(log, deps.Users))
			r.Patch("/users/{member_id}", userhandler.Update(log, deps.Users))
			r.Delete("/users/{member_id}", userhandler.Delete(log, deps.Users))
		})

		// Dashboard surface: agents with a bearer token.
		v1.Route("/dashboard", func(r chi.Router) {
			r.Use(authenticate.Agent(log, deps.Auth))

			r.Get("/chats", chathandler.ListChats(log, deps.Chats))
			r.Get("/chats/statistics", chathandler.Statistics(log, deps.Chats))
			r.Get("/chats/{id}", chathandler.GetChat(log, deps.Chats))
			r.Patch("/chats/{id}", chathandler.UpdateChat(log, deps.Chats))
			r.Get("/chats/{id}/messages", chathandler.ListMessages(log, deps.Chats))
			r.Post("/chats/{id}/messages", chathandler.SendMessage(log, deps.Chats))
			r.Post("/chats/{id}/read", chathandler.MarkRead(log, deps.Chats))
			r.Post("/chats/{id}/assign", chathandler.AssignChat(log, deps.Chats))
			r.Post("/chats/{id}/resolve", chathandler.ResolveChat(log, deps.Chats))
			r.Post("/chats/{id}/close", chathandler.CloseChat(log, deps.Chats))

			r.Get("/users", userhandler.List(log, deps.Users))
			r.Get("/users/{member_id}", userhandler.Get(log, deps.Users))
		})
	})

	// Websocket endpoints upgrade the connection themselves and must
	// stay outside the request timeout.
	router.Get("/ws/chat", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeUserWs(deps.Hub, deps.Auth, log, w, r)
	})
	router.Get("/ws/agent", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeAgentWs(deps.Hub, deps.Auth, log, w, r)
	})

	httpLog := slog.NewLogLogger(log.Handler(), slog.LevelError)
	server.httpServer = &http.Server{
		Handler:  router,
		ErrorLog: httpLog,
	}

	serverAddress := fmt.Sprintf("%s:%s", conf.Listen.BindIP, conf.Listen.Port)
	listener, err := net.Listen("tcp", serverAddress)
	if err != nil {
		return err
	}

	server.log.Info("starting api server", slog.String("address", serverAddress))

	return server.httpServer.Serve(listener)
}
