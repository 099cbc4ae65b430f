package authenticate

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"LiveDesk/entity"
	"LiveDesk/internal/lib/api/cont"
	"LiveDesk/internal/lib/api/response"
	"LiveDesk/internal/lib/apperr"
	"LiveDesk/internal/lib/sl"
)

// Auth resolves the three credential schemes of the platform.
type Auth interface {
	ResolvePluginKey(ctx context.Context, pluginKey string) (*entity.TenantContext, error)
	ResolveAPIKey(ctx context.Context, apiKey, apiSecret string) (*entity.TenantContext, error)
	ResolveAgentToken(ctx context.Context, token string) (*entity.AgentContext, error)
}

// Widget authenticates browser-widget requests by the X-Plugin-Key
// header and puts the tenant scope on the context.
func Widget(log *slog.Logger, auth Auth) func(next http.Handler) http.Handler {
	mod := sl.Module("middleware.authenticate")

	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			logger, ww, done := wrap(log, mod, r, w)
			defer done()

			tenant, err := auth.ResolvePluginKey(r.Context(), r.Header.Get("X-Plugin-Key"))
			if err != nil {
				logger.Warn("plugin key rejected", sl.Err(err))
				response.RenderError(ww, r, err)
				return
			}

			ctx := cont.PutTenant(r.Context(), tenant)
			next.ServeHTTP(ww, r.WithContext(ctx))
		}
		return http.HandlerFunc(fn)
	}
}

// Backend authenticates server-to-server requests by the X-Api-Key and
// X-Api-Secret header pair.
func Backend(log *slog.Logger, auth Auth) func(next http.Handler) http.Handler {
	mod := sl.Module("middleware.authenticate")

	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			logger, ww, done := wrap(log, mod, r, w)
			defer done()

			tenant, err := auth.ResolveAPIKey(r.Context(), r.Header.Get("X-Api-Key"), r.Header.Get("X-Api-Secret"))
			if err != nil {
				logger.Warn("api key rejected", sl.Err(err))
				response.RenderError(ww, r, err)
				return
			}

			ctx := cont.PutTenant(r.Context(), tenant)
			next.ServeHTTP(ww, r.WithContext(ctx))
		}
		return http.HandlerFunc(fn)
	}
}

// Agent authenticates dashboard requests by bearer token. The tenant
// scope is derived from the agent's organization plus the optional
// X-Env-Type header, defaulting to production.
func Agent(log *slog.Logger, auth Auth) func(next http.Handler) http.Handler {
	mod := sl.Module("middleware.authenticate")

	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			logger, ww, done := wrap(log, mod, r, w)
			defer done()

			header := r.Header.Get("Authorization")
			token := strings.TrimPrefix(header, "Bearer ")
			if header == "" || token == header {
				response.RenderError(ww, r, apperr.ErrInvalidToken)
				return
			}

			agent, err := auth.ResolveAgentToken(r.Context(), token)
			if err != nil {
				logger.Warn("agent token rejected", sl.Err(err))
				response.RenderError(ww, r, err)
				return
			}

			envType := entity.EnvType(r.Header.Get("X-Env-Type"))
			if envType == "" {
				envType = entity.EnvProduction
			}

			ctx := cont.PutAgent(r.Context(), agent)
			ctx = cont.PutTenant(ctx, &entity.TenantContext{
				OrgID:   agent.OrgID,
				EnvType: envType,
			})
			next.ServeHTTP(ww, r.WithContext(ctx))
		}
		return http.HandlerFunc(fn)
	}
}

func wrap(log *slog.Logger, mod slog.Attr, r *http.Request, w http.ResponseWriter) (*slog.Logger, middleware.WrapResponseWriter, func()) {
	remote := r.RemoteAddr
	if xRemote := r.Header.Get("X-Forwarded-For"); xRemote != "" {
		remote = xRemote
	}
	logger := log.With(
		mod,
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("remote_addr", remote),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
	ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

	t1 := time.Now()
	done := func() {
		logger.With(
			slog.Int("status", ww.Status()),
			slog.Int("size", ww.BytesWritten()),
			slog.Float64("duration", time.Since(t1).Seconds()),
		).Info("incoming request")
	}
	return logger, ww, done
}
