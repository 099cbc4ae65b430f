package ratelimit

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"LiveDesk/internal/lib/api/cont"
	"LiveDesk/internal/lib/api/response"
	"LiveDesk/internal/lib/apperr"
	"LiveDesk/internal/lib/sl"
)

// Limiter counts requests per key within a window.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, int, error)
}

// New limits widget traffic per tenant. A limiter failure admits the
// request: availability wins over strict throttling when Redis is
// down.
func New(log *slog.Logger, limiter Limiter, limit int, window time.Duration) func(next http.Handler) http.Handler {
	logger := log.With(sl.Module("middleware.ratelimit"))

	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			tenant := cont.Tenant(r.Context())
			if tenant == nil {
				next.ServeHTTP(w, r)
				return
			}

			key := tenant.OrgID + ":" + string(tenant.EnvType)
			allowed, remaining, err := limiter.Allow(r.Context(), key, limit, window)
			if err != nil {
				logger.Warn("rate limiter unavailable, admitting request", sl.Err(err))
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

			if !allowed {
				response.RenderError(w, r, apperr.ErrRateLimit)
				return
			}
			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(fn)
	}
}
