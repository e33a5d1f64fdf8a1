package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/baechuer/real-time-ressys/services/account-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/account-service/internal/infrastructure/redis"
	"github.com/baechuer/real-time-ressys/services/account-service/internal/logger"
)

type RateLimiter interface {
	AllowFixedWindow(ctx context.Context, key string, limit int, window time.Duration) (redis.Decision, error)
}

// FixedWindowConfig names the limited scope and its budget per window.
type FixedWindowConfig struct {
	RouteKey string
	Limit    int
	Window   time.Duration
}

func (c FixedWindowConfig) key(r *http.Request, now time.Time) string {
	bucket := now.Unix() / int64(c.Window/time.Second)
	return "rl:" + c.RouteKey + ":" + subject(r) + ":" + strconv.FormatInt(bucket, 10)
}

// RateLimitFixedWindow counts POSTs per signed-in account, or per client IP
// for anonymous requests. The page GETs are never counted. When the limiter
// errors the request goes through.
func RateLimitFixedWindow(limiter RateLimiter, cfg FixedWindowConfig, onLimited WriteErrFunc) func(http.Handler) http.Handler {
	if cfg.Window < time.Second {
		cfg.Window = time.Minute
	}
	if cfg.RouteKey == "" {
		cfg.RouteKey = "unknown"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter == nil || r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}

			dec, err := limiter.AllowFixedWindow(r.Context(), cfg.key(r, time.Now()), cfg.Limit, cfg.Window)
			switch {
			case err != nil:
				logger.WithCtx(r.Context()).Warn().Err(err).Str("route", cfg.RouteKey).Msg("rate_limiter_unavailable")
			case !dec.Allowed:
				RateLimitedTotal.WithLabelValues(cfg.RouteKey).Inc()
				if dec.RetryAfter > 0 {
					w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(dec.RetryAfter.Seconds()))))
				}
				onLimited(w, r, domain.ErrRateLimited(cfg.RouteKey))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func subject(r *http.Request) string {
	if a, ok := AccountFromContext(r.Context()); ok {
		return "a:" + strconv.FormatInt(a.ID, 10)
	}
	return "ip:" + clientIP(r)
}
