package middleware

import (
	"context"
	"net/http"

	"github.com/baechuer/real-time-ressys/services/account-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/account-service/internal/infrastructure/security"
	"github.com/baechuer/real-time-ressys/services/account-service/internal/logger"
)

type Authenticator interface {
	Authenticate(ctx context.Context, sessionID string) (domain.Account, error)
}

type WriteErrFunc func(http.ResponseWriter, *http.Request, error)

/*
LoadSession resolves the session cookie into an account and puts it in
the request context. It never rejects a request: unknown, expired or
revoked sessions continue as anonymous and the stale cookie is cleared.
*/
func LoadSession(authn Authenticator, secureCookies bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sid, err := security.ReadSession(r)
			if err != nil || sid == "" {
				next.ServeHTTP(w, r)
				return
			}

			a, err := authn.Authenticate(r.Context(), sid)
			if err != nil {
				if domain.KindOf(err) == domain.KindAuth {
					security.ClearSession(w, secureCookies)
				} else {
					logger.WithCtx(r.Context()).Warn().Err(err).Msg("session_lookup_failed")
				}
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithAccount(r.Context(), a, sid)))
		})
	}
}
