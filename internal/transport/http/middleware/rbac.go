package middleware

import (
	"net/http"

	"github.com/baechuer/real-time-ressys/services/account-service/internal/domain"
)

// RedirectFunc answers with a redirect carrying notices (see response.Flash).
type RedirectFunc func(w http.ResponseWriter, r *http.Request, location string, notices ...domain.Notice)

const (
	LoginPath     = "/login/"
	DashboardPath = "/dashboard/"
)

// RequireSuperuser gates the admin routes. Anonymous callers go to the
// login page; signed-in non-superusers go back to the dashboard with an
// error. Nothing downstream runs in either case.
func RequireSuperuser(redirect RedirectFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			a, ok := AccountFromContext(r.Context())
			if !ok {
				redirect(w, r, LoginPath, domain.NoticeFromError(domain.ErrLoginRequired()))
				return
			}
			if a.Role != domain.RoleSuperuser {
				redirect(w, r, DashboardPath, domain.NoticeFromError(domain.ErrSuperuserRequired()))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
