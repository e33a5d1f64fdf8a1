package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/baechuer/real-time-ressys/services/account-service/internal/domain"
)

// CSRFProtection requires unsafe requests to come from the service's own
// host or one of allowedOrigins, judged by Origin and then Referer. It backs
// up the SameSite=Lax session cookie.
func CSRFProtection(allowedOrigins []string, writeErr WriteErrFunc) func(http.Handler) http.Handler {
	trusted := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			trusted[strings.ToLower(u.Host)] = true
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if safeMethod(r.Method) {
				next.ServeHTTP(w, r)
				return
			}
			if reason := originProblem(r, trusted); reason != "" {
				writeErr(w, r, domain.ErrCSRFRejected(reason))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func safeMethod(m string) bool {
	return m == http.MethodGet || m == http.MethodHead || m == http.MethodOptions
}

// originProblem returns "" when the request source is acceptable.
func originProblem(r *http.Request, trusted map[string]bool) string {
	src := r.Header.Get("Origin")
	if src == "" {
		src = r.Header.Get("Referer")
	}
	if src == "" {
		return "missing_origin"
	}
	u, err := url.Parse(src)
	if err != nil || u.Host == "" {
		return "invalid_origin"
	}
	host := strings.ToLower(u.Host)
	if trusted[host] || strings.EqualFold(host, r.Host) {
		return ""
	}
	return "cross_origin"
}
