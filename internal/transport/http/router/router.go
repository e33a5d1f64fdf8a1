package router

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/baechuer/real-time-ressys/services/account-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/account-service/internal/transport/http/middleware"
	"github.com/baechuer/real-time-ressys/services/account-service/internal/transport/http/response"
)

type HealthHandler interface {
	Healthz(w http.ResponseWriter, r *http.Request)
	Readyz(w http.ResponseWriter, r *http.Request)
}

type AccountHandler interface {
	// Registration
	RegisterStudentPage(w http.ResponseWriter, r *http.Request)
	RegisterStudent(w http.ResponseWriter, r *http.Request)
	RegisterLecturerPage(w http.ResponseWriter, r *http.Request)
	RegisterLecturer(w http.ResponseWriter, r *http.Request)

	// Session
	LoginPage(w http.ResponseWriter, r *http.Request)
	Login(w http.ResponseWriter, r *http.Request)
	Logout(w http.ResponseWriter, r *http.Request)

	// Password reset
	PasswordResetPage(w http.ResponseWriter, r *http.Request)
	PasswordResetRequest(w http.ResponseWriter, r *http.Request)
	PasswordResetSentPage(w http.ResponseWriter, r *http.Request)
	PasswordResetConfirmPage(w http.ResponseWriter, r *http.Request)
	PasswordResetConfirm(w http.ResponseWriter, r *http.Request)
	PasswordResetCompletePage(w http.ResponseWriter, r *http.Request)
}

type DashboardHandler interface {
	Dashboard(w http.ResponseWriter, r *http.Request)
	DashboardAction(w http.ResponseWriter, r *http.Request)
	AddUser(w http.ResponseWriter, r *http.Request)
	DeleteUser(w http.ResponseWriter, r *http.Request)
	ChangeRole(w http.ResponseWriter, r *http.Request)
}

type Deps struct {
	Health    HealthHandler
	Account   AccountHandler
	Dashboard DashboardHandler

	SessionMW   func(http.Handler) http.Handler
	SuperuserMW func(http.Handler) http.Handler
	CSRFMW      func(http.Handler) http.Handler

	// Optional; nil when rate limiting is off.
	RLRegister      func(http.Handler) http.Handler
	RLLogin         func(http.Handler) http.Handler
	RLPasswordReset func(http.Handler) http.Handler
	RLAdminActions  func(http.Handler) http.Handler

	// Peers allowed to set X-Forwarded-For; empty trusts none.
	TrustedProxies middleware.TrustedProxies
}

func New(deps Deps) (http.Handler, error) {
	if deps.Health == nil {
		return nil, fmt.Errorf("nil Health handler")
	}
	if deps.Account == nil {
		return nil, fmt.Errorf("nil Account handler")
	}
	if deps.Dashboard == nil {
		return nil, fmt.Errorf("nil Dashboard handler")
	}
	if deps.SessionMW == nil {
		return nil, fmt.Errorf("nil Session middleware")
	}
	if deps.SuperuserMW == nil {
		return nil, fmt.Errorf("nil Superuser middleware")
	}
	if deps.CSRFMW == nil {
		return nil, fmt.Errorf("nil CSRF middleware")
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP(deps.TrustedProxies))
	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog)
	r.Use(middleware.Metrics)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.BodyLimit(middleware.DefaultBodyLimit, response.WriteError))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.WriteError(w, r, domain.ErrRouteNotFound())
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.WriteError(w, r, domain.ErrMethodNotAllowed(r.Method))
	})

	r.Get("/healthz", deps.Health.Healthz)
	r.Get("/readyz", deps.Health.Readyz)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(deps.SessionMW)
		r.Use(deps.CSRFMW)

		// --- Registration ---
		r.Get("/register-student/", deps.Account.RegisterStudentPage)
		r.With(optional(deps.RLRegister)...).Post("/register-student/", deps.Account.RegisterStudent)
		r.Get("/register-lect/", deps.Account.RegisterLecturerPage)
		r.With(optional(deps.RLRegister)...).Post("/register-lect/", deps.Account.RegisterLecturer)

		// --- Session ---
		r.Get("/login/", deps.Account.LoginPage)
		r.With(optional(deps.RLLogin)...).Post("/login/", deps.Account.Login)
		r.Get("/logout/", deps.Account.Logout)

		// --- Dashboard ---
		r.Get("/dashboard/", deps.Dashboard.Dashboard)

		// --- Superuser actions (POST only) ---
		r.Group(func(r chi.Router) {
			r.Use(deps.SuperuserMW)
			r.Use(optional(deps.RLAdminActions)...)

			r.Post("/dashboard/", deps.Dashboard.DashboardAction)
			r.Post("/add-user/", deps.Dashboard.AddUser)
			r.Post("/delete-user/", deps.Dashboard.DeleteUser)
			r.Post("/change-role/", deps.Dashboard.ChangeRole)
		})

		// --- Password reset ---
		r.Get("/reset_password/", deps.Account.PasswordResetPage)
		r.With(optional(deps.RLPasswordReset)...).Post("/reset_password/", deps.Account.PasswordResetRequest)
		r.Get("/reset_password_sent/", deps.Account.PasswordResetSentPage)
		r.Get("/reset/{uidb64}/{token}/", deps.Account.PasswordResetConfirmPage)
		r.With(optional(deps.RLPasswordReset)...).Post("/reset/{uidb64}/{token}/", deps.Account.PasswordResetConfirm)
		r.Get("/reset_password_complete/", deps.Account.PasswordResetCompletePage)
	})

	return r, nil
}

func optional(mws ...func(http.Handler) http.Handler) []func(http.Handler) http.Handler {
	out := make([]func(http.Handler) http.Handler, 0, len(mws))
	for _, mw := range mws {
		if mw != nil {
			out = append(out, mw)
		}
	}
	return out
}
