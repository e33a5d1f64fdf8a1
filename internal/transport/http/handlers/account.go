package http_handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/baechuer/real-time-ressys/services/account-service/internal/application/auth"
	"github.com/baechuer/real-time-ressys/services/account-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/account-service/internal/infrastructure/security"
	"github.com/baechuer/real-time-ressys/services/account-service/internal/logger"
	"github.com/baechuer/real-time-ressys/services/account-service/internal/transport/http/form"
	"github.com/baechuer/real-time-ressys/services/account-service/internal/transport/http/middleware"
	"github.com/baechuer/real-time-ressys/services/account-service/internal/transport/http/response"
)

// AccountHandler serves the self-service pages: registration, login,
// logout and password reset.
type AccountHandler struct {
	svc           *auth.Service
	flash         *response.Flash
	secureCookies bool
}

func NewAccountHandler(svc *auth.Service, flash *response.Flash, secureCookies bool) *AccountHandler {
	return &AccountHandler{
		svc:           svc,
		flash:         flash,
		secureCookies: secureCookies,
	}
}

func (h *AccountHandler) page(w http.ResponseWriter, r *http.Request, name string) {
	response.Page(w, basePage{Page: name, Messages: h.flash.Consume(w, r)})
}

// ---------- registration ----------

func (h *AccountHandler) RegisterStudentPage(w http.ResponseWriter, r *http.Request) {
	h.page(w, r, pageRegisterStudent)
}

func (h *AccountHandler) RegisterLecturerPage(w http.ResponseWriter, r *http.Request) {
	h.page(w, r, pageRegisterLecturer)
}

func (h *AccountHandler) RegisterStudent(w http.ResponseWriter, r *http.Request) {
	h.register(w, r, pathRegisterStudent, h.svc.RegisterStudent)
}

func (h *AccountHandler) RegisterLecturer(w http.ResponseWriter, r *http.Request) {
	h.register(w, r, pathRegisterLecturer, h.svc.RegisterLecturer)
}

type registerFunc func(ctx context.Context, in auth.RegisterInput) (domain.Account, domain.Notice, error)

// register reports every failure with the same warning and sends the
// caller back to the form.
func (h *AccountHandler) register(w http.ResponseWriter, r *http.Request, back string, fn registerFunc) {
	f := form.RegisterFromRequest(r)
	if err := form.Validate(f); err != nil {
		h.flash.Redirect(w, r, back, domain.Warning(domain.GenericFailure))
		return
	}

	a, notice, err := fn(r.Context(), auth.RegisterInput{
		Email:     f.Email,
		Password:  f.Password,
		FirstName: f.FirstName,
		LastName:  f.LastName,
	})
	if err != nil {
		logUnexpected(r, err, "register_failed")
		h.flash.Redirect(w, r, back, notice)
		return
	}

	logger.WithCtx(r.Context()).Info().
		Int64("account_id", a.ID).
		Str("role", string(a.Role)).
		Msg("account_registered")

	h.flash.Redirect(w, r, pathLogin, notice)
}

// ---------- login / logout ----------

func (h *AccountHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.page(w, r, pageLogin)
}

func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	f := form.LoginFromRequest(r)

	sess, err := h.svc.Login(r.Context(), f.Email, f.Password)
	if err != nil {
		middleware.LoginAttemptsTotal.WithLabelValues("failure").Inc()
		logUnexpected(r, err, "login_failed")
		h.flash.Redirect(w, r, pathLogin, domain.Warning(domain.GenericFailure))
		return
	}
	middleware.LoginAttemptsTotal.WithLabelValues("success").Inc()

	// A previous session on this browser is replaced, not reused.
	if old, ok := middleware.SessionIDFromContext(r.Context()); ok && old != sess.ID {
		_ = h.svc.Logout(r.Context(), old)
	}

	security.SetSession(w, sess.ID, h.svc.SessionTTL(), h.secureCookies)

	logger.WithCtx(r.Context()).Info().
		Int64("account_id", sess.AccountID).
		Msg("account_logged_in")

	h.flash.Redirect(w, r, pathDashboard)
}

// Logout always succeeds, even without a session.
func (h *AccountHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sid, _ := security.ReadSession(r)
	notice := h.svc.Logout(r.Context(), sid)
	security.ClearSession(w, h.secureCookies)
	h.flash.Redirect(w, r, pathLogin, notice)
}

// ---------- password reset ----------

func (h *AccountHandler) PasswordResetPage(w http.ResponseWriter, r *http.Request) {
	h.page(w, r, pageResetRequest)
}

// PasswordResetRequest answers the same way whether or not the address
// belongs to an account.
func (h *AccountHandler) PasswordResetRequest(w http.ResponseWriter, r *http.Request) {
	f := form.ResetRequestFromRequest(r)
	if err := h.svc.PasswordResetRequest(r.Context(), f.Email); err != nil {
		logger.WithCtx(r.Context()).Error().Err(err).Msg("password_reset_request_failed")
	}
	h.flash.Redirect(w, r, pathResetSent)
}

func (h *AccountHandler) PasswordResetSentPage(w http.ResponseWriter, r *http.Request) {
	h.page(w, r, pageResetSent)
}

// PasswordResetConfirmPage renders the new-password form. validlink is
// false for links that are malformed, expired or already used.
func (h *AccountHandler) PasswordResetConfirmPage(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uidb64")
	token := chi.URLParam(r, "token")

	_, err := h.svc.PasswordResetValidate(r.Context(), uid, token)
	if err != nil && domain.KindOf(err) != domain.KindAuth {
		logger.WithCtx(r.Context()).Error().Err(err).Msg("password_reset_validate_failed")
	}

	response.Page(w, resetConfirmPage{
		basePage:  basePage{Page: pageResetConfirm, Messages: h.flash.Consume(w, r)},
		ValidLink: err == nil,
	})
}

func (h *AccountHandler) PasswordResetConfirm(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uidb64")
	token := chi.URLParam(r, "token")

	f := form.ResetConfirmFromRequest(r)
	if err := form.Validate(f); err != nil {
		h.flash.Redirect(w, r, r.URL.Path, form.Notices(err)...)
		return
	}

	notice, err := h.svc.PasswordResetConfirm(r.Context(), uid, token, f.NewPassword1, f.NewPassword2)
	if err != nil {
		logUnexpected(r, err, "password_reset_confirm_failed")
		h.flash.Redirect(w, r, r.URL.Path, notice)
		return
	}

	h.flash.Redirect(w, r, pathResetComplete, notice)
}

func (h *AccountHandler) PasswordResetCompletePage(w http.ResponseWriter, r *http.Request) {
	h.page(w, r, pageResetComplete)
}
