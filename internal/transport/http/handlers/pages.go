package http_handlers

import (
	"net/http"
	"time"

	"github.com/baechuer/real-time-ressys/services/account-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/account-service/internal/logger"
)

// Page names rendered by the handlers.
const (
	pageRegisterStudent  = "register_student"
	pageRegisterLecturer = "register_lecturer"
	pageLogin            = "login"
	pageDashboard        = "dashboard"
	pageResetRequest     = "password_reset"
	pageResetSent        = "password_reset_sent"
	pageResetConfirm     = "password_reset_confirm"
	pageResetComplete    = "password_reset_complete"
)

// Paths the handlers redirect to.
const (
	pathRegisterStudent  = "/register-student/"
	pathRegisterLecturer = "/register-lect/"
	pathLogin            = "/login/"
	pathDashboard        = "/dashboard/"
	pathResetSent        = "/reset_password_sent/"
	pathResetComplete    = "/reset_password_complete/"
)

type basePage struct {
	Page     string          `json:"page"`
	Messages []domain.Notice `json:"messages"`
}

type dashboardPage struct {
	basePage
	IsSuperuser bool          `json:"is_superuser"`
	Accounts    []accountView `json:"accounts,omitempty"`
}

type resetConfirmPage struct {
	basePage
	ValidLink bool `json:"validlink"`
}

// accountView is one row of the dashboard listing. The role is exposed
// both as a name and as the legacy boolean flags.
type accountView struct {
	ID         int64      `json:"id"`
	Email      string     `json:"email"`
	Username   string     `json:"username"`
	FirstName  string     `json:"first_name"`
	LastName   string     `json:"last_name"`
	IsActive   bool       `json:"is_active"`
	Role       string     `json:"role"`
	DateJoined time.Time  `json:"date_joined"`
	LastLogin  *time.Time `json:"last_login"`
	domain.RoleFlags
}

func toAccountView(a domain.Account) accountView {
	return accountView{
		ID:         a.ID,
		Email:      a.Email,
		Username:   a.Username,
		FirstName:  a.FirstName,
		LastName:   a.LastName,
		IsActive:   a.IsActive,
		Role:       a.Role.String(),
		DateJoined: a.DateJoined,
		LastLogin:  a.LastLogin,
		RoleFlags:  a.Role.Flags(),
	}
}

// logUnexpected logs failures the user cannot cause. Validation, auth and
// lookup errors are already part of the audit trail.
func logUnexpected(r *http.Request, err error, msg string) {
	switch domain.KindOf(err) {
	case domain.KindInfrastructure, domain.KindInternal:
		logger.WithCtx(r.Context()).Error().Err(err).Msg(msg)
	}
}
