package http_handlers

import (
	"net/http"

	"github.com/baechuer/real-time-ressys/services/account-service/internal/application/admin"
	"github.com/baechuer/real-time-ressys/services/account-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/account-service/internal/transport/http/form"
	"github.com/baechuer/real-time-ressys/services/account-service/internal/transport/http/middleware"
	"github.com/baechuer/real-time-ressys/services/account-service/internal/transport/http/response"
)

// DashboardHandler serves the dashboard and the superuser actions.
// The router puts every action behind middleware.RequireSuperuser.
type DashboardHandler struct {
	svc   *admin.Service
	flash *response.Flash
}

func NewDashboardHandler(svc *admin.Service, flash *response.Flash) *DashboardHandler {
	return &DashboardHandler{svc: svc, flash: flash}
}

// Dashboard lists every other account for a superuser. Anyone else gets
// the plain page.
func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	p := dashboardPage{
		basePage: basePage{Page: pageDashboard, Messages: h.flash.Consume(w, r)},
	}

	actor, ok := middleware.AccountFromContext(r.Context())
	if ok && actor.Role == domain.RoleSuperuser {
		p.IsSuperuser = true
		accounts, err := h.svc.ListOthers(r.Context(), actor)
		if err != nil {
			logUnexpected(r, err, "dashboard_list_failed")
			p.Messages = append(p.Messages, domain.NoticeFromError(err))
		}
		p.Accounts = make([]accountView, 0, len(accounts))
		for _, a := range accounts {
			p.Accounts = append(p.Accounts, toAccountView(a))
		}
	}

	response.Page(w, p)
}

// DashboardAction handles the older form that posts straight to the
// dashboard with either delete_user_id or update_user_id and role.
func (h *DashboardHandler) DashboardAction(w http.ResponseWriter, r *http.Request) {
	f := form.DashboardActionFromRequest(r)
	switch {
	case f.HasDelete:
		h.deleteAccount(w, r, f.DeleteUserID)
	case f.HasUpdate:
		h.changeRole(w, r, f.UpdateUserID, f.Role)
	default:
		h.flash.Redirect(w, r, pathDashboard)
	}
}

func (h *DashboardHandler) AddUser(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.AccountFromContext(r.Context())

	f := form.AddUserFromRequest(r)
	if err := form.Validate(f); err != nil {
		middleware.AdminActionsTotal.WithLabelValues("create_account", "invalid").Inc()
		h.flash.Redirect(w, r, pathDashboard, form.Notices(err)...)
		return
	}

	_, notice, err := h.svc.CreateAccount(r.Context(), actor, admin.CreateInput{
		Email:    f.Email,
		Password: f.Password,
		Role:     f.Role,
	})
	h.finish(w, r, "create_account", notice, err)
}

func (h *DashboardHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	f := form.TargetActionFromRequest(r)
	h.deleteAccount(w, r, f.UserID)
}

func (h *DashboardHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	f := form.TargetActionFromRequest(r)
	h.changeRole(w, r, f.UserID, f.Role)
}

func (h *DashboardHandler) deleteAccount(w http.ResponseWriter, r *http.Request, rawID string) {
	actor, _ := middleware.AccountFromContext(r.Context())
	notice, err := h.svc.DeleteAccount(r.Context(), actor, rawID)
	h.finish(w, r, "delete_account", notice, err)
}

func (h *DashboardHandler) changeRole(w http.ResponseWriter, r *http.Request, rawID, rawRole string) {
	actor, _ := middleware.AccountFromContext(r.Context())
	notice, err := h.svc.ChangeRole(r.Context(), actor, rawID, rawRole)
	h.finish(w, r, "change_role", notice, err)
}

func (h *DashboardHandler) finish(w http.ResponseWriter, r *http.Request, action string, notice domain.Notice, err error) {
	result := "success"
	if err != nil {
		result = string(domain.KindOf(err))
		logUnexpected(r, err, action+"_failed")
	}
	middleware.AdminActionsTotal.WithLabelValues(action, result).Inc()
	h.flash.Redirect(w, r, pathDashboard, notice)
}
