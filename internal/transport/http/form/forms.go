package form

import "net/http"

type Register struct {
	Email           string `form:"email" validate:"required,email,max=254"`
	Password        string `form:"password" validate:"required,min=8,pwbytes"`
	PasswordConfirm string `form:"password_confirm" validate:"required,eqfield=Password"`
	FirstName       string `form:"first_name" validate:"max=150"`
	LastName        string `form:"last_name" validate:"max=150"`
}

func RegisterFromRequest(r *http.Request) Register {
	parse(r)
	return Register{
		Email:           value(r, "email"),
		Password:        secret(r, "password"),
		PasswordConfirm: secret(r, "password_confirm"),
		FirstName:       value(r, "first_name"),
		LastName:        value(r, "last_name"),
	}
}

// Login is not validated: every failure is reported the same way.
type Login struct {
	Email    string `form:"email"`
	Password string `form:"password"`
}

func LoginFromRequest(r *http.Request) Login {
	parse(r)
	return Login{
		Email:    value(r, "email"),
		Password: secret(r, "password"),
	}
}

// AddUser leaves role checking to the admin service.
type AddUser struct {
	Email    string `form:"email" validate:"required,email,max=254"`
	Password string `form:"password" validate:"required,pwbytes"`
	Role     string `form:"role"`
}

func AddUserFromRequest(r *http.Request) AddUser {
	parse(r)
	return AddUser{
		Email:    value(r, "email"),
		Password: secret(r, "password"),
		Role:     value(r, "role"),
	}
}

// TargetAction is the body of delete-user and change-role.
type TargetAction struct {
	UserID string `form:"user_id"`
	Role   string `form:"role"`
}

func TargetActionFromRequest(r *http.Request) TargetAction {
	parse(r)
	return TargetAction{
		UserID: value(r, "user_id"),
		Role:   value(r, "role"),
	}
}

// DashboardAction is the legacy dashboard POST. Exactly one of the ids
// is expected; delete wins if both are sent.
type DashboardAction struct {
	DeleteUserID string
	UpdateUserID string
	Role         string
	HasDelete    bool
	HasUpdate    bool
}

func DashboardActionFromRequest(r *http.Request) DashboardAction {
	parse(r)
	_, hasDelete := r.PostForm["delete_user_id"]
	_, hasUpdate := r.PostForm["update_user_id"]
	return DashboardAction{
		DeleteUserID: value(r, "delete_user_id"),
		UpdateUserID: value(r, "update_user_id"),
		Role:         value(r, "role"),
		HasDelete:    hasDelete,
		HasUpdate:    hasUpdate,
	}
}

type ResetRequest struct {
	Email string `form:"email"`
}

func ResetRequestFromRequest(r *http.Request) ResetRequest {
	parse(r)
	return ResetRequest{Email: value(r, "email")}
}

// ResetConfirm checks presence and length; the match check belongs to
// the auth service.
type ResetConfirm struct {
	NewPassword1 string `form:"new_password1" validate:"required,min=8,pwbytes"`
	NewPassword2 string `form:"new_password2" validate:"required"`
}

func ResetConfirmFromRequest(r *http.Request) ResetConfirm {
	parse(r)
	return ResetConfirm{
		NewPassword1: secret(r, "new_password1"),
		NewPassword2: secret(r, "new_password2"),
	}
}
