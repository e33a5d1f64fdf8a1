package domain

import "strings"

// Role is the single role an account holds. Exactly one of the legacy
// is_student / is_lect / is_superuser flags is derived from it, or none
// for RoleUnassigned.
type Role string

const (
	RoleUnassigned Role = ""
	RoleStudent    Role = "student"
	RoleLecturer   Role = "lecturer"
	RoleSuperuser  Role = "superuser"
)

// RoleFlags is the boolean view of a Role used by the dashboard listing.
type RoleFlags struct {
	IsStudent   bool `json:"is_student"`
	IsLecturer  bool `json:"is_lect"`
	IsSuperuser bool `json:"is_superuser"`
}

func (r Role) Flags() RoleFlags {
	return RoleFlags{
		IsStudent:   r == RoleStudent,
		IsLecturer:  r == RoleLecturer,
		IsSuperuser: r == RoleSuperuser,
	}
}

// Assignable reports whether r may be set through createAccount/changeRole.
func (r Role) Assignable() bool {
	switch r {
	case RoleStudent, RoleLecturer, RoleSuperuser:
		return true
	default:
		return false
	}
}

func (r Role) String() string {
	if r == RoleUnassigned {
		return "unassigned"
	}
	return string(r)
}

// ParseRole accepts the form values "student", "lecturer" and "superuser".
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Assignable() {
		return RoleUnassigned, ErrInvalidRole(s)
	}
	return r, nil
}
