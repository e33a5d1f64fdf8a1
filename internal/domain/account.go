package domain

import (
	"strings"
	"time"
)

type Account struct {
	ID           int64
	Email        string
	Username     string
	PasswordHash string
	FirstName    string
	LastName     string
	IsActive     bool
	Role         Role
	DateJoined   time.Time
	LastLogin    *time.Time
}

// AccountPatch lists the fields an update may touch. Nil means unchanged.
type AccountPatch struct {
	Role         *Role
	PasswordHash *string
	IsActive     *bool
	LastLogin    *time.Time
}

func (p AccountPatch) Empty() bool {
	return p.Role == nil && p.PasswordHash == nil && p.IsActive == nil && p.LastLogin == nil
}

// Apply returns a copy of a with the patch fields set.
func (p AccountPatch) Apply(a Account) Account {
	if p.Role != nil {
		a.Role = *p.Role
	}
	if p.PasswordHash != nil {
		a.PasswordHash = *p.PasswordHash
	}
	if p.IsActive != nil {
		a.IsActive = *p.IsActive
	}
	if p.LastLogin != nil {
		t := *p.LastLogin
		a.LastLogin = &t
	}
	return a
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
