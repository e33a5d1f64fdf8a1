package postgres

import (
	"database/sql"
	"time"

	"github.com/baechuer/real-time-ressys/services/account-service/internal/domain"
)

const accountColumns = `id, email, username, password_hash, first_name, last_name, is_active, role, date_joined, last_login`

type accountRow struct {
	ID           int64
	Email        string
	Username     string
	PasswordHash string
	FirstName    string
	LastName     string
	IsActive     bool
	Role         string
	DateJoined   time.Time
	LastLogin    sql.NullTime
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccountRow(s scanner) (accountRow, error) {
	var ar accountRow
	err := s.Scan(
		&ar.ID,
		&ar.Email,
		&ar.Username,
		&ar.PasswordHash,
		&ar.FirstName,
		&ar.LastName,
		&ar.IsActive,
		&ar.Role,
		&ar.DateJoined,
		&ar.LastLogin,
	)
	return ar, err
}

func toDomainAccount(ar accountRow) domain.Account {
	a := domain.Account{
		ID:           ar.ID,
		Email:        ar.Email,
		Username:     ar.Username,
		PasswordHash: ar.PasswordHash,
		FirstName:    ar.FirstName,
		LastName:     ar.LastName,
		IsActive:     ar.IsActive,
		Role:         roleFromDB(ar.Role),
		DateJoined:   ar.DateJoined,
	}
	if ar.LastLogin.Valid {
		t := ar.LastLogin.Time
		a.LastLogin = &t
	}
	return a
}

// roleFromDB maps the role column; unknown values read as unassigned.
func roleFromDB(s string) domain.Role {
	r := domain.Role(s)
	if r.Assignable() {
		return r
	}
	return domain.RoleUnassigned
}

// roleToDB stores the unassigned state explicitly.
func roleToDB(r domain.Role) string {
	return r.String()
}
