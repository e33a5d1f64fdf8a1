package auth

import (
	"context"
	"strings"

	"github.com/baechuer/real-time-ressys/services/account-service/internal/domain"
)

// RegisterInput is the already-decoded registration form.
// Format checks (email syntax, password confirmation) happen in the
// transport; the service only enforces presence.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// RegisterStudent creates a self-registered student account.
func (s *Service) RegisterStudent(ctx context.Context, in RegisterInput) (domain.Account, domain.Notice, error) {
	return s.register(ctx, in, domain.RoleStudent, noticeStudentCreated)
}

// RegisterLecturer creates a self-registered lecturer account.
func (s *Service) RegisterLecturer(ctx context.Context, in RegisterInput) (domain.Account, domain.Notice, error) {
	return s.register(ctx, in, domain.RoleLecturer, noticeLecturerCreated)
}

// register never tells the caller why it failed: duplicates and invalid
// input both surface as the generic warning.
func (s *Service) register(ctx context.Context, in RegisterInput, role domain.Role, okText string) (domain.Account, domain.Notice, error) {
	email := domain.NormalizeEmail(in.Email)
	audit := s.auditor(ctx, "auth.register", map[string]string{
		"email": email,
		"role":  string(role),
	})
	failed := domain.Warning(domain.GenericFailure)

	if email == "" {
		err := domain.ErrMissingField("email")
		audit("error", err, nil)
		return domain.Account{}, failed, err
	}
	if in.Password == "" {
		err := domain.ErrMissingField("password")
		audit("error", err, nil)
		return domain.Account{}, failed, err
	}
	if len(in.Password) > domain.MaxPasswordBytes {
		err := domain.ErrPasswordTooLong()
		audit("error", err, nil)
		return domain.Account{}, failed, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		err = domain.ErrHashFailed(err)
		audit("error", err, nil)
		return domain.Account{}, failed, err
	}

	created, err := s.accounts.Create(ctx, domain.Account{
		Email:        email,
		Username:     email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		IsActive:     true,
		Role:         role,
		DateJoined:   s.now().UTC(),
	})
	if err != nil {
		audit("error", err, nil)
		return domain.Account{}, failed, err
	}

	audit("success", nil, map[string]string{"account_id": idString(created.ID)})
	return created, domain.Info(okText), nil
}
