// Package admin implements the superuser dashboard operations.
package admin

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/baechuer/real-time-ressys/services/account-service/internal/application/auth"
	"github.com/baechuer/real-time-ressys/services/account-service/internal/domain"
	appCtx "github.com/baechuer/real-time-ressys/services/account-service/internal/pkg/context"
)

const (
	noticeCreated     = "User created successfully."
	noticeRoleUpdated = "Role updated."
	noticeDeleted     = "User deleted."
)

type Service struct {
	accounts auth.AccountRepo
	hasher   auth.PasswordHasher
	audit    func(action string, fields map[string]string)
	now      func() time.Time
}

func NewService(accounts auth.AccountRepo, hasher auth.PasswordHasher) *Service {
	return &Service{
		accounts: accounts,
		hasher:   hasher,
		audit:    func(string, map[string]string) {},
		now:      time.Now,
	}
}

func (s *Service) WithAudit(fn func(action string, fields map[string]string)) *Service {
	if fn != nil {
		s.audit = fn
	}
	return s
}

// WithClock replaces time.Now; tests only.
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

type CreateInput struct {
	Email    string
	Password string
	Role     string
}

func (s *Service) auditor(ctx context.Context, action string, actor domain.Account, target string) func(result string, err error, extra map[string]string) {
	return func(result string, err error, extra map[string]string) {
		fields := map[string]string{
			"actor_id":   strconv.FormatInt(actor.ID, 10),
			"actor_role": actor.Role.String(),
			"target_id":  target,
			"result":     result,
		}
		if rid := appCtx.GetRequestID(ctx); rid != "" {
			fields["request_id"] = rid
		}
		if err != nil {
			fields["error_code"] = domain.CodeOf(err)
		}
		for k, v := range extra {
			fields[k] = v
		}
		s.audit(action, fields)
	}
}

// requireSuperuser is re-checked here even though the router gates the
// routes.
func requireSuperuser(actor domain.Account) error {
	if actor.ID == 0 {
		return domain.ErrLoginRequired()
	}
	if actor.Role != domain.RoleSuperuser || !actor.IsActive {
		return domain.ErrSuperuserRequired()
	}
	return nil
}

// parseID treats any malformed id as a missing account.
func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ErrUserNotFound()
	}
	return id, nil
}

// ListOthers returns every account except the actor's, ordered by email.
func (s *Service) ListOthers(ctx context.Context, actor domain.Account) ([]domain.Account, error) {
	if err := requireSuperuser(actor); err != nil {
		return nil, err
	}
	return s.accounts.ListExcluding(ctx, actor.ID)
}

// CreateAccount adds an account with the given role on behalf of a superuser.
func (s *Service) CreateAccount(ctx context.Context, actor domain.Account, in CreateInput) (domain.Account, domain.Notice, error) {
	email := domain.NormalizeEmail(in.Email)
	audit := s.auditor(ctx, "admin.create_account", actor, "")

	fail := func(err error, extra map[string]string) (domain.Account, domain.Notice, error) {
		audit("error", err, extra)
		return domain.Account{}, domain.NoticeFromError(err), err
	}

	if err := requireSuperuser(actor); err != nil {
		return fail(err, map[string]string{"required_role": string(domain.RoleSuperuser)})
	}
	if email == "" {
		return fail(domain.ErrMissingField("email"), nil)
	}
	if in.Password == "" {
		return fail(domain.ErrMissingField("password"), nil)
	}
	if len(in.Password) > domain.MaxPasswordBytes {
		return fail(domain.ErrPasswordTooLong(), nil)
	}
	role, err := domain.ParseRole(in.Role)
	if err != nil {
		return fail(err, nil)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return fail(domain.ErrHashFailed(err), nil)
	}

	created, err := s.accounts.Create(ctx, domain.Account{
		Email:        email,
		Username:     email,
		PasswordHash: hash,
		IsActive:     true,
		Role:         role,
		DateJoined:   s.now().UTC(),
	})
	if err != nil {
		return fail(err, map[string]string{"role": string(role)})
	}

	audit("success", nil, map[string]string{
		"target_id": strconv.FormatInt(created.ID, 10),
		"role":      string(role),
	})
	return created, domain.Success(noticeCreated), nil
}

// ChangeRole sets exactly one role on the target account.
func (s *Service) ChangeRole(ctx context.Context, actor domain.Account, rawID, rawRole string) (domain.Notice, error) {
	audit := s.auditor(ctx, "admin.change_role", actor, strings.TrimSpace(rawID))

	fail := func(err error, extra map[string]string) (domain.Notice, error) {
		audit("error", err, extra)
		return domain.NoticeFromError(err), err
	}

	if err := requireSuperuser(actor); err != nil {
		return fail(err, map[string]string{"required_role": string(domain.RoleSuperuser)})
	}
	id, err := parseID(rawID)
	if err != nil {
		return fail(err, nil)
	}
	role, err := domain.ParseRole(rawRole)
	if err != nil {
		return fail(err, nil)
	}
	if id == actor.ID {
		return fail(domain.ErrCannotAffectSelf(), nil)
	}

	target, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return fail(err, nil)
	}
	if err := s.accounts.Update(ctx, id, domain.AccountPatch{Role: &role}); err != nil {
		return fail(err, nil)
	}

	audit("success", nil, map[string]string{
		"old_role": target.Role.String(),
		"new_role": string(role),
	})
	return domain.Success(noticeRoleUpdated), nil
}

// DeleteAccount removes the target account permanently.
func (s *Service) DeleteAccount(ctx context.Context, actor domain.Account, rawID string) (domain.Notice, error) {
	audit := s.auditor(ctx, "admin.delete_account", actor, strings.TrimSpace(rawID))

	fail := func(err error) (domain.Notice, error) {
		audit("error", err, nil)
		return domain.NoticeFromError(err), err
	}

	if err := requireSuperuser(actor); err != nil {
		return fail(err)
	}
	id, err := parseID(rawID)
	if err != nil {
		return fail(err)
	}
	if id == actor.ID {
		return fail(domain.ErrCannotAffectSelf())
	}
	if err := s.accounts.Delete(ctx, id); err != nil {
		return fail(err)
	}

	audit("success", nil, nil)
	return domain.Success(noticeDeleted), nil
}

