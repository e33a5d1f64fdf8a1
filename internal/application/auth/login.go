package auth

import (
	"context"
	"strings"

	"github.com/baechuer/real-time-ressys/services/account-service/internal/domain"
)

// Login authenticates an account and opens a session.
// IMPORTANT: unknown email, wrong password and inactive account all return
// the same error so the response does not reveal which accounts exist.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	email = domain.NormalizeEmail(email)
	audit := s.auditor(ctx, "auth.login", map[string]string{"email": email})

	if email == "" || password == "" {
		err := domain.ErrInvalidCredentials()
		audit("error", err, map[string]string{"reason": "empty"})
		return Session{}, err
	}

	a, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		reason := "not_found"
		if domain.Is(err, "user_not_found") {
			s.compareDummy(password)
		} else {
			reason = domain.CodeOf(err)
		}
		audit("error", domain.ErrInvalidCredentials(), map[string]string{"reason": reason})
		return Session{}, domain.ErrInvalidCredentials()
	}

	if err := s.hasher.Compare(a.PasswordHash, password); err != nil {
		audit("error", domain.ErrInvalidCredentials(), map[string]string{
			"reason":     "bad_password",
			"account_id": idString(a.ID),
		})
		return Session{}, domain.ErrInvalidCredentials()
	}

	if !a.IsActive {
		audit("error", domain.ErrInvalidCredentials(), map[string]string{
			"reason":     "inactive",
			"account_id": idString(a.ID),
		})
		return Session{}, domain.ErrInvalidCredentials()
	}

	sess, err := s.sessions.Create(ctx, a.ID, s.sessionTTL)
	if err != nil {
		audit("error", err, map[string]string{"account_id": idString(a.ID)})
		return Session{}, err
	}

	// last_login is informational; a failed touch does not fail the login.
	now := s.now().UTC()
	_ = s.accounts.Update(ctx, a.ID, domain.AccountPatch{LastLogin: &now})

	audit("success", nil, map[string]string{"account_id": idString(a.ID)})
	return sess, nil
}

// compareDummy spends one hash comparison so an unknown email costs about
// as much as a wrong password.
func (s *Service) compareDummy(password string) {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash(dummyPassword)
	})
	if s.dummyHash != "" {
		_ = s.hasher.Compare(s.dummyHash, password)
	}
}

// Authenticate resolves a session id into its active account.
// Deleted or deactivated accounts fail with ErrSessionInvalid and the
// session is dropped.
func (s *Service) Authenticate(ctx context.Context, sessionID string) (domain.Account, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return domain.Account{}, domain.ErrSessionInvalid()
	}

	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return domain.Account{}, err
	}

	a, err := s.accounts.GetByID(ctx, sess.AccountID)
	if err != nil {
		if domain.Is(err, "user_not_found") {
			_ = s.sessions.Destroy(ctx, sessionID)
			return domain.Account{}, domain.ErrSessionInvalid()
		}
		return domain.Account{}, err
	}
	if !a.IsActive {
		_ = s.sessions.Destroy(ctx, sessionID)
		return domain.Account{}, domain.ErrSessionInvalid()
	}
	return a, nil
}
