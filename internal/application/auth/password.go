package auth

import (
	"context"
	"strings"

	"github.com/baechuer/real-time-ressys/services/account-service/internal/domain"
)

// PasswordResetRequest issues a reset link and publishes an email event.
// IMPORTANT: non-enumerating. Unknown or inactive emails return nil and the
// caller always redirects to the "sent" page.
func (s *Service) PasswordResetRequest(ctx context.Context, email string) error {
	email = domain.NormalizeEmail(email)
	audit := s.auditor(ctx, "auth.password_reset_request", map[string]string{"email": email})
	if email == "" {
		audit("skipped", nil, map[string]string{"reason": "empty"})
		return nil
	}

	a, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		audit("skipped", err, nil)
		return nil
	}
	if !a.IsActive {
		audit("skipped", nil, map[string]string{"reason": "inactive"})
		return nil
	}

	token, err := s.resets.IssueResetToken(a, s.passwordResetTTL)
	if err != nil {
		audit("error", err, nil)
		return err
	}

	url := strings.TrimRight(s.passwordResetBaseURL, "/") + "/reset/" + EncodeUID(a.ID) + "/" + token + "/"
	if err := s.pub.PublishPasswordReset(ctx, PasswordResetEvent{
		AccountID: a.ID,
		Email:     a.Email,
		URL:       url,
	}); err != nil {
		audit("error", err, nil)
		return err
	}

	audit("success", nil, map[string]string{"account_id": idString(a.ID)})
	return nil
}

// PasswordResetValidate checks a reset link without consuming it.
func (s *Service) PasswordResetValidate(ctx context.Context, uidb64, token string) (domain.Account, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.Account{}, domain.ErrResetTokenInvalid()
	}
	id, err := DecodeUID(uidb64)
	if err != nil {
		return domain.Account{}, err
	}

	a, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		if domain.Is(err, "user_not_found") {
			return domain.Account{}, domain.ErrResetTokenInvalid()
		}
		return domain.Account{}, err
	}
	if !a.IsActive {
		return domain.Account{}, domain.ErrResetTokenInvalid()
	}
	if err := s.resets.VerifyResetToken(token, a); err != nil {
		return domain.Account{}, domain.ErrResetTokenInvalid()
	}
	return a, nil
}

// PasswordResetConfirm sets a new password through a reset link and ends
// every session of the account. The link stops working afterwards because
// the token is bound to the old hash.
func (s *Service) PasswordResetConfirm(ctx context.Context, uidb64, token, newPassword1, newPassword2 string) (domain.Notice, error) {
	audit := s.auditor(ctx, "auth.password_reset_confirm", nil)
	failed := domain.Warning(domain.GenericFailure)

	a, err := s.PasswordResetValidate(ctx, uidb64, token)
	if err != nil {
		audit("error", err, nil)
		return domain.NoticeFromError(err), err
	}
	if newPassword1 == "" {
		err := domain.ErrMissingField("new_password1")
		audit("error", err, map[string]string{"account_id": idString(a.ID)})
		return failed, err
	}
	if newPassword1 != newPassword2 {
		err := domain.ErrPasswordMismatch()
		audit("error", err, map[string]string{"account_id": idString(a.ID)})
		return domain.NoticeFromError(err), err
	}
	if len(newPassword1) > domain.MaxPasswordBytes {
		err := domain.ErrPasswordTooLong()
		audit("error", err, map[string]string{"account_id": idString(a.ID)})
		return domain.NoticeFromError(err), err
	}

	hash, err := s.hasher.Hash(newPassword1)
	if err != nil {
		err = domain.ErrHashFailed(err)
		audit("error", err, map[string]string{"account_id": idString(a.ID)})
		return failed, err
	}
	if err := s.accounts.Update(ctx, a.ID, domain.AccountPatch{PasswordHash: &hash}); err != nil {
		audit("error", err, map[string]string{"account_id": idString(a.ID)})
		return domain.NoticeFromError(err), err
	}

	_ = s.sessions.DestroyAll(ctx, a.ID)

	audit("success", nil, map[string]string{"account_id": idString(a.ID)})
	return domain.Success(noticeResetComplete), nil
}
