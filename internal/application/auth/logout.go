package auth

import (
	"context"
	"strings"

	"github.com/baechuer/real-time-ressys/services/account-service/internal/domain"
)

// Logout destroys the session if there is one. It never fails from the
// caller's point of view and always returns the same notice.
func (s *Service) Logout(ctx context.Context, sessionID string) domain.Notice {
	sessionID = strings.TrimSpace(sessionID)
	notice := domain.Info(noticeSessionEnded)
	if sessionID == "" {
		return notice
	}

	audit := s.auditor(ctx, "auth.logout", nil)
	if err := s.sessions.Destroy(ctx, sessionID); err != nil {
		audit("error", err, nil)
		return notice
	}
	audit("success", nil, nil)
	return notice
}
