package auth

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/baechuer/real-time-ressys/services/account-service/internal/domain"
	appCtx "github.com/baechuer/real-time-ressys/services/account-service/internal/pkg/context"
)

const (
	noticeStudentCreated  = "Your account has been created..."
	noticeLecturerCreated = "Your account has been created, please login"
	noticeSessionEnded    = "your session has ended"
	noticeResetComplete   = "Your password has been set. You may go ahead and log in now."

	dummyPassword = "account-service/timing-equalizer"
)

type Service struct {
	accounts AccountRepo
	hasher   PasswordHasher
	sessions SessionStore
	resets   ResetTokenIssuer
	pub      EventPublisher

	sessionTTL time.Duration
	audit      func(action string, fields map[string]string)
	now        func() time.Time

	// e.g. https://accounts.example.edu
	passwordResetBaseURL string
	passwordResetTTL     time.Duration

	// hashed on first use by compareDummy
	dummyOnce sync.Once
	dummyHash string
}

type Config struct {
	SessionTTL            time.Duration
	PasswordResetBaseURL  string
	PasswordResetTokenTTL time.Duration
}

func NewService(
	accounts AccountRepo,
	hasher PasswordHasher,
	sessions SessionStore,
	resets ResetTokenIssuer,
	pub EventPublisher,
	cfg Config,
) *Service {
	auditFn := func(string, map[string]string) {}
	sessionTTL := cfg.SessionTTL
	if sessionTTL <= 0 {
		sessionTTL = 14 * 24 * time.Hour
	}
	resetTTL := cfg.PasswordResetTokenTTL
	if resetTTL <= 0 {
		resetTTL = 3 * 24 * time.Hour
	}
	return &Service{
		accounts: accounts,
		hasher:   hasher,
		sessions: sessions,
		resets:   resets,
		pub:      pub,
		audit:    auditFn,
		now:      time.Now,

		sessionTTL: sessionTTL,

		passwordResetBaseURL: cfg.PasswordResetBaseURL,
		passwordResetTTL:     resetTTL,
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

// SessionTTL is exposed so the transport can size the session cookie.
func (s *Service) SessionTTL() time.Duration { return s.sessionTTL }

// auditor returns the per-call audit closure shared by all flows.
func (s *Service) auditor(ctx context.Context, action string, base map[string]string) func(result string, err error, extra map[string]string) {
	return func(result string, err error, extra map[string]string) {
		fields := map[string]string{"result": result}
		if rid := appCtx.GetRequestID(ctx); rid != "" {
			fields["request_id"] = rid
		}
		for k, v := range base {
			fields[k] = v
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

func idString(id int64) string { return strconv.FormatInt(id, 10) }
