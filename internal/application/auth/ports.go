package auth

import (
	"context"
	"time"

	"github.com/baechuer/real-time-ressys/services/account-service/internal/domain"
)

/*
AccountRepo
-----------
Persistence port for accounts.
Only describes WHAT the services need, not HOW it's stored.
Missing ids yield domain.ErrUserNotFound; duplicate emails on Create
yield domain.ErrEmailAlreadyExists.
*/
type AccountRepo interface {
	Create(ctx context.Context, a domain.Account) (domain.Account, error)
	GetByID(ctx context.Context, id int64) (domain.Account, error)
	GetByEmail(ctx context.Context, email string) (domain.Account, error)
	Update(ctx context.Context, id int64, patch domain.AccountPatch) error
	Delete(ctx context.Context, id int64) error
	ListExcluding(ctx context.Context, id int64) ([]domain.Account, error)
}

/*
PasswordHasher
--------------
Abstracts bcrypt.
*/
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash string, password string) error // nil if match
}

/*
Session
-------
The explicit login session. Created by Login, destroyed by Logout.
The ID is opaque and is what the transport stores in a cookie.
*/
type Session struct {
	ID        string
	AccountID int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

/*
SessionStore
------------
Server-side sessions, backed by Redis or memory.
Get returns domain.ErrSessionInvalid for unknown, expired or revoked ids.
Destroy is idempotent.
*/
type SessionStore interface {
	Create(ctx context.Context, accountID int64, ttl time.Duration) (Session, error)
	Get(ctx context.Context, sessionID string) (Session, error)
	Destroy(ctx context.Context, sessionID string) error
	DestroyAll(ctx context.Context, accountID int64) error
}

/*
ResetTokenIssuer
----------------
Stateless password-reset tokens. A token is bound to the account's
current password hash, so it stops verifying once the password changes.
*/
type ResetTokenIssuer interface {
	IssueResetToken(a domain.Account, ttl time.Duration) (string, error)
	VerifyResetToken(token string, a domain.Account) error
}

/*
EventPublisher
--------------
Publishes events to RabbitMQ.
A mail worker consumes these and sends emails.
This service does NOT send emails directly.
*/
type EventPublisher interface {
	PublishPasswordReset(ctx context.Context, evt PasswordResetEvent) error
}

type PasswordResetEvent struct {
	AccountID int64  `json:"account_id"`
	Email     string `json:"email"`
	URL       string `json:"url"`
}
