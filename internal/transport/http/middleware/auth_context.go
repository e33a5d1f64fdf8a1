package middleware

import (
	"context"

	"github.com/baechuer/real-time-ressys/services/account-service/internal/domain"
	appCtx "github.com/baechuer/real-time-ressys/services/account-service/internal/pkg/context"
)

type ctxKey string

const (
	ctxAccount   ctxKey = "account"
	ctxSessionID ctxKey = "session_id"
)

// WithAccount stores the signed-in account and its session id.
func WithAccount(ctx context.Context, a domain.Account, sessionID string) context.Context {
	ctx = context.WithValue(ctx, ctxAccount, a)
	ctx = context.WithValue(ctx, ctxSessionID, sessionID)
	return appCtx.WithAccountID(ctx, a.ID)
}

// AccountFromContext reports false for anonymous requests.
func AccountFromContext(ctx context.Context) (domain.Account, bool) {
	a, ok := ctx.Value(ctxAccount).(domain.Account)
	return a, ok && a.ID != 0
}

func SessionIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxSessionID).(string)
	return v, ok && v != ""
}
