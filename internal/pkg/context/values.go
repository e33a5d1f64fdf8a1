// Package context carries request-scoped values shared by transport,
// application and logging code without import cycles.
package context

import "context"

type key int

const (
	requestIDKey key = iota
	accountIDKey
)

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// GetRequestID returns "" when ctx is nil or carries no id.
func GetRequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithAccountID tags ctx with the signed-in account.
func WithAccountID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, accountIDKey, id)
}

// GetAccountID reports false for anonymous requests.
func GetAccountID(ctx context.Context) (int64, bool) {
	if ctx == nil {
		return 0, false
	}
	id, ok := ctx.Value(accountIDKey).(int64)
	return id, ok && id > 0
}
