package memory

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/baechuer/real-time-ressys/services/account-service/internal/application/auth"
)

// NoopPublisher logs events instead of sending them. Used in dev when no
// broker is configured.
type NoopPublisher struct {
	log zerolog.Logger
}

func NewNoopPublisher(log zerolog.Logger) *NoopPublisher {
	return &NoopPublisher{log: log.With().Str("component", "noop-pub").Logger()}
}

func (p *NoopPublisher) PublishPasswordReset(ctx context.Context, evt auth.PasswordResetEvent) error {
	p.log.Info().
		Int64("account_id", evt.AccountID).
		Str("url", evt.URL).
		Msg("password reset requested")
	return nil
}
