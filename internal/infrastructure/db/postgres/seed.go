package postgres

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/baechuer/real-time-ressys/services/account-service/internal/domain"
)

type SeederHasher interface {
	Hash(password string) (string, error)
}

type SeederRepo interface {
	Create(ctx context.Context, a domain.Account) (domain.Account, error)
}

// SeedSuperuser creates the bootstrap superuser if it does not exist yet.
// Restart safe: an existing account with that email is left untouched.
// Works with any SeederRepo, the memory store included.
func SeedSuperuser(ctx context.Context, repo SeederRepo, hasher SeederHasher, email, password string, lg zerolog.Logger) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		lg.Debug().Msg("[seed] no superuser configured")
		return
	}

	hash, err := hasher.Hash(password)
	if err != nil {
		lg.Error().Err(err).Msg("[seed] hash failed")
		return
	}

	a, err := repo.Create(ctx, domain.Account{
		Email:        email,
		Username:     email,
		PasswordHash: hash,
		IsActive:     true,
		Role:         domain.RoleSuperuser,
		DateJoined:   time.Now().UTC(),
	})
	if err != nil {
		if domain.Is(err, "email_already_exists") {
			lg.Info().Msg("[seed] superuser already present")
			return
		}
		lg.Error().Err(err).Msg("[seed] superuser create failed")
		return
	}
	lg.Info().Int64("account_id", a.ID).Msg("[seed] superuser created")
}
