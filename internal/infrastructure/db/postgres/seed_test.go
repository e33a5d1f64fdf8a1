package postgres

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/baechuer/real-time-ressys/services/account-service/internal/domain"
)

type fakeSeederHasher struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (h *fakeSeederHasher) Hash(pw string) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls++
	if h.err != nil {
		return "", h.err
	}
	return "HASH(" + pw + ")", nil
}

type fakeSeederRepo struct {
	mu      sync.Mutex
	created []domain.Account
	err     error
}

func (r *fakeSeederRepo) Create(ctx context.Context, a domain.Account) (domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return domain.Account{}, r.err
	}
	a.ID = int64(len(r.created) + 1)
	r.created = append(r.created, a)
	return a, nil
}

func TestSeedSuperuser_CreatesActiveSuperuser(t *testing.T) {
	t.Parallel()

	repo := &fakeSeederRepo{}
	hasher := &fakeSeederHasher{}

	SeedSuperuser(context.Background(), repo, hasher, " Root@Uni.edu ", "pw", zerolog.Nop())

	if len(repo.created) != 1 {
		t.Fatalf("expected 1 account created, got %d", len(repo.created))
	}
	a := repo.created[0]
	if a.Email != "root@uni.edu" || a.Username != a.Email {
		t.Fatalf("unexpected identity %+v", a)
	}
	if a.Role != domain.RoleSuperuser || !a.IsActive {
		t.Fatalf("expected active superuser, got %+v", a)
	}
	if a.PasswordHash != "HASH(pw)" {
		t.Fatalf("expected hashed password, got %q", a.PasswordHash)
	}
	if a.DateJoined.IsZero() {
		t.Fatalf("expected date joined to be set")
	}
}

func TestSeedSuperuser_NotConfigured_NoOp(t *testing.T) {
	t.Parallel()

	repo := &fakeSeederRepo{}
	hasher := &fakeSeederHasher{}

	SeedSuperuser(context.Background(), repo, hasher, "", "pw", zerolog.Nop())
	SeedSuperuser(context.Background(), repo, hasher, "a@b.com", "", zerolog.Nop())

	if hasher.calls != 0 || len(repo.created) != 0 {
		t.Fatalf("expected no work, got calls=%d created=%d", hasher.calls, len(repo.created))
	}
}

func TestSeedSuperuser_Errors_DoNotPanic(t *testing.T) {
	t.Parallel()

	SeedSuperuser(context.Background(), &fakeSeederRepo{}, &fakeSeederHasher{err: errors.New("boom")}, "a@b.com", "pw", zerolog.Nop())
	SeedSuperuser(context.Background(), &fakeSeederRepo{err: domain.ErrEmailAlreadyExists()}, &fakeSeederHasher{}, "a@b.com", "pw", zerolog.Nop())
	SeedSuperuser(context.Background(), &fakeSeederRepo{err: errors.New("db down")}, &fakeSeederHasher{}, "a@b.com", "pw", zerolog.Nop())
}
