package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/baechuer/real-time-ressys/services/account-service/internal/domain"
)

// AccountRepo is the in-memory auth.AccountRepo used by tests and STORE=memory.
type AccountRepo struct {
	mu      sync.RWMutex
	nextID  int64
	byID    map[int64]domain.Account
	byEmail map[string]int64 // normalized email -> id
}

func NewAccountRepo() *AccountRepo {
	return &AccountRepo{
		byID:    make(map[int64]domain.Account),
		byEmail: make(map[string]int64),
	}
}

func (r *AccountRepo) Create(ctx context.Context, a domain.Account) (domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a.Email = domain.NormalizeEmail(a.Email)
	if a.Username == "" {
		a.Username = a.Email
	}
	if a.DateJoined.IsZero() {
		a.DateJoined = time.Now().UTC()
	}
	if _, exists := r.byEmail[a.Email]; exists {
		return domain.Account{}, domain.ErrEmailAlreadyExists()
	}

	r.nextID++
	a.ID = r.nextID
	r.byID[a.ID] = a
	r.byEmail[a.Email] = a.ID
	return a, nil
}

func (r *AccountRepo) GetByID(ctx context.Context, id int64) (domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byID[id]
	if !ok {
		return domain.Account{}, domain.ErrUserNotFound()
	}
	return a, nil
}

func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[domain.NormalizeEmail(email)]
	if !ok {
		return domain.Account{}, domain.ErrUserNotFound()
	}
	return r.byID[id], nil
}

func (r *AccountRepo) Update(ctx context.Context, id int64, patch domain.AccountPatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok {
		return domain.ErrUserNotFound()
	}
	r.byID[id] = patch.Apply(a)
	return nil
}

func (r *AccountRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok {
		return domain.ErrUserNotFound()
	}
	delete(r.byID, id)
	delete(r.byEmail, a.Email)
	return nil
}

func (r *AccountRepo) ListExcluding(ctx context.Context, id int64) ([]domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Account, 0, len(r.byID))
	for _, a := range r.byID {
		if a.ID == id {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

// Ping lets the readiness probe treat the memory store like a database.
func (r *AccountRepo) Ping(ctx context.Context) error { return nil }
