package auth

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/baechuer/real-time-ressys/services/account-service/internal/domain"
)

/*
Shared audit capture
*/

type auditEntry struct {
	action string
	fields map[string]string
}

/*
Fakes for ports
*/

type fakeAccountRepo struct {
	mu sync.Mutex

	nextID int64
	byID   map[int64]domain.Account

	// injected errors (if set, method returns error)
	getByIDErr    error
	getByEmailErr error
	createErr     error
	updateErr     error

	// record calls
	updates []struct {
		id    int64
		patch domain.AccountPatch
	}
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{byID: map[int64]domain.Account{}}
}

// put stores a fixture as-is.
func (f *fakeAccountRepo) put(a domain.Account) domain.Account {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a.ID == 0 {
		f.nextID++
		a.ID = f.nextID
	} else if a.ID > f.nextID {
		f.nextID = a.ID
	}
	f.byID[a.ID] = a
	return a
}

func (f *fakeAccountRepo) Create(ctx context.Context, a domain.Account) (domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createErr != nil {
		return domain.Account{}, f.createErr
	}
	for _, existing := range f.byID {
		if existing.Email == a.Email {
			return domain.Account{}, domain.ErrEmailAlreadyExists()
		}
	}
	f.nextID++
	a.ID = f.nextID
	f.byID[a.ID] = a
	return a, nil
}

func (f *fakeAccountRepo) GetByID(ctx context.Context, id int64) (domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.getByIDErr != nil {
		return domain.Account{}, f.getByIDErr
	}
	a, ok := f.byID[id]
	if !ok {
		return domain.Account{}, domain.ErrUserNotFound()
	}
	return a, nil
}

func (f *fakeAccountRepo) GetByEmail(ctx context.Context, email string) (domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.getByEmailErr != nil {
		return domain.Account{}, f.getByEmailErr
	}
	for _, a := range f.byID {
		if a.Email == email {
			return a, nil
		}
	}
	return domain.Account{}, domain.ErrUserNotFound()
}

func (f *fakeAccountRepo) Update(ctx context.Context, id int64, patch domain.AccountPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.updateErr != nil {
		return f.updateErr
	}
	a, ok := f.byID[id]
	if !ok {
		return domain.ErrUserNotFound()
	}
	f.byID[id] = patch.Apply(a)
	f.updates = append(f.updates, struct {
		id    int64
		patch domain.AccountPatch
	}{id, patch})
	return nil
}

func (f *fakeAccountRepo) Delete(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.byID[id]; !ok {
		return domain.ErrUserNotFound()
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeAccountRepo) ListExcluding(ctx context.Context, id int64) ([]domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]domain.Account, 0, len(f.byID))
	for _, a := range f.byID {
		if a.ID != id {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (f *fakeAccountRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byID)
}

type fakeHasher struct {
	hashFn    func(pw string) (string, error)
	compareFn func(hash, pw string) error
}

func (h *fakeHasher) Hash(password string) (string, error) {
	if h.hashFn != nil {
		return h.hashFn(password)
	}
	return "hash:" + password, nil
}

func (h *fakeHasher) Compare(hash string, password string) error {
	if h.compareFn != nil {
		return h.compareFn(hash, password)
	}
	if hash == "hash:"+password {
		return nil
	}
	return errors.New("mismatch")
}

type fakeSessions struct {
	mu sync.Mutex

	seq  int
	byID map[string]Session

	createErr  error
	destroyErr error

	destroyed    []string
	destroyedAll []int64
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{byID: map[string]Session{}}
}

func (s *fakeSessions) Create(ctx context.Context, accountID int64, ttl time.Duration) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.createErr != nil {
		return Session{}, s.createErr
	}
	s.seq++
	now := time.Now()
	sess := Session{
		ID:        fmt.Sprintf("sid:%d:%d", accountID, s.seq),
		AccountID: accountID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	s.byID[sess.ID] = sess
	return sess, nil
}

func (s *fakeSessions) Get(ctx context.Context, sessionID string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.byID[sessionID]
	if !ok {
		return Session{}, domain.ErrSessionInvalid()
	}
	return sess, nil
}

func (s *fakeSessions) Destroy(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.destroyErr != nil {
		return s.destroyErr
	}
	delete(s.byID, sessionID)
	s.destroyed = append(s.destroyed, sessionID)
	return nil
}

func (s *fakeSessions) DestroyAll(ctx context.Context, accountID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, sess := range s.byID {
		if sess.AccountID == accountID {
			delete(s.byID, id)
		}
	}
	s.destroyedAll = append(s.destroyedAll, accountID)
	return nil
}

// fakeResets binds tokens to the password hash like the real issuer.
type fakeResets struct {
	issueErr error
}

func (r *fakeResets) IssueResetToken(a domain.Account, ttl time.Duration) (string, error) {
	if r.issueErr != nil {
		return "", r.issueErr
	}
	return fmt.Sprintf("rst.%d.%s", a.ID, strings.ReplaceAll(a.PasswordHash, ":", "-")), nil
}

func (r *fakeResets) VerifyResetToken(token string, a domain.Account) error {
	want, _ := r.IssueResetToken(a, 0)
	if token != want {
		return domain.ErrResetTokenInvalid()
	}
	return nil
}

type fakePublisher struct {
	resetErr  error
	resetEvts []PasswordResetEvent
}

func (p *fakePublisher) PublishPasswordReset(ctx context.Context, evt PasswordResetEvent) error {
	if p.resetErr != nil {
		return p.resetErr
	}
	p.resetEvts = append(p.resetEvts, evt)
	return nil
}

/*
Service factory for tests
*/

type testDeps struct {
	accounts *fakeAccountRepo
	hasher   *fakeHasher
	sessions *fakeSessions
	resets   *fakeResets
	pub      *fakePublisher
	audits   *[]auditEntry
}

func newSvcForTest(t *testing.T) (*Service, testDeps) {
	t.Helper()

	d := testDeps{
		accounts: newFakeAccountRepo(),
		hasher:   &fakeHasher{},
		sessions: newFakeSessions(),
		resets:   &fakeResets{},
		pub:      &fakePublisher{},
		audits:   &[]auditEntry{},
	}
	cfg := Config{
		SessionTTL:            time.Hour,
		PasswordResetBaseURL:  "https://accounts.test/",
		PasswordResetTokenTTL: 30 * time.Minute,
	}

	svc := NewService(d.accounts, d.hasher, d.sessions, d.resets, d.pub, cfg).
		WithAudit(func(action string, fields map[string]string) {
			cp := map[string]string{}
			for k, v := range fields {
				cp[k] = v
			}
			*d.audits = append(*d.audits, auditEntry{action: action, fields: cp})
		})

	if svc == nil {
		t.Fatalf("svc is nil")
	}
	return svc, d
}

/*
Small assertions
*/

func requireDomainCode(t *testing.T, err error, wantCode string) {
	t.Helper()
	got := domain.CodeOf(err)
	if got != wantCode {
		t.Fatalf("expected domain code %q, got %q (err=%v)", wantCode, got, err)
	}
}

func lastAudit(audits *[]auditEntry) (auditEntry, bool) {
	if audits == nil || len(*audits) == 0 {
		return auditEntry{}, false
	}
	return (*audits)[len(*audits)-1], true
}

func requireAuditAction(t *testing.T, audits *[]auditEntry, wantAction string) auditEntry {
	t.Helper()
	e, ok := lastAudit(audits)
	if !ok {
		t.Fatalf("expected audit entry, got none")
	}
	if e.action != wantAction {
		t.Fatalf("expected audit action %q, got %q", wantAction, e.action)
	}
	return e
}

func requireAuditField(t *testing.T, e auditEntry, k, want string) {
	t.Helper()
	got := strings.TrimSpace(e.fields[k])
	if got != want {
		t.Fatalf("expected audit field %q=%q, got %q (all=%v)", k, want, got, e.fields)
	}
}
