package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/baechuer/real-time-ressys/services/account-service/internal/application/auth"
	"github.com/baechuer/real-time-ressys/services/account-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/account-service/internal/infrastructure/security"
)

// SessionStore is the in-process fallback used when Redis is unavailable.
type SessionStore struct {
	mu sync.RWMutex
	// sessionID -> session
	byID map[string]auth.Session
	// accountID -> set(sessionID)
	byAccount map[int64]map[string]struct{}

	now func() time.Time
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		byID:      make(map[string]auth.Session),
		byAccount: make(map[int64]map[string]struct{}),
		now:       time.Now,
	}
}

func (s *SessionStore) Create(ctx context.Context, accountID int64, ttl time.Duration) (auth.Session, error) {
	if accountID <= 0 {
		return auth.Session{}, domain.ErrMissingField("account_id")
	}
	id, err := security.RandomID(security.SessionIDBytes)
	if err != nil {
		return auth.Session{}, domain.ErrRandomFailed(err)
	}

	now := s.now()
	sess := auth.Session{
		ID:        id,
		AccountID: accountID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.byID[id] = sess
	if s.byAccount[accountID] == nil {
		s.byAccount[accountID] = make(map[string]struct{})
	}
	s.byAccount[accountID][id] = struct{}{}
	return sess, nil
}

func (s *SessionStore) Get(ctx context.Context, sessionID string) (auth.Session, error) {
	sessionID = strings.TrimSpace(sessionID)

	s.mu.RLock()
	sess, ok := s.byID[sessionID]
	s.mu.RUnlock()

	if !ok {
		return auth.Session{}, domain.ErrSessionInvalid()
	}
	if s.now().After(sess.ExpiresAt) {
		_ = s.Destroy(ctx, sessionID)
		return auth.Session{}, domain.ErrSessionInvalid()
	}
	return sess, nil
}

func (s *SessionStore) Destroy(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.byID[sessionID]
	if !ok {
		return nil // idempotent
	}
	delete(s.byID, sessionID)
	if set := s.byAccount[sess.AccountID]; set != nil {
		delete(set, sessionID)
		if len(set) == 0 {
			delete(s.byAccount, sess.AccountID)
		}
	}
	return nil
}

func (s *SessionStore) DestroyAll(ctx context.Context, accountID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id := range s.byAccount[accountID] {
		delete(s.byID, id)
	}
	delete(s.byAccount, accountID)
	return nil
}
