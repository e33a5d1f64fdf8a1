package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/baechuer/real-time-ressys/services/account-service/internal/application/auth"
	"github.com/baechuer/real-time-ressys/services/account-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/account-service/internal/infrastructure/security"
)

// SessionStore implements auth.SessionStore using Redis with per-account versioning:
// - Session id is opaque (random).
// - Redis stores: sess:<id> -> "<account_id>:<ver>:<created_unix_ms>" with TTL
// - Redis stores: sessver:<account_id> -> <ver> (integer, no TTL)
// - DestroyAll increments sessver:<account_id>
// - Get checks the session's ver == current sessver:<account_id>
type SessionStore struct {
	rdb *goredis.Client

	sessPrefix string
	verPrefix  string

	idBytes int // entropy bytes for session id
}

func NewSessionStore(c *Client) *SessionStore {
	var rdb *goredis.Client
	if c != nil {
		rdb = c.rdb
	}
	return &SessionStore{
		rdb:        rdb,
		sessPrefix: "sess:",
		verPrefix:  "sessver:",
		idBytes:    security.SessionIDBytes,
	}
}

var errNotConfigured = errors.New("redis session store not configured")

func (s *SessionStore) Create(ctx context.Context, accountID int64, ttl time.Duration) (auth.Session, error) {
	if accountID <= 0 {
		return auth.Session{}, domain.ErrMissingField("account_id")
	}
	if s.rdb == nil {
		return auth.Session{}, errNotConfigured
	}
	if ttl <= 0 {
		ttl = 14 * 24 * time.Hour
	}

	ver, err := s.getAccountVer(ctx, accountID)
	if err != nil {
		return auth.Session{}, domain.ErrRedisUnavailable(err)
	}

	id, err := security.RandomID(s.idBytes)
	if err != nil {
		return auth.Session{}, domain.ErrRandomFailed(err)
	}

	now := time.Now()
	val := fmt.Sprintf("%d:%d:%d", accountID, ver, now.UnixMilli())
	if err := s.rdb.Set(ctx, s.sessPrefix+id, val, ttl).Err(); err != nil {
		return auth.Session{}, domain.ErrRedisUnavailable(err)
	}

	return auth.Session{
		ID:        id,
		AccountID: accountID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}, nil
}

func (s *SessionStore) Get(ctx context.Context, sessionID string) (auth.Session, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return auth.Session{}, domain.ErrSessionInvalid()
	}
	if s.rdb == nil {
		return auth.Session{}, errNotConfigured
	}

	key := s.sessPrefix + sessionID
	val, err := s.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return auth.Session{}, domain.ErrSessionInvalid()
		}
		return auth.Session{}, domain.ErrRedisUnavailable(err)
	}

	accountID, ver, created, err := parseSessionValue(val)
	if err != nil {
		return auth.Session{}, domain.ErrSessionInvalid()
	}

	curVer, err := s.getAccountVer(ctx, accountID)
	if err != nil {
		return auth.Session{}, domain.ErrRedisUnavailable(err)
	}
	if ver != curVer {
		// revoked generation; drop it (best effort)
		_ = s.rdb.Del(ctx, key).Err()
		return auth.Session{}, domain.ErrSessionInvalid()
	}

	sess := auth.Session{ID: sessionID, AccountID: accountID, CreatedAt: created}
	if ttl, err := s.rdb.PTTL(ctx, key).Result(); err == nil && ttl > 0 {
		sess.ExpiresAt = time.Now().Add(ttl)
	}
	return sess, nil
}

func (s *SessionStore) Destroy(ctx context.Context, sessionID string) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		// idempotent
		return nil
	}
	if s.rdb == nil {
		return errNotConfigured
	}
	if err := s.rdb.Del(ctx, s.sessPrefix+sessionID).Err(); err != nil {
		return domain.ErrRedisUnavailable(err)
	}
	return nil
}

func (s *SessionStore) DestroyAll(ctx context.Context, accountID int64) error {
	if accountID <= 0 {
		return domain.ErrMissingField("account_id")
	}
	if s.rdb == nil {
		return errNotConfigured
	}
	// bump version; every existing session with the old ver becomes invalid
	if err := s.rdb.Incr(ctx, s.verKey(accountID)).Err(); err != nil {
		return domain.ErrRedisUnavailable(err)
	}
	return nil
}

// ---- helpers ----

func (s *SessionStore) verKey(accountID int64) string {
	return s.verPrefix + strconv.FormatInt(accountID, 10)
}

func (s *SessionStore) getAccountVer(ctx context.Context, accountID int64) (int64, error) {
	key := s.verKey(accountID)

	v, err := s.rdb.Get(ctx, key).Result()
	if err == nil {
		n, perr := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if perr == nil {
			return n, nil
		}
		// fallthrough: treat parse error as 0 and repair
	} else if !errors.Is(err, goredis.Nil) {
		return 0, err
	}

	// default ver = 0; SETNX keeps it stable
	_ = s.rdb.SetNX(ctx, key, "0", 0).Err()
	return 0, nil
}

func parseSessionValue(v string) (accountID, ver int64, created time.Time, err error) {
	parts := strings.Split(v, ":")
	if len(parts) != 3 {
		return 0, 0, time.Time{}, fmt.Errorf("bad session value")
	}
	accountID, err = strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
	if err != nil || accountID <= 0 {
		return 0, 0, time.Time{}, fmt.Errorf("bad account id")
	}
	ver, err = strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
	if err != nil {
		return 0, 0, time.Time{}, err
	}
	ms, err := strconv.ParseInt(strings.TrimSpace(parts[2]), 10, 64)
	if err != nil {
		return 0, 0, time.Time{}, err
	}
	return accountID, ver, time.UnixMilli(ms), nil
}

