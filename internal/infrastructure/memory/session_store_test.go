package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baechuer/real-time-ressys/services/account-service/internal/domain"
)

func TestSessionStore_CreateGetDestroy(t *testing.T) {
	ctx := context.Background()
	s := NewSessionStore()

	sess, err := s.Create(ctx, 7, time.Hour)
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, int64(7), sess.AccountID)

	got, err := s.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)

	require.NoError(t, s.Destroy(ctx, sess.ID))
	require.NoError(t, s.Destroy(ctx, sess.ID))

	_, err = s.Get(ctx, sess.ID)
	assert.True(t, domain.Is(err, "session_invalid"))
}

func TestSessionStore_Expired(t *testing.T) {
	ctx := context.Background()
	s := NewSessionStore()
	base := time.Now()
	s.now = func() time.Time { return base }

	sess, err := s.Create(ctx, 1, time.Minute)
	require.NoError(t, err)

	s.now = func() time.Time { return base.Add(2 * time.Minute) }
	_, err = s.Get(ctx, sess.ID)
	assert.True(t, domain.Is(err, "session_invalid"))
}

func TestSessionStore_DestroyAll_OnlyThatAccount(t *testing.T) {
	ctx := context.Background()
	s := NewSessionStore()

	a1, _ := s.Create(ctx, 1, time.Hour)
	a2, _ := s.Create(ctx, 1, time.Hour)
	b1, _ := s.Create(ctx, 2, time.Hour)

	require.NoError(t, s.DestroyAll(ctx, 1))

	_, err := s.Get(ctx, a1.ID)
	assert.Error(t, err)
	_, err = s.Get(ctx, a2.ID)
	assert.Error(t, err)
	_, err = s.Get(ctx, b1.ID)
	assert.NoError(t, err)
}

func TestSessionStore_RejectsZeroAccount(t *testing.T) {
	_, err := NewSessionStore().Create(context.Background(), 0, time.Hour)
	assert.True(t, domain.Is(err, "missing_field"))
}
