package session

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/SmokyRM/snt-ulybka-sub000/internal/repository"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newSQLiteStore(t *testing.T) (*SQLiteStore, string) {
	t.Helper()
	database := testutil.NewTestDB(t)
	u := testutil.NewTestUser("Session Owner")
	require.NoError(t, repository.NewSQLiteUserRepo(database).Create(context.Background(), u))
	return NewSQLiteStore(database), u.ID
}

func TestSQLiteStore_CreateGetDelete(t *testing.T) {
	store, userID := newSQLiteStore(t)
	ctx := context.Background()

	sess, err := store.Create(ctx, userID, time.Hour)
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)

	got, err := store.Get(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, userID, got.UserID)

	require.NoError(t, store.Delete(ctx, sess.Token))
	_, err = store.Get(ctx, sess.Token)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStore_ExpiredSessionIsGone(t *testing.T) {
	store, userID := newSQLiteStore(t)
	ctx := context.Background()

	sess, err := store.Create(ctx, userID, time.Hour)
	require.NoError(t, err)

	store.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = store.Get(ctx, sess.Token)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStore_UnknownToken(t *testing.T) {
	store, _ := newSQLiteStore(t)

	_, err := store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, store.Ping(context.Background()))
}

func TestNewRedisStore_UnreachableServer(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := NewRedisStore(ctx, RedisOptions{Addr: "127.0.0.1:1"}, zap.NewNop())
	assert.Error(t, err)
}

// newRedisStore connects to the server named by SNT_TEST_REDIS_ADDR, using
// DB 15 so a developer's data is left alone.
func newRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping redis test in short mode")
	}
	addr := os.Getenv("SNT_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("SNT_TEST_REDIS_ADDR not set")
	}
	store, err := NewRedisStore(context.Background(), RedisOptions{Addr: addr, DB: 15}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRedisStore_CreateGetDelete(t *testing.T) {
	store := newRedisStore(t)
	ctx := context.Background()

	sess, err := store.Create(ctx, "user-1", time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Delete(ctx, sess.Token) })

	got, err := store.Get(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", got.UserID)
	assert.WithinDuration(t, sess.ExpiresAt, got.ExpiresAt, time.Second)

	ttl, err := store.client.TTL(ctx, keyPrefix+sess.Token).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, time.Hour)

	require.NoError(t, store.Delete(ctx, sess.Token))
	_, err = store.Get(ctx, sess.Token)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, store.Ping(ctx))
}

func TestRedisStore_ExpiresWithTTL(t *testing.T) {
	store := newRedisStore(t)
	ctx := context.Background()

	sess, err := store.Create(ctx, "user-1", time.Second)
	require.NoError(t, err)

	time.Sleep(1500 * time.Millisecond)
	_, err = store.Get(ctx, sess.Token)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_DropsUndecodableSession(t *testing.T) {
	store := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.client.Set(ctx, keyPrefix+"garbled", "{not json", time.Minute).Err())

	_, err := store.Get(ctx, "garbled")
	assert.ErrorIs(t, err, ErrNotFound)
	n, err := store.client.Exists(ctx, keyPrefix+"garbled").Result()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSession_Expired(t *testing.T) {
	now := time.Now()
	s := &Session{ExpiresAt: now}
	assert.True(t, s.Expired(now))
	assert.False(t, s.Expired(now.Add(-time.Second)))
}
