package idempotency

import (
	"context"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest("POST", "/orders", nil)
	assert.Equal(t, "", Key(r))

	r.Header.Set(Header, "  abc-123 ")
	assert.Equal(t, "abc-123", Key(r))

	r.Header.Set(Header, strings.Repeat("x", maxKeyLen+1))
	assert.Equal(t, "", Key(r))
}

func TestMemoryStoreLockAndRecall(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewMemoryStore(time.Minute)
	s.now = func() time.Time { return now }

	ok, err := s.TryLock(ctx, "checkout:u1", "k1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.TryLock(ctx, "checkout:u1", "k1")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.TryLock(ctx, "checkout:u2", "k1")
	require.NoError(t, err)
	assert.True(t, ok, "scopes are independent")

	_, found, err := s.Recall(ctx, "checkout:u1", "k1")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Remember(ctx, "checkout:u1", "k1", "order-9"))
	v, found, err := s.Recall(ctx, "checkout:u1", "k1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "order-9", v)

	now = now.Add(2 * time.Minute)
	_, found, _ = s.Recall(ctx, "checkout:u1", "k1")
	assert.False(t, found, "entries expire after ttl")
	ok, _ = s.TryLock(ctx, "checkout:u1", "k1")
	assert.True(t, ok, "locks expire after ttl")
}

func TestMemoryStoreUnlock(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewMemoryStore(time.Hour)
	ok, _ := s.TryLock(ctx, "s", "k")
	require.True(t, ok)
	require.NoError(t, s.Unlock(ctx, "s", "k"))
	ok, _ = s.TryLock(ctx, "s", "k")
	assert.True(t, ok)
}

func TestRedisStoreIntegration(t *testing.T) {
	addr := os.Getenv("IDEMPOTENCY_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("IDEMPOTENCY_TEST_REDIS_ADDR not set")
	}

	ctx := context.Background()
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })

	s := NewRedisStore(rdb, time.Minute)
	scope := "test:" + time.Now().Format(time.RFC3339Nano)

	ok, err := s.TryLock(ctx, scope, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.TryLock(ctx, scope, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Remember(ctx, scope, "k", "v"))
	v, found, err := s.Recall(ctx, scope, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v", v)
	require.NoError(t, s.Unlock(ctx, scope, "k"))
}
