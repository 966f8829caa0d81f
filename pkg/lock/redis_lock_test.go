package lock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLock(t *testing.T) (*miniredis.Miniredis, *RedisLock) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewRedisLock(client)
}

func TestRedisLock(t *testing.T) {
	ctx := context.Background()
	mr, l := newLock(t)

	token, err := l.Acquire(ctx, "nonce:0xabc", time.Minute)
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	_, err = l.Acquire(ctx, "nonce:0xabc", time.Minute)
	assert.True(t, errors.Is(err, ErrNotAcquired))

	// 错误的 token 不能释放
	require.NoError(t, l.Release(ctx, "nonce:0xabc", "other"))
	assert.True(t, mr.Exists("lock:nonce:0xabc"))

	require.NoError(t, l.Release(ctx, "nonce:0xabc", token))
	assert.False(t, mr.Exists("lock:nonce:0xabc"))

	_, err = l.Acquire(ctx, "nonce:0xabc", time.Minute)
	assert.NoError(t, err)
}

func TestAcquireWait(t *testing.T) {
	ctx := context.Background()
	mr, l := newLock(t)

	token, err := l.Acquire(ctx, "k", time.Minute)
	require.NoError(t, err)

	// 锁被占用时，超时返回 ctx 错误
	short, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	_, err = AcquireWait(short, l, "k", time.Minute, 10*time.Millisecond)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	require.NoError(t, l.Release(ctx, "k", token))
	got, err := AcquireWait(ctx, l, "k", time.Minute, 10*time.Millisecond)
	require.NoError(t, err)
	assert.NotEmpty(t, got)
	assert.True(t, mr.Exists("lock:k"))
}
