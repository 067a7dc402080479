package throttle

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exercise runs the common scenario; expire moves the clock past the window.
func exercise(t *testing.T, l Limiter, expire func()) {
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		ok, err := l.Allowed(ctx, "JDoe")
		require.NoError(t, err)
		assert.True(t, ok, "attempt %d", i)
		n, err := l.Fail(ctx, "jdoe ")
		require.NoError(t, err)
		assert.Equal(t, i, n)
	}
	ok, err := l.Allowed(ctx, "jdoe")
	require.NoError(t, err)
	assert.False(t, ok, "locked after 3 failures")

	ok, err = l.Allowed(ctx, "someone-else")
	require.NoError(t, err)
	assert.True(t, ok)

	expire()
	ok, err = l.Allowed(ctx, "jdoe")
	require.NoError(t, err)
	assert.True(t, ok, "unlocked once the window expired")

	_, err = l.Fail(ctx, "jdoe")
	require.NoError(t, err)
	require.NoError(t, l.Reset(ctx, "jdoe"))
	n, err := l.Fail(ctx, "jdoe")
	require.NoError(t, err)
	assert.Equal(t, 1, n, "reset forgets previous failures")
}

func TestRedisLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	l := NewRedisLimiter(client, 3, time.Minute)
	exercise(t, l, func() { mr.FastForward(time.Minute + time.Second) })

	t.Run("counter without expiry", func(t *testing.T) {
		k := normalize("carl")
		require.NoError(t, mr.Set(k, "2"))
		n, err := l.Fail(context.Background(), "carl")
		require.NoError(t, err)
		assert.Equal(t, 3, n)
		assert.Equal(t, time.Minute, mr.TTL(k))

		mr.FastForward(time.Minute + time.Second)
		ok, err := l.Allowed(context.Background(), "carl")
		require.NoError(t, err)
		assert.True(t, ok, "never locked for good")
	})

	t.Run("expiry is not extended", func(t *testing.T) {
		ctx := context.Background()
		k := normalize("ann")
		_, err := l.Fail(ctx, "ann")
		require.NoError(t, err)
		mr.FastForward(30 * time.Second)
		_, err = l.Fail(ctx, "ann")
		require.NoError(t, err)
		assert.Equal(t, 30*time.Second, mr.TTL(k))
	})
}

func TestMemoryLimiter(t *testing.T) {
	now := time.Date(2021, 3, 1, 10, 0, 0, 0, time.UTC)
	l := NewMemoryLimiter(3, time.Minute)
	l.now = func() time.Time { return now }

	exercise(t, l, func() { now = now.Add(time.Minute) })

	t.Run("expired entries are swept", func(t *testing.T) {
		ctx := context.Background()
		for _, uname := range []string{"a", "b", "c"} {
			_, err := l.Fail(ctx, uname)
			require.NoError(t, err)
		}
		now = now.Add(2 * time.Minute)
		_, err := l.Fail(ctx, "d")
		require.NoError(t, err)

		l.mu.Lock()
		defer l.mu.Unlock()
		assert.Len(t, l.entries, 1)
		assert.Contains(t, l.entries, normalize("d"))
	})
}

func TestLimiter_Disabled(t *testing.T) {
	l := NewMemoryLimiter(0, time.Minute)
	for i := 0; i < 10; i++ {
		_, _ = l.Fail(context.Background(), "jdoe")
	}
	ok, err := l.Allowed(context.Background(), "jdoe")
	require.NoError(t, err)
	assert.True(t, ok)
}
