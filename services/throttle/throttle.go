// Package throttle limits the failed login attempts per key (usually the username).
// After MaxAttempts failures within Window, the key is locked until the window expires.
package throttle

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	"github.com/trezcool/portal/core"
)

const keyPrefix = "portal:login-failures:"

// ErrTooManyAttempts is returned by the login handlers when a key is locked.
var ErrTooManyAttempts = errors.New("too many failed login attempts, try again later")

type Limiter interface {
	// Allowed reports whether key may attempt to log in.
	Allowed(ctx context.Context, key string) (bool, error)
	// Fail records a failed attempt and returns the number of failures within the window.
	Fail(ctx context.Context, key string) (int, error)
	// Reset forgets the failures of key (after a successful login).
	Reset(ctx context.Context, key string) error
}

func normalize(key string) string {
	return keyPrefix + strings.ToLower(strings.TrimSpace(key))
}

// New returns a Redis limiter if an address is configured, an in-memory one otherwise.
func New(conf *core.Config) (Limiter, func() error) {
	if conf.Redis.Addr == "" {
		return NewMemoryLimiter(conf.Login.MaxAttempts, conf.Login.Window), func() error { return nil }
	}
	client := redis.NewClient(&redis.Options{
		Addr:     conf.Redis.Addr,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})
	return NewRedisLimiter(client, conf.Login.MaxAttempts, conf.Login.Window), client.Close
}

type redisLimiter struct {
	client      redis.Cmdable
	maxAttempts int
	window      time.Duration
}

var _ Limiter = (*redisLimiter)(nil)

func NewRedisLimiter(client redis.Cmdable, maxAttempts int, window time.Duration) *redisLimiter {
	return &redisLimiter{client: client, maxAttempts: maxAttempts, window: window}
}

func (l *redisLimiter) Allowed(ctx context.Context, key string) (bool, error) {
	if l.maxAttempts <= 0 {
		return true, nil
	}
	n, err := l.client.Get(ctx, normalize(key)).Int()
	switch {
	case err == redis.Nil:
		return true, nil
	case err != nil:
		return false, errors.Wrap(err, "reading login failures")
	}
	return n < l.maxAttempts, nil
}

func (l *redisLimiter) Fail(ctx context.Context, key string) (int, error) {
	k := normalize(key)
	var (
		incr *redis.IntCmd
		ttl  *redis.DurationCmd
	)
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, k)
		ttl = pipe.TTL(ctx, k)
		return nil
	})
	if err != nil {
		return 0, errors.Wrap(err, "counting login failure")
	}
	n := int(incr.Val())
	// the window starts with the first failure. A counter left without expiry is given one too.
	if ttl.Val() < 0 {
		if err = l.client.Expire(ctx, k, l.window).Err(); err != nil {
			return n, errors.Wrap(err, "setting login failures expiry")
		}
	}
	return n, nil
}

func (l *redisLimiter) Reset(ctx context.Context, key string) error {
	return errors.Wrap(l.client.Del(ctx, normalize(key)).Err(), "resetting login failures")
}

type entry struct {
	count     int
	expiresAt time.Time
}

type memoryLimiter struct {
	mu          sync.Mutex
	entries     map[string]entry
	nextSweep   time.Time
	maxAttempts int
	window      time.Duration
	now         func() time.Time
}

var _ Limiter = (*memoryLimiter)(nil)

func NewMemoryLimiter(maxAttempts int, window time.Duration) *memoryLimiter {
	return &memoryLimiter{
		entries:     make(map[string]entry),
		maxAttempts: maxAttempts,
		window:      window,
		now:         time.Now,
	}
}

// get must be called with the lock held.
func (l *memoryLimiter) get(key string) entry {
	e, ok := l.entries[key]
	if ok && !l.now().Before(e.expiresAt) {
		delete(l.entries, key)
		return entry{}
	}
	return e
}

func (l *memoryLimiter) Allowed(_ context.Context, key string) (bool, error) {
	if l.maxAttempts <= 0 {
		return true, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.get(normalize(key)).count < l.maxAttempts, nil
}

// sweep drops the expired entries, at most once per window. Must be called with the lock held.
func (l *memoryLimiter) sweep() {
	now := l.now()
	if now.Before(l.nextSweep) {
		return
	}
	for k, e := range l.entries {
		if !now.Before(e.expiresAt) {
			delete(l.entries, k)
		}
	}
	l.nextSweep = now.Add(l.window)
}

func (l *memoryLimiter) Fail(_ context.Context, key string) (int, error) {
	k := normalize(key)
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sweep()
	e := l.get(k)
	if e.count == 0 {
		e.expiresAt = l.now().Add(l.window)
	}
	e.count++
	l.entries[k] = e
	return e.count, nil
}

func (l *memoryLimiter) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	delete(l.entries, normalize(key))
	l.mu.Unlock()
	return nil
}
