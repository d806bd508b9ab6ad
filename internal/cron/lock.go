package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Lock guards a work cycle so only one worker instance runs it.
type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

type redisStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

// defaultLockTTL outlives a daily cycle by an hour so a crashed holder
// cannot wedge the schedule forever.
const defaultLockTTL = 25 * time.Hour

// RedisLock is a single-holder lock backed by SET NX. Each acquisition
// writes a random token; Release only deletes the key when the stored
// token is still ours, so a lock that expired and was taken over by
// another worker is never released from here.
type RedisLock struct {
	store redisStore
	key   string
	ttl   time.Duration
	token string
}

// NewRedisLock builds a lock on the given key. A zero ttl selects the
// 25 hour default.
func NewRedisLock(store redisStore, key string, ttl time.Duration) (*RedisLock, error) {
	if store == nil {
		return nil, errors.New("cron lock requires a redis store")
	}
	if key == "" {
		return nil, errors.New("cron lock requires a key")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisLock{store: store, key: key, ttl: ttl}, nil
}

// Acquire attempts to take the lock, returning false when another
// holder currently owns it.
func (l *RedisLock) Acquire(ctx context.Context) (bool, error) {
	token := uuid.NewString()
	taken, err := l.store.SetNX(ctx, l.key, token, l.ttl)
	if err != nil {
		return false, fmt.Errorf("acquire cron lock %q: %w", l.key, err)
	}
	if !taken {
		return false, nil
	}
	l.token = token
	return true, nil
}

// Release frees the lock if this instance still holds it.
func (l *RedisLock) Release(ctx context.Context) error {
	if l.token == "" {
		return nil
	}
	held, err := l.store.Get(ctx, l.key)
	switch {
	case errors.Is(err, redis.Nil):
		l.token = ""
		return nil
	case err != nil:
		return fmt.Errorf("inspect cron lock %q: %w", l.key, err)
	case held != l.token:
		// Expired and reacquired elsewhere. Not ours to delete.
		l.token = ""
		return nil
	}
	if err := l.store.Del(ctx, l.key); err != nil {
		return fmt.Errorf("release cron lock %q: %w", l.key, err)
	}
	l.token = ""
	return nil
}
