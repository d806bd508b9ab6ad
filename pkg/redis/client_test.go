package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestFixedWindowCountsHitsAgainstLimit(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	client := &Client{store: store}

	for want := int64(1); want <= 2; want++ {
		allowed, count, err := client.FixedWindowAllow(ctx, "otp:alice", 2, time.Minute)
		require.NoError(t, err)
		require.True(t, allowed)
		require.Equal(t, want, count)
	}

	allowed, count, err := client.FixedWindowAllow(ctx, "otp:alice", 2, time.Minute)
	require.NoError(t, err)
	require.False(t, allowed)
	require.Equal(t, int64(3), count)
}

func TestFixedWindowArmsExpiryOnce(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	client := &Client{store: store}

	for i := 0; i < 3; i++ {
		_, _, err := client.FixedWindowAllow(ctx, "login:bob", 5, time.Minute)
		require.NoError(t, err)
	}

	key := client.RateLimitKey("login:bob")
	require.Equal(t, []time.Duration{time.Minute}, store.expiries[key])
}

func TestFixedWindowScopesAreIndependent(t *testing.T) {
	ctx := context.Background()
	client := &Client{store: newFakeStore()}

	_, _, err := client.FixedWindowAllow(ctx, "otp:alice", 1, time.Minute)
	require.NoError(t, err)

	allowed, count, err := client.FixedWindowAllow(ctx, "otp:bob", 1, time.Minute)
	require.NoError(t, err)
	require.True(t, allowed)
	require.Equal(t, int64(1), count)
}

func TestSetNXOnlyWritesAbsentKeys(t *testing.T) {
	ctx := context.Background()
	client := &Client{store: newFakeStore()}

	ok, err := client.SetNX(ctx, "worker:lock", "token-a", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = client.SetNX(ctx, "worker:lock", "token-b", time.Minute)
	require.NoError(t, err)
	require.False(t, ok)

	held, err := client.Get(ctx, "worker:lock")
	require.NoError(t, err)
	require.Equal(t, "token-a", held)

	require.NoError(t, client.Del(ctx, "worker:lock"))
	_, err = client.Get(ctx, "worker:lock")
	require.ErrorIs(t, err, redis.Nil)
}

func TestRateLimitKeyIsNamespaced(t *testing.T) {
	client := &Client{}
	require.Equal(t, "koor:rate_limit:otp:alice", client.RateLimitKey("otp:alice"))
}

func TestUninitializedClientErrors(t *testing.T) {
	client := &Client{}
	_, err := client.Get(context.Background(), "anything")
	require.ErrorIs(t, err, errNotInitialized)
}

// fakeStore is an in-memory stand-in for the redis command surface.
type fakeStore struct {
	values   map[string]string
	counters map[string]int64
	expiries map[string][]time.Duration
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		values:   make(map[string]string),
		counters: make(map[string]int64),
		expiries: make(map[string][]time.Duration),
	}
}

func (f *fakeStore) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (f *fakeStore) Set(_ context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	f.values[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeStore) Get(_ context.Context, key string) *redis.StringCmd {
	value, ok := f.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(value, nil)
}

func (f *fakeStore) SetNX(_ context.Context, key string, value any, _ time.Duration) *redis.BoolCmd {
	if _, taken := f.values[key]; taken {
		return redis.NewBoolResult(false, nil)
	}
	f.values[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (f *fakeStore) Incr(_ context.Context, key string) *redis.IntCmd {
	f.counters[key]++
	return redis.NewIntResult(f.counters[key], nil)
}

func (f *fakeStore) Expire(_ context.Context, key string, ttl time.Duration) *redis.BoolCmd {
	f.expiries[key] = append(f.expiries[key], ttl)
	return redis.NewBoolResult(true, nil)
}

func (f *fakeStore) Del(_ context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(f.values, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}
