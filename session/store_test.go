package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRedis struct {
	redis.Cmdable
	values map[string]string
	ttls   map[string]time.Duration
	err    error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if f.err != nil {
		return redis.NewStringResult("", f.err)
	}
	v, ok := f.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	f.values[key] = value.(string)
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := f.values[k]; ok {
			delete(f.values, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestRedisStoreMissingKey(t *testing.T) {
	store := &RedisStore{client: newFakeRedis(), ttl: time.Hour}

	tok, err := store.Get(context.Background(), Key("nobody"))
	require.NoError(t, err)
	assert.Empty(t, tok)
}

func TestRedisStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	fake := newFakeRedis()
	store := &RedisStore{client: fake, ttl: time.Hour}

	require.NoError(t, store.Set(ctx, Key("s1"), "tok"))
	assert.Equal(t, time.Hour, fake.ttls[Key("s1")])

	tok, err := store.Get(ctx, Key("s1"))
	require.NoError(t, err)
	assert.Equal(t, "tok", tok)

	require.NoError(t, store.Delete(ctx, Key("s1")))
	tok, err = store.Get(ctx, Key("s1"))
	require.NoError(t, err)
	assert.Empty(t, tok)
	assert.NoError(t, store.Close())
}

func TestRedisStoreError(t *testing.T) {
	fake := newFakeRedis()
	fake.err = errors.New("connection refused")
	store := &RedisStore{client: fake}

	_, err := store.Get(context.Background(), Key("s1"))
	assert.EqualError(t, err, "connection refused")
}

type fakeRow struct {
	token string
	err   error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*dest[0].(*string) = r.token
	return nil
}

type fakePG struct {
	rows map[string]string
	err  error
}

func (f *fakePG) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	if f.err != nil {
		return fakeRow{err: f.err}
	}
	tok, ok := f.rows[args[0].(string)]
	if !ok {
		return fakeRow{err: pgx.ErrNoRows}
	}
	return fakeRow{token: tok}
}

func (f *fakePG) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag("INSERT 0 1"), f.err
}

func TestPostgresStoreMissingKey(t *testing.T) {
	store := &PostgresStore{db: &fakePG{rows: map[string]string{}}}

	tok, err := store.Get(context.Background(), Key("nobody"))
	require.NoError(t, err)
	assert.Empty(t, tok)
}

func TestPostgresStoreGet(t *testing.T) {
	store := &PostgresStore{db: &fakePG{rows: map[string]string{Key("s1"): "tok"}}}

	tok, err := store.Get(context.Background(), Key("s1"))
	require.NoError(t, err)
	assert.Equal(t, "tok", tok)
}

func TestPostgresStoreError(t *testing.T) {
	store := &PostgresStore{db: &fakePG{err: errors.New("conn closed")}}

	_, err := store.Get(context.Background(), Key("s1"))
	assert.EqualError(t, err, "conn closed")
	assert.Error(t, store.Set(context.Background(), Key("s1"), "tok"))
}

func TestMemoryStorePurge(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	clock := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return clock }

	require.NoError(t, store.Set(ctx, Key("abandoned"), "t1"))
	require.NoError(t, store.Set(ctx, Key("active"), "t2"))

	clock = clock.Add(20 * time.Hour)
	tok, _ := store.Get(ctx, Key("active"))
	assert.Equal(t, "t2", tok)

	clock = clock.Add(10 * time.Hour)
	assert.Equal(t, 1, store.Purge(24*time.Hour))
	assert.Equal(t, 1, store.Len())

	tok, _ = store.Get(ctx, Key("abandoned"))
	assert.Empty(t, tok)
	tok, _ = store.Get(ctx, Key("active"))
	assert.Equal(t, "t2", tok)
}
