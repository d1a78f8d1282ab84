package cache

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingObserver struct{ hits, misses int }

func (o *countingObserver) CacheHit(string)  { o.hits++ }
func (o *countingObserver) CacheMiss(string) { o.misses++ }

type quote struct {
	Ticker string  `json:"ticker"`
	Price  float64 `json:"price"`
}

func TestKey_StableAndArgumentSensitive(t *testing.T) {
	a := Key("prices", "AAPL", "2024-01-01")
	assert.Equal(t, a, Key("prices", "AAPL", "2024-01-01"))
	assert.NotEqual(t, a, Key("prices", "MSFT", "2024-01-01"))
	assert.NotEqual(t, a, Key("fundamentals", "AAPL", "2024-01-01"))
	assert.Contains(t, a, "prices:")
}

func TestGetOrLoad_HitsUntilExpiry(t *testing.T) {
	store := NewMemoryStore()
	obs := &countingObserver{}
	c := New(store, time.Hour, obs)

	clock := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return clock }
	store.now = c.now

	loads := 0
	load := func(context.Context) (quote, error) {
		loads++
		return quote{Ticker: "TPG", Price: float64(50 + loads)}, nil
	}
	ctx := context.Background()

	v, err := GetOrLoad(ctx, c, "quote", []any{"TPG"}, load)
	require.NoError(t, err)
	assert.Equal(t, 51.0, v.Price)

	clock = clock.Add(59 * time.Minute)
	v, err = GetOrLoad(ctx, c, "quote", []any{"TPG"}, load)
	require.NoError(t, err)
	assert.Equal(t, 51.0, v.Price)
	assert.Equal(t, 1, loads)

	clock = clock.Add(2 * time.Minute)
	v, err = GetOrLoad(ctx, c, "quote", []any{"TPG"}, load)
	require.NoError(t, err)
	assert.Equal(t, 52.0, v.Price)
	assert.Equal(t, 2, loads)
	assert.Equal(t, 1, obs.hits)
	assert.Equal(t, 2, obs.misses)
}

func TestGetOrLoad_ErrorsAreNotCached(t *testing.T) {
	store := NewMemoryStore()
	c := New(store, 0, nil)
	boom := errors.New("boom")

	_, err := GetOrLoad(context.Background(), c, "quote", []any{"X"}, func(context.Context) (quote, error) {
		return quote{}, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, store.Len())
}

func TestGetOrLoad_NilCacheLoadsDirectly(t *testing.T) {
	v, err := GetOrLoad(context.Background(), nil, "quote", nil, func(context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestSQLiteStore_RoundTripAndPurge(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "cache", "tradeideas.db"))
	require.NoError(t, err)
	defer s.Close()

	clock := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k1", []byte(`{"a":1}`), time.Hour))
	require.NoError(t, s.Set(ctx, "k1", []byte(`{"a":2}`), time.Hour))
	require.NoError(t, s.Set(ctx, "k2", []byte(`{}`), time.Minute))

	got, ok, err := s.Get(ctx, "k1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"a":2}`, string(got))

	clock = clock.Add(2 * time.Minute)
	_, ok, err = s.Get(ctx, "k2")
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := s.Purge(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestRedisStore_GetSet(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := newRedisStore(db, "ti:")
	ctx := context.Background()

	mock.ExpectGet("ti:missing").RedisNil()
	_, ok, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	mock.ExpectGet("ti:hit").SetVal(`{"x":1}`)
	val, ok, err := s.Get(ctx, "hit")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"x":1}`, string(val))

	payload := []byte(`{"y":2}`)
	mock.ExpectSet("ti:new", payload, time.Hour).SetVal("OK")
	require.NoError(t, s.Set(ctx, "new", payload, time.Hour))

	mock.ExpectGet("ti:broken").SetErr(redis.TxFailedErr)
	_, _, err = s.Get(ctx, "broken")
	assert.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOpen_Backends(t *testing.T) {
	s, err := Open(Options{})
	require.NoError(t, err)
	assert.Equal(t, "memory", s.Name())

	_, err = Open(Options{Backend: "memcached"})
	assert.ErrorIs(t, err, ErrUnknownBackend)

	s, err = Open(Options{Backend: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "c.db")})
	require.NoError(t, err)
	assert.Equal(t, "sqlite", s.Name())
	assert.NoError(t, s.Close())
}
