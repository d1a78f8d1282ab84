// Package cache memoises adapter calls keyed by function identity and arguments
// with a fixed expiry.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultTTL is the conventional one-hour expiry.
const DefaultTTL = time.Hour

// Store is a byte-level backend with per-entry expiry.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Name() string
	Close() error
}

// Observer is notified of hits and misses per backend.
type Observer interface {
	CacheHit(backend string)
	CacheMiss(backend string)
}

// Cache wraps a Store with JSON encoding and the stored-at timestamp.
type Cache struct {
	store    Store
	ttl      time.Duration
	observer Observer
	now      func() time.Time
}

// New returns a cache over store. A non-positive ttl means DefaultTTL.
func New(store Store, ttl time.Duration, observer Observer) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{store: store, ttl: ttl, observer: observer, now: time.Now}
}

// Backend names the underlying store.
func (c *Cache) Backend() string { return c.store.Name() }

// Close releases the store.
func (c *Cache) Close() error { return c.store.Close() }

type entry struct {
	StoredAt time.Time       `json:"stored_at"`
	Value    json.RawMessage `json:"value"`
}

// Key hashes a function identity and its arguments.
func Key(fn string, args ...any) string {
	raw, err := json.Marshal(args)
	if err != nil {
		raw = []byte(fmt.Sprint(args...))
	}
	sum := sha256.Sum256(append([]byte(fn+"\x00"), raw...))
	return fn + ":" + hex.EncodeToString(sum[:16])
}

// GetOrLoad returns the cached value for (fn, args) or calls load and stores its result.
// Failed loads are not cached. Backend errors degrade to a direct load.
func GetOrLoad[T any](ctx context.Context, c *Cache, fn string, args []any, load func(context.Context) (T, error)) (T, error) {
	if c == nil {
		return load(ctx)
	}
	key := Key(fn, args...)

	if raw, ok, err := c.store.Get(ctx, key); err != nil {
		log.Warn().Err(err).Str("backend", c.store.Name()).Str("key", key).Msg("cache read failed")
	} else if ok {
		var e entry
		var v T
		if err := json.Unmarshal(raw, &e); err == nil && c.now().Sub(e.StoredAt) < c.ttl {
			if err := json.Unmarshal(e.Value, &v); err == nil {
				c.hit()
				return v, nil
			}
		}
	}
	c.miss()

	v, err := load(ctx)
	if err != nil {
		return v, err
	}
	value, err := json.Marshal(v)
	if err != nil {
		return v, nil
	}
	raw, err := json.Marshal(entry{StoredAt: c.now(), Value: value})
	if err == nil {
		err = c.store.Set(ctx, key, raw, c.ttl)
	}
	if err != nil {
		log.Warn().Err(err).Str("backend", c.store.Name()).Str("key", key).Msg("cache write failed")
	}
	return v, nil
}

func (c *Cache) hit() {
	if c.observer != nil {
		c.observer.CacheHit(c.store.Name())
	}
}

func (c *Cache) miss() {
	if c.observer != nil {
		c.observer.CacheMiss(c.store.Name())
	}
}

// ErrUnknownBackend is returned by Open for an unsupported backend name.
var ErrUnknownBackend = errors.New("unknown cache backend")

// Options selects and configures a backend.
type Options struct {
	Backend    string
	SQLitePath string
	RedisAddr  string
	RedisDB    int
	RedisPass  string
	Prefix     string
}

// Open builds the configured store.
func Open(opts Options) (Store, error) {
	switch opts.Backend {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return NewSQLiteStore(opts.SQLitePath)
	case "redis":
		return NewRedisStore(opts.RedisAddr, opts.RedisPass, opts.RedisDB, opts.Prefix)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
}
