package serialcache

import (
	"context"
	"time"

	c "github.com/unkn0wn-root/serialcache/codec"
	"github.com/unkn0wn-root/serialcache/keyqueue"
	pr "github.com/unkn0wn-root/serialcache/provider"
)

// Cache is a key-value cache in which operations on the same key take effect
// in the order they were submitted. V is the caller's value type.
//
// Blocking methods are the Async variants followed by Future.Wait(ctx).
// Returning early because ctx is done does not withdraw a queued operation.
type Cache[V any] interface {
	Enabled() bool

	// Single key
	Get(ctx context.Context, key string) (v V, ok bool, err error)
	Put(ctx context.Context, key string, value V, ttl time.Duration) error
	Del(ctx context.Context, key string) error

	// Whole store
	Clear(ctx context.Context) error
	Keys(ctx context.Context) ([]string, error) // diagnostics; not queued

	// Shutdown closes the provider once. Failures are logged, never returned.
	Shutdown(ctx context.Context)

	// Queue an operation and return immediately.
	GetAsync(ctx context.Context, key string) *keyqueue.Future[Lookup[V]]
	PutAsync(ctx context.Context, key string, value V, ttl time.Duration) *keyqueue.Future[struct{}]
	DelAsync(ctx context.Context, key string) *keyqueue.Future[struct{}]
	ClearAsync(ctx context.Context) *keyqueue.Future[struct{}]
}

// Lookup is the result of GetAsync. Found is false on a miss.
type Lookup[V any] struct {
	Value V
	Found bool
}

// Options tune the cache. Only Provider is required, unless Disabled.
type Options[V any] struct {
	Provider pr.Provider
	Codec    c.Codec[V] // nil => codec.JSON[V]

	DefaultTTL time.Duration // used for negative ttls; <= 0 => 10m; NoExpiry allowed
	Logger     Logger        // if nil, NopLogger is used
	Hooks      Hooks         // if nil, NopHooks is used
	Disabled   bool          // default false (enabled)
}

func New[V any](opts Options[V]) (Cache[V], error) {
	return newCache[V](opts)
}
