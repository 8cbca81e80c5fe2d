package serialcache

import (
	"context"
	"sync"
	"time"

	c "github.com/unkn0wn-root/serialcache/codec"
	"github.com/unkn0wn-root/serialcache/keyqueue"
	pr "github.com/unkn0wn-root/serialcache/provider"
)

// opKey is what the queue serializes on. Flushes use {flush: true}, which no
// caller key can produce.
type opKey struct {
	flush bool
	key   string
}

var flushKey = opKey{flush: true}

type cache[V any] struct {
	provider   pr.Provider
	codec      c.Codec[V]
	log        Logger
	hooks      Hooks
	enabled    bool
	defaultTTL time.Duration

	q         *keyqueue.Queue[opKey]
	closeOnce sync.Once
}

func newCache[V any](opts Options[V]) (*cache[V], error) {
	if opts.Provider == nil && !opts.Disabled {
		return nil, ErrNilProvider
	}

	cc := &cache[V]{
		provider: opts.Provider,
		enabled:  !opts.Disabled,
		q:        keyqueue.New[opKey](),
	}

	// defaults
	cc.log = coalesce[Logger](opts.Logger, NopLogger{})
	cc.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	cc.codec = coalesce[c.Codec[V]](opts.Codec, c.JSON[V]{})
	cc.defaultTTL = opts.DefaultTTL
	if cc.defaultTTL <= 0 {
		cc.defaultTTL = defaultTTL
	}
	return cc, nil
}

func (cc *cache[V]) Enabled() bool { return cc.enabled }

func (cc *cache[V]) Get(ctx context.Context, key string) (V, bool, error) {
	r, err := cc.GetAsync(ctx, key).Wait(ctx)
	return r.Value, r.Found, err
}

func (cc *cache[V]) GetAsync(ctx context.Context, key string) *keyqueue.Future[Lookup[V]] {
	if key == "" {
		return keyqueue.Resolved(Lookup[V]{}, ErrEmptyKey)
	}
	if !cc.enabled {
		return keyqueue.Resolved(Lookup[V]{}, nil)
	}
	return keyqueue.Submit(cc.q, opKey{key: key}, func() (Lookup[V], error) {
		cc.log.Debug("cache get", Fields{"key": key})
		raw, ok, err := cc.provider.Get(ctx, key)
		if err != nil {
			return Lookup[V]{}, cc.storeErr(OpGet, key, err)
		}
		if !ok {
			return Lookup[V]{}, nil
		}
		v, err := cc.codec.Decode(raw)
		if err != nil {
			return Lookup[V]{}, cc.codecErr(OpGet, key, err)
		}
		return Lookup[V]{Value: v, Found: true}, nil
	})
}

func (cc *cache[V]) Put(ctx context.Context, key string, value V, ttl time.Duration) error {
	_, err := cc.PutAsync(ctx, key, value, ttl).Wait(ctx)
	return err
}

// PutAsync encodes value before queueing, so later mutations of value by the
// caller do not leak into the write. ttl == 0 still takes its place in the
// key's queue even though it never reaches the store.
func (cc *cache[V]) PutAsync(ctx context.Context, key string, value V, ttl time.Duration) *keyqueue.Future[struct{}] {
	if key == "" {
		return keyqueue.Resolved(struct{}{}, ErrEmptyKey)
	}
	if !cc.enabled {
		return keyqueue.Resolved(struct{}{}, nil)
	}
	raw, err := cc.codec.Encode(value)
	if err != nil {
		return keyqueue.Resolved(struct{}{}, cc.codecErr(OpPut, key, err))
	}
	expiry, store := ResolveTTL(ttl, cc.defaultTTL)

	return keyqueue.Submit(cc.q, opKey{key: key}, func() (struct{}, error) {
		cc.log.Debug("cache put", Fields{"key": key, "value": string(raw), "ttl": ttlField(expiry, store)})
		if !store {
			cc.hooks.ZeroTTLSkipped(key)
			return struct{}{}, nil
		}
		if err := cc.provider.Set(ctx, key, raw, expiry); err != nil {
			return struct{}{}, cc.storeErr(OpPut, key, err)
		}
		return struct{}{}, nil
	})
}

func (cc *cache[V]) Del(ctx context.Context, key string) error {
	_, err := cc.DelAsync(ctx, key).Wait(ctx)
	return err
}

func (cc *cache[V]) DelAsync(ctx context.Context, key string) *keyqueue.Future[struct{}] {
	if key == "" {
		return keyqueue.Resolved(struct{}{}, ErrEmptyKey)
	}
	if !cc.enabled {
		return keyqueue.Resolved(struct{}{}, nil)
	}
	return keyqueue.Submit(cc.q, opKey{key: key}, func() (struct{}, error) {
		cc.log.Debug("cache del", Fields{"key": key})
		if err := cc.provider.Del(ctx, key); err != nil {
			return struct{}{}, cc.storeErr(OpDel, key, err)
		}
		return struct{}{}, nil
	})
}

func (cc *cache[V]) Clear(ctx context.Context) error {
	_, err := cc.ClearAsync(ctx).Wait(ctx)
	return err
}

// ClearAsync flushes the whole store. Flushes are serialized with each other
// only; in-flight operations on individual keys may land before or after it.
func (cc *cache[V]) ClearAsync(ctx context.Context) *keyqueue.Future[struct{}] {
	if !cc.enabled {
		return keyqueue.Resolved(struct{}{}, nil)
	}
	return keyqueue.Submit(cc.q, flushKey, func() (struct{}, error) {
		cc.log.Debug("cache clear", nil)
		if err := cc.provider.FlushAll(ctx); err != nil {
			return struct{}{}, cc.storeErr(OpClear, "", err)
		}
		return struct{}{}, nil
	})
}

func (cc *cache[V]) Keys(ctx context.Context) ([]string, error) {
	if !cc.enabled {
		return nil, nil
	}
	keys, err := cc.provider.Keys(ctx, "*")
	if err != nil {
		return nil, cc.storeErr(OpKeys, "", err)
	}
	return keys, nil
}

func (cc *cache[V]) Shutdown(ctx context.Context) {
	if cc.provider == nil {
		return
	}
	cc.closeOnce.Do(func() {
		cc.log.Info("cache shutdown", nil)
		if err := cc.provider.Close(ctx); err != nil {
			cc.log.Error("provider close failed", Fields{"err": err})
			cc.hooks.ShutdownError(err)
		}
	})
}

func (cc *cache[V]) storeErr(op Op, key string, err error) error {
	cc.log.Warn("store error", Fields{"op": string(op), "key": key, "err": err})
	cc.hooks.StoreError(op, key, err)
	return &StoreError{Op: op, Key: key, Err: err}
}

func (cc *cache[V]) codecErr(op Op, key string, err error) error {
	cc.log.Error("codec error", Fields{"op": string(op), "key": key, "err": err})
	cc.hooks.CodecError(op, key, err)
	return &CodecError{Op: op, Key: key, Err: err}
}

func ttlField(expiry time.Duration, store bool) string {
	switch {
	case !store:
		return "skip"
	case expiry == 0:
		return "none"
	}
	return expiry.String()
}
