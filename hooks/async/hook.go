// usage:
//
// import (
//
//	"log/slog"
//
//	"github.com/unkn0wn-root/serialcache"
//	"github.com/unkn0wn-root/serialcache/hooks/async"
//	"github.com/unkn0wn-root/serialcache/sloghooks"
//
// )
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{
//	    StoreErrorEvery: 10, // sample logs: ~every 10th store error
//	})
//
// hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
// defer hooks.Close()
//
//	cache, _ := serialcache.New[User](serialcache.Options[User]{
//	    Provider: provider,
//	    Hooks:    hooks, // or `raw` if you don’t want async
//	})
package asynchook

import (
	"sync"
	"sync/atomic"

	"github.com/unkn0wn-root/serialcache"
)

// Hooks moves hook calls off the goroutine running the cache operation, so a
// slow hook never delays the next operation queued on the same key. Events
// are dropped when the buffer is full or after Close.
type Hooks struct {
	inner serialcache.Hooks
	q     chan func()
	wg    sync.WaitGroup
	once  sync.Once

	mu      sync.RWMutex
	closed  bool
	dropped atomic.Uint64
}

var _ serialcache.Hooks = (*Hooks)(nil)

func New(inner serialcache.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close drains queued events and stops the workers.
func (h *Hooks) Close() {
	h.once.Do(func() {
		h.mu.Lock()
		h.closed = true
		close(h.q)
		h.mu.Unlock()
		h.wg.Wait()
	})
}

// Dropped reports how many events were discarded.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		h.dropped.Add(1)
		return
	}
	select {
	case h.q <- f:
	default: // drop
		h.dropped.Add(1)
	}
}

func (h *Hooks) StoreError(op serialcache.Op, k string, err error) {
	h.try(func() { h.inner.StoreError(op, k, err) })
}
func (h *Hooks) CodecError(op serialcache.Op, k string, err error) {
	h.try(func() { h.inner.CodecError(op, k, err) })
}
func (h *Hooks) ZeroTTLSkipped(k string) { h.try(func() { h.inner.ZeroTTLSkipped(k) }) }
func (h *Hooks) ShutdownError(err error) { h.try(func() { h.inner.ShutdownError(err) }) }
