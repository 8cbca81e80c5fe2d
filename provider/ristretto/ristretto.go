package ristretto

import (
	"context"
	"errors"
	"path"
	"sync"
	"time"

	rc "github.com/dgraph-io/ristretto"

	pr "github.com/unkn0wn-root/serialcache/provider"
)

// item is what the cache holds. Carrying the key lets eviction and rejection
// callbacks, which only see ristretto's key hash, clean up the index.
type item struct {
	key      string
	b        []byte
	deadline time.Time // zero => no expiry
}

// Provider is an in-process store. Ristretto may drop writes under
// contention or cost pressure; a dropped write reads back as a miss.
type Provider struct {
	c    *rc.Cache
	cost func(key string, value []byte) int64
	now  func() time.Time

	// ristretto cannot enumerate its keys, so Keys works off this index.
	// Entries leave it on Del, FlushAll, eviction and rejection.
	mu    sync.Mutex
	index map[string]*item
}

var _ pr.Provider = (*Provider)(nil)

type Config struct {
	NumCounters int64
	MaxCost     int64
	BufferItems int64
	Metrics     bool
	// Cost of an entry; nil => 1 per entry.
	Cost func(key string, value []byte) int64
}

func New(cfg Config) (*Provider, error) {
	if cfg.NumCounters <= 0 || cfg.MaxCost <= 0 || cfg.BufferItems <= 0 {
		return nil, errors.New("ristretto: invalid config")
	}
	p := &Provider{cost: cfg.Cost, now: time.Now, index: make(map[string]*item)}
	if p.cost == nil {
		p.cost = func(string, []byte) int64 { return 1 }
	}

	// callbacks run on ristretto's goroutines and take p.mu, so p.mu is never
	// held across a call into the cache
	c, err := rc.NewCache(&rc.Config{
		NumCounters:        cfg.NumCounters,
		MaxCost:            cfg.MaxCost,
		BufferItems:        cfg.BufferItems,
		Metrics:            cfg.Metrics,
		IgnoreInternalCost: true,
		OnEvict:            p.dropItem,
		OnReject:           p.dropItem,
	})
	if err != nil {
		return nil, err
	}
	p.c = c
	return p, nil
}

func (p *Provider) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := p.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	it, _ := v.(*item)
	if it == nil {
		// self-heal: drop unexpected entry shape
		p.c.Del(key)
		p.forget(key)
		return nil, false, nil
	}
	return it.b, true, nil
}

// Set waits for the write buffer so a following Get observes the value.
func (p *Provider) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0 // ristretto rejects negative TTLs; 0 is "no expiry"
	}
	it := &item{key: key, b: append([]byte(nil), value...)}
	if ttl > 0 {
		it.deadline = p.now().Add(ttl)
	}

	// index first: a rejection can arrive before SetWithTTL returns
	p.mu.Lock()
	p.index[key] = it
	p.mu.Unlock()

	if !p.c.SetWithTTL(key, it, p.cost(key, it.b), ttl) {
		p.drop(it)
	}
	p.c.Wait()
	return nil
}

func (p *Provider) Del(_ context.Context, key string) error {
	p.c.Del(key)
	p.forget(key)
	return nil
}

// FlushAll clears the cache; the eviction callback empties the index.
func (p *Provider) FlushAll(_ context.Context) error {
	p.c.Clear()
	return nil
}

// Keys lists indexed keys whose deadline has not passed. It never reads
// through the cache, so listing leaves hit/miss metrics and admission
// frequencies untouched. Expired keys are pruned from the index on the way.
func (p *Provider) Keys(_ context.Context, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = "*"
	}
	now := p.now()

	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.index))
	for k, it := range p.index {
		if !it.deadline.IsZero() && !now.Before(it.deadline) {
			delete(p.index, k)
			continue
		}
		match, err := path.Match(pattern, k)
		if err != nil {
			return nil, err
		}
		if match {
			out = append(out, k)
		}
	}
	return out, nil
}

func (p *Provider) dropItem(ri *rc.Item) {
	if it, ok := ri.Value.(*item); ok {
		p.drop(it)
	}
}

// drop removes it from the index unless a newer write replaced it.
func (p *Provider) drop(it *item) {
	p.mu.Lock()
	if p.index[it.key] == it {
		delete(p.index, it.key)
	}
	p.mu.Unlock()
}

func (p *Provider) forget(key string) {
	p.mu.Lock()
	delete(p.index, key)
	p.mu.Unlock()
}

// Close is idempotent.
func (p *Provider) Close(_ context.Context) error {
	p.c.Wait()
	p.c.Close()
	return nil
}

// Helper to expose metrics if desired by the application (not part of provider.Provider).
func (p *Provider) Metrics() *rc.Metrics { return p.c.Metrics }
