package bigcache

import (
	"context"
	"encoding/binary"
	"errors"
	"path"
	"sync"
	"time"

	bc "github.com/allegro/bigcache/v3"

	pr "github.com/unkn0wn-root/serialcache/provider"
)

// headerLen is the size of the expiry prefix on every stored entry: the
// deadline in unix nanoseconds, big endian, 0 meaning no expiry.
const headerLen = 8

// bigcache evicts on write anything older than LifeWindow, so the window is
// pushed out of reach and expiry is tracked per entry in the header instead.
const lifeWindow = 100 * 365 * 24 * time.Hour

// Provider is an in-process store. Expired entries read as misses and are
// removed on the read that finds them; until then they still occupy space.
type Provider struct {
	c         *bc.BigCache
	now       func() time.Time
	closeOnce sync.Once
	closeErr  error
}

var _ pr.Provider = (*Provider)(nil)

type Config struct {
	Shards             int // power of two; 0 => bigcache default
	MaxEntriesInWindow int
	MaxEntrySize       int
	HardMaxCacheSizeMB int // ~ memory limit; 0 = unlimited
}

func New(cfg Config) (*Provider, error) {
	conf := bc.DefaultConfig(lifeWindow)
	conf.Verbose = false
	conf.CleanWindow = 0
	if cfg.Shards > 0 {
		conf.Shards = cfg.Shards
	}
	if cfg.MaxEntriesInWindow > 0 {
		conf.MaxEntriesInWindow = cfg.MaxEntriesInWindow
	}
	if cfg.MaxEntrySize > 0 {
		conf.MaxEntrySize = cfg.MaxEntrySize + headerLen
	}
	if cfg.HardMaxCacheSizeMB > 0 {
		conf.HardMaxCacheSize = cfg.HardMaxCacheSizeMB
	}
	c, err := bc.NewBigCache(conf)
	if err != nil {
		return nil, err
	}
	return &Provider{c: c, now: time.Now}, nil
}

func (p *Provider) Get(_ context.Context, key string) ([]byte, bool, error) {
	b, err := p.c.Get(key)
	if errors.Is(err, bc.ErrEntryNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if len(b) < headerLen || p.expired(b) {
		_ = p.c.Delete(key)
		return nil, false, nil
	}
	// bigcache hands out a copy
	return b[headerLen:], true, nil
}

// Set stores value behind its expiry header. ttl <= 0 means no expiry.
func (p *Provider) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	entry := make([]byte, headerLen+len(value))
	var deadline uint64
	if ttl > 0 {
		deadline = uint64(p.now().Add(ttl).UnixNano())
	}
	binary.BigEndian.PutUint64(entry, deadline)
	copy(entry[headerLen:], value)
	return p.c.Set(key, entry)
}

func (p *Provider) Del(_ context.Context, key string) error {
	if err := p.c.Delete(key); err != nil && !errors.Is(err, bc.ErrEntryNotFound) {
		return err
	}
	return nil
}

func (p *Provider) FlushAll(_ context.Context) error {
	return p.c.Reset()
}

// Keys skips expired entries without removing them.
func (p *Provider) Keys(_ context.Context, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = "*"
	}
	var out []string
	it := p.c.Iterator()
	for it.SetNext() {
		e, err := it.Value()
		if err != nil {
			// entry removed between SetNext and Value
			continue
		}
		if b := e.Value(); len(b) < headerLen || p.expired(b) {
			continue
		}
		match, err := path.Match(pattern, e.Key())
		if err != nil {
			return nil, err
		}
		if match {
			out = append(out, e.Key())
		}
	}
	return out, nil
}

func (p *Provider) expired(entry []byte) bool {
	deadline := binary.BigEndian.Uint64(entry)
	return deadline != 0 && uint64(p.now().UnixNano()) >= deadline
}

// Close is idempotent; bigcache itself panics on a second Close.
func (p *Provider) Close(_ context.Context) error {
	p.closeOnce.Do(func() { p.closeErr = p.c.Close() })
	return p.closeErr
}
