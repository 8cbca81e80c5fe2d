package valkey

import (
	"context"
	"errors"
	"sync"
	"time"

	vk "github.com/valkey-io/valkey-go"

	pr "github.com/unkn0wn-root/serialcache/provider"
)

var ErrNilClient = errors.New("valkey provider: nil client")

const defaultScanCount = 512

type Valkey struct {
	client      vk.Client
	closeClient bool
	scanCount   int64
	closeOnce   sync.Once
}

var _ pr.Provider = (*Valkey)(nil)

type Config struct {
	Client      vk.Client
	CloseClient bool  // set true only if this provider exclusively owns the client
	ScanCount   int64 // COUNT hint for SCAN in Keys; 0 => 512
}

func New(cfg Config) (*Valkey, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	sc := cfg.ScanCount
	if sc <= 0 {
		sc = defaultScanCount
	}
	return &Valkey{client: cfg.Client, closeClient: cfg.CloseClient, scanCount: sc}, nil
}

// Dial connects to addr and returns a provider that owns the client.
func Dial(addr, password string, db int) (*Valkey, error) {
	c, err := vk.NewClient(vk.ClientOption{
		InitAddress: []string{addr},
		Password:    password,
		SelectDB:    db,
	})
	if err != nil {
		return nil, err
	}
	return New(Config{Client: c, CloseClient: true})
}

func (p *Valkey) Get(ctx context.Context, key string) ([]byte, bool, error) {
	cmd := p.client.B().Get().Key(key).Build()
	b, err := p.client.Do(ctx, cmd).AsBytes()
	if vk.IsValkeyNil(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

// Set issues SET key value PX ttl for ttl > 0, plain SET otherwise.
func (p *Valkey) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	set := p.client.B().Set().Key(key).Value(vk.BinaryString(value))
	var cmd vk.Completed
	if ttl > 0 {
		cmd = set.Px(ttl).Build()
	} else {
		cmd = set.Build()
	}
	return p.client.Do(ctx, cmd).Error()
}

func (p *Valkey) Del(ctx context.Context, key string) error {
	cmd := p.client.B().Del().Key(key).Build()
	return p.client.Do(ctx, cmd).Error()
}

// FlushAll flushes the selected database synchronously.
func (p *Valkey) FlushAll(ctx context.Context) error {
	cmd := p.client.B().Flushdb().Sync().Build()
	return p.client.Do(ctx, cmd).Error()
}

func (p *Valkey) Keys(ctx context.Context, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = "*"
	}
	seen := make(map[string]struct{})
	var (
		out    []string
		cursor uint64
	)
	for {
		cmd := p.client.B().Scan().Cursor(cursor).Match(pattern).Count(p.scanCount).Build()
		entry, err := p.client.Do(ctx, cmd).AsScanEntry()
		if err != nil {
			return nil, err
		}
		for _, k := range entry.Elements {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, k)
		}
		if entry.Cursor == 0 {
			break
		}
		cursor = entry.Cursor
	}
	return out, nil
}

// Close closes the client once, and only when this provider owns it.
func (p *Valkey) Close(context.Context) error {
	if p.closeClient {
		p.closeOnce.Do(p.client.Close)
	}
	return nil
}
