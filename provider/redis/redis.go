package redis

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	pr "github.com/unkn0wn-root/serialcache/provider"
)

var ErrNilClient = errors.New("redis provider: nil client")

const defaultScanCount = 512

// Client is the subset of go-redis used by the provider.
// *goredis.Client and *goredis.ClusterClient satisfy it.
type Client interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *goredis.StatusCmd
	Del(ctx context.Context, keys ...string) *goredis.IntCmd
	FlushDB(ctx context.Context) *goredis.StatusCmd
	Scan(ctx context.Context, cursor uint64, match string, count int64) *goredis.ScanCmd
	Close() error
}

var (
	_ Client = (*goredis.Client)(nil)
	_ Client = goredis.UniversalClient(nil)
)

type Redis struct {
	rdb         Client
	closeClient bool
	scanCount   int64
}

var _ pr.Provider = (*Redis)(nil)

type Config struct {
	Client      Client
	CloseClient bool  // set true only if this provider exclusively owns the client
	ScanCount   int64 // COUNT hint for SCAN in Keys; 0 => 512
}

func New(cfg Config) (*Redis, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	sc := cfg.ScanCount
	if sc <= 0 {
		sc = defaultScanCount
	}
	return &Redis{rdb: cfg.Client, closeClient: cfg.CloseClient, scanCount: sc}, nil
}

// Dial opens a client for addr and returns a provider that owns it.
func Dial(addr, password string, db int) (*Redis, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return New(Config{Client: rdb, CloseClient: true})
}

func (p *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := p.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil // miss
	}
	if err != nil {
		return nil, false, err // transport/server error
	}
	return b, true, nil
}

// Set maps ttl <= 0 to "no expiry"; ttl > 0 becomes SET key value PX ttl.
func (p *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = 0
	}
	return p.rdb.Set(ctx, key, value, ttl).Err()
}

func (p *Redis) Del(ctx context.Context, key string) error {
	return p.rdb.Del(ctx, key).Err()
}

// FlushAll flushes the selected database only, not every database on the server.
func (p *Redis) FlushAll(ctx context.Context) error {
	return p.rdb.FlushDB(ctx).Err()
}

// Keys walks the keyspace with SCAN; it never issues KEYS.
func (p *Redis) Keys(ctx context.Context, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = "*"
	}
	var (
		out    []string
		cursor uint64
	)
	for {
		keys, next, err := p.rdb.Scan(ctx, cursor, pattern, p.scanCount).Result()
		if err != nil {
			return nil, err
		}
		out = append(out, keys...)
		if next == 0 {
			break
		}
		cursor = next
	}
	return dedup(out), nil
}

// SCAN may return a key more than once.
func dedup(keys []string) []string {
	if len(keys) < 2 {
		return keys
	}
	seen := make(map[string]struct{}, len(keys))
	out := keys[:0]
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

// Close releases the underlying redis client only when this provider owns it.
// Safe to call multiple times; repeated calls become no-ops.
func (p *Redis) Close(context.Context) error {
	if p.closeClient {
		if err := p.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
			return err
		}
	}
	return nil
}
