// Package provider defines the key-value store abstraction used by serialcache.
//
// Implementations MUST be byte-for-byte transparent: Get must return exactly the
// same []byte that was previously passed to Set for a key (no prepended/appended
// metadata, no re-encoding, no mutation).
//
// serialcache owns neither the connection lifecycle policy (retries, backoff,
// timeouts) nor the keyspace: FlushAll and Keys act on the whole store the
// provider is connected to.
package provider

import (
	"context"
	"time"
)

// Provider is a byte store with optional per-key expiry.
// Must be safe for concurrent use.
type Provider interface {
	// Get returns (value, true, nil) on hit; (nil, false, nil) on miss.
	// If an IO/remote error happens, return (nil, false, err).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value. ttl > 0 sets expiry relative to the write in one
	// round trip; ttl <= 0 stores without expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Del removes a key. Deleting a missing key is not an error.
	Del(ctx context.Context, key string) error

	// FlushAll removes every key in the store.
	FlushAll(ctx context.Context) error

	// Keys lists keys matching a glob-style pattern; "*" matches all.
	Keys(ctx context.Context, pattern string) ([]string, error)

	// Close releases resources. Safe to call multiple times.
	Close(ctx context.Context) error
}
