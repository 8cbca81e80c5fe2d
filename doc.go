// Package serialcache is a cache over an external key-value store in which
// every operation on a key is serialized with the other operations on that key.
//
// Components:
//   - Provider: byte store with per-key expiry (Redis, Valkey, Ristretto, BigCache).
//   - Codec[V]: (de)serializes V <-> []byte. JSON unless configured otherwise.
//   - keyqueue: per-key FIFO of in-flight operations.
//
// Ordering:
//
//	c.PutAsync(ctx, "k", v, time.Minute) // runs first
//	c.GetAsync(ctx, "k")                 // observes the put
//	c.DelAsync(ctx, "k")                 // runs after the get settled
//
// Operations on different keys are not ordered relative to each other.
// Clear is ordered only relative to other Clear calls.
//
// TTL:
//
//	0          no-op, the store is left untouched
//	NoExpiry   stored without expiry
//	> 0        stored with expiry (rounded up to whole milliseconds)
//	< 0        replaced by Options.DefaultTTL (UseDefault is -1)
package serialcache
