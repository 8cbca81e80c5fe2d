package serialcache

// Hooks lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking; they run on the goroutine
// executing the queued operation and delay the next operation on that key.
type Hooks interface {
	// A provider call failed. op ∈ {"get", "put", "del", "clear", "keys"}.
	StoreError(op Op, key string, err error)

	// Encoding or decoding a value failed.
	CodecError(op Op, key string, err error)

	// Put was called with ttl == 0 and left the store untouched.
	ZeroTTLSkipped(key string)

	// Closing the provider failed during Shutdown.
	ShutdownError(err error)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) StoreError(Op, string, error) {}
func (NopHooks) CodecError(Op, string, error) {}
func (NopHooks) ZeroTTLSkipped(string)        {}
func (NopHooks) ShutdownError(error)          {}
