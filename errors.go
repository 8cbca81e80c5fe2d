package serialcache

import (
	"errors"
	"fmt"
)

// Op names a cache operation in errors, logs and hooks.
type Op string

const (
	OpGet   Op = "get"
	OpPut   Op = "put"
	OpDel   Op = "del"
	OpClear Op = "clear"
	OpKeys  Op = "keys"
)

var (
	ErrNilProvider = errors.New("serialcache: provider is required")
	ErrEmptyKey    = errors.New("serialcache: empty key")
)

// StoreError wraps a failure returned by the provider. Never retried here.
type StoreError struct {
	Op  Op
	Key string
	Err error
}

func (e *StoreError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("serialcache: %s: store: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("serialcache: %s %q: store: %v", e.Op, e.Key, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// CodecError wraps a failure to encode or decode a value.
// A decode failure means the store holds bytes this cache did not write.
type CodecError struct {
	Op  Op
	Key string
	Err error
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("serialcache: %s %q: codec: %v", e.Op, e.Key, e.Err)
}

func (e *CodecError) Unwrap() error { return e.Err }
