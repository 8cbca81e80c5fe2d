package sloghooks

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/serialcache"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	StoreErrorEvery uint64
	ZeroTTLEvery    uint64
	// Optional key redactor. Defaults to SHA-256 prefix.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	storeErrCtr atomic.Uint64
	zeroTTLCtr  atomic.Uint64
}

var _ serialcache.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if k == "" {
		return ""
	}
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) StoreError(op serialcache.Op, key string, err error) {
	if h.l == nil || !sample(h.opts.StoreErrorEvery, &h.storeErrCtr) {
		return
	}
	h.l.Warn("serialcache.store_error",
		"op", string(op),
		"key", h.redact(key),
		"err", err)
}

func (h *Hooks) CodecError(op serialcache.Op, key string, err error) {
	if h.l == nil {
		return
	}
	h.l.Error("serialcache.codec_error",
		"op", string(op),
		"key", h.redact(key),
		"err", err)
}

func (h *Hooks) ZeroTTLSkipped(key string) {
	if h.l == nil || !sample(h.opts.ZeroTTLEvery, &h.zeroTTLCtr) {
		return
	}
	h.l.Debug("serialcache.zero_ttl_skipped",
		"key", h.redact(key))
}

func (h *Hooks) ShutdownError(err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("serialcache.shutdown_error",
		"err", err)
}
