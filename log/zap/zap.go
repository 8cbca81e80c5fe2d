package zap

import (
	"sort"

	"go.uber.org/zap"

	"github.com/unkn0wn-root/serialcache"
)

var _ serialcache.Logger = Logger{}

type Logger struct{ L *zap.Logger }

func (z Logger) Debug(msg string, f serialcache.Fields) {
	if ce := z.L.Check(zap.DebugLevel, msg); ce != nil {
		ce.Write(zf(f)...)
	}
}
func (z Logger) Info(msg string, f serialcache.Fields)  { z.L.Info(msg, zf(f)...) }
func (z Logger) Warn(msg string, f serialcache.Fields)  { z.L.Warn(msg, zf(f)...) }
func (z Logger) Error(msg string, f serialcache.Fields) { z.L.Error(msg, zf(f)...) }

// zf emits fields in key order so output is stable.
func zf(f serialcache.Fields) []zap.Field {
	if len(f) == 0 {
		return nil
	}
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]zap.Field, 0, len(f))
	for _, k := range keys {
		if err, ok := f[k].(error); ok {
			out = append(out, zap.NamedError(k, err))
			continue
		}
		out = append(out, zap.Any(k, f[k]))
	}
	return out
}
