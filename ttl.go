package serialcache

import (
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	// NoExpiry stores an entry without expiry.
	NoExpiry time.Duration = math.MaxInt64
	// UseDefault selects Options.DefaultTTL. Any negative ttl behaves the same.
	UseDefault time.Duration = -1
)

// ResolveTTL applies the ttl precedence rules against def.
// store reports whether the provider should be called at all; when it is true,
// expiry is the duration to pass to provider.Set (0 meaning no expiry).
func ResolveTTL(ttl, def time.Duration) (expiry time.Duration, store bool) {
	if ttl < 0 {
		ttl = def
	}
	switch {
	case ttl == 0:
		return 0, false
	case ttl == NoExpiry:
		return 0, true
	case ttl < 0:
		// def itself is invalid; New never lets this happen
		return 0, false
	}
	return ceilMillis(ttl), true
}

// stores accept whole milliseconds only
func ceilMillis(d time.Duration) time.Duration {
	if r := d % time.Millisecond; r != 0 {
		if d > NoExpiry-time.Millisecond {
			return d - r
		}
		return d - r + time.Millisecond
	}
	return d
}

// ParseTTL converts textual ttl input (flags, config files) to a ttl for Put.
//
//	"0"                          -> 0 (no-op)
//	"inf", "infinity", "never"   -> NoExpiry (case-insensitive)
//	"30000", "1500.5"            -> milliseconds
//	"30s", "1h"                  -> time.ParseDuration
//	anything else, "" included   -> UseDefault
func ParseTTL(s string) time.Duration {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "":
		return UseDefault
	case "inf", "+inf", "infinity", "+infinity", "never":
		return NoExpiry
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		switch {
		case math.IsNaN(f) || f < 0:
			return UseDefault
		case math.IsInf(f, 1) || f*float64(time.Millisecond) >= float64(math.MaxInt64):
			return NoExpiry
		case f == 0:
			return 0
		}
		return time.Duration(math.Ceil(f * float64(time.Millisecond)))
	}
	if d, err := time.ParseDuration(s); err == nil {
		if d < 0 {
			return UseDefault
		}
		return d
	}
	return UseDefault
}
