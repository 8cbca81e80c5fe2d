package serialcache

import (
	"testing"
	"time"
)

func TestResolveTTL(t *testing.T) {
	const def = 30 * time.Second

	tests := []struct {
		name      string
		ttl       time.Duration
		wantTTL   time.Duration
		wantStore bool
	}{
		{"zero_is_noop", 0, 0, false},
		{"use_default", UseDefault, def, true},
		{"negative_is_default", -42 * time.Hour, def, true},
		{"infinite", NoExpiry, 0, true},
		{"whole_millis", 250 * time.Millisecond, 250 * time.Millisecond, true},
		{"one_nanosecond", time.Nanosecond, time.Millisecond, true},
		{"rounds_up", 1001 * time.Microsecond, 2 * time.Millisecond, true},
		{"near_max_does_not_overflow", NoExpiry - 1, NoExpiry - 1 - (NoExpiry-1)%time.Millisecond, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, store := ResolveTTL(tc.ttl, def)
			if store != tc.wantStore || got != tc.wantTTL {
				t.Fatalf("ResolveTTL(%v)=(%v,%v), want (%v,%v)", tc.ttl, got, store, tc.wantTTL, tc.wantStore)
			}
		})
	}
}

func TestResolveTTLInfiniteDefault(t *testing.T) {
	got, store := ResolveTTL(UseDefault, NoExpiry)
	if !store || got != 0 {
		t.Fatalf("got (%v,%v), want (0,true)", got, store)
	}
}

func TestParseTTL(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"", UseDefault},
		{"x", UseDefault},
		{"-5", UseDefault},
		{"-1s", UseDefault},
		{"NaN", UseDefault},
		{"0", 0},
		{"0s", 0},
		{"30000", 30 * time.Second},
		{" 250 ", 250 * time.Millisecond},
		{"1.5", 1500 * time.Microsecond},
		{"30s", 30 * time.Second},
		{"1h", time.Hour},
		{"inf", NoExpiry},
		{"Infinity", NoExpiry},
		{"never", NoExpiry},
		{"1e300", NoExpiry},
	}
	for _, tc := range tests {
		if got := ParseTTL(tc.in); got != tc.want {
			t.Errorf("ParseTTL(%q)=%v, want %v", tc.in, got, tc.want)
		}
	}
}
