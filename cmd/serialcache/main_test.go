package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"

	pr "github.com/unkn0wn-root/serialcache/provider"
	"github.com/unkn0wn-root/serialcache/provider/bigcache"
)

// sharedStore outlives each command's Shutdown so several invocations can
// see each other's writes.
type sharedStore struct{ pr.Provider }

func (sharedStore) Close(context.Context) error { return nil }

func useMemory(t *testing.T) {
	t.Helper()
	p, err := bigcache.New(bigcache.Config{Shards: 8, MaxEntriesInWindow: 64, MaxEntrySize: 64})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = p.Close(context.Background()) })

	old := openProvider
	openProvider = func(*viper.Viper) (pr.Provider, error) { return sharedStore{p}, nil }
	t.Cleanup(func() { openProvider = old })
}

// execute runs one invocation with a fresh command tree and viper instance.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(viper.New())
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "none.yaml")}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "serialcache.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestPutGetKeysClear(t *testing.T) {
	useMemory(t)
	cfg := writeConfig(t, "backend: memory\n")

	run := func(args ...string) string {
		t.Helper()
		var out bytes.Buffer
		cmd := newRootCmd(viper.New())
		cmd.SetOut(&out)
		cmd.SetErr(&out)
		cmd.SetArgs(append([]string{"--config", cfg}, args...))
		if err := cmd.Execute(); err != nil {
			t.Fatalf("%v: %v\n%s", args, err, out.String())
		}
		return strings.TrimSpace(out.String())
	}

	run("put", "a", `{"x":1}`)
	if got := run("get", "a"); got != `{"x":1}` {
		t.Fatalf("get a=%s", got)
	}

	run("put", "b", "plain text", "--ttl", "0")
	if got := run("get", "b"); got != "null" {
		t.Fatalf("zero ttl put stored a value: %s", got)
	}

	run("put", "c", `"v"`, "--ttl", "inf")
	if got := run("keys"); got != "a\nc" && got != "c\na" {
		t.Fatalf("keys=%q", got)
	}

	run("del", "a")
	if got := run("get", "a"); got != "null" {
		t.Fatalf("get after del=%s", got)
	}

	run("clear")
	if got := run("keys"); got != "" {
		t.Fatalf("keys after clear=%q", got)
	}
}

func TestMissingConfigFileIsAnError(t *testing.T) {
	useMemory(t)
	if _, err := execute(t, "keys"); err == nil {
		t.Fatalf("expected error for missing --config file")
	}
}

func TestEnvOverridesConfig(t *testing.T) {
	var got string
	old := openProvider
	openProvider = func(v *viper.Viper) (pr.Provider, error) {
		got = v.GetString("addr")
		return bigcache.New(bigcache.Config{Shards: 2, MaxEntriesInWindow: 16, MaxEntrySize: 16})
	}
	t.Cleanup(func() { openProvider = old })
	t.Setenv("SERIALCACHE_ADDR", "cache.internal:6380")

	cmd := newRootCmd(viper.New())
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", writeConfig(t, "backend: memory\naddr: localhost:6379\n"), "keys"})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}
	if got != "cache.internal:6380" {
		t.Fatalf("addr=%q, want env value", got)
	}
}

func TestUnknownBackend(t *testing.T) {
	v := viper.New()
	v.Set("backend", "memcached")
	if _, err := dialProvider(v); err == nil || !strings.Contains(err.Error(), "memcached") {
		t.Fatalf("expected unknown backend error, got %v", err)
	}
}

func TestDialInProcessBackends(t *testing.T) {
	for _, backend := range []string{"memory", "ristretto"} {
		v := viper.New()
		v.Set("backend", backend)
		v.Set("memory.max_mb", 1)
		p, err := dialProvider(v)
		if err != nil {
			t.Fatalf("%s: %v", backend, err)
		}
		_ = p.Close(context.Background())
	}
}

func TestBadLogLevel(t *testing.T) {
	useMemory(t)
	cfg := writeConfig(t, "backend: memory\n")
	cmd := newRootCmd(viper.New())
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", cfg, "--log-level", "chatty", "keys"})
	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected log level error")
	}
}

// In-process backends do not persist between invocations; the help says so.
func TestInProcessBackendsDocumented(t *testing.T) {
	cmd := newRootCmd(viper.New())
	usage := cmd.PersistentFlags().Lookup("backend").Usage
	if !strings.Contains(usage, "one command") {
		t.Fatalf("--backend help does not mention in-process lifetime: %q", usage)
	}
	if !strings.Contains(cmd.Long, "nothing written by one command is visible to the next") {
		t.Fatalf("long help does not mention in-process lifetime")
	}

	// two separate invocations over a real in-process backend
	v := viper.New()
	v.Set("backend", "memory")
	v.Set("memory.max_mb", 1)
	first, err := dialProvider(v)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := first.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatal(err)
	}
	_ = first.Close(ctx)

	second, err := dialProvider(v)
	if err != nil {
		t.Fatal(err)
	}
	defer second.Close(ctx)
	if _, ok, _ := second.Get(ctx, "k"); ok {
		t.Fatalf("in-process backend shared data across opens")
	}
}
