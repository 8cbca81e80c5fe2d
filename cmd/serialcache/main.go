// Command serialcache is a small client for the stores serialcache can sit
// on. Each invocation builds a cache, runs one operation through it and shuts
// it down.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/unkn0wn-root/serialcache"
	sclogrus "github.com/unkn0wn-root/serialcache/log/logrus"
	pr "github.com/unkn0wn-root/serialcache/provider"
	"github.com/unkn0wn-root/serialcache/provider/bigcache"
	"github.com/unkn0wn-root/serialcache/provider/redis"
	"github.com/unkn0wn-root/serialcache/provider/ristretto"
	"github.com/unkn0wn-root/serialcache/provider/valkey"
)

var version = "dev" // set by the linker

func main() {
	if err := newRootCmd(viper.New()).Execute(); err != nil {
		// cobra already printed the error
		os.Exit(1)
	}
}

// openProvider is swapped out in tests.
var openProvider = dialProvider

func dialProvider(v *viper.Viper) (pr.Provider, error) {
	switch backend := strings.ToLower(v.GetString("backend")); backend {
	case "redis":
		return redis.Dial(v.GetString("addr"), v.GetString("password"), v.GetInt("db"))
	case "valkey":
		return valkey.Dial(v.GetString("addr"), v.GetString("password"), v.GetInt("db"))
	case "memory", "bigcache":
		return bigcache.New(bigcache.Config{HardMaxCacheSizeMB: v.GetInt("memory.max_mb")})
	case "ristretto":
		return ristretto.New(ristretto.Config{
			NumCounters: 1e6,
			MaxCost:     int64(v.GetInt("memory.max_mb")) << 20,
			BufferItems: 64,
			Cost:        func(_ string, b []byte) int64 { return int64(len(b)) },
		})
	default:
		return nil, fmt.Errorf("unknown backend %q (want redis, valkey, memory or ristretto)", backend)
	}
}

type app struct {
	v     *viper.Viper
	cache serialcache.Cache[any]
}

// newRootCmd builds a fresh command tree bound to v, so tests can run
// isolated instances.
func newRootCmd(v *viper.Viper) *cobra.Command {
	a := &app{v: v}
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "serialcache",
		Short: "Per-key ordered cache client",
		Long: `serialcache reads and writes JSON values in Redis, Valkey or an in-process store.
Operations on one key are applied in the order they are issued.

The memory and ristretto backends are in-process stores opened fresh for every
invocation, so nothing written by one command is visible to the next. They are
meant for trying the client out, not for holding data.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := initConfig(v, cfgFile); err != nil {
				return err
			}
			return a.open()
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is ./.serialcache.yaml or $HOME/.serialcache.yaml)")
	pf.String("backend", "redis", "store backend: redis, valkey, memory, ristretto (memory and ristretto live inside this process and keep data only for the length of one command)")
	pf.String("addr", "localhost:6379", "redis/valkey address")
	pf.String("password", "", "redis/valkey password")
	pf.Int("db", 0, "redis/valkey database index")
	pf.String("default-ttl", "10m", "ttl used when a put does not give one")
	pf.String("log-level", "warn", "log level: debug, info, warn, error")

	_ = v.BindPFlag("backend", pf.Lookup("backend"))
	_ = v.BindPFlag("addr", pf.Lookup("addr"))
	_ = v.BindPFlag("password", pf.Lookup("password"))
	_ = v.BindPFlag("db", pf.Lookup("db"))
	_ = v.BindPFlag("default_ttl", pf.Lookup("default-ttl"))
	_ = v.BindPFlag("log.level", pf.Lookup("log-level"))
	v.SetDefault("memory.max_mb", 64)

	cmd.AddCommand(
		a.getCmd(),
		a.putCmd(),
		a.delCmd(),
		a.clearCmd(),
		a.keysCmd(),
	)
	return cmd
}

// initConfig reads the config file, if any, and SERIALCACHE_* env vars.
func initConfig(v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".serialcache")
	}

	v.SetEnvPrefix("SERIALCACHE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok && cfgFile == "" {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func (a *app) open() error {
	lg := logrus.New()
	lg.SetOutput(os.Stderr)
	level, err := logrus.ParseLevel(a.v.GetString("log.level"))
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	lg.SetLevel(level)

	p, err := openProvider(a.v)
	if err != nil {
		return fmt.Errorf("open %s: %w", a.v.GetString("backend"), err)
	}

	// 0 and unparseable values leave the cache default in place
	def := serialcache.ParseTTL(a.v.GetString("default_ttl"))
	c, err := serialcache.New[any](serialcache.Options[any]{
		Provider:   p,
		DefaultTTL: def,
		Logger:     sclogrus.New(lg),
	})
	if err != nil {
		_ = p.Close(context.Background())
		return err
	}
	a.cache = c
	return nil
}

func (a *app) getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get KEY",
		Short: "Print the value stored under KEY as JSON, or null",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			v, ok, err := a.cache.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !ok {
				v = nil
			}
			return printJSON(cmd, v)
		}),
	}
}

func (a *app) putCmd() *cobra.Command {
	var ttl string
	cmd := &cobra.Command{
		Use:   "put KEY VALUE",
		Short: "Store VALUE under KEY",
		Long: `Store VALUE under KEY. VALUE is parsed as JSON; anything that is not
valid JSON is stored as a string.

--ttl accepts milliseconds ("30000"), a Go duration ("30s"), "0" to skip the
write, or "inf" for no expiry. Omitted or unparseable means the default ttl.`,
		Args: cobra.ExactArgs(2),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			var val any
			if err := json.Unmarshal([]byte(args[1]), &val); err != nil {
				val = args[1]
			}
			return a.cache.Put(cmd.Context(), args[0], val, serialcache.ParseTTL(ttl))
		}),
	}
	cmd.Flags().StringVar(&ttl, "ttl", "", "entry ttl (default: --default-ttl)")
	return cmd
}

func (a *app) delCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "del KEY",
		Short: "Remove KEY",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			return a.cache.Del(cmd.Context(), args[0])
		}),
	}
}

func (a *app) clearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every key in the store",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			return a.cache.Clear(cmd.Context())
		}),
	}
}

func (a *app) keysCmd() *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "List keys currently in the store",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}
			keys, err := a.cache.Keys(ctx)
			if err != nil {
				return err
			}
			for _, k := range keys {
				fmt.Fprintln(cmd.OutOrStdout(), k)
			}
			return nil
		}),
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "give up listing after this long")
	return cmd
}

// run shuts the cache down once the command body returns, error or not.
func (a *app) run(fn func(*cobra.Command, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		defer a.cache.Shutdown(cmd.Context())
		return fn(cmd, args)
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(b))
	return nil
}
