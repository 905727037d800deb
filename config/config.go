// Package config builds the runtime options bag: storage path, autosave
// interval, debug flag, and the remote-mode connection settings (database
// URL, token, pool size, retry ceiling, timeout). Values are read from
// environment variables directly, or layered in the CLI on top of Viper
// with flags taking precedence over env, env over config file.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

// Options is the construction-time options bag consumed by store.Cache,
// adapter.Local, and remote.Client.
type Options struct {
	StoragePath      string
	AutoSaveInterval time.Duration
	Debug            bool

	// Remote mode.
	Token       string
	DatabaseURL string
	PoolSize    int
	MaxRetries  int
	Timeout     time.Duration
}

// Default returns the documented defaults: ./storage, 5s autosave, debug off.
func Default() Options {
	return Options{
		StoragePath:      "./storage",
		AutoSaveInterval: 5 * time.Second,
		Debug:            false,
		PoolSize:         10,
		MaxRetries:       3,
		Timeout:          30 * time.Second,
	}
}

// envConfig provides prefixed environment variable lookups with typed
// Get/MustGet helpers.
type envConfig struct {
	prefix string
}

func newEnvConfig(prefix string) *envConfig {
	return &envConfig{prefix: prefix}
}

func (ec *envConfig) key(name string) string {
	if ec.prefix == "" {
		return name
	}
	return ec.prefix + "_" + name
}

func (ec *envConfig) getString(name, def string) string {
	if v := os.Getenv(ec.key(name)); v != "" {
		return v
	}
	return def
}

func (ec *envConfig) getInt(name string, def int) int {
	if v := os.Getenv(ec.key(name)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func (ec *envConfig) getBool(name string, def bool) bool {
	if v := os.Getenv(ec.key(name)); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func (ec *envConfig) getDuration(name string, def time.Duration) time.Duration {
	if v := os.Getenv(ec.key(name)); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return def
}

// FromEnv loads Options from DOCBASE_-prefixed environment variables,
// falling back to Default() for anything unset.
func FromEnv() Options {
	def := Default()
	ec := newEnvConfig("DOCBASE")
	return Options{
		StoragePath:      ec.getString("STORAGE_PATH", def.StoragePath),
		AutoSaveInterval: ec.getDuration("AUTOSAVE_INTERVAL_MS", def.AutoSaveInterval),
		Debug:            ec.getBool("DEBUG", def.Debug),
		Token:            ec.getString("TOKEN", def.Token),
		DatabaseURL:      ec.getString("DATABASE_URL", def.DatabaseURL),
		PoolSize:         ec.getInt("POOL_SIZE", def.PoolSize),
		MaxRetries:       ec.getInt("MAX_RETRIES", def.MaxRetries),
		Timeout:          ec.getDuration("TIMEOUT_MS", def.Timeout),
	}
}

// FromViper layers a Viper instance (already populated from flags, a config
// file, and AutomaticEnv by the CLI's initConfig) on top of Default(),
// giving flags precedence over env, env over config file, file over defaults.
func FromViper(v *viper.Viper) Options {
	def := Default()
	opts := Options{
		StoragePath:      def.StoragePath,
		AutoSaveInterval: def.AutoSaveInterval,
		Debug:            def.Debug,
		PoolSize:         def.PoolSize,
		MaxRetries:       def.MaxRetries,
		Timeout:          def.Timeout,
	}
	if v == nil {
		return opts
	}
	if v.IsSet("storage_path") {
		opts.StoragePath = v.GetString("storage_path")
	}
	if v.IsSet("autosave_interval_ms") {
		opts.AutoSaveInterval = time.Duration(v.GetInt("autosave_interval_ms")) * time.Millisecond
	}
	if v.IsSet("debug") {
		opts.Debug = v.GetBool("debug")
	}
	if v.IsSet("token") {
		opts.Token = v.GetString("token")
	}
	if v.IsSet("database_url") {
		opts.DatabaseURL = v.GetString("database_url")
	}
	if v.IsSet("pool_size") {
		opts.PoolSize = v.GetInt("pool_size")
	}
	if v.IsSet("max_retries") {
		opts.MaxRetries = v.GetInt("max_retries")
	}
	if v.IsSet("timeout_ms") {
		opts.Timeout = time.Duration(v.GetInt("timeout_ms")) * time.Millisecond
	}
	return opts
}
