package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/viper"

	"docbase.evalgo.org/adapter"
	"docbase.evalgo.org/config"
	"docbase.evalgo.org/dblog"
	"docbase.evalgo.org/remote"
	"docbase.evalgo.org/shutdown"
	"docbase.evalgo.org/store"
)

// runtime bundles whatever a subcommand needs to execute: a Router and,
// when operating locally, the coordinator that must flush before exit.
type runtime struct {
	router      adapter.Router
	coordinator *shutdown.Coordinator
}

func (r *runtime) close() {
	if r.coordinator != nil {
		r.coordinator.FlushAndStop()
	}
}

// newRuntime builds a Local adapter backed by a store.Cache, or a remote
// Client when --remote (or --database-url) names a base URL.
func newRuntime() (*runtime, error) {
	opts := config.FromViper(viper.GetViper())

	if opts.Debug {
		dblog.SetDefault(dblog.New(true))
	}

	base := viper.GetString("remote")
	if base == "" {
		base = viper.GetString("database_url")
	}

	if base != "" {
		client := remote.New(remote.Config{
			BaseURL:    base,
			Token:      opts.Token,
			PoolSize:   opts.PoolSize,
			MaxRetries: opts.MaxRetries,
			Timeout:    opts.Timeout,
		})
		return &runtime{router: client}, nil
	}

	cache := store.New(opts)
	coordinator := shutdown.New()
	coordinator.Register(cache)
	coordinator.Listen()

	return &runtime{router: adapter.NewLocal(cache), coordinator: coordinator}, nil
}

// parseJSONFlag decodes a JSON-object flag value (filter/update/fields)
// into a map, treating an empty string as "not provided".
func parseJSONFlag(name, raw string) (map[string]any, error) {
	if raw == "" {
		return nil, nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, fmt.Errorf("--%s: invalid JSON: %w", name, err)
	}
	return m, nil
}

// parseJSONInto decodes a JSON value (object or array) of unknown shape,
// used for the "documents" flag which accepts either.
func parseJSONInto(raw string, dst any) error {
	return json.Unmarshal([]byte(raw), dst)
}

func printEnvelope(env adapter.Envelope) error {
	out, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, string(out))
	return nil
}
