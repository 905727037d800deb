// Command docbase is the embedded document store's command-line
// front-end: every collection operation (insert, find, get, update,
// delete, drop, count) is reachable as a subcommand, against either an
// on-disk store or a remote docbase-compatible service.
//
// Configuration layers flags over env over config file over defaults: a
// --config file is read via Viper, environment variables are picked up
// automatically with a DOCBASE_ prefix, and every persistent flag is bound
// so a flag always wins over both.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"docbase.evalgo.org/dblog"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "docbase",
	Short: "query and mutate docbase collections from the command line",
	Long: `docbase is the command-line front-end for an embedded, document-oriented
data store. Collections are JSON documents persisted under a storage
directory, queried and mutated with a MongoDB-flavored filter and update
language.

By default docbase operates directly on a local storage directory. Pass
--remote with a base URL to instead talk to a remote docbase service over
HTTP using the same operation set.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.docbase.yaml)")
	rootCmd.PersistentFlags().String("storage-path", "./storage", "local collection storage directory")
	rootCmd.PersistentFlags().Int("autosave-interval-ms", 5000, "background autosave interval in milliseconds")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().String("remote", "", "base URL of a remote docbase service; when set, bypasses local storage")
	rootCmd.PersistentFlags().String("token", "", "bearer token for remote mode")
	rootCmd.PersistentFlags().String("database-url", "", "alias for --remote, matching the options bag's databaseUrl field")
	rootCmd.PersistentFlags().Int("pool-size", 10, "remote HTTP connection pool size per host")
	rootCmd.PersistentFlags().Int("max-retries", 3, "remote HTTP retry ceiling")
	rootCmd.PersistentFlags().Int("timeout-ms", 30000, "remote HTTP request timeout in milliseconds")

	// Viper keys use underscores to match config.FromViper/config.FromEnv,
	// while flag names stay hyphenated per CLI convention.
	bindings := map[string]string{
		"storage_path":         "storage-path",
		"autosave_interval_ms": "autosave-interval-ms",
		"debug":                "debug",
		"remote":               "remote",
		"token":                "token",
		"database_url":         "database-url",
		"pool_size":            "pool-size",
		"max_retries":          "max-retries",
		"timeout_ms":           "timeout-ms",
	}
	for key, flag := range bindings {
		if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			cobra.CheckErr(err)
		}
	}

	rootCmd.AddCommand(
		newInsertCmd(),
		newFindCmd(),
		newGetCmd(),
		newUpdateCmd(),
		newDeleteCmd(),
		newDropCmd(),
		newCountCmd(),
		newVersionCmd(),
	)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".docbase")
	}

	viper.SetEnvPrefix("DOCBASE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "docbase: using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		dblog.Default().WithError(err).Error("docbase: command failed")
		os.Exit(1)
	}
}
