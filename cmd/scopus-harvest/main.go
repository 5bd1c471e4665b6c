// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the scopus-harvest CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/meshintel/scopus-harvest/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns fallback when set, else the secret value for key.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the scopus-harvest CLI.
var rootCmd = &cobra.Command{
	Use:   "scopus-harvest",
	Short: "Bibliometric data harvesting for the research-centre dashboard",
	Long: `scopus-harvest pulls publication counts and author metrics from the
Scopus Search API into JSON datasets consumed by dashboard widgets.

Each pipeline stage is a subcommand: resolve maps staff to Scopus author
IDs, scrape runs the full per-year harvest and merges the results, metrics
computes h-index and citation totals, merge folds a results file into an
existing dataset, and archive mirrors a dataset into a local SQLite
database for ad-hoc queries.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		applyConfigOverrides(cmd.Flags())

		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./scopus-harvest.yaml or ~/.config/scopus-harvest/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("scopus-harvest")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "scopus-harvest"))
		}
	}

	viper.SetEnvPrefix("SCOPUS_HARVEST")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// applyConfigOverrides fills flags the user did not set on the command
// line from viper, so values in the config file (or SCOPUS_HARVEST_* env
// vars) act as defaults for every subcommand's flags.
func applyConfigOverrides(flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Changed || !viper.IsSet(f.Name) {
			return
		}
		flags.Set(f.Name, viper.GetString(f.Name))
	})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
