package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const (
	appName = "fxproxy"
	version = "v1.0.0"
)

var configPath string

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Foreign-exchange rate proxy",
		Version: version,
		Long: `fxproxy serves exchange-rate lookups from an in-process snapshot that is
kept in sync with a shared Valkey store. A separate one-shot refresher role
mirrors the OneFrame quote set into the store and notifies all API instances.`,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "Path to YAML config file")

	apiCmd := &cobra.Command{
		Use:   "api",
		Short: "Run the long-running API role",
		Long:  "Serve GET /rates from the in-process snapshot, syncing on store notifications",
		RunE:  runAPI,
	}

	refreshCmd := &cobra.Command{
		Use:   "refresh",
		Short: "Run one refresher cycle and exit",
		Long:  "Fetch all tracked pairs from OneFrame, write the rate table to Valkey, publish the update",
		RunE:  runRefresh,
	}

	rootCmd.AddCommand(apiCmd, refreshCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
