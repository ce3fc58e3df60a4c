package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/scopefs/config"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "scopefs",
	Short:   "Serve one directory tree over HTTP",
	Long: `scopefs serves a single directory over HTTP: JSON directory listings,
streamed file downloads and optional uploads, all confined to the root.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configFiles, _ := cmd.Flags().GetStringSlice("config")

		cfg, err := config.Load(configFiles, cmd.Flags())
		if err != nil {
			return err
		}

		setupLogging(cfg)
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringSlice("config", nil, "config file path(s), merged left to right (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("storage-path", "", "directory to serve (default: ., env: SCOPEFS_STORAGE_PATH)")
	rootCmd.PersistentFlags().String("journal-type", "", "upload journal: none, sqlite, postgres (env: SCOPEFS_JOURNAL_TYPE)")
	rootCmd.PersistentFlags().String("journal-dsn", "", "upload journal connection string (env: SCOPEFS_JOURNAL_DSN)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (env: SCOPEFS_LOG_LEVEL)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
