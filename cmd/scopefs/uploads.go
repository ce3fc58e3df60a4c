package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/scopefs/config"
	"github.com/sagarc03/scopefs/journal"
)

var uploadsCmd = &cobra.Command{
	Use:   "uploads",
	Short: "List recent uploads from the journal",
	Long: `Print the most recent entries of the upload journal, newest first.

The journal must be enabled (journal.type sqlite or postgres).`,
	RunE: runUploads,
}

func init() {
	uploadsCmd.Flags().Int("limit", 20, "maximum number of uploads to show")
	uploadsCmd.Flags().Bool("json", false, "print JSON instead of a table")

	rootCmd.AddCommand(uploadsCmd)
}

func runUploads(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.FromContext(ctx)
	if err != nil {
		return err
	}

	if !cfg.Journal.Enabled() {
		return errors.New("upload journal is disabled; set journal.type to sqlite or postgres")
	}

	limit, _ := cmd.Flags().GetInt("limit")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	uploadLog, cleanup, err := journal.Open(ctx, cfg.Journal)
	if err != nil {
		return fmt.Errorf("open upload journal: %w", err)
	}
	defer cleanup()

	records, err := uploadLog.List(ctx, limit)
	if err != nil {
		return fmt.Errorf("list uploads: %w", err)
	}

	return newFormatter(jsonOutput).FormatUploads(os.Stdout, records)
}
