package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/outreach-agent/internal/config"
)

var ledgerCommand = &cobra.Command{
	Use:   "ledger",
	Short: "Inspect the send ledger",
}

var ledgerExportCommand = &cobra.Command{
	Use:   "export",
	Short: "Write all send records as CSV",
	RunE:  runLedgerExport,
}

var (
	ledgerConfigPath string
	ledgerDataDir    string
	ledgerBackend    string
	ledgerOut        string
)

func init() {
	ledgerExportCommand.Flags().StringVar(&ledgerConfigPath, "config", "", "Path to config file")
	ledgerExportCommand.Flags().StringVar(&ledgerDataDir, "data-dir", "", "Directory holding the ledger")
	ledgerExportCommand.Flags().StringVar(&ledgerBackend, "ledger", "", "Ledger backend: csv, sqlite or postgres")
	ledgerExportCommand.Flags().StringVarP(&ledgerOut, "out", "o", "", "Output file (defaults to stdout)")

	ledgerCommand.AddCommand(ledgerExportCommand)
	rootCmd.AddCommand(ledgerCommand)
}

func runLedgerExport(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := loadConfig(ledgerConfigPath, false)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("data-dir") {
		cfg.DataDir = ledgerDataDir
	}
	if cmd.Flags().Changed("ledger") {
		cfg.LedgerBackend = ledgerBackend
	}
	cfg = cfg.MergeWithDefaults(config.Defaults())

	led, err := openLedger(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = led.Close() }()

	var w io.Writer = cmd.OutOrStdout()
	if ledgerOut != "" {
		f, err := os.Create(ledgerOut)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() { _ = f.Close() }()
		w = f
	}
	return led.ExportSends(ctx, w)
}
