package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/outreach-agent/internal/config"
	"github.com/jonathan/outreach-agent/internal/ledger"
)

var statusCommand = &cobra.Command{
	Use:   "status",
	Short: "Show today's sends, remaining quota and suppressed names",
	RunE:  runStatus,
}

var (
	statusConfigPath string
	statusDataDir    string
	statusLedger     string
)

func init() {
	statusCommand.Flags().StringVar(&statusConfigPath, "config", "", "Path to config file")
	statusCommand.Flags().StringVar(&statusDataDir, "data-dir", "", "Directory holding the ledger")
	statusCommand.Flags().StringVar(&statusLedger, "ledger", "", "Ledger backend: csv, sqlite or postgres")

	rootCmd.AddCommand(statusCommand)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := loadConfig(statusConfigPath, false)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("data-dir") {
		cfg.DataDir = statusDataDir
	}
	if cmd.Flags().Changed("ledger") {
		cfg.LedgerBackend = statusLedger
	}
	cfg = cfg.MergeWithDefaults(config.Defaults())

	led, err := openLedger(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = led.Close() }()

	return printStatus(ctx, os.Stdout, led, cfg.DailyTarget)
}

// printStatus writes the read-only quota view.
func printStatus(ctx context.Context, w io.Writer, led *ledger.Ledger, target int) error {
	today, err := led.CountSuccessesToday(ctx)
	if err != nil {
		return err
	}
	contacted, err := led.LoadContactedNames(ctx)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(w, "Date:              %s\n", led.Today())
	_, _ = fmt.Fprintf(w, "Sent today:        %d\n", today)
	_, _ = fmt.Fprintf(w, "Daily target:      %d\n", target)
	_, _ = fmt.Fprintf(w, "Remaining:         %d\n", max(0, target-today))
	_, _ = fmt.Fprintf(w, "Excluded names:    %d\n", len(contacted))
	return nil
}
