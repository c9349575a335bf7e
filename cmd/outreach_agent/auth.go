package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/outreach-agent/internal/config"
	"github.com/jonathan/outreach-agent/internal/delivery"
)

var authCommand = &cobra.Command{
	Use:   "auth",
	Short: "Authorize Gmail sending and cache the OAuth token",
	RunE:  runAuth,
}

var authConfigPath string

func init() {
	authCommand.Flags().StringVar(&authConfigPath, "config", "", "Path to config file")
	rootCmd.AddCommand(authCommand)
}

func runAuth(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig(authConfigPath, false)
	if err != nil {
		return err
	}
	cfg = cfg.MergeWithDefaults(config.Defaults())

	if err := delivery.Authorize(context.Background(), cfg.GmailCredentials, cfg.GmailToken, os.Stdin, os.Stdout); err != nil {
		return err
	}
	fmt.Printf("Token saved to %s\n", cfg.GmailToken)
	return nil
}
