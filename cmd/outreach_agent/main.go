// Package main provides the entry point for the outreach agent CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "outreach_agent",
	Short: "Personalized research outreach with a durable send ledger",
	Long: `Outreach Agent selects uncontacted faculty from scraped directories, matches each to the best-fitting resume,
drafts a personalized email with a language model, sends it through Gmail and records every outcome so
repeated runs never contact anyone twice.`,
	SilenceUsage: true,
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
