package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/jonathan/outreach-agent/internal/config"
	"github.com/jonathan/outreach-agent/internal/ingestion"
)

var extractDocsCommand = &cobra.Command{
	Use:   "extract-docs",
	Short: "Extract text from a folder of resume PDFs into the document JSON",
	RunE:  runExtractDocs,
}

var (
	extractConfigPath string
	extractDir        string
	extractOut        string
)

func init() {
	extractDocsCommand.Flags().StringVar(&extractConfigPath, "config", "", "Path to config file")
	extractDocsCommand.Flags().StringVarP(&extractDir, "dir", "d", "", "Folder of PDF files")
	extractDocsCommand.Flags().StringVarP(&extractOut, "out", "o", "", "Output JSON path")

	rootCmd.AddCommand(extractDocsCommand)
}

func runExtractDocs(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(extractConfigPath, false)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("dir") {
		cfg.DocumentsDir = extractDir
	}
	if cmd.Flags().Changed("out") {
		cfg.Documents = extractOut
	}
	cfg = cfg.MergeWithDefaults(config.Defaults())

	res, err := ingestion.ExtractPDFDir(cfg.DocumentsDir)
	if err != nil {
		return err
	}

	skipped := make([]string, 0, len(res.Skipped))
	for name := range res.Skipped {
		skipped = append(skipped, name)
	}
	sort.Strings(skipped)
	for _, name := range skipped {
		fmt.Printf("Skipping %s: %v\n", name, res.Skipped[name])
	}

	if len(res.Documents) == 0 {
		return fmt.Errorf("no text could be extracted from PDFs in %s", cfg.DocumentsDir)
	}
	for _, id := range res.Documents.IDs() {
		fmt.Printf("Extracted %s (%d chars)\n", id, len([]rune(res.Documents[id])))
	}

	if err := ingestion.WriteDocuments(cfg.Documents, res.Documents); err != nil {
		return err
	}
	fmt.Printf("Saved %d documents to %s\n", len(res.Documents), cfg.Documents)
	return nil
}
