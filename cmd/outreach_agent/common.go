package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/jonathan/outreach-agent/internal/config"
	"github.com/jonathan/outreach-agent/internal/db"
	"github.com/jonathan/outreach-agent/internal/ingestion"
	"github.com/jonathan/outreach-agent/internal/ledger"
)

// loadConfig reads the optional config file, validates it and fills the
// environment secrets. Defaults are applied by the caller after flag overrides.
func loadConfig(path string, verbose bool) (config.Config, error) {
	var cfg config.Config
	if path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config: %w", err)
		}
		if err := loaded.Validate(); err != nil {
			return cfg, err
		}
		cfg = *loaded
		if verbose {
			_, _ = fmt.Fprintf(os.Stdout, "Loaded config from: %s\n", path)
		}
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// newLogger returns a text logger on stderr, at debug level when verbose.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// openLedger opens the configured ledger backend. The returned ledger owns
// the store; closing it releases files or connections.
func openLedger(ctx context.Context, cfg config.Config) (*ledger.Ledger, error) {
	var store ledger.Store
	switch cfg.LedgerBackend {
	case "", "csv":
		s, err := ledger.NewCSVStore(cfg.SendsPath(), cfg.FailuresPath())
		if err != nil {
			return nil, err
		}
		store = s
	case "sqlite":
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		s, err := ledger.OpenSQLite(cfg.SQLitePath())
		if err != nil {
			return nil, err
		}
		store = s
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL environment variable or --db-url flag is required for the postgres ledger")
		}
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := database.EnsureSchema(ctx); err != nil {
			_ = database.Close()
			return nil, err
		}
		store = database
	default:
		return nil, fmt.Errorf("unknown ledger backend %q", cfg.LedgerBackend)
	}
	return ledger.New(store, nil), nil
}

// sourceSpecs converts configured sources to loader specs in priority order.
func sourceSpecs(cfg config.Config) []ingestion.SourceSpec {
	sources := cfg.SortedSources()
	specs := make([]ingestion.SourceSpec, len(sources))
	for i, s := range sources {
		specs[i] = ingestion.SourceSpec{Name: s.Name, Path: s.Path, ExcludeStudents: s.ExcludeStudents}
	}
	return specs
}
