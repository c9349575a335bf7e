package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonathan/outreach-agent/internal/compose"
	"github.com/jonathan/outreach-agent/internal/config"
	"github.com/jonathan/outreach-agent/internal/contact"
	"github.com/jonathan/outreach-agent/internal/delivery"
	"github.com/jonathan/outreach-agent/internal/llm"
	"github.com/jonathan/outreach-agent/internal/matching"
	"github.com/jonathan/outreach-agent/internal/observability"
	"github.com/jonathan/outreach-agent/internal/pipeline"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Run one outreach pass (dry-run unless --live or --test)",
	Long: `Computes today's remaining quota from the ledger, builds the candidate pool, and for each candidate
resolves an address, matches a resume, drafts a message and delivers it.

Without --live or --test nothing is sent. Configuration can be loaded from a JSON or YAML file using
--config. Command-line arguments override config file values.`,
	RunE: runOutreachCmd,
}

var (
	runConfigPath  string
	runLive        bool
	runTest        bool
	runLimit       int
	runNotify      bool
	runVerbose     bool
	runTarget      int
	runPacing      int
	runWarmup      int
	runDataDir     string
	runDocuments   string
	runLedger      string
	runAPIKey      string
	runDatabaseURL string
	runTestEmail   string
)

func init() {
	// Config file flag (processed first)
	runCommand.Flags().StringVar(&runConfigPath, "config", "", "Path to config.json or config.yaml (values can be overridden by other flags)")

	runCommand.Flags().BoolVar(&runLive, "live", false, "Send messages and record them in the ledger")
	runCommand.Flags().BoolVar(&runTest, "test", false, "Send a single message to the test address without recording it")
	runCommand.Flags().IntVar(&runLimit, "limit", 0, "Send this many messages regardless of the daily quota (live only)")
	runCommand.Flags().BoolVar(&runNotify, "notify", false, "Send operator notifications even outside live runs")
	runCommand.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Print detailed debug information")

	runCommand.Flags().IntVar(&runTarget, "target", 0, "Daily success target")
	runCommand.Flags().IntVar(&runPacing, "pacing", 0, "Seconds to wait between candidates")
	runCommand.Flags().IntVar(&runWarmup, "warmup", 0, "Seconds to wait before the first send")
	runCommand.Flags().StringVar(&runDataDir, "data-dir", "", "Directory holding the ledger and run summaries")
	runCommand.Flags().StringVar(&runDocuments, "documents", "", "Path to the extracted resume JSON")
	runCommand.Flags().StringVar(&runLedger, "ledger", "", "Ledger backend: csv, sqlite or postgres")
	runCommand.Flags().StringVar(&runTestEmail, "test-email", "", "Recipient for --test runs")

	// API key can be passed as a flag, or read from env var GEMINI_API_KEY
	runCommand.Flags().StringVar(&runAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")

	// Database URL for the postgres ledger
	runCommand.Flags().StringVar(&runDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")

	runCommand.MarkFlagsMutuallyExclusive("live", "test")

	rootCmd.AddCommand(runCommand)
}

func runOutreachCmd(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(runConfigPath, runVerbose)
	if err != nil {
		return err
	}

	// Only override if the flag was explicitly set
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = runVerbose
	}
	if cmd.Flags().Changed("target") {
		cfg.DailyTarget = runTarget
	}
	if cmd.Flags().Changed("data-dir") {
		cfg.DataDir = runDataDir
	}
	if cmd.Flags().Changed("documents") {
		cfg.Documents = runDocuments
	}
	if cmd.Flags().Changed("ledger") {
		cfg.LedgerBackend = runLedger
	}
	if cmd.Flags().Changed("api-key") {
		cfg.APIKey = runAPIKey
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = runDatabaseURL
	}
	if cmd.Flags().Changed("test-email") {
		cfg.TestEmail = runTestEmail
	}
	cfg = cfg.MergeWithDefaults(config.Defaults())
	// Zero delays are meaningful when set explicitly on the command line.
	if cmd.Flags().Changed("pacing") {
		cfg.PacingSeconds = runPacing
	}
	if cmd.Flags().Changed("warmup") {
		cfg.WarmupSeconds = runWarmup
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	mode, err := pipeline.ParseMode(modeName(runLive, runTest))
	if err != nil {
		return err
	}
	if runLimit > 0 && mode != pipeline.ModeLive {
		return fmt.Errorf("--limit only applies to --live runs")
	}

	logger := newLogger(os.Stderr, cfg.Verbose)

	fmt.Printf("Loading directory and documents...\n")
	inputs, err := pipeline.LoadInputs(ctx, sourceSpecs(cfg), cfg.Documents, logger)
	if err != nil {
		return err
	}
	fmt.Printf("Loaded %d candidates and %d documents\n", inputs.Directory.Len(), len(inputs.Documents))

	led, err := openLedger(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = led.Close() }()

	session, err := newGenerationSession(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = session.Close() }()

	deps := pipeline.Deps{
		Ledger:   led,
		Inputs:   inputs,
		Resolver: contact.NewResolver(cfg.PrimaryDomains, []string{".edu"}, cfg.Placeholders),
		Matcher:  matching.NewMatcher(session, cfg.DefaultDocument, logger),
		Composer: compose.NewComposer(session, cfg.SenderName, logger),
		Logger:   logger,
	}
	if cfg.Verbose {
		deps.Printer = observability.NewPrinter(os.Stdout)
	}

	sendsMail := mode != pipeline.ModeDryRun || runNotify
	if sendsMail {
		fmt.Printf("Authenticating with Gmail...\n")
		sender, err := delivery.NewGmailSender(ctx, cfg.GmailCredentials, cfg.GmailToken, cfg.SenderAddress)
		if err != nil {
			return fmt.Errorf("gmail authentication failed: %w", err)
		}
		engine := delivery.NewEngine(sender,
			delivery.WithAttempts(cfg.SendAttempts),
			delivery.WithBackoff(cfg.BackoffBase()),
			delivery.WithLogger(logger),
		)
		deps.Notifier = engine
		if mode != pipeline.ModeDryRun {
			deps.Delivery = engine
		}
	}

	controller, err := pipeline.NewController(deps)
	if err != nil {
		return err
	}

	summary, err := controller.Run(ctx, pipeline.Options{
		Mode:          mode,
		Limit:         runLimit,
		ForceNotify:   runNotify,
		DailyTarget:   cfg.DailyTarget,
		Oversample:    cfg.Oversample,
		PacingDelay:   cfg.PacingDelay(),
		WarmupDelay:   cfg.WarmupDelay(),
		OperatorEmail: cfg.OperatorEmail,
		TestEmail:     cfg.TestEmail,
		OutputDir:     cfg.DataDir,
		AttachmentDir: cfg.DocumentsDir,
	})
	if err != nil {
		return fmt.Errorf("outreach run failed: %w", err)
	}

	fmt.Printf("Run %s: sent %d, drafted %d, failed %d\n", summary.RunID, summary.Sent, summary.Drafted, summary.Failed)
	if session.PrimaryExhausted() {
		fmt.Printf("Note: primary model quota was exhausted; the local model handled the rest of the run\n")
	}
	return nil
}

// modeName maps the mutually exclusive mode flags to a run mode name.
func modeName(live, test bool) string {
	switch {
	case live:
		return string(pipeline.ModeLive)
	case test:
		return string(pipeline.ModeTest)
	}
	return ""
}

// newGenerationSession pairs the hosted model with the local fallback.
// Without an API key only the local model is used.
func newGenerationSession(ctx context.Context, cfg config.Config, logger *slog.Logger) (*llm.Session, error) {
	var primary llm.Client
	if cfg.APIKey != "" {
		geminiCfg := llm.DefaultGeminiConfig()
		if cfg.GeminiModel != "" {
			geminiCfg = geminiCfg.WithModel(llm.TierLite, cfg.GeminiModel).WithModel(llm.TierStandard, cfg.GeminiModel)
		}
		client, err := llm.NewGeminiClient(ctx, geminiCfg, cfg.APIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini client: %w", err)
		}
		primary = client
	} else {
		logger.Warn("GEMINI_API_KEY not set; using the local model only")
	}

	ollamaCfg := llm.DefaultOllamaConfig()
	ollamaCfg.BaseURL = cfg.OllamaURL
	if cfg.OllamaModel != "" {
		ollamaCfg = ollamaCfg.WithModel(llm.TierStandard, cfg.OllamaModel)
	}
	secondary := llm.NewOllamaClient(ollamaCfg, nil)

	return llm.NewSession(primary, secondary, logger), nil
}
