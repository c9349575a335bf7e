// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Source is one directory CSV in selection priority order.
type Source struct {
	Name            string `json:"name" yaml:"name" validate:"required"`
	Path            string `json:"path" yaml:"path" validate:"required"`
	Priority        int    `json:"priority,omitempty" yaml:"priority,omitempty"`
	ExcludeStudents bool   `json:"exclude_students,omitempty" yaml:"exclude_students,omitempty"`
}

// Config represents the CLI configuration that can be loaded from a JSON or
// YAML file. Missing values fall back to Defaults or CLI flags.
type Config struct {
	// Inputs
	Sources         []Source `json:"sources,omitempty" yaml:"sources,omitempty" validate:"dive"`
	Documents       string   `json:"documents,omitempty" yaml:"documents,omitempty"`         // Document set JSON
	DocumentsDir    string   `json:"documents_dir,omitempty" yaml:"documents_dir,omitempty"` // PDF folder for extract-docs
	DefaultDocument string   `json:"default_document,omitempty" yaml:"default_document,omitempty"`

	// Ledger
	DataDir       string `json:"data_dir,omitempty" yaml:"data_dir,omitempty"`
	LedgerBackend string `json:"ledger_backend,omitempty" yaml:"ledger_backend,omitempty" validate:"omitempty,oneof=csv sqlite postgres"`
	DatabaseURL   string `json:"database_url,omitempty" yaml:"database_url,omitempty"`

	// Quota and pacing
	DailyTarget        int `json:"daily_target,omitempty" yaml:"daily_target,omitempty" validate:"min=0"`
	Oversample         int `json:"oversample,omitempty" yaml:"oversample,omitempty" validate:"min=0"`
	PacingSeconds      int `json:"pacing_seconds,omitempty" yaml:"pacing_seconds,omitempty" validate:"min=0"`
	WarmupSeconds      int `json:"warmup_seconds,omitempty" yaml:"warmup_seconds,omitempty" validate:"min=0"`
	SendAttempts       int `json:"send_attempts,omitempty" yaml:"send_attempts,omitempty" validate:"min=0"`
	BackoffBaseSeconds int `json:"backoff_base_seconds,omitempty" yaml:"backoff_base_seconds,omitempty" validate:"min=0"`

	// Addresses
	OperatorEmail  string   `json:"operator_email,omitempty" yaml:"operator_email,omitempty" validate:"omitempty,email"`
	TestEmail      string   `json:"test_email,omitempty" yaml:"test_email,omitempty" validate:"omitempty,email"`
	SenderName     string   `json:"sender_name,omitempty" yaml:"sender_name,omitempty"`
	SenderAddress  string   `json:"sender_address,omitempty" yaml:"sender_address,omitempty" validate:"omitempty,email"`
	PrimaryDomains []string `json:"primary_domains,omitempty" yaml:"primary_domains,omitempty"`
	Placeholders   []string `json:"placeholders,omitempty" yaml:"placeholders,omitempty"`

	// Generation backends
	APIKey      string `json:"api_key,omitempty" yaml:"api_key,omitempty"` // Gemini API key
	GeminiModel string `json:"gemini_model,omitempty" yaml:"gemini_model,omitempty"`
	OllamaURL   string `json:"ollama_url,omitempty" yaml:"ollama_url,omitempty" validate:"omitempty,url"`
	OllamaModel string `json:"ollama_model,omitempty" yaml:"ollama_model,omitempty"`

	// Delivery
	GmailCredentials string `json:"gmail_credentials,omitempty" yaml:"gmail_credentials,omitempty"`
	GmailToken       string `json:"gmail_token,omitempty" yaml:"gmail_token,omitempty"`

	Verbose bool `json:"verbose,omitempty" yaml:"verbose,omitempty"` // Print detailed debug information
}

// Defaults returns the values used when neither the file nor a flag sets a field.
func Defaults() Config {
	return Config{
		Sources: []Source{
			{Name: "Allen School", Path: "data/allen_faculty_all.csv", Priority: 1},
			{Name: "eScience Institute", Path: "data/escience_faculty_all.csv", Priority: 2, ExcludeStudents: true},
		},
		Documents:          "data/resumes.json",
		DocumentsDir:       "resumes",
		DefaultDocument:    "Niteesh_Resume_General.pdf",
		DataDir:            "data",
		LedgerBackend:      "csv",
		DailyTarget:        14,
		Oversample:         2,
		PacingSeconds:      120,
		WarmupSeconds:      120,
		SendAttempts:       3,
		BackoffBaseSeconds: 5,
		SenderName:         "Niteesh",
		PrimaryDomains:     []string{"uw.edu", "washington.edu"},
		Placeholders:       []string{"placeholder@uw.edu"},
		OllamaURL:          "http://localhost:11434",
		OllamaModel:        "llama3",
		GmailCredentials:   "credentials.json",
		GmailToken:         "token.json",
	}
}

// LoadConfig loads configuration from a JSON or YAML file, chosen by extension.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check for required fields since those are handled
// by CLI flag validation after merging.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	if c.LedgerBackend == "postgres" && c.DatabaseURL == "" {
		return fmt.Errorf("config error: 'database_url' is required for the postgres ledger")
	}

	seen := make(map[string]struct{}, len(c.Sources))
	for _, s := range c.Sources {
		if _, dup := seen[s.Name]; dup {
			return fmt.Errorf("config error: duplicate source name %q", s.Name)
		}
		seen[s.Name] = struct{}{}
	}

	if c.DefaultDocument != "" && filepath.Base(c.DefaultDocument) != c.DefaultDocument {
		return fmt.Errorf("config error: 'default_document' must be a document identifier, not a path: %s", c.DefaultDocument)
	}

	return nil
}

// MergeWithDefaults returns a new Config with unset fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// Slice fields: use default if empty
	if len(result.Sources) == 0 {
		result.Sources = defaults.Sources
	}
	if len(result.PrimaryDomains) == 0 {
		result.PrimaryDomains = defaults.PrimaryDomains
	}
	if len(result.Placeholders) == 0 {
		result.Placeholders = defaults.Placeholders
	}

	// String fields: use default if empty
	mergeString(&result.Documents, defaults.Documents)
	mergeString(&result.DocumentsDir, defaults.DocumentsDir)
	mergeString(&result.DefaultDocument, defaults.DefaultDocument)
	mergeString(&result.DataDir, defaults.DataDir)
	mergeString(&result.LedgerBackend, defaults.LedgerBackend)
	mergeString(&result.DatabaseURL, defaults.DatabaseURL)
	mergeString(&result.OperatorEmail, defaults.OperatorEmail)
	mergeString(&result.TestEmail, defaults.TestEmail)
	mergeString(&result.SenderName, defaults.SenderName)
	mergeString(&result.SenderAddress, defaults.SenderAddress)
	mergeString(&result.APIKey, defaults.APIKey)
	mergeString(&result.GeminiModel, defaults.GeminiModel)
	mergeString(&result.OllamaURL, defaults.OllamaURL)
	mergeString(&result.OllamaModel, defaults.OllamaModel)
	mergeString(&result.GmailCredentials, defaults.GmailCredentials)
	mergeString(&result.GmailToken, defaults.GmailToken)

	// Int fields: use default if zero
	mergeInt(&result.DailyTarget, defaults.DailyTarget)
	mergeInt(&result.Oversample, defaults.Oversample)
	mergeInt(&result.PacingSeconds, defaults.PacingSeconds)
	mergeInt(&result.WarmupSeconds, defaults.WarmupSeconds)
	mergeInt(&result.SendAttempts, defaults.SendAttempts)
	mergeInt(&result.BackoffBaseSeconds, defaults.BackoffBaseSeconds)

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

// ApplyEnv fills secrets and endpoints from the environment when unset.
// It reads GEMINI_API_KEY, DATABASE_URL and OLLAMA_URL.
func (c *Config) ApplyEnv() {
	if c.APIKey == "" {
		c.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if v := os.Getenv("OLLAMA_URL"); v != "" && c.OllamaURL == "" {
		c.OllamaURL = v
	}
}

// SortedSources returns the sources by ascending Priority. Sources sharing a
// priority keep their declared order.
func (c *Config) SortedSources() []Source {
	out := make([]Source, len(c.Sources))
	copy(out, c.Sources)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })
	return out
}

// PacingDelay is the wait after each processed candidate.
func (c *Config) PacingDelay() time.Duration {
	return time.Duration(c.PacingSeconds) * time.Second
}

// WarmupDelay is the wait before the first live send.
func (c *Config) WarmupDelay() time.Duration {
	return time.Duration(c.WarmupSeconds) * time.Second
}

// BackoffBase is the first delivery retry wait.
func (c *Config) BackoffBase() time.Duration {
	return time.Duration(c.BackoffBaseSeconds) * time.Second
}

// SendsPath is the CSV send ledger inside DataDir.
func (c *Config) SendsPath() string {
	return filepath.Join(c.DataDir, "sent_log.csv")
}

// FailuresPath is the CSV failure ledger inside DataDir.
func (c *Config) FailuresPath() string {
	return filepath.Join(c.DataDir, "failed_outreach.csv")
}

// SQLitePath is the SQLite ledger database inside DataDir.
func (c *Config) SQLitePath() string {
	return filepath.Join(c.DataDir, "outreach.db")
}

func mergeString(dst *string, def string) {
	if *dst == "" {
		*dst = def
	}
}

func mergeInt(dst *int, def int) {
	if *dst == 0 {
		*dst = def
	}
}
