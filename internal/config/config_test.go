package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_ValidJSON(t *testing.T) {
	content := `{
		"sources": [{"name": "Allen School", "path": "allen.csv", "priority": 1}],
		"daily_target": 10,
		"operator_email": "op@example.com",
		"verbose": true
	}`

	tmpFile := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(tmpFile, []byte(content), 0644))

	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	require.Len(t, cfg.Sources, 1)
	assert.Equal(t, "allen.csv", cfg.Sources[0].Path)
	assert.Equal(t, 10, cfg.DailyTarget)
	assert.Equal(t, "op@example.com", cfg.OperatorEmail)
	assert.True(t, cfg.Verbose)
}

func TestLoadConfig_ValidYAML(t *testing.T) {
	content := `
sources:
  - name: Allen School
    path: allen.csv
  - name: eScience Institute
    path: escience.csv
    exclude_students: true
ledger_backend: sqlite
pacing_seconds: 30
primary_domains: [uw.edu]
`
	tmpFile := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(tmpFile, []byte(content), 0644))

	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)
	require.Len(t, cfg.Sources, 2)
	assert.True(t, cfg.Sources[1].ExcludeStudents)
	assert.Equal(t, "sqlite", cfg.LedgerBackend)
	assert.Equal(t, 30*time.Second, cfg.PacingDelay())
	assert.Equal(t, []string{"uw.edu"}, cfg.PrimaryDomains)
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(tmpFile, []byte(`{ invalid json }`), 0644))

	cfg, err := LoadConfig(tmpFile)
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config JSON")
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(tmpFile, []byte("sources: [unclosed"), 0644))

	_, err := LoadConfig(tmpFile)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config YAML")
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.json")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"defaults", Defaults(), ""},
		{"negative target", Config{DailyTarget: -1}, "DailyTarget"},
		{"bad backend", Config{LedgerBackend: "mongo"}, "LedgerBackend"},
		{"bad operator email", Config{OperatorEmail: "not-an-email"}, "OperatorEmail"},
		{"postgres without url", Config{LedgerBackend: "postgres"}, "database_url"},
		{"source missing path", Config{Sources: []Source{{Name: "A"}}}, "Path"},
		{"duplicate sources", Config{Sources: []Source{{Name: "A", Path: "a"}, {Name: "A", Path: "b"}}}, "duplicate source"},
		{"default document path", Config{DefaultDocument: "resumes/General.pdf"}, "default_document"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMergeWithDefaults(t *testing.T) {
	cfg := Config{DailyTarget: 5, SenderName: "Ada"}
	merged := cfg.MergeWithDefaults(Defaults())

	assert.Equal(t, 5, merged.DailyTarget)
	assert.Equal(t, "Ada", merged.SenderName)
	assert.Equal(t, 120, merged.PacingSeconds)
	assert.Equal(t, 3, merged.SendAttempts)
	assert.Equal(t, "csv", merged.LedgerBackend)
	assert.Len(t, merged.Sources, 2)

	// Original unchanged
	assert.Zero(t, cfg.PacingSeconds)
}

func TestMergeWithDefaults_EmptyDefaults(t *testing.T) {
	cfg := Config{DataDir: "x"}
	merged := cfg.MergeWithDefaults(Config{})
	assert.Equal(t, "x", merged.DataDir)
	assert.Empty(t, merged.Sources)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "env-key")
	t.Setenv("DATABASE_URL", "postgres://env")
	t.Setenv("OLLAMA_URL", "http://ollama:11434")

	cfg := Config{APIKey: "file-key"}
	cfg.ApplyEnv()

	assert.Equal(t, "file-key", cfg.APIKey)
	assert.Equal(t, "postgres://env", cfg.DatabaseURL)
	assert.Equal(t, "http://ollama:11434", cfg.OllamaURL)
}

func TestSortedSources(t *testing.T) {
	cfg := Config{Sources: []Source{
		{Name: "C", Priority: 3},
		{Name: "A", Priority: 1},
		{Name: "B1", Priority: 2},
		{Name: "B2", Priority: 2},
	}}

	var names []string
	for _, s := range cfg.SortedSources() {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"A", "B1", "B2", "C"}, names)
	assert.Equal(t, "C", cfg.Sources[0].Name)
}

func TestPaths(t *testing.T) {
	cfg := Config{DataDir: "data"}
	assert.Equal(t, filepath.Join("data", "sent_log.csv"), cfg.SendsPath())
	assert.Equal(t, filepath.Join("data", "failed_outreach.csv"), cfg.FailuresPath())
	assert.Equal(t, filepath.Join("data", "outreach.db"), cfg.SQLitePath())
}
