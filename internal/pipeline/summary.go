package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jonathan/outreach-agent/internal/types"
)

// RunSummary is the in-memory result of one run.
type RunSummary struct {
	RunID           string              `json:"run_id"`
	Mode            Mode                `json:"mode"`
	State           State               `json:"state"`
	Date            string              `json:"date"`
	SuccessesBefore int                 `json:"successes_before"`
	Target          int                 `json:"target"`
	Remaining       int                 `json:"remaining"`
	PoolSize        int                 `json:"pool_size"`
	Sent            int                 `json:"sent"`
	Drafted         int                 `json:"drafted"`
	Failed          int                 `json:"failed"`
	Records         []types.DraftRecord `json:"records"`
	SummaryPath     string              `json:"summary_path,omitempty"`
}

func (s *RunSummary) add(rec types.DraftRecord) {
	s.Records = append(s.Records, rec)
	switch rec.Outcome {
	case types.OutcomeSent:
		s.Sent++
	case types.OutcomeDrafted:
		s.Drafted++
	case types.OutcomeFailed:
		s.Failed++
	}
}

// SummaryFileName is the per-day summary file name.
func SummaryFileName(t time.Time) string {
	return fmt.Sprintf("outreach_results_%s.json", t.Format("20060102"))
}

// WriteSummary writes records as an indented JSON array to the day's summary
// file in dir, replacing any earlier file from the same day.
func WriteSummary(dir string, now time.Time, records []types.DraftRecord) (string, error) {
	if records == nil {
		records = []types.DraftRecord{}
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create summary directory: %w", err)
	}

	data, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal run summary: %w", err)
	}

	path := filepath.Join(dir, SummaryFileName(now))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write run summary: %w", err)
	}
	return path, nil
}
