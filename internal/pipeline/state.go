package pipeline

import "fmt"

// Mode selects how much of a run has real effects.
type Mode string

// Run modes.
const (
	// ModeDryRun composes messages without delivering them or recording sends.
	ModeDryRun Mode = "dry-run"
	// ModeTest sends a single message to the configured test address.
	ModeTest Mode = "test"
	// ModeLive delivers and records up to the day's quota or a manual limit.
	ModeLive Mode = "live"
)

// ParseMode converts a CLI value to a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeDryRun, ModeTest, ModeLive:
		return Mode(s), nil
	case "":
		return ModeDryRun, nil
	}
	return "", fmt.Errorf("unknown run mode %q", s)
}

// State is a Run Controller phase.
type State string

// Run Controller states, in order.
const (
	StateInitializing   State = "initializing"
	StateAuthenticating State = "authenticating"
	StateNotifyingStart State = "notifying_start"
	StateQuotaCheck     State = "quota_check"
	StateIterating      State = "iterating"
	StateNotifyingEnd   State = "notifying_end"
	StateDone           State = "done"
)

// ProgressEvent represents a progress update during a run.
type ProgressEvent struct {
	State   State  `json:"state"`
	Message string `json:"message"`
	RunID   string `json:"run_id,omitempty"`
	Content any    `json:"content,omitempty"`
}

// ProgressCallback is called when run progress occurs.
type ProgressCallback func(event ProgressEvent)
