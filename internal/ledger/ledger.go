// Package ledger provides the durable, append-only record of successful sends
// and failed attempts. It is the only state that survives between runs and the
// source of truth for dedup and the daily quota.
package ledger

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/jonathan/outreach-agent/internal/types"
)

// Store persists ledger rows. Appends must be durable when they return nil.
type Store interface {
	AppendSend(ctx context.Context, rec types.SendRecord) error
	AppendFailure(ctx context.Context, rec types.FailureRecord) error
	Sends(ctx context.Context) ([]types.SendRecord, error)
	Failures(ctx context.Context) ([]types.FailureRecord, error)
	Close() error
}

// Ledger answers dedup and quota questions for the current calendar day.
type Ledger struct {
	store Store
	now   func() time.Time
}

// New creates a Ledger over store. now defaults to time.Now.
func New(store Store, now func() time.Time) *Ledger {
	if now == nil {
		now = time.Now
	}
	return &Ledger{store: store, now: now}
}

// Today returns the current ledger date.
func (l *Ledger) Today() string {
	return types.Day(l.now())
}

// LoadContactedNames returns every name with a send record on any date plus
// every name with a failure record dated today.
func (l *Ledger) LoadContactedNames(ctx context.Context) (map[string]struct{}, error) {
	contacted := make(map[string]struct{})

	sends, err := l.store.Sends(ctx)
	if err != nil {
		return nil, &ReadError{Message: "loading send records", Cause: err}
	}
	for _, s := range sends {
		contacted[s.Name] = struct{}{}
	}

	failures, err := l.store.Failures(ctx)
	if err != nil {
		return nil, &ReadError{Message: "loading failure records", Cause: err}
	}
	today := l.Today()
	for _, f := range failures {
		if f.Date == today {
			contacted[f.Name] = struct{}{}
		}
	}
	return contacted, nil
}

// CountSuccessesToday counts send records dated today.
func (l *Ledger) CountSuccessesToday(ctx context.Context) (int, error) {
	sends, err := l.store.Sends(ctx)
	if err != nil {
		return 0, &ReadError{Message: "loading send records", Cause: err}
	}
	today := l.Today()
	count := 0
	for _, s := range sends {
		if s.Date == today {
			count++
		}
	}
	return count, nil
}

// RecordSuccess appends a send record dated today. Call it immediately after
// the delivery backend confirms the send.
func (l *Ledger) RecordSuccess(ctx context.Context, name, contact string) error {
	rec := types.SendRecord{Name: name, Contact: contact, Date: l.Today()}
	if err := l.store.AppendSend(ctx, rec); err != nil {
		return &WriteError{Op: "record success", Name: name, Cause: err}
	}
	return nil
}

// RecordFailure appends a failure record dated today. An empty contact is
// written as types.NoContact.
func (l *Ledger) RecordFailure(ctx context.Context, name, contact, profileLink string, reason types.ReasonCode) error {
	if contact == "" {
		contact = types.NoContact
	}
	rec := types.FailureRecord{
		Name:        name,
		Contact:     contact,
		ProfileLink: profileLink,
		Reason:      reason,
		Date:        l.Today(),
	}
	if err := l.store.AppendFailure(ctx, rec); err != nil {
		return &WriteError{Op: "record failure", Name: name, Cause: err}
	}
	return nil
}

// ExportSends writes all send records as CSV with the sent-log header.
func (l *Ledger) ExportSends(ctx context.Context, w io.Writer) error {
	sends, err := l.store.Sends(ctx)
	if err != nil {
		return &ReadError{Message: "loading send records", Cause: err}
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(sendHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, s := range sends {
		if err := cw.Write([]string{s.Name, s.Contact, s.Date}); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Close releases the underlying store.
func (l *Ledger) Close() error {
	return l.store.Close()
}
