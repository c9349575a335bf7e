package types

import "time"

// DateLayout is the calendar-day format used for ledger dates and quota accounting.
const DateLayout = "2006-01-02"

// NoContact is written in place of an address when none could be resolved.
const NoContact = "None"

// ReasonCode explains why an outreach attempt was logged as a failure.
type ReasonCode string

// Failure reasons written to the failure ledger.
const (
	ReasonNoValidAddress    ReasonCode = "no valid address"
	ReasonCompositionFailed ReasonCode = "composition failed"
	ReasonDeliveryFailure   ReasonCode = "delivery failure"
)

// SendRecord is one confirmed delivery. It is written exactly once per
// successful send and permanently excludes Name from future targeting.
type SendRecord struct {
	Name    string `json:"name" validate:"required"`
	Contact string `json:"email" validate:"required"`
	Date    string `json:"date_sent" validate:"required,datetime=2006-01-02"`
}

// FailureRecord is one failed attempt. It suppresses Name for the rest of Date only.
type FailureRecord struct {
	Name        string     `json:"name" validate:"required"`
	Contact     string     `json:"email"`
	ProfileLink string     `json:"bio_link"`
	Reason      ReasonCode `json:"reason" validate:"required"`
	Date        string     `json:"date" validate:"required,datetime=2006-01-02"`
}

// Outcome is the terminal state a candidate reached in one run.
type Outcome string

// Candidate outcomes recorded in the run summary.
const (
	OutcomeSent    Outcome = "sent"
	OutcomeDrafted Outcome = "drafted" // composed but not delivered (dry-run, test)
	OutcomeFailed  Outcome = "failed"
)

// DraftRecord is one entry of the per-run JSON summary.
type DraftRecord struct {
	Name         string     `json:"name"`
	Contact      string     `json:"email"`
	DocumentUsed string     `json:"resume_used,omitempty"`
	Subject      string     `json:"subject,omitempty"`
	Body         string     `json:"body,omitempty"`
	ProfileLink  string     `json:"profile_link,omitempty"`
	Date         string     `json:"date"`
	Outcome      Outcome    `json:"outcome"`
	Reason       ReasonCode `json:"reason,omitempty"`
	MessageID    string     `json:"message_id,omitempty"`
}

// Message is a composed outreach email.
type Message struct {
	Subject string `json:"subject" validate:"required"`
	Body    string `json:"body" validate:"required"`
}

// Attachment is an optional file sent alongside a message.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Day formats t as a ledger date.
func Day(t time.Time) string {
	return t.Format(DateLayout)
}
