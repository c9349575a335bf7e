// Package delivery sends composed messages through a mail provider with a
// bounded retry schedule.
package delivery

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jonathan/outreach-agent/internal/types"
)

// Default retry schedule.
const (
	DefaultAttempts    = 3
	DefaultBackoffBase = 5 * time.Second
)

// Sender transmits a single message. It returns the provider message id.
type Sender interface {
	Send(ctx context.Context, to string, msg *types.Message, attachment *types.Attachment) (string, error)
}

// Sleeper blocks for d or until ctx is done.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// RealSleeper waits on the wall clock.
type RealSleeper struct{}

// Sleep implements Sleeper.
func (RealSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Receipt describes a successful delivery.
type Receipt struct {
	MessageID string
	Attempts  int
}

// Engine retries a Sender on a linear backoff schedule.
type Engine struct {
	sender      Sender
	sleeper     Sleeper
	attempts    int
	backoffBase time.Duration
	logger      *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithAttempts sets the maximum number of send attempts.
func WithAttempts(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.attempts = n
		}
	}
}

// WithBackoff sets the base wait; attempt k is followed by base × k.
func WithBackoff(base time.Duration) Option {
	return func(e *Engine) {
		if base >= 0 {
			e.backoffBase = base
		}
	}
}

// WithSleeper replaces the wall-clock sleeper.
func WithSleeper(s Sleeper) Option {
	return func(e *Engine) {
		if s != nil {
			e.sleeper = s
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine creates an Engine around sender.
func NewEngine(sender Sender, opts ...Option) *Engine {
	e := &Engine{
		sender:      sender,
		sleeper:     RealSleeper{},
		attempts:    DefaultAttempts,
		backoffBase: DefaultBackoffBase,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Deliver sends msg to the address, retrying transient failures. It returns
// a *Error once every attempt has failed.
func (e *Engine) Deliver(ctx context.Context, to string, msg *types.Message, attachment *types.Attachment) (*Receipt, error) {
	if e.sender == nil {
		return nil, &Error{To: to, Cause: errors.New("no sender configured")}
	}

	var lastErr error
	for attempt := 1; attempt <= e.attempts; attempt++ {
		id, err := e.sender.Send(ctx, to, msg, attachment)
		if err == nil {
			e.logger.Info("message sent", "to", to, "message_id", id, "attempt", attempt)
			return &Receipt{MessageID: id, Attempts: attempt}, nil
		}
		lastErr = err
		e.logger.Warn("send attempt failed", "to", to, "attempt", attempt, "reason", err)

		if attempt == e.attempts {
			break
		}
		if err := e.sleeper.Sleep(ctx, e.backoffBase*time.Duration(attempt)); err != nil {
			return nil, &Error{To: to, Attempts: attempt, Cause: err}
		}
	}

	return nil, &Error{To: to, Attempts: e.attempts, Cause: lastErr}
}
