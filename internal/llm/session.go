package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Session routes generation calls for a single run: primary backend first,
// secondary on failure. Once the primary reports quota exhaustion, every
// later call in the same session goes straight to the secondary.
//
// Session implements Client so matchers and composers stay backend-agnostic.
// It is not safe for concurrent use; a run processes one candidate at a time.
type Session struct {
	primary          Client
	secondary        Client
	primaryExhausted bool
	logger           *slog.Logger
}

// NewSession creates a run-scoped session. Either backend may be nil.
func NewSession(primary, secondary Client, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{primary: primary, secondary: secondary, logger: logger}
}

// PrimaryExhausted reports whether the session has switched to the secondary backend for good.
func (s *Session) PrimaryExhausted() bool {
	return s.primaryExhausted
}

// GenerateContent generates text via the fallback chain
func (s *Session) GenerateContent(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	return s.route(ctx, tier, func(c Client) (string, error) {
		return c.GenerateContent(ctx, prompt, tier)
	})
}

// GenerateJSON generates JSON via the fallback chain
func (s *Session) GenerateJSON(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	return s.route(ctx, tier, func(c Client) (string, error) {
		return c.GenerateJSON(ctx, prompt, tier)
	})
}

func (s *Session) route(ctx context.Context, tier ModelTier, call func(Client) (string, error)) (string, error) {
	var primaryErr error
	if s.primary != nil && !s.primaryExhausted {
		text, err := call(s.primary)
		if err == nil && text != "" {
			return text, nil
		}
		if err == nil {
			err = errors.New("empty response")
		}
		primaryErr = err
		if IsQuotaError(err) {
			s.primaryExhausted = true
			s.logger.Warn("primary backend quota exceeded; using secondary for the rest of the session",
				"model", s.primary.GetModel(tier))
		} else {
			s.logger.Warn("primary backend error", "error", err)
		}
	}

	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	if s.secondary == nil {
		if primaryErr != nil {
			return "", fmt.Errorf("%w: %v", ErrNoBackend, primaryErr)
		}
		return "", ErrNoBackend
	}

	text, err := call(s.secondary)
	if err != nil {
		s.logger.Warn("secondary backend error", "error", err)
		return "", fmt.Errorf("secondary backend failed: %w", err)
	}
	return text, nil
}

// GetModel returns the model currently serving tier
func (s *Session) GetModel(tier ModelTier) string {
	if s.primary != nil && !s.primaryExhausted {
		return s.primary.GetModel(tier)
	}
	if s.secondary != nil {
		return s.secondary.GetModel(tier)
	}
	return ""
}

// Close closes both backends
func (s *Session) Close() error {
	var errs []error
	if s.primary != nil {
		errs = append(errs, s.primary.Close())
	}
	if s.secondary != nil {
		errs = append(errs, s.secondary.Close())
	}
	return errors.Join(errs...)
}
