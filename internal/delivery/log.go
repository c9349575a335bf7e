package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/jonathan/outreach-agent/internal/types"
)

// Sent is one message captured by a LogSender.
type Sent struct {
	ID         string
	To         string
	Message    types.Message
	Attachment *types.Attachment
}

// LogSender records messages instead of transmitting them.
type LogSender struct {
	logger *slog.Logger

	mu   sync.Mutex
	sent []Sent
}

// NewLogSender creates a LogSender.
func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{logger: logger}
}

// Send implements Sender.
func (s *LogSender) Send(ctx context.Context, to string, msg *types.Message, attachment *types.Attachment) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if msg == nil {
		return "", fmt.Errorf("nil message")
	}
	id := "dry-" + uuid.NewString()
	s.logger.Debug("dry-run send", "to", to, "subject", msg.Subject, "message_id", id)

	s.mu.Lock()
	s.sent = append(s.sent, Sent{ID: id, To: to, Message: *msg, Attachment: attachment})
	s.mu.Unlock()
	return id, nil
}

// Sent returns a copy of the captured messages.
func (s *LogSender) Sent() []Sent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Sent, len(s.sent))
	copy(out, s.sent)
	return out
}
