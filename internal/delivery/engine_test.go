package delivery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonathan/outreach-agent/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockSender implements Sender for testing
type MockSender struct {
	SendFunc func(ctx context.Context, to string, msg *types.Message, attachment *types.Attachment) (string, error)
	Calls    int
}

func (m *MockSender) Send(ctx context.Context, to string, msg *types.Message, attachment *types.Attachment) (string, error) {
	m.Calls++
	if m.SendFunc != nil {
		return m.SendFunc(ctx, to, msg, attachment)
	}
	return "msg-1", nil
}

// recordingSleeper returns immediately and remembers requested waits.
type recordingSleeper struct {
	waits []time.Duration
	err   error
}

func (s *recordingSleeper) Sleep(_ context.Context, d time.Duration) error {
	s.waits = append(s.waits, d)
	return s.err
}

var testMessage = &types.Message{Subject: "Hello", Body: "Body"}

func TestDeliver_FirstAttempt(t *testing.T) {
	sender := &MockSender{}
	sleeper := &recordingSleeper{}
	engine := NewEngine(sender, WithSleeper(sleeper))

	receipt, err := engine.Deliver(context.Background(), "ada@uw.edu", testMessage, nil)
	require.NoError(t, err)
	assert.Equal(t, "msg-1", receipt.MessageID)
	assert.Equal(t, 1, receipt.Attempts)
	assert.Empty(t, sleeper.waits)
}

func TestDeliver_RetriesWithLinearBackoff(t *testing.T) {
	sender := &MockSender{}
	sender.SendFunc = func(context.Context, string, *types.Message, *types.Attachment) (string, error) {
		if sender.Calls < 3 {
			return "", errors.New("503")
		}
		return "msg-3", nil
	}
	sleeper := &recordingSleeper{}
	engine := NewEngine(sender, WithSleeper(sleeper), WithBackoff(5*time.Second))

	receipt, err := engine.Deliver(context.Background(), "ada@uw.edu", testMessage, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, receipt.Attempts)
	assert.Equal(t, []time.Duration{5 * time.Second, 10 * time.Second}, sleeper.waits)
}

func TestDeliver_Exhausted(t *testing.T) {
	cause := errors.New("unreachable")
	sender := &MockSender{SendFunc: func(context.Context, string, *types.Message, *types.Attachment) (string, error) {
		return "", cause
	}}
	sleeper := &recordingSleeper{}
	engine := NewEngine(sender, WithSleeper(sleeper), WithAttempts(4))

	receipt, err := engine.Deliver(context.Background(), "ada@uw.edu", testMessage, nil)
	assert.Nil(t, receipt)

	var derr *Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, 4, derr.Attempts)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 4, sender.Calls)
	assert.Len(t, sleeper.waits, 3)
}

func TestDeliver_CancelledDuringBackoff(t *testing.T) {
	sender := &MockSender{SendFunc: func(context.Context, string, *types.Message, *types.Attachment) (string, error) {
		return "", errors.New("timeout")
	}}
	sleeper := &recordingSleeper{err: context.Canceled}
	engine := NewEngine(sender, WithSleeper(sleeper))

	_, err := engine.Deliver(context.Background(), "ada@uw.edu", testMessage, nil)
	var derr *Error
	require.ErrorAs(t, err, &derr)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, sender.Calls)
}

func TestDeliver_NoSender(t *testing.T) {
	_, err := NewEngine(nil).Deliver(context.Background(), "ada@uw.edu", testMessage, nil)
	var derr *Error
	assert.ErrorAs(t, err, &derr)
}

func TestRealSleeper_HonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := RealSleeper{}.Sleep(ctx, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestLogSender(t *testing.T) {
	sender := NewLogSender(nil)
	att := &types.Attachment{Filename: "sent_log.csv", ContentType: "text/csv", Data: []byte("name\n")}

	id, err := sender.Send(context.Background(), "op@example.com", testMessage, att)
	require.NoError(t, err)
	assert.Contains(t, id, "dry-")

	sent := sender.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "op@example.com", sent[0].To)
	assert.Equal(t, "Hello", sent[0].Message.Subject)
	assert.Equal(t, "sent_log.csv", sent[0].Attachment.Filename)
}
