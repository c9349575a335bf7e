package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockClient implements Client for testing
type MockClient struct {
	GenerateContentFunc func(ctx context.Context, prompt string, tier ModelTier) (string, error)
	GenerateJSONFunc    func(ctx context.Context, prompt string, tier ModelTier) (string, error)
	Calls               int
	Model               string
}

func (m *MockClient) GenerateContent(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	m.Calls++
	if m.GenerateContentFunc != nil {
		return m.GenerateContentFunc(ctx, prompt, tier)
	}
	return "", nil
}

func (m *MockClient) GenerateJSON(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	m.Calls++
	if m.GenerateJSONFunc != nil {
		return m.GenerateJSONFunc(ctx, prompt, tier)
	}
	return "{}", nil
}

func (m *MockClient) GetModel(ModelTier) string { return m.Model }

func (m *MockClient) Close() error { return nil }

func reply(text string, err error) func(context.Context, string, ModelTier) (string, error) {
	return func(context.Context, string, ModelTier) (string, error) { return text, err }
}

func TestSession_PrimarySucceeds(t *testing.T) {
	primary := &MockClient{GenerateContentFunc: reply("primary", nil)}
	secondary := &MockClient{GenerateContentFunc: reply("secondary", nil)}
	s := NewSession(primary, secondary, nil)

	out, err := s.GenerateContent(context.Background(), "p", TierLite)
	require.NoError(t, err)
	assert.Equal(t, "primary", out)
	assert.Equal(t, 0, secondary.Calls)
}

func TestSession_QuotaErrorSticks(t *testing.T) {
	primary := &MockClient{
		Model:               "gemini",
		GenerateContentFunc: reply("", errors.New("googleapi: Error 429: Quota exceeded")),
	}
	secondary := &MockClient{Model: "llama3", GenerateContentFunc: reply("local", nil)}
	s := NewSession(primary, secondary, nil)

	for i := 0; i < 3; i++ {
		out, err := s.GenerateContent(context.Background(), "p", TierStandard)
		require.NoError(t, err)
		assert.Equal(t, "local", out)
	}

	assert.True(t, s.PrimaryExhausted())
	assert.Equal(t, 1, primary.Calls, "primary must not be retried after quota exhaustion")
	assert.Equal(t, 3, secondary.Calls)
	assert.Equal(t, "llama3", s.GetModel(TierStandard))
}

func TestSession_TransientErrorDoesNotStick(t *testing.T) {
	primary := &MockClient{GenerateJSONFunc: reply("", errors.New("connection reset"))}
	secondary := &MockClient{GenerateJSONFunc: reply(`{"ok":true}`, nil)}
	s := NewSession(primary, secondary, nil)

	_, err := s.GenerateJSON(context.Background(), "p", TierStandard)
	require.NoError(t, err)
	_, err = s.GenerateJSON(context.Background(), "p", TierStandard)
	require.NoError(t, err)

	assert.False(t, s.PrimaryExhausted())
	assert.Equal(t, 2, primary.Calls)
}

func TestSession_NoBackends(t *testing.T) {
	s := NewSession(nil, nil, nil)
	_, err := s.GenerateContent(context.Background(), "p", TierLite)
	assert.ErrorIs(t, err, ErrNoBackend)
}

func TestSession_BothFail(t *testing.T) {
	primary := &MockClient{GenerateContentFunc: reply("", errors.New("boom"))}
	secondary := &MockClient{GenerateContentFunc: reply("", errors.New("refused"))}
	s := NewSession(primary, secondary, nil)

	_, err := s.GenerateContent(context.Background(), "p", TierLite)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refused")
}

func TestIsQuotaError(t *testing.T) {
	assert.False(t, IsQuotaError(nil))
	assert.True(t, IsQuotaError(errors.New("rpc error: code = ResourceExhausted desc = RESOURCE_EXHAUSTED")))
	assert.True(t, IsQuotaError(&APICallError{Provider: ProviderOllama, StatusCode: 429}))
	assert.False(t, IsQuotaError(errors.New("deadline exceeded")))
}
