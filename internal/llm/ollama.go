package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultOllamaTimeout bounds a single local generation call.
const DefaultOllamaTimeout = 90 * time.Second

// OllamaClient implements Client against a local Ollama server's /api/generate endpoint.
type OllamaClient struct {
	config *Config
	http   *http.Client
}

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
	Format string `json:"format,omitempty"`
}

type ollamaResponse struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

// NewOllamaClient creates a client for config.BaseURL. A nil httpClient uses
// a client with DefaultOllamaTimeout.
func NewOllamaClient(config *Config, httpClient *http.Client) *OllamaClient {
	if config == nil {
		config = DefaultOllamaConfig()
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultOllamaTimeout}
	}
	return &OllamaClient{config: config, http: httpClient}
}

// GenerateContent generates text content using the specified model tier
func (c *OllamaClient) GenerateContent(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	return c.generate(ctx, prompt, tier, "")
}

// GenerateJSON asks Ollama for JSON-formatted output
func (c *OllamaClient) GenerateJSON(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	text, err := c.generate(ctx, prompt, tier, "json")
	if err != nil {
		return "", err
	}
	return StripFences(text), nil
}

func (c *OllamaClient) generate(ctx context.Context, prompt string, tier ModelTier, format string) (string, error) {
	model := c.config.GetModel(tier)
	if model == "" {
		return "", fmt.Errorf("no model configured for tier %s", tier)
	}

	body, err := json.Marshal(ollamaRequest{Model: model, Prompt: prompt, Stream: false, Format: format})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := strings.TrimRight(c.config.BaseURL, "/") + "/api/generate"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", &APICallError{Provider: ProviderOllama, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &APICallError{Provider: ProviderOllama, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &APICallError{Provider: ProviderOllama, Message: "failed to read response body", Cause: err}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &APICallError{
			Provider:   ProviderOllama,
			Message:    fmt.Sprintf("unexpected status %d", resp.StatusCode),
			StatusCode: resp.StatusCode,
		}
	}

	var out ollamaResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", &APICallError{Provider: ProviderOllama, Message: "failed to decode response", Cause: err}
	}
	if out.Error != "" {
		return "", &APICallError{Provider: ProviderOllama, Message: out.Error}
	}

	text := strings.TrimSpace(out.Response)
	if text == "" {
		return "", &APICallError{Provider: ProviderOllama, Message: "empty response"}
	}
	return text, nil
}

// GetModel returns the model name for a tier
func (c *OllamaClient) GetModel(tier ModelTier) string {
	return c.config.GetModel(tier)
}

// Close is a no-op for the HTTP backend
func (c *OllamaClient) Close() error {
	return nil
}
