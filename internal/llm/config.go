// Package llm provides centralized LLM configuration and client abstractions.
// A run talks to a primary hosted model and falls back to a local model.
package llm

// ModelTier represents the complexity/capability level of a model
type ModelTier string

const (
	// TierLite is for simple tasks: document matching, classification
	TierLite ModelTier = "lite"
	// TierStandard is for structured output: message composition
	TierStandard ModelTier = "standard"
	// TierAdvanced is for complex reasoning
	TierAdvanced ModelTier = "advanced"
)

// Provider represents an LLM provider
type Provider string

// Provider constants define supported LLM providers
const (
	// ProviderGemini is the Google Gemini provider (primary backend)
	ProviderGemini Provider = "gemini"
	// ProviderOllama is a local Ollama server (secondary backend)
	ProviderOllama Provider = "ollama"
)

// Config holds the model configuration for one backend
type Config struct {
	Provider Provider
	Models   map[ModelTier]string
	// BaseURL is used by HTTP backends such as Ollama.
	BaseURL string
}

// DefaultConfig returns the default primary configuration (Gemini)
func DefaultConfig() *Config {
	return DefaultGeminiConfig()
}

// DefaultGeminiConfig returns the default Gemini configuration
func DefaultGeminiConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite:     "gemini-flash-lite-latest",
			TierStandard: "gemini-flash-latest",
			TierAdvanced: "gemini-2.5-pro",
		},
	}
}

// DefaultOllamaConfig returns the default local Ollama configuration.
// Every tier maps to the same local model.
func DefaultOllamaConfig() *Config {
	return &Config{
		Provider: ProviderOllama,
		BaseURL:  "http://localhost:11434",
		Models: map[ModelTier]string{
			TierStandard: "llama3",
		},
	}
}

// GetModel returns the model name for a given tier
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	// Fallback chain: try standard, then lite
	if model, ok := c.Models[TierStandard]; ok {
		return model
	}
	if model, ok := c.Models[TierLite]; ok {
		return model
	}
	return "" // No model configured
}

// WithModel returns a new Config with a specific model for a tier
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	newConfig := &Config{
		Provider: c.Provider,
		BaseURL:  c.BaseURL,
		Models:   make(map[ModelTier]string),
	}
	for k, v := range c.Models {
		newConfig.Models[k] = v
	}
	newConfig.Models[tier] = model
	return newConfig
}
