package llm

import (
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/activearchive/internal/model"
)

// NewProvider creates a provider based on configuration.
// An empty provider name selects the heuristic provider.
func NewProvider(config Config) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(config.Provider)) {
	case "", "heuristic":
		return NewHeuristicProvider(), nil

	case "openai":
		return NewOpenAIProvider(config)

	case "anthropic", "claude":
		return NewAnthropicProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	default:
		return nil, fmt.Errorf("%w: %s (supported: heuristic, openai, anthropic, ollama)", ErrUnknownProvider, config.Provider)
	}
}

// ConfigFromModel converts the application config to an llm.Config
func ConfigFromModel(llmConfig model.LLMConfig, httpConfig model.HTTPConfig) Config {
	return Config{
		Provider:   llmConfig.Provider,
		Model:      llmConfig.Model,
		APIKey:     llmConfig.APIKey,
		BaseURL:    llmConfig.BaseURL,
		Timeout:    llmConfig.Timeout,
		MaxTokens:  llmConfig.MaxTokens,
		HTTPProxy:  httpConfig.HTTPProxy,
		HTTPSProxy: httpConfig.HTTPSProxy,
		NoProxy:    httpConfig.NoProxy,
	}
}

// ApplyEnv fills the API key and base URL from provider-specific
// environment variables when the config leaves them empty
func ApplyEnv(config Config) Config {
	return applyEnv(config, os.Getenv)
}

func applyEnv(config Config, getenv func(string) string) Config {
	switch strings.ToLower(config.Provider) {
	case "openai":
		if config.APIKey == "" {
			config.APIKey = getenv("OPENAI_API_KEY")
		}
		if config.BaseURL == "" {
			config.BaseURL = getenv("OPENAI_BASE_URL")
		}
	case "anthropic", "claude":
		if config.APIKey == "" {
			config.APIKey = getenv("ANTHROPIC_API_KEY")
		}
	case "ollama":
		if config.BaseURL == "" {
			config.BaseURL = getenv("OLLAMA_BASE_URL")
		}
	}
	return config
}
