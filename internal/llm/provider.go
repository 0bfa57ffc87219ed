// Package llm generates curation text (metadata, summaries, tags) from prompts.
package llm

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

var (
	// ErrMissingAPIKey is returned when a hosted provider has no key
	ErrMissingAPIKey = errors.New("api key is required")
	// ErrEmptyPrompt is returned for requests without a prompt
	ErrEmptyPrompt = errors.New("empty prompt")
	// ErrEmptyResponse is returned when the provider produced no text
	ErrEmptyResponse = errors.New("empty response")
	// ErrUnknownProvider is returned by NewProvider for unsupported names
	ErrUnknownProvider = errors.New("unknown LLM provider")
)

// Task tells the provider which kind of answer the prompt expects
type Task string

const (
	TaskMetadata Task = "metadata" // JSON object with year, metric, value, unit, cited_passage
	TaskSummary  Task = "summary"  // Short plain-text summary
	TaskTags     Task = "tags"     // JSON list of tags
)

// Provider defines the interface for text generation backends
type Provider interface {
	// Name returns the provider name
	Name() string

	// Generate answers a single prompt
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// GenerateRequest contains the input for one generation
type GenerateRequest struct {
	Task      Task
	Prompt    string
	System    string // Empty uses DefaultSystem
	Model     string // Empty uses the provider default
	MaxTokens int    // Zero uses the provider default
}

// GenerateResponse contains the generated text
type GenerateResponse struct {
	Text       string
	Model      string
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "heuristic", "openai", "anthropic", "ollama"
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string

	Logger *zap.Logger
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "heuristic",
		Timeout:   30,
		MaxTokens: 1000,
	}
}

func (c Config) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

// resolve picks the model and token budget for a request
func (c Config) resolve(req GenerateRequest, defaultModel string) (string, int) {
	model := req.Model
	if model == "" {
		model = c.Model
	}
	if model == "" {
		model = defaultModel
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.MaxTokens
	}
	if maxTokens == 0 {
		maxTokens = 1000
	}

	return model, maxTokens
}

func systemPrompt(req GenerateRequest) string {
	if req.System != "" {
		return req.System
	}
	return DefaultSystem
}
