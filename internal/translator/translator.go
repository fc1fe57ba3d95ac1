// Package translator turns natural-language questions into candidate SQL using
// an upstream language model. The translator is a collaborator, not a trusted
// component: whatever SQL it produces goes through the same validation and
// governance as SQL typed by a user.
package translator

import (
	"context"
	"fmt"
	"strings"

	"github.com/manueljhc/healthcare-data-explorer/internal/model"
)

// Provider defines the interface for translation providers.
type Provider interface {
	// Name returns the provider name
	Name() string

	// Translate produces candidate SQL for a natural-language question
	Translate(ctx context.Context, req Request) (*Response, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// Request contains the input for translation.
type Request struct {
	// Question is the user's natural-language question
	Question string

	// SchemaContext is the data-dictionary rendering injected into the system
	// prompt so generated SQL references real tables and columns
	SchemaContext string

	// ConversationID ties the translation to its session
	ConversationID string

	// Model overrides the configured model when set
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// Response contains the translation output.
type Response struct {
	// SQL is the candidate statement, still untrusted
	SQL string

	// Explanation is the model's description of its approach
	Explanation string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds translator provider configuration.
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for the provider
	APIKey string

	// BaseURL for custom endpoints
	BaseURL string

	// Timeout for API requests, seconds
	Timeout int

	// MaxTokens for response generation
	MaxTokens int
}

// NewProvider creates a translation provider based on configuration. An empty
// provider name disables translation; queries must then be supplied as SQL.
func NewProvider(config Config) (Provider, error) {
	switch strings.ToLower(config.Provider) {
	case "openai":
		return NewOpenAIProvider(config)

	case "anthropic":
		return NewAnthropicProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	case "":
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown translator provider: %s (supported: openai, anthropic, ollama)", config.Provider)
	}
}

// ConfigFromModel converts model.LLMConfig to translator.Config.
func ConfigFromModel(cfg model.LLMConfig) Config {
	return Config{
		Provider:  cfg.Provider,
		Model:     cfg.Model,
		APIKey:    cfg.APIKey,
		BaseURL:   cfg.BaseURL,
		Timeout:   cfg.Timeout,
		MaxTokens: cfg.MaxTokens,
	}
}
