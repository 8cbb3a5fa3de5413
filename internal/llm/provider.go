// ABOUTME: Provider selection from model strings and gateway configuration
// ABOUTME: Maps claude-* models to Anthropic, everything else to OpenAI-compatible

package llm

import (
	"strings"
)

// Provider identifies an LLM provider.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
)

// ProviderConfig carries the provider credentials and endpoint resolved from
// gateway configuration at startup.
type ProviderConfig struct {
	APIKey  string
	BaseURL string // optional OpenAI-compatible endpoint override
}

// ParseModelString determines the provider for a model name.
//
// Supported formats:
//
//	"anthropic/claude-sonnet-4-5" → (anthropic, "claude-sonnet-4-5")
//	"openai/gpt-4o"               → (openai, "gpt-4o")
//	"claude-sonnet-4-5"           → (anthropic, "claude-sonnet-4-5")
//	"gpt-4o-mini"                 → (openai, "gpt-4o-mini")
func ParseModelString(model string) (Provider, string) {
	if i := strings.Index(model, "/"); i > 0 {
		prefix := strings.ToLower(model[:i])
		name := model[i+1:]
		switch prefix {
		case "anthropic":
			return ProviderAnthropic, name
		case "openai":
			return ProviderOpenAI, name
		}
	}

	if strings.HasPrefix(strings.ToLower(model), "claude") {
		return ProviderAnthropic, model
	}
	return ProviderOpenAI, model
}

// NewClientForModel creates the appropriate LLM client for the model string,
// returning the client and the bare model name.
func NewClientForModel(model string, cfg ProviderConfig) (Client, string) {
	provider, modelName := ParseModelString(model)

	switch provider {
	case ProviderAnthropic:
		return NewAnthropicClient(cfg.APIKey), modelName
	default:
		if cfg.BaseURL != "" {
			return NewOpenAICompatibleClient(cfg.BaseURL, cfg.APIKey), modelName
		}
		return NewOpenAIClient(cfg.APIKey), modelName
	}
}
