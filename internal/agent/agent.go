// ABOUTME: Agent wrapper that turns stored config plus history into provider calls
// ABOUTME: Builds the chat request and returns the provider's text reply

package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/2389/parley-gateway/internal/llm"
	"github.com/2389/parley-gateway/internal/store"
)

// Generation defaults applied when a config omits an option.
const (
	DefaultModel       = "gpt-4o-mini"
	DefaultTemperature = 0.3
	DefaultMaxTokens   = 400
)

// Settings is the typed view of an AgentConfig's opaque options map.
type Settings struct {
	ModelName          string
	PromptPreamble     string
	Temperature        float64
	MaxTokens          int
	UserInitialMessage string
	BotInitialMessage  string
}

// SettingsFromOptions interprets the option keys the agent knows about,
// filling in defaults for anything missing. Unknown keys are ignored.
func SettingsFromOptions(opts map[string]any) Settings {
	s := Settings{
		ModelName:   DefaultModel,
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
	}

	if v, ok := stringOption(opts, "model_name"); ok {
		s.ModelName = v
	}
	if v, ok := stringOption(opts, "prompt_preamble"); ok {
		s.PromptPreamble = v
	}
	if v, ok := floatOption(opts, "temperature"); ok {
		s.Temperature = v
	}
	if v, ok := floatOption(opts, "max_tokens"); ok {
		s.MaxTokens = int(v)
	}
	if v, ok := stringOption(opts, "user_initial_message"); ok {
		s.UserInitialMessage = v
	}
	if v, ok := stringOption(opts, "bot_initial_message"); ok {
		s.BotInitialMessage = v
	}

	return s
}

func stringOption(opts map[string]any, key string) (string, bool) {
	v, ok := opts[key].(string)
	return v, ok && v != ""
}

// floatOption accepts both float64 (JSON numbers) and int (Go literals in tests).
func floatOption(opts map[string]any, key string) (float64, bool) {
	switch v := opts[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}

// ClientFactory returns the provider client and bare model name for a model
// string. Production wiring uses llm.NewClientForModel; tests inject mocks.
type ClientFactory func(model string) (llm.Client, string)

// Agent wraps the LLM provider behind stored configuration.
type Agent struct {
	factory ClientFactory
	logger  *slog.Logger
}

// New creates an agent wrapper using the given client factory.
func New(factory ClientFactory, logger *slog.Logger) *Agent {
	if logger == nil {
		logger = slog.Default()
	}
	return &Agent{
		factory: factory,
		logger:  logger.With("component", "agent"),
	}
}

// GenerateReply builds a provider request from the config, the conversation
// so far, and the new user message, then performs one provider round trip.
// Provider-side failures are surfaced to the caller, never retried here.
func (a *Agent) GenerateReply(ctx context.Context, cfg *store.AgentConfig, history []*store.Turn, userMessage string) (string, error) {
	settings := SettingsFromOptions(cfg.Options)
	client, model := a.factory(settings.ModelName)

	temp := settings.Temperature
	req := llm.ChatRequest{
		Model:       model,
		System:      settings.PromptPreamble,
		Messages:    buildMessages(history, userMessage),
		MaxTokens:   settings.MaxTokens,
		Temperature: &temp,
	}

	resp, err := client.Chat(ctx, req)
	if err != nil {
		return "", fmt.Errorf("generating reply: %w", err)
	}

	a.logger.Debug("reply generated",
		"client_id", cfg.ClientID,
		"config_id", cfg.ConfigID,
		"model", model,
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens)

	return resp.Content, nil
}

// buildMessages converts stored turns plus the new user message into provider
// messages. Consecutive assistant turns are merged into one message so the
// transcript alternates the way providers expect.
func buildMessages(history []*store.Turn, userMessage string) []llm.Message {
	messages := make([]llm.Message, 0, len(history)+1)

	var assistantBuffer []string
	flush := func() {
		if len(assistantBuffer) > 0 {
			messages = append(messages, llm.Message{
				Role:    llm.RoleAssistant,
				Content: strings.Join(assistantBuffer, " "),
			})
			assistantBuffer = nil
		}
	}

	for _, turn := range history {
		if turn.Role == store.RoleAssistant {
			assistantBuffer = append(assistantBuffer, turn.Content)
			continue
		}
		flush()
		messages = append(messages, llm.Message{
			Role:    llm.RoleUser,
			Content: turn.Content,
		})
	}
	flush()

	messages = append(messages, llm.Message{
		Role:    llm.RoleUser,
		Content: userMessage,
	})

	return messages
}
