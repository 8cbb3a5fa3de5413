package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/parley-gateway/internal/llm"
	"github.com/2389/parley-gateway/internal/store"
)

func mockFactory(mock *llm.MockClient) ClientFactory {
	return func(model string) (llm.Client, string) {
		return mock, model
	}
}

func TestSettingsFromOptions_Defaults(t *testing.T) {
	s := SettingsFromOptions(map[string]any{})
	assert.Equal(t, DefaultModel, s.ModelName)
	assert.Equal(t, DefaultTemperature, s.Temperature)
	assert.Equal(t, DefaultMaxTokens, s.MaxTokens)
	assert.Empty(t, s.PromptPreamble)
}

func TestSettingsFromOptions_JSONNumbers(t *testing.T) {
	// Options round-tripped through JSON arrive as float64
	s := SettingsFromOptions(map[string]any{
		"model_name":           "claude-haiku-4-5",
		"prompt_preamble":      "Be terse.",
		"temperature":          float64(0.7),
		"max_tokens":           float64(512),
		"user_initial_message": "Hi!",
		"bot_initial_message":  "Welcome aboard.",
	})
	assert.Equal(t, "claude-haiku-4-5", s.ModelName)
	assert.Equal(t, "Be terse.", s.PromptPreamble)
	assert.Equal(t, 0.7, s.Temperature)
	assert.Equal(t, 512, s.MaxTokens)
	assert.Equal(t, "Hi!", s.UserInitialMessage)
	assert.Equal(t, "Welcome aboard.", s.BotInitialMessage)
}

func TestGenerateReply_FreshChat(t *testing.T) {
	mock := llm.NewMockClient(llm.MockResponse{Content: "Hello! How can I help?"})
	a := New(mockFactory(mock), nil)

	cfg := &store.AgentConfig{
		ClientID: "acme",
		ConfigID: "bot",
		Options: map[string]any{
			"model_name":      "x",
			"prompt_preamble": "p",
		},
	}

	reply, err := a.GenerateReply(context.Background(), cfg, nil, "hello")
	require.NoError(t, err)
	assert.Equal(t, "Hello! How can I help?", reply)

	// Exactly the system prompt and the single user message - no spurious history
	calls := mock.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "x", calls[0].Model)
	assert.Equal(t, "p", calls[0].System)
	require.Len(t, calls[0].Messages, 1)
	assert.Equal(t, llm.RoleUser, calls[0].Messages[0].Role)
	assert.Equal(t, "hello", calls[0].Messages[0].Content)
}

func TestGenerateReply_HistoryOrderAndRoles(t *testing.T) {
	mock := llm.NewMockClient(llm.MockResponse{Content: "ok"})
	a := New(mockFactory(mock), nil)

	history := []*store.Turn{
		{Role: store.RoleUser, Content: "first question"},
		{Role: store.RoleAssistant, Content: "first answer"},
		{Role: store.RoleUser, Content: "second question"},
		{Role: store.RoleAssistant, Content: "second answer"},
	}

	_, err := a.GenerateReply(context.Background(), &store.AgentConfig{Options: map[string]any{}}, history, "third question")
	require.NoError(t, err)

	calls := mock.Calls()
	require.Len(t, calls, 1)
	msgs := calls[0].Messages
	require.Len(t, msgs, 5)
	assert.Equal(t, llm.RoleUser, msgs[0].Role)
	assert.Equal(t, llm.RoleAssistant, msgs[1].Role)
	assert.Equal(t, llm.RoleUser, msgs[2].Role)
	assert.Equal(t, llm.RoleAssistant, msgs[3].Role)
	assert.Equal(t, "third question", msgs[4].Content)
}

func TestGenerateReply_MergesConsecutiveAssistantTurns(t *testing.T) {
	mock := llm.NewMockClient(llm.MockResponse{Content: "ok"})
	a := New(mockFactory(mock), nil)

	history := []*store.Turn{
		{Role: store.RoleAssistant, Content: "Welcome!"},
		{Role: store.RoleAssistant, Content: "Ask me anything."},
		{Role: store.RoleUser, Content: "what can you do?"},
		{Role: store.RoleAssistant, Content: "Lots."},
	}

	_, err := a.GenerateReply(context.Background(), &store.AgentConfig{Options: map[string]any{}}, history, "go on")
	require.NoError(t, err)

	msgs := mock.Calls()[0].Messages
	require.Len(t, msgs, 4)
	assert.Equal(t, llm.RoleAssistant, msgs[0].Role)
	assert.Equal(t, "Welcome! Ask me anything.", msgs[0].Content)
	assert.Equal(t, "what can you do?", msgs[1].Content)
	assert.Equal(t, "Lots.", msgs[2].Content)
	assert.Equal(t, "go on", msgs[3].Content)
}

func TestGenerateReply_ProviderError(t *testing.T) {
	boom := errors.New("quota exhausted")
	mock := llm.NewMockClient(llm.MockResponse{Error: boom})
	a := New(mockFactory(mock), nil)

	_, err := a.GenerateReply(context.Background(), &store.AgentConfig{Options: map[string]any{}}, nil, "hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	// No retry: exactly one provider call
	assert.Equal(t, 1, mock.CallCount())
}

func TestGenerateReply_GenerationParameters(t *testing.T) {
	mock := llm.NewMockClient(llm.MockResponse{Content: "ok"})
	a := New(mockFactory(mock), nil)

	cfg := &store.AgentConfig{Options: map[string]any{
		"temperature": 0.9,
		"max_tokens":  float64(128),
	}}

	_, err := a.GenerateReply(context.Background(), cfg, nil, "hi")
	require.NoError(t, err)

	call := mock.Calls()[0]
	require.NotNil(t, call.Temperature)
	assert.Equal(t, 0.9, *call.Temperature)
	assert.Equal(t, 128, call.MaxTokens)
}
