// ABOUTME: Service is the central layer for processing chat turns
// ABOUTME: Loads history, calls the agent, persists both sides of the exchange

package conversation

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/2389/parley-gateway/internal/store"
)

// Replier defines what the service needs from the agent layer
type Replier interface {
	GenerateReply(ctx context.Context, cfg *store.AgentConfig, history []*store.Turn, userMessage string) (string, error)
}

// Service processes chat turns: one inbound message becomes one provider
// round trip and two persisted turns. The provider call happens before any
// write, so a failed turn leaves stored history untouched.
type Service struct {
	store       store.ConversationStore
	replier     Replier
	turnTimeout time.Duration
	logger      *slog.Logger
}

// New creates a conversation service. turnTimeout bounds the whole turn
// (history load, provider call, both appends); zero disables the bound.
func New(st store.ConversationStore, replier Replier, turnTimeout time.Duration, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:       st,
		replier:     replier,
		turnTimeout: turnTimeout,
		logger:      logger.With("component", "conversation"),
	}
}

// ProcessTurn handles one user message for the chat session identified by
// (cfg.ClientID, cfg.ConfigID, chatID) and returns the assistant reply.
// Failures carry a taxonomy kind; none are retried here.
func (s *Service) ProcessTurn(ctx context.Context, cfg *store.AgentConfig, chatID, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", Errorf(KindValidation, "empty message")
	}

	if s.turnTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.turnTimeout)
		defer cancel()
	}

	history, err := s.store.GetHistory(ctx, cfg.ClientID, cfg.ConfigID, chatID)
	if err != nil {
		return "", NewError(KindStorage, err)
	}

	reply, err := s.replier.GenerateReply(ctx, cfg, history, text)
	if err != nil {
		return "", NewError(KindProvider, err)
	}

	// Reply in hand: record the user turn, then the assistant turn.
	now := time.Now().UTC()
	userTurn := &store.Turn{
		ID:        ulid.Make().String(),
		ClientID:  cfg.ClientID,
		ConfigID:  cfg.ConfigID,
		ChatID:    chatID,
		Role:      store.RoleUser,
		Content:   text,
		CreatedAt: now,
	}
	if err := s.store.AppendTurn(ctx, userTurn); err != nil {
		return "", NewError(KindStorage, err)
	}

	assistantTurn := &store.Turn{
		ID:        ulid.Make().String(),
		ClientID:  cfg.ClientID,
		ConfigID:  cfg.ConfigID,
		ChatID:    chatID,
		Role:      store.RoleAssistant,
		Content:   reply,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.AppendTurn(ctx, assistantTurn); err != nil {
		return "", NewError(KindStorage, err)
	}

	s.logger.Debug("turn processed",
		"client_id", cfg.ClientID,
		"config_id", cfg.ConfigID,
		"chat_id", chatID,
		"user_turn_id", userTurn.ID,
		"assistant_turn_id", assistantTurn.ID)

	return reply, nil
}

// RecordAssistantMessage appends a standalone assistant turn without a
// provider round trip. Used for configured bot greetings on fresh chats.
func (s *Service) RecordAssistantMessage(ctx context.Context, cfg *store.AgentConfig, chatID, text string) error {
	turn := &store.Turn{
		ID:        ulid.Make().String(),
		ClientID:  cfg.ClientID,
		ConfigID:  cfg.ConfigID,
		ChatID:    chatID,
		Role:      store.RoleAssistant,
		Content:   text,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.AppendTurn(ctx, turn); err != nil {
		return NewError(KindStorage, err)
	}
	return nil
}

// History returns the stored turns for a chat session in creation order.
func (s *Service) History(ctx context.Context, cfg *store.AgentConfig, chatID string) ([]*store.Turn, error) {
	history, err := s.store.GetHistory(ctx, cfg.ClientID, cfg.ConfigID, chatID)
	if err != nil {
		return nil, NewError(KindStorage, err)
	}
	return history, nil
}
