// ABOUTME: Per-connection chat session state machine, independent of the transport
// ABOUTME: Loads config on connect, processes turns one at a time, emits error frames

package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/2389/parley-gateway/internal/agent"
	"github.com/2389/parley-gateway/internal/conversation"
	"github.com/2389/parley-gateway/internal/store"
)

// Transport is the session's view of one chat connection. The WebSocket
// handler adapts coder/websocket to this; tests substitute an in-memory fake.
type Transport interface {
	// ReadText blocks until the next inbound text frame or connection close.
	ReadText(ctx context.Context) (string, error)
	// WriteText sends one outbound text frame.
	WriteText(ctx context.Context, text string) error
	// Close terminates the connection with a reason visible to the peer.
	Close(reason string) error
}

// ErrorFrame is the JSON payload sent when a turn fails.
type ErrorFrame struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Session drives one chat connection. Each connection owns its own Session;
// nothing here is shared between connections.
type Session struct {
	clientID string
	configID string
	chatID   string

	configs store.ConfigStore
	conv    *conversation.Service
	metrics *Metrics
	logger  *slog.Logger
}

// NewSession creates a session for one connection identified by the path
// parameters of the WebSocket upgrade.
func NewSession(clientID, configID, chatID string, configs store.ConfigStore, conv *conversation.Service, metrics *Metrics, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		clientID: clientID,
		configID: configID,
		chatID:   chatID,
		configs:  configs,
		conv:     conv,
		metrics:  metrics,
		logger: logger.With("component", "session",
			"client_id", clientID,
			"config_id", configID,
			"chat_id", chatID),
	}
}

// Run executes the session until the connection closes or ctx is canceled.
// A missing config at connect time sends one error frame and closes; a failed
// turn sends one error frame and keeps the connection open.
func (s *Session) Run(ctx context.Context, t Transport) error {
	cfg, err := s.configs.GetConfig(ctx, s.clientID, s.configID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.logger.Info("rejecting session, config not found")
			s.sendErrorFrame(ctx, t, conversation.NewError(conversation.KindConfigNotFound, err))
			return t.Close("no such bot config found")
		}
		s.sendErrorFrame(ctx, t, conversation.NewError(conversation.KindStorage, err))
		return t.Close("storage error")
	}

	if s.metrics != nil {
		s.metrics.ActiveSessions.Inc()
		defer s.metrics.ActiveSessions.Dec()
	}

	s.logger.Info("session started", "bot_name", cfg.BotName)

	if err := s.greetIfFresh(ctx, t, cfg); err != nil {
		return err
	}

	for {
		text, err := t.ReadText(ctx)
		if err != nil {
			// Peer closed or ctx canceled; either way the session is over.
			s.logger.Info("session ended", "reason", err)
			return nil
		}
		if text == "" {
			continue
		}

		if err := s.processAndReply(ctx, t, cfg, text); err != nil {
			return err
		}
	}
}

// greetIfFresh replays the configured initial messages when the chat has no
// stored history. The user_initial_message is processed as a normal turn; the
// bot_initial_message is stored and echoed without a provider call.
func (s *Session) greetIfFresh(ctx context.Context, t Transport, cfg *store.AgentConfig) error {
	history, err := s.conv.History(ctx, cfg, s.chatID)
	if err != nil {
		s.sendErrorFrame(ctx, t, err)
		return nil
	}
	if len(history) > 0 {
		return nil
	}

	settings := agent.SettingsFromOptions(cfg.Options)

	if settings.UserInitialMessage != "" {
		if err := s.processAndReply(ctx, t, cfg, settings.UserInitialMessage); err != nil {
			return err
		}
	}

	if settings.BotInitialMessage != "" {
		if err := s.conv.RecordAssistantMessage(ctx, cfg, s.chatID, settings.BotInitialMessage); err != nil {
			s.sendErrorFrame(ctx, t, err)
			return nil
		}
		if err := t.WriteText(ctx, settings.BotInitialMessage); err != nil {
			return err
		}
	}

	return nil
}

// processAndReply runs one turn and writes either the reply or an error
// frame. Returns an error only when the transport itself fails.
func (s *Session) processAndReply(ctx context.Context, t Transport, cfg *store.AgentConfig, text string) error {
	start := time.Now()
	reply, err := s.conv.ProcessTurn(ctx, cfg, s.chatID, text)
	if s.metrics != nil {
		s.metrics.TurnDuration.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		if s.metrics != nil {
			s.metrics.TurnsTotal.WithLabelValues(string(conversation.KindOf(err))).Inc()
		}
		s.logger.Warn("turn failed", "kind", conversation.KindOf(err), "error", err)
		s.sendErrorFrame(ctx, t, err)
		return nil
	}

	if s.metrics != nil {
		s.metrics.TurnsTotal.WithLabelValues("ok").Inc()
	}
	return t.WriteText(ctx, reply)
}

// sendErrorFrame writes a single error frame. Write failures are logged and
// otherwise ignored; the read loop will observe the broken connection.
func (s *Session) sendErrorFrame(ctx context.Context, t Transport, err error) {
	frame := ErrorFrame{
		Error:   string(conversation.KindOf(err)),
		Message: err.Error(),
	}
	payload, marshalErr := json.Marshal(frame)
	if marshalErr != nil {
		return
	}
	if writeErr := t.WriteText(ctx, string(payload)); writeErr != nil {
		s.logger.Debug("failed to send error frame", "error", writeErr)
	}
}
