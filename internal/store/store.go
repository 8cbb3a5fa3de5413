// ABOUTME: Store interface and data types for parley-gateway persistence
// ABOUTME: Defines AgentConfig, Turn structs and the narrow store interfaces

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// Role constants for conversation turns
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// AgentConfig is the stored parameter set identifying one agent variant for
// one client. Options is an opaque name→value mapping; the agent layer
// interprets the keys it knows about. (client_id, config_id) is unique and
// upserts are full replacements - last write wins.
type AgentConfig struct {
	ClientID  string
	ConfigID  string
	BotName   string
	Options   map[string]any
	UpdatedAt time.Time
}

// Turn is one message (user or assistant) within a chat session's history.
// Turns are append-only and never mutated after creation.
type Turn struct {
	ID        string
	ClientID  string
	ConfigID  string
	ChatID    string
	Role      string // "user" or "assistant"
	Content   string
	CreatedAt time.Time
}

// ConfigStore defines config persistence operations
type ConfigStore interface {
	UpsertConfig(ctx context.Context, cfg *AgentConfig) error
	GetConfig(ctx context.Context, clientID, configID string) (*AgentConfig, error)
	ListClients(ctx context.Context) ([]string, error)
	ListConfigs(ctx context.Context, clientID string) ([]string, error)
}

// ConversationStore defines chat history persistence operations
type ConversationStore interface {
	AppendTurn(ctx context.Context, turn *Turn) error
	GetHistory(ctx context.Context, clientID, configID, chatID string) ([]*Turn, error)
}

// Store combines all persistence operations plus lifecycle management
type Store interface {
	ConfigStore
	ConversationStore

	// Ping verifies the underlying database is reachable
	Ping(ctx context.Context) error

	// Close releases any resources held by the store
	Close() error
}
