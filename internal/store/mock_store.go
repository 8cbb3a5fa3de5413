// ABOUTME: In-memory Store implementation for tests
// ABOUTME: Mirrors SQLite semantics (full-replace upsert, append-only turns)

package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MockStore is an in-memory implementation of Store for testing.
// Safe for concurrent use.
type MockStore struct {
	mu      sync.RWMutex
	configs map[string]*AgentConfig // keyed by clientID + "\x00" + configID
	turns   []*Turn

	// Error injection for failure-path tests
	UpsertErr  error
	GetErr     error
	AppendErr  error
	HistoryErr error
}

// NewMockStore creates an empty in-memory store
func NewMockStore() *MockStore {
	return &MockStore{
		configs: make(map[string]*AgentConfig),
	}
}

func configKey(clientID, configID string) string {
	return clientID + "\x00" + configID
}

// UpsertConfig replaces the record for (clientID, configID)
func (m *MockStore) UpsertConfig(_ context.Context, cfg *AgentConfig) error {
	if m.UpsertErr != nil {
		return m.UpsertErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	stored := *cfg
	if stored.UpdatedAt.IsZero() {
		stored.UpdatedAt = time.Now().UTC()
	}
	m.configs[configKey(cfg.ClientID, cfg.ConfigID)] = &stored
	return nil
}

// GetConfig returns the stored config or ErrNotFound
func (m *MockStore) GetConfig(_ context.Context, clientID, configID string) (*AgentConfig, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	cfg, ok := m.configs[configKey(clientID, configID)]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *cfg
	return &copied, nil
}

// ListClients returns distinct client IDs, sorted
func (m *MockStore) ListClients(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]bool)
	clients := []string{}
	for _, cfg := range m.configs {
		if !seen[cfg.ClientID] {
			seen[cfg.ClientID] = true
			clients = append(clients, cfg.ClientID)
		}
	}
	sort.Strings(clients)
	return clients, nil
}

// ListConfigs returns config IDs for a client, sorted
func (m *MockStore) ListConfigs(_ context.Context, clientID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	configs := []string{}
	for _, cfg := range m.configs {
		if cfg.ClientID == clientID {
			configs = append(configs, cfg.ConfigID)
		}
	}
	sort.Strings(configs)
	return configs, nil
}

// AppendTurn records a turn in arrival order
func (m *MockStore) AppendTurn(_ context.Context, turn *Turn) error {
	if m.AppendErr != nil {
		return m.AppendErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	stored := *turn
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	m.turns = append(m.turns, &stored)
	return nil
}

// GetHistory returns turns for a session in append order
func (m *MockStore) GetHistory(_ context.Context, clientID, configID, chatID string) ([]*Turn, error) {
	if m.HistoryErr != nil {
		return nil, m.HistoryErr
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	history := []*Turn{}
	for _, turn := range m.turns {
		if turn.ClientID == clientID && turn.ConfigID == configID && turn.ChatID == chatID {
			copied := *turn
			history = append(history, &copied)
		}
	}
	return history, nil
}

// TurnCount returns the total number of stored turns across all sessions
func (m *MockStore) TurnCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.turns)
}

// Ping always succeeds
func (m *MockStore) Ping(_ context.Context) error { return nil }

// Close is a no-op
func (m *MockStore) Close() error { return nil }
