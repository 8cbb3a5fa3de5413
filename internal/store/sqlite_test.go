package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)

	t.Cleanup(func() {
		store.Close()
	})

	return store
}

func TestStore_UpsertConfig_RoundTrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	cfg := &AgentConfig{
		ClientID: "acme",
		ConfigID: "support-bot",
		BotName:  "Support Bot",
		Options: map[string]any{
			"model_name":      "gpt-4o-mini",
			"prompt_preamble": "You are a helpful assistant.",
			"temperature":     0.3,
		},
	}

	err := store.UpsertConfig(ctx, cfg)
	require.NoError(t, err)

	retrieved, err := store.GetConfig(ctx, "acme", "support-bot")
	require.NoError(t, err)
	assert.Equal(t, "acme", retrieved.ClientID)
	assert.Equal(t, "support-bot", retrieved.ConfigID)
	assert.Equal(t, "Support Bot", retrieved.BotName)
	assert.Equal(t, "gpt-4o-mini", retrieved.Options["model_name"])
	assert.Equal(t, "You are a helpful assistant.", retrieved.Options["prompt_preamble"])
	assert.False(t, retrieved.UpdatedAt.IsZero())
}

func TestStore_UpsertConfig_LastWriteWins(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	first := &AgentConfig{
		ClientID: "acme",
		ConfigID: "bot",
		BotName:  "First",
		Options: map[string]any{
			"model_name":  "gpt-4o-mini",
			"temperature": 0.3,
		},
	}
	require.NoError(t, store.UpsertConfig(ctx, first))

	// Full replace: the temperature key must not survive the second write
	second := &AgentConfig{
		ClientID: "acme",
		ConfigID: "bot",
		BotName:  "Second",
		Options: map[string]any{
			"model_name": "gpt-4o",
		},
	}
	require.NoError(t, store.UpsertConfig(ctx, second))

	retrieved, err := store.GetConfig(ctx, "acme", "bot")
	require.NoError(t, err)
	assert.Equal(t, "Second", retrieved.BotName)
	assert.Equal(t, "gpt-4o", retrieved.Options["model_name"])
	assert.NotContains(t, retrieved.Options, "temperature")
}

func TestStore_GetConfig_NotFound(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	_, err := store.GetConfig(ctx, "nobody", "nothing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_ListClients(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	for _, pair := range [][2]string{{"beta", "b1"}, {"acme", "a1"}, {"acme", "a2"}} {
		require.NoError(t, store.UpsertConfig(ctx, &AgentConfig{
			ClientID: pair[0],
			ConfigID: pair[1],
			Options:  map[string]any{},
		}))
	}

	clients, err := store.ListClients(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"acme", "beta"}, clients)
}

func TestStore_ListConfigs(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"faq", "sales", "support"} {
		require.NoError(t, store.UpsertConfig(ctx, &AgentConfig{
			ClientID: "acme",
			ConfigID: id,
			Options:  map[string]any{},
		}))
	}
	require.NoError(t, store.UpsertConfig(ctx, &AgentConfig{
		ClientID: "other",
		ConfigID: "unrelated",
		Options:  map[string]any{},
	}))

	configs, err := store.ListConfigs(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, []string{"faq", "sales", "support"}, configs)
}

func TestStore_ListConfigs_UnknownClient(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	configs, err := store.ListConfigs(ctx, "ghost")
	require.NoError(t, err)
	assert.Empty(t, configs)
}

func TestStore_AppendTurn_OrderPreserved(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	// Identical timestamps: ordering must come from insertion, not the clock
	now := time.Now().UTC()
	for i := 0; i < 10; i++ {
		role := RoleUser
		if i%2 == 1 {
			role = RoleAssistant
		}
		err := store.AppendTurn(ctx, &Turn{
			ID:        fmt.Sprintf("turn-%02d", i),
			ClientID:  "acme",
			ConfigID:  "bot",
			ChatID:    "chat-1",
			Role:      role,
			Content:   fmt.Sprintf("message %d", i),
			CreatedAt: now,
		})
		require.NoError(t, err)
	}

	history, err := store.GetHistory(ctx, "acme", "bot", "chat-1")
	require.NoError(t, err)
	require.Len(t, history, 10)
	for i, turn := range history {
		assert.Equal(t, fmt.Sprintf("turn-%02d", i), turn.ID)
		assert.Equal(t, fmt.Sprintf("message %d", i), turn.Content)
	}
}

func TestStore_GetHistory_SessionIsolation(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AppendTurn(ctx, &Turn{
		ID: "t1", ClientID: "acme", ConfigID: "bot", ChatID: "chat-1",
		Role: RoleUser, Content: "hello from chat-1",
	}))
	require.NoError(t, store.AppendTurn(ctx, &Turn{
		ID: "t2", ClientID: "acme", ConfigID: "bot", ChatID: "chat-2",
		Role: RoleUser, Content: "hello from chat-2",
	}))

	history, err := store.GetHistory(ctx, "acme", "bot", "chat-1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "hello from chat-1", history[0].Content)
}

func TestStore_GetHistory_Empty(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	history, err := store.GetHistory(ctx, "acme", "bot", "never-seen")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestStore_AppendTurn_AssignsTimestamp(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	turn := &Turn{
		ID: "t1", ClientID: "acme", ConfigID: "bot", ChatID: "chat-1",
		Role: RoleUser, Content: "hi",
	}
	require.NoError(t, store.AppendTurn(ctx, turn))

	history, err := store.GetHistory(ctx, "acme", "bot", "chat-1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.False(t, history[0].CreatedAt.IsZero())
}

func TestStore_Ping(t *testing.T) {
	store := setupTestStore(t)
	assert.NoError(t, store.Ping(context.Background()))
}

func TestStore_InMemory(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.UpsertConfig(context.Background(), &AgentConfig{
		ClientID: "c", ConfigID: "cfg", Options: map[string]any{},
	}))
	_, err = store.GetConfig(context.Background(), "c", "cfg")
	assert.NoError(t, err)
}
