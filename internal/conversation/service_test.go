package conversation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/parley-gateway/internal/store"
)

// scriptedReplier returns canned replies and records what it was given.
type scriptedReplier struct {
	mu      sync.Mutex
	reply   string
	err     error
	history [][]*store.Turn
}

func (r *scriptedReplier) GenerateReply(_ context.Context, _ *store.AgentConfig, history []*store.Turn, _ string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.history = append(r.history, history)
	if r.err != nil {
		return "", r.err
	}
	return r.reply, nil
}

func testConfig() *store.AgentConfig {
	return &store.AgentConfig{
		ClientID: "acme",
		ConfigID: "bot",
		Options:  map[string]any{},
	}
}

func TestProcessTurn_PersistsBothSides(t *testing.T) {
	mock := store.NewMockStore()
	svc := New(mock, &scriptedReplier{reply: "hi!"}, 0, nil)

	reply, err := svc.ProcessTurn(context.Background(), testConfig(), "chat-1", "hello")
	require.NoError(t, err)
	assert.Equal(t, "hi!", reply)

	history, err := mock.GetHistory(context.Background(), "acme", "bot", "chat-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, store.RoleUser, history[0].Role)
	assert.Equal(t, "hello", history[0].Content)
	assert.Equal(t, store.RoleAssistant, history[1].Role)
	assert.Equal(t, "hi!", history[1].Content)
	assert.NotEmpty(t, history[0].ID)
	assert.NotEqual(t, history[0].ID, history[1].ID)
}

func TestProcessTurn_ProviderFailureLeavesHistoryUntouched(t *testing.T) {
	mock := store.NewMockStore()
	svc := New(mock, &scriptedReplier{reply: "ok"}, 0, nil)

	// Seed one good turn
	_, err := svc.ProcessTurn(context.Background(), testConfig(), "chat-1", "hello")
	require.NoError(t, err)
	require.Equal(t, 2, mock.TurnCount())

	// Now the provider fails
	failing := New(mock, &scriptedReplier{err: errors.New("quota exhausted")}, 0, nil)
	_, err = failing.ProcessTurn(context.Background(), testConfig(), "chat-1", "again")
	require.Error(t, err)
	assert.Equal(t, KindProvider, KindOf(err))

	// The failing turn was not partially appended
	assert.Equal(t, 2, mock.TurnCount())
}

func TestProcessTurn_EmptyMessage(t *testing.T) {
	svc := New(store.NewMockStore(), &scriptedReplier{reply: "ok"}, 0, nil)

	_, err := svc.ProcessTurn(context.Background(), testConfig(), "chat-1", "   ")
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestProcessTurn_StorageFailure(t *testing.T) {
	mock := store.NewMockStore()
	mock.HistoryErr = errors.New("store unreachable")
	svc := New(mock, &scriptedReplier{reply: "ok"}, 0, nil)

	_, err := svc.ProcessTurn(context.Background(), testConfig(), "chat-1", "hello")
	require.Error(t, err)
	assert.Equal(t, KindStorage, KindOf(err))
}

func TestProcessTurn_HistoryFlowsToReplier(t *testing.T) {
	mock := store.NewMockStore()
	replier := &scriptedReplier{reply: "ok"}
	svc := New(mock, replier, 0, nil)

	_, err := svc.ProcessTurn(context.Background(), testConfig(), "chat-1", "first")
	require.NoError(t, err)
	_, err = svc.ProcessTurn(context.Background(), testConfig(), "chat-1", "second")
	require.NoError(t, err)

	require.Len(t, replier.history, 2)
	assert.Empty(t, replier.history[0], "fresh chat must present no history")
	require.Len(t, replier.history[1], 2)
	assert.Equal(t, "first", replier.history[1][0].Content)
	assert.Equal(t, "ok", replier.history[1][1].Content)
}

func TestProcessTurn_ConcurrentChatsStayIsolated(t *testing.T) {
	mock := store.NewMockStore()
	svc := New(mock, &scriptedReplier{reply: "r"}, 0, nil)

	var wg sync.WaitGroup
	for _, chatID := range []string{"chat-a", "chat-b"} {
		wg.Add(1)
		go func(chatID string) {
			defer wg.Done()
			for i := 0; i < 5; i++ {
				_, err := svc.ProcessTurn(context.Background(), testConfig(), chatID, fmt.Sprintf("%s message %d", chatID, i))
				assert.NoError(t, err)
			}
		}(chatID)
	}
	wg.Wait()

	for _, chatID := range []string{"chat-a", "chat-b"} {
		history, err := mock.GetHistory(context.Background(), "acme", "bot", chatID)
		require.NoError(t, err)
		require.Len(t, history, 10)
		// User turns for this chat come back in send order, each followed by a reply
		for i := 0; i < 5; i++ {
			assert.Equal(t, fmt.Sprintf("%s message %d", chatID, i), history[i*2].Content)
			assert.Equal(t, store.RoleAssistant, history[i*2+1].Role)
		}
	}
}

func TestRecordAssistantMessage(t *testing.T) {
	mock := store.NewMockStore()
	svc := New(mock, &scriptedReplier{}, 0, nil)

	err := svc.RecordAssistantMessage(context.Background(), testConfig(), "chat-1", "Welcome!")
	require.NoError(t, err)

	history, err := svc.History(context.Background(), testConfig(), "chat-1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, store.RoleAssistant, history[0].Role)
	assert.Equal(t, "Welcome!", history[0].Content)
}

func TestKindOf_Unclassified(t *testing.T) {
	assert.Equal(t, KindStorage, KindOf(errors.New("anything")))
	assert.Equal(t, KindProvider, KindOf(NewError(KindProvider, errors.New("x"))))
}
