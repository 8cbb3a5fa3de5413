// Package store provides persistent storage for the gateway using SQLite.
//
// # Architecture
//
// Two narrow interfaces cover the gateway's persistence needs:
//
//   - ConfigStore: upsert/get/list for agent configurations
//   - ConversationStore: append/read for chat history
//
// SQLiteStore implements both in a single struct; consumers depend on the
// interface slice they actually use so tests can substitute MockStore.
//
// # Data Models
//
//   - AgentConfig: per-(client, config) parameter set with an opaque
//     options map stored as a JSON blob. Upserts are full replacements.
//   - Turn: one user or assistant message in a chat session. Turns are
//     append-only; an autoincrement seq column preserves arrival order.
//
// # SQLite Configuration
//
// The store uses SQLite with WAL mode for concurrent reads:
//
//	PRAGMA journal_mode=WAL;
//	PRAGMA foreign_keys=ON;
//
// Use NewSQLiteStore(":memory:") for integration tests with real SQLite,
// or NewMockStore() for pure in-memory unit tests.
//
// # Error Handling
//
// ErrNotFound is the only sentinel: returned by GetConfig when no record
// matches. All methods accept context.Context for cancellation support.
package store
