// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Provides config/turn persistence with automatic schema creation

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS agent_configs (
			client_id    TEXT NOT NULL,
			config_id    TEXT NOT NULL,
			bot_name     TEXT NOT NULL DEFAULT 'Untitled Bot',
			options_json TEXT NOT NULL,
			updated_at   TEXT NOT NULL,

			PRIMARY KEY (client_id, config_id)
		);

		CREATE INDEX IF NOT EXISTS idx_agent_configs_client
			ON agent_configs(client_id);

		CREATE TABLE IF NOT EXISTS conversation_turns (
			seq        INTEGER PRIMARY KEY AUTOINCREMENT,
			id         TEXT NOT NULL UNIQUE,
			client_id  TEXT NOT NULL,
			config_id  TEXT NOT NULL,
			chat_id    TEXT NOT NULL,
			role       TEXT NOT NULL,
			content    TEXT NOT NULL,
			created_at TEXT NOT NULL,

			CHECK (role IN ('user', 'assistant'))
		);

		CREATE INDEX IF NOT EXISTS idx_turns_session
			ON conversation_turns(client_id, config_id, chat_id, seq);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close releases the underlying database handle
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// UpsertConfig writes or fully replaces the record keyed by (client_id, config_id).
// No partial-field merge - the options blob is replaced wholesale.
func (s *SQLiteStore) UpsertConfig(ctx context.Context, cfg *AgentConfig) error {
	optionsJSON, err := json.Marshal(cfg.Options)
	if err != nil {
		return fmt.Errorf("encoding config options: %w", err)
	}

	updatedAt := cfg.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO agent_configs (client_id, config_id, bot_name, options_json, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(client_id, config_id) DO UPDATE SET
			bot_name = excluded.bot_name,
			options_json = excluded.options_json,
			updated_at = excluded.updated_at
	`

	_, err = s.db.ExecContext(ctx, query,
		cfg.ClientID,
		cfg.ConfigID,
		cfg.BotName,
		string(optionsJSON),
		updatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upserting config: %w", err)
	}

	return nil
}

// GetConfig performs a point lookup of a config record
func (s *SQLiteStore) GetConfig(ctx context.Context, clientID, configID string) (*AgentConfig, error) {
	query := `
		SELECT client_id, config_id, bot_name, options_json, updated_at
		FROM agent_configs
		WHERE client_id = ? AND config_id = ?
	`

	var cfg AgentConfig
	var optionsJSON, updatedAtStr string

	err := s.db.QueryRowContext(ctx, query, clientID, configID).Scan(
		&cfg.ClientID,
		&cfg.ConfigID,
		&cfg.BotName,
		&optionsJSON,
		&updatedAtStr,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying config: %w", err)
	}

	if err := json.Unmarshal([]byte(optionsJSON), &cfg.Options); err != nil {
		return nil, fmt.Errorf("decoding config options: %w", err)
	}

	cfg.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}

	return &cfg, nil
}

// ListClients returns the distinct client identifiers across all stored configs
func (s *SQLiteStore) ListClients(ctx context.Context) ([]string, error) {
	query := `SELECT DISTINCT client_id FROM agent_configs ORDER BY client_id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying clients: %w", err)
	}
	defer rows.Close()

	clients := []string{}
	for rows.Next() {
		var clientID string
		if err := rows.Scan(&clientID); err != nil {
			return nil, fmt.Errorf("scanning client: %w", err)
		}
		clients = append(clients, clientID)
	}

	return clients, rows.Err()
}

// ListConfigs returns all config IDs for a client, ordered by config_id
func (s *SQLiteStore) ListConfigs(ctx context.Context, clientID string) ([]string, error) {
	query := `SELECT config_id FROM agent_configs WHERE client_id = ? ORDER BY config_id`

	rows, err := s.db.QueryContext(ctx, query, clientID)
	if err != nil {
		return nil, fmt.Errorf("querying configs: %w", err)
	}
	defer rows.Close()

	configs := []string{}
	for rows.Next() {
		var configID string
		if err := rows.Scan(&configID); err != nil {
			return nil, fmt.Errorf("scanning config: %w", err)
		}
		configs = append(configs, configID)
	}

	return configs, rows.Err()
}

// AppendTurn inserts a new conversation turn. Prior turns are never touched;
// the autoincrement seq column preserves arrival order.
func (s *SQLiteStore) AppendTurn(ctx context.Context, turn *Turn) error {
	createdAt := turn.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
		turn.CreatedAt = createdAt
	}

	query := `
		INSERT INTO conversation_turns (id, client_id, config_id, chat_id, role, content, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		turn.ID,
		turn.ClientID,
		turn.ConfigID,
		turn.ChatID,
		turn.Role,
		turn.Content,
		createdAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("appending turn: %w", err)
	}

	return nil
}

// GetHistory returns all turns for a chat session in creation order.
// A pure read - callers may re-fetch freely.
func (s *SQLiteStore) GetHistory(ctx context.Context, clientID, configID, chatID string) ([]*Turn, error) {
	query := `
		SELECT id, client_id, config_id, chat_id, role, content, created_at
		FROM conversation_turns
		WHERE client_id = ? AND config_id = ? AND chat_id = ?
		ORDER BY seq ASC
	`

	rows, err := s.db.QueryContext(ctx, query, clientID, configID, chatID)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	turns := []*Turn{}
	for rows.Next() {
		var turn Turn
		var createdAtStr string

		if err := rows.Scan(
			&turn.ID,
			&turn.ClientID,
			&turn.ConfigID,
			&turn.ChatID,
			&turn.Role,
			&turn.Content,
			&createdAtStr,
		); err != nil {
			return nil, fmt.Errorf("scanning turn: %w", err)
		}

		turn.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAtStr)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}

		turns = append(turns, &turn)
	}

	return turns, rows.Err()
}
