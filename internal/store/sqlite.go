package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ashureev/hrdesk/internal/domain"
	"github.com/ashureev/hrdesk/internal/shared"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db        *sql.DB
	sessionMu sync.Mutex // Serialises session context upserts to prevent SQLITE_BUSY
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := "file:" + dbPath + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

// OpenReadOnly opens a connection pool on an existing database that refuses
// every write. It backs the generated-statement executor.
func OpenReadOnly(dbPath string) (*sql.DB, error) {
	dsn := "file:" + dbPath + "?mode=ro&_pragma=query_only(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open read-only database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping read-only database: %w", err)
	}
	return db, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS chat_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		message TEXT NOT NULL,
		response TEXT NOT NULL,
		sql_executed TEXT,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_chat_logs_session ON chat_logs(session_id, created_at);

	CREATE TABLE IF NOT EXISTS session_contexts (
		session_id TEXT PRIMARY KEY,
		role TEXT NOT NULL DEFAULT '',
		context_json TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_session_contexts_updated ON session_contexts(updated_at);

	CREATE VIRTUAL TABLE IF NOT EXISTS hr_policy_content USING fts5(
		section_title,
		content,
		page_number UNINDEXED,
		content_length UNINDEXED
	);

	CREATE TABLE IF NOT EXISTS hr_policy_searches (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		query TEXT NOT NULL,
		matched_results INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS db_schema_info (
		table_name TEXT PRIMARY KEY,
		table_columns TEXT NOT NULL,
		sample_data TEXT,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS db_relationships_info (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		from_table TEXT NOT NULL,
		from_column TEXT NOT NULL,
		to_table TEXT NOT NULL,
		to_column TEXT NOT NULL,
		relationship_type TEXT
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// DB exposes the underlying handle for fixtures and the admin CLI.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// SaveTurn appends a chat turn, retrying with exponential backoff while the
// database is busy.
func (s *SQLiteStore) SaveTurn(ctx context.Context, turn *domain.ChatTurn) error {
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now()
	}

	err := shared.RetryOnConflict(ctx, "save_turn", 3, 100*time.Millisecond, func() error {
		return s.saveTurnOnce(ctx, turn)
	})
	if err != nil {
		return fmt.Errorf("failed to save chat turn for %s: %w", turn.SessionID, err)
	}
	return nil
}

func (s *SQLiteStore) saveTurnOnce(ctx context.Context, turn *domain.ChatTurn) error {
	query := `
		INSERT INTO chat_logs (session_id, message, response, sql_executed, created_at)
		VALUES (?, ?, ?, ?, ?)`

	var statement interface{}
	if turn.Statement != nil {
		statement = *turn.Statement
	}

	result, err := s.db.ExecContext(ctx, query,
		turn.SessionID, turn.Message, turn.Response, statement, turn.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert chat turn: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	turn.ID = id
	return nil
}

// ConversationStats summarises the chat log for a session.
func (s *SQLiteStore) ConversationStats(ctx context.Context, sessionID string) (domain.ConversationStats, error) {
	query := `
		SELECT COUNT(*),
		       COUNT(sql_executed),
		       MIN(created_at),
		       MAX(created_at)
		FROM chat_logs WHERE session_id = ?`

	var stats domain.ConversationStats
	var first, last sql.NullInt64

	err := s.db.QueryRowContext(ctx, query, sessionID).Scan(
		&stats.TotalMessages, &stats.QueriesExecuted, &first, &last,
	)
	if err != nil {
		return domain.ConversationStats{}, fmt.Errorf("query conversation stats: %w", err)
	}

	if first.Valid {
		ts := time.Unix(first.Int64, 0)
		stats.FirstMessage = &ts
	}
	if last.Valid {
		ts := time.Unix(last.Int64, 0)
		stats.LastMessage = &ts
	}
	return stats, nil
}

// GetSessionContext retrieves a session context, returning nil if the session is unknown.
func (s *SQLiteStore) GetSessionContext(ctx context.Context, sessionID string) (*domain.SessionContext, error) {
	query := `SELECT context_json, created_at, updated_at FROM session_contexts WHERE session_id = ?`

	var raw string
	var createdAt, updatedAt int64
	err := s.db.QueryRowContext(ctx, query, sessionID).Scan(&raw, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan session context: %w", err)
	}

	var sc domain.SessionContext
	if err := json.Unmarshal([]byte(raw), &sc); err != nil {
		return nil, fmt.Errorf("decode session context: %w", err)
	}
	sc.SessionID = sessionID
	sc.CreatedAt = time.Unix(createdAt, 0)
	sc.UpdatedAt = time.Unix(updatedAt, 0)
	return &sc, nil
}

// SaveSessionContext creates or updates a session context.
func (s *SQLiteStore) SaveSessionContext(ctx context.Context, sc domain.SessionContext) error {
	s.sessionMu.Lock()
	defer s.sessionMu.Unlock()

	raw, err := json.Marshal(sc)
	if err != nil {
		return fmt.Errorf("encode session context: %w", err)
	}

	createdAt := sc.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query := `
		INSERT INTO session_contexts (session_id, role, context_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			role = excluded.role,
			context_json = excluded.context_json,
			updated_at = excluded.updated_at`

	_, err = s.db.ExecContext(ctx, query,
		sc.SessionID, sc.Role, string(raw), createdAt.Unix(), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert session context: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes session contexts not updated within ttl.
func (s *SQLiteStore) DeleteExpiredSessions(ctx context.Context, ttl time.Duration) (int64, error) {
	s.sessionMu.Lock()
	defer s.sessionMu.Unlock()

	threshold := time.Now().Add(-ttl).Unix()
	result, err := s.db.ExecContext(ctx, `DELETE FROM session_contexts WHERE updated_at < ?`, threshold)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return result.RowsAffected()
}
