package demo

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/scottviteri/r1-chat/internal/backend"
	"github.com/scottviteri/r1-chat/internal/logger"
)

// Store persists conversation logs so a served backend survives restarts.
// Save replaces the whole log of one conversation.
type Store interface {
	Load(ctx context.Context) (order []string, logs map[string][]backend.Message, err error)
	Save(ctx context.Context, conversationID string, msgs []backend.Message) error
	Delete(ctx context.Context, conversationID string) error
	Close() error
}

// SQLiteStore keeps conversations in a SQLite database file.
type SQLiteStore struct {
	db  *sql.DB
	log *slog.Logger
}

// OpenSQLiteStore opens (creating if needed) the database at path.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// One writer; the server already serializes mutations.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA foreign_keys=ON"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	s := &SQLiteStore{db: db, log: logger.ComponentLogger("DemoStore")}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	s.log.Info("SQLite store initialized", "path", path)
	return s, nil
}

func (s *SQLiteStore) createSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS conversations (
			id TEXT PRIMARY KEY,
			created_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS messages (
			conversation_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			PRIMARY KEY (conversation_id, position),
			FOREIGN KEY (conversation_id) REFERENCES conversations(id) ON DELETE CASCADE
		);
	`)
	return err
}

// Load returns every conversation in creation order.
func (s *SQLiteStore) Load(ctx context.Context) ([]string, map[string][]backend.Message, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM conversations ORDER BY rowid`)
	if err != nil {
		return nil, nil, fmt.Errorf("listing conversations: %w", err)
	}
	var order []string
	logs := make(map[string][]backend.Message)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, nil, fmt.Errorf("scanning conversation: %w", err)
		}
		order = append(order, id)
		logs[id] = []backend.Message{}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	rows, err = s.db.QueryContext(ctx,
		`SELECT conversation_id, role, content FROM messages ORDER BY conversation_id, position`)
	if err != nil {
		return nil, nil, fmt.Errorf("loading messages: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		var m backend.Message
		if err := rows.Scan(&id, &m.Role, &m.Content); err != nil {
			return nil, nil, fmt.Errorf("scanning message: %w", err)
		}
		if msgs, ok := logs[id]; ok {
			logs[id] = append(msgs, m)
		}
	}
	return order, logs, rows.Err()
}

// Save replaces the stored log of conversationID with msgs.
func (s *SQLiteStore) Save(ctx context.Context, conversationID string, msgs []backend.Message) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO conversations (id, created_at) VALUES (?, ?)`,
		conversationID, time.Now().UTC()); err != nil {
		return fmt.Errorf("saving conversation: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM messages WHERE conversation_id = ?`, conversationID); err != nil {
		return fmt.Errorf("clearing messages: %w", err)
	}
	for i, m := range msgs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO messages (conversation_id, position, role, content) VALUES (?, ?, ?, ?)`,
			conversationID, i, m.Role, m.Content); err != nil {
			return fmt.Errorf("saving message %d: %w", i, err)
		}
	}
	return tx.Commit()
}

// Delete removes a conversation and its messages.
func (s *SQLiteStore) Delete(ctx context.Context, conversationID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM messages WHERE conversation_id = ?`, conversationID); err != nil {
		return fmt.Errorf("deleting messages: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM conversations WHERE id = ?`, conversationID); err != nil {
		return fmt.Errorf("deleting conversation: %w", err)
	}
	return tx.Commit()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
