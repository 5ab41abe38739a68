package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/finsight/finchat/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS sessions (
	id         TEXT PRIMARY KEY,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS session_messages (
	session_id TEXT NOT NULL REFERENCES sessions(id),
	seq        INTEGER NOT NULL,
	role       TEXT NOT NULL,
	content    TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (session_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_session_messages_session
	ON session_messages(session_id);
`

// Migrate creates the schema if it does not exist.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteMigration); err != nil {
		return eris.Wrap(err, "sqlite: migrate")
	}
	return nil
}

// CreateSession creates the session if it does not already exist and
// returns it. Resuming an existing session is not an error.
func (s *SQLiteStore) CreateSession(ctx context.Context, id string) (*model.Session, error) {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, created_at, updated_at) VALUES (?, ?, ?) ON CONFLICT (id) DO NOTHING`,
		id, now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: create session")
	}
	sess, err := s.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, eris.Errorf("sqlite: session %s missing after create", id)
	}
	return sess, nil
}

// GetSession returns the session, or nil when absent.
func (s *SQLiteStore) GetSession(ctx context.Context, id string) (*model.Session, error) {
	var sess model.Session
	err := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, updated_at FROM sessions WHERE id = ?`, id,
	).Scan(&sess.ID, &sess.CreatedAt, &sess.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get session")
	}
	return &sess, nil
}

// ListSessions returns the most recently updated sessions, newest first.
func (s *SQLiteStore) ListSessions(ctx context.Context, limit int) ([]model.Session, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, updated_at FROM sessions ORDER BY updated_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list sessions")
	}
	defer rows.Close()

	var sessions []model.Session
	for rows.Next() {
		var sess model.Session
		if err := rows.Scan(&sess.ID, &sess.CreatedAt, &sess.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan session")
		}
		sessions = append(sessions, sess)
	}
	return sessions, eris.Wrap(rows.Err(), "sqlite: list sessions")
}

// AppendMessages appends msgs to the session history in order.
func (s *SQLiteStore) AppendMessages(ctx context.Context, sessionID string, msgs []model.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin append")
	}
	defer tx.Rollback()

	var next int
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM session_messages WHERE session_id = ?`, sessionID,
	).Scan(&next); err != nil {
		return eris.Wrap(err, "sqlite: next seq")
	}

	now := time.Now().UTC()
	for i, m := range msgs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO session_messages (session_id, seq, role, content, created_at) VALUES (?, ?, ?, ?, ?)`,
			sessionID, next+i, string(m.Role), m.Content, now,
		); err != nil {
			return eris.Wrap(err, "sqlite: insert message")
		}
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE sessions SET updated_at = ? WHERE id = ?`, now, sessionID,
	); err != nil {
		return eris.Wrap(err, "sqlite: touch session")
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit append")
}

// GetMessages returns the session history in append order.
func (s *SQLiteStore) GetMessages(ctx context.Context, sessionID string) ([]model.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT role, content FROM session_messages WHERE session_id = ? ORDER BY seq`, sessionID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get messages")
	}
	defer rows.Close()

	var msgs []model.Message
	for rows.Next() {
		var role, content string
		if err := rows.Scan(&role, &content); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan message")
		}
		msgs = append(msgs, model.Message{Role: model.Role(role), Content: content})
	}
	return msgs, eris.Wrap(rows.Err(), "sqlite: get messages")
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
