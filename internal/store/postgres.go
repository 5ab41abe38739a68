package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/finsight/finchat/internal/model"
)

// Pool is the minimal pgxpool surface the store uses; pgxmock satisfies it
// in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS sessions (
	id         TEXT PRIMARY KEY,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS session_messages (
	session_id TEXT NOT NULL REFERENCES sessions(id),
	seq        INTEGER NOT NULL,
	role       TEXT NOT NULL,
	content    TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (session_id, seq)
);
`

// Migrate creates the schema if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresMigration); err != nil {
		return eris.Wrap(err, "postgres: migrate")
	}
	return nil
}

// CreateSession creates the session if it does not already exist and
// returns it. Resuming an existing session is not an error.
func (s *PostgresStore) CreateSession(ctx context.Context, id string) (*model.Session, error) {
	now := time.Now().UTC()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO sessions (id, created_at, updated_at) VALUES ($1, $2, $3) ON CONFLICT (id) DO NOTHING`,
		id, now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create session")
	}
	sess, err := s.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, eris.Errorf("postgres: session %s missing after create", id)
	}
	return sess, nil
}

// GetSession returns the session, or nil when absent.
func (s *PostgresStore) GetSession(ctx context.Context, id string) (*model.Session, error) {
	var sess model.Session
	err := s.pool.QueryRow(ctx,
		`SELECT id, created_at, updated_at FROM sessions WHERE id = $1`, id,
	).Scan(&sess.ID, &sess.CreatedAt, &sess.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get session")
	}
	return &sess, nil
}

// ListSessions returns the most recently updated sessions, newest first.
func (s *PostgresStore) ListSessions(ctx context.Context, limit int) ([]model.Session, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, created_at, updated_at FROM sessions ORDER BY updated_at DESC LIMIT $1`, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list sessions")
	}
	defer rows.Close()

	var sessions []model.Session
	for rows.Next() {
		var sess model.Session
		if err := rows.Scan(&sess.ID, &sess.CreatedAt, &sess.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan session")
		}
		sessions = append(sessions, sess)
	}
	return sessions, eris.Wrap(rows.Err(), "postgres: list sessions")
}

// AppendMessages appends msgs to the session history in order.
func (s *PostgresStore) AppendMessages(ctx context.Context, sessionID string, msgs []model.Message) error {
	if len(msgs) == 0 {
		return nil
	}

	var next int
	if err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM session_messages WHERE session_id = $1`, sessionID,
	).Scan(&next); err != nil {
		return eris.Wrap(err, "postgres: next seq")
	}

	now := time.Now().UTC()
	for i, m := range msgs {
		if _, err := s.pool.Exec(ctx,
			`INSERT INTO session_messages (session_id, seq, role, content, created_at) VALUES ($1, $2, $3, $4, $5)`,
			sessionID, next+i, string(m.Role), m.Content, now,
		); err != nil {
			return eris.Wrap(err, "postgres: insert message")
		}
	}
	if _, err := s.pool.Exec(ctx,
		`UPDATE sessions SET updated_at = $1 WHERE id = $2`, now, sessionID,
	); err != nil {
		return eris.Wrap(err, "postgres: touch session")
	}
	return nil
}

// GetMessages returns the session history in append order.
func (s *PostgresStore) GetMessages(ctx context.Context, sessionID string) ([]model.Message, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT role, content FROM session_messages WHERE session_id = $1 ORDER BY seq`, sessionID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get messages")
	}
	defer rows.Close()

	var msgs []model.Message
	for rows.Next() {
		var role, content string
		if err := rows.Scan(&role, &content); err != nil {
			return nil, eris.Wrap(err, "postgres: scan message")
		}
		msgs = append(msgs, model.Message{Role: model.Role(role), Content: content})
	}
	return msgs, eris.Wrap(rows.Err(), "postgres: get messages")
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
