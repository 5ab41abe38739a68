// Package store persists chat sessions and their message history. Each
// session owns its own history; nothing here is shared across sessions.
package store

import (
	"context"

	"github.com/finsight/finchat/internal/model"
)

// Store defines the persistence interface for chat sessions.
type Store interface {
	// Sessions. CreateSession is idempotent: creating an id that already
	// exists returns the existing session so callers can resume it.
	CreateSession(ctx context.Context, id string) (*model.Session, error)
	GetSession(ctx context.Context, id string) (*model.Session, error)
	ListSessions(ctx context.Context, limit int) ([]model.Session, error)

	// Messages
	AppendMessages(ctx context.Context, sessionID string, msgs []model.Message) error
	GetMessages(ctx context.Context, sessionID string) ([]model.Message, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
