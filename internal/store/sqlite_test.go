package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsight/finchat/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteSessionLifecycle(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	sess, err := s.CreateSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", sess.ID)
	assert.False(t, sess.CreatedAt.IsZero())

	got, err := s.GetSession(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "s1", got.ID)

	absent, err := s.GetSession(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, absent)
}

func TestSQLiteCreateSessionIdempotent(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	first, err := s.CreateSession(ctx, "resume")
	require.NoError(t, err)
	require.NoError(t, s.AppendMessages(ctx, "resume", []model.Message{
		{Role: model.RoleUser, Content: "what changed?"},
	}))

	again, err := s.CreateSession(ctx, "resume")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.True(t, first.CreatedAt.Equal(again.CreatedAt))

	msgs, err := s.GetMessages(ctx, "resume")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "what changed?", msgs[0].Content)
}

func TestSQLiteAppendAndGetMessages(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	_, err := s.CreateSession(ctx, "s1")
	require.NoError(t, err)

	first := []model.Message{
		{Role: model.RoleUser, Content: "what changed?"},
		{Role: model.RoleAssistant, Content: "it went up 14.1%"},
	}
	require.NoError(t, s.AppendMessages(ctx, "s1", first))

	second := []model.Message{
		{Role: model.RoleUser, Content: "and before that?"},
	}
	require.NoError(t, s.AppendMessages(ctx, "s1", second))

	msgs, err := s.GetMessages(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "what changed?", msgs[0].Content)
	assert.Equal(t, model.RoleAssistant, msgs[1].Role)
	assert.Equal(t, "and before that?", msgs[2].Content)
}

func TestSQLiteAppendEmptyIsNoop(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	_, err := s.CreateSession(ctx, "s1")
	require.NoError(t, err)
	require.NoError(t, s.AppendMessages(ctx, "s1", nil))

	msgs, err := s.GetMessages(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestSQLiteMessagesIsolatedPerSession(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b"} {
		_, err := s.CreateSession(ctx, id)
		require.NoError(t, err)
		require.NoError(t, s.AppendMessages(ctx, id, []model.Message{
			{Role: model.RoleUser, Content: "for " + id},
		}))
	}

	msgs, err := s.GetMessages(ctx, "a")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "for a", msgs[0].Content)
}

func TestSQLiteListSessions(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	for _, id := range []string{"one", "two", "three"} {
		_, err := s.CreateSession(ctx, id)
		require.NoError(t, err)
	}

	sessions, err := s.ListSessions(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, sessions, 2)

	all, err := s.ListSessions(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestSQLiteMigrateIdempotent(t *testing.T) {
	s := newTestSQLite(t)
	assert.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, s.Migrate(context.Background()))
}
