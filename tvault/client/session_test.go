package client

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/textvault/tvault/snapshot"
)

func newTestSession(t *testing.T) (*Session, *Client) {
	t.Helper()
	c, _ := newTestClient(t)
	snaps, err := snapshot.NewStore(t.TempDir(), 10, zerolog.Nop())
	require.NoError(t, err)
	s := NewSession(c, snaps, zerolog.Nop())
	t.Cleanup(s.Close)
	return s, c
}

func TestSessionSelectAndDirtyTracking(t *testing.T) {
	ctx := context.Background()
	s, c := newTestSession(t)
	require.NoError(t, c.Put(ctx, "docs/readme", "hello"))

	assert.Equal(t, StatusIdle, s.Status())
	assert.False(t, s.Dirty())

	require.NoError(t, s.Select(ctx, "/docs/readme/"))
	assert.Equal(t, "docs/readme", s.Key(), "selection is normalized")
	assert.Equal(t, StatusLoaded, s.Status())
	assert.Equal(t, "hello", s.Body())
	assert.False(t, s.Dirty())

	s.SetBody("hello edited")
	assert.True(t, s.Dirty())

	require.NoError(t, s.Save(ctx))
	assert.False(t, s.Dirty())
	assert.Equal(t, StatusLoaded, s.Status())
}

func TestSessionFailedFetchKeepsSelection(t *testing.T) {
	ctx := context.Background()
	s, c := newTestSession(t)
	require.NoError(t, c.Put(ctx, "exists", "body"))
	require.NoError(t, s.Select(ctx, "exists"))

	err := s.Select(ctx, "ghost")
	require.Error(t, err)
	assert.Equal(t, "ghost", s.Key(), "selection sticks on failure")
	assert.Equal(t, StatusFailed, s.Status())
	assert.Equal(t, "body", s.Body(), "previous body is kept")
}

func TestSessionSaveTakesSnapshot(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestClient(t)
	snaps, err := snapshot.NewStore(t.TempDir(), 10, zerolog.Nop())
	require.NoError(t, err)
	s := NewSession(c, snaps, zerolog.Nop())

	require.NoError(t, c.Put(ctx, "note", "v1"))
	require.NoError(t, s.Select(ctx, "note"))
	s.SetBody("v2")
	require.NoError(t, s.Save(ctx))
	s.Close()

	body, ok, err := snaps.Latest("note")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v2", body)
}

func TestSessionSnapshotFailureDoesNotFailSave(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestClient(t)
	// Session without any snapshot store at all.
	s := NewSession(c, nil, zerolog.Nop())

	require.NoError(t, c.Put(ctx, "note", "v1"))
	require.NoError(t, s.Select(ctx, "note"))
	s.SetBody("v2")
	assert.NoError(t, s.Save(ctx))
}

func TestSessionRenameSwitchesWithoutRefetch(t *testing.T) {
	ctx := context.Background()
	s, c := newTestSession(t)
	require.NoError(t, c.Put(ctx, "old/name", "body"))
	require.NoError(t, s.Select(ctx, "old/name"))

	require.NoError(t, s.Rename(ctx, "new/name"))
	assert.Equal(t, "new/name", s.Key())
	assert.Equal(t, "body", s.Body())
	assert.False(t, s.Dirty())

	// Listing reflects the rename.
	assert.Equal(t, []string{"new/name"}, s.Keys())

	// The old key is gone remotely.
	_, err := c.Get(ctx, "old/name")
	assert.True(t, IsNotFound(err))
}

func TestSessionRenameConflict(t *testing.T) {
	ctx := context.Background()
	s, c := newTestSession(t)
	require.NoError(t, c.Put(ctx, "a", "1"))
	require.NoError(t, c.Put(ctx, "b", "2"))
	require.NoError(t, s.Select(ctx, "a"))

	err := s.Rename(ctx, "b")
	require.Error(t, err)
	assert.Equal(t, "a", s.Key(), "selection unchanged on conflict")
}

func TestSessionDeleteClearsSelection(t *testing.T) {
	ctx := context.Background()
	s, c := newTestSession(t)
	require.NoError(t, c.Put(ctx, "doomed", "x"))
	require.NoError(t, s.Select(ctx, "doomed"))

	require.NoError(t, s.Delete(ctx))
	assert.Equal(t, "", s.Key())
	assert.Equal(t, StatusIdle, s.Status())
	assert.Empty(t, s.Keys())
}

func TestSessionRestoreLatest(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestClient(t)
	snaps, err := snapshot.NewStore(t.TempDir(), 10, zerolog.Nop())
	require.NoError(t, err)
	s := NewSession(c, snaps, zerolog.Nop())

	require.NoError(t, c.Put(ctx, "note", "precious"))
	require.NoError(t, s.Select(ctx, "note"))
	require.NoError(t, s.Save(ctx))

	// Simulate losing the remote edit.
	s.SetBody("")
	snaps.Close() // drain the pending snapshot write

	ok, err := s.RestoreLatest()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "precious", s.Body())
	assert.True(t, s.Dirty(), "restored body is unsaved")
}

func TestSessionOperationsRequireSelection(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestSession(t)

	assert.Error(t, s.Save(ctx))
	assert.Error(t, s.Rename(ctx, "x"))
	assert.Error(t, s.Delete(ctx))
}
