package storage

import (
	"context"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// backends returns one factory per ObjectStore implementation so every
// backend runs the same conformance suite.
func backends(t *testing.T) map[string]func(t *testing.T) ObjectStore {
	return map[string]func(t *testing.T) ObjectStore{
		"memory": func(t *testing.T) ObjectStore {
			return NewMemory()
		},
		"local": func(t *testing.T) ObjectStore {
			s, err := NewLocal(filepath.Join(t.TempDir(), "files"))
			require.NoError(t, err)
			return s
		},
		"libsql": func(t *testing.T) ObjectStore {
			s, err := NewLibSQL(filepath.Join(t.TempDir(), "vault.db"))
			require.NoError(t, err)
			return s
		},
	}
}

func TestObjectStoreConformance(t *testing.T) {
	for name, factory := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := factory(t)
			defer s.Close()

			// Absent key
			_, err := s.Get(ctx, "missing")
			assert.ErrorIs(t, err, ErrNotFound)

			ok, err := s.Exists(ctx, "missing")
			require.NoError(t, err)
			assert.False(t, ok)

			// Round-trip
			require.NoError(t, s.Put(ctx, "docs/readme", "hello"))
			body, err := s.Get(ctx, "docs/readme")
			require.NoError(t, err)
			assert.Equal(t, "hello", body)

			ok, err = s.Exists(ctx, "docs/readme")
			require.NoError(t, err)
			assert.True(t, ok)

			// Overwrite
			require.NoError(t, s.Put(ctx, "docs/readme", "updated"))
			body, err = s.Get(ctx, "docs/readme")
			require.NoError(t, err)
			assert.Equal(t, "updated", body)

			// Delete, then idempotent delete
			require.NoError(t, s.Delete(ctx, "docs/readme"))
			_, err = s.Get(ctx, "docs/readme")
			assert.ErrorIs(t, err, ErrNotFound)
			require.NoError(t, s.Delete(ctx, "docs/readme"))
		})
	}
}

func TestObjectStoreListPrefix(t *testing.T) {
	for name, factory := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := factory(t)
			defer s.Close()

			seed := map[string]string{
				"docs/readme":    "a",
				"docs/sub/notes": "b",
				"journal/today":  "c",
				"standalone":     "d",
			}
			for k, v := range seed {
				require.NoError(t, s.Put(ctx, k, v))
			}

			all, err := s.List(ctx, "")
			require.NoError(t, err)
			sort.Strings(all)
			assert.Equal(t, []string{"docs/readme", "docs/sub/notes", "journal/today", "standalone"}, all)

			docs, err := s.List(ctx, "docs/")
			require.NoError(t, err)
			sort.Strings(docs)
			assert.Equal(t, []string{"docs/readme", "docs/sub/notes"}, docs)

			// Prefix filter is a plain string prefix, not a path match.
			d, err := s.List(ctx, "docs/s")
			require.NoError(t, err)
			assert.Equal(t, []string{"docs/sub/notes"}, d)

			none, err := s.List(ctx, "zzz")
			require.NoError(t, err)
			assert.Empty(t, none)
		})
	}
}

func TestLocalDeletePrunesEmptyDirs(t *testing.T) {
	ctx := context.Background()
	root := filepath.Join(t.TempDir(), "files")
	s, err := NewLocal(root)
	require.NoError(t, err)

	require.NoError(t, s.Put(ctx, "a/b/c/deep", "x"))
	require.NoError(t, s.Put(ctx, "a/keep", "y"))
	require.NoError(t, s.Delete(ctx, "a/b/c/deep"))

	ks, err := s.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a/keep"}, ks)
}

func TestLocalRejectsEscapingKey(t *testing.T) {
	s, err := NewLocal(filepath.Join(t.TempDir(), "files"))
	require.NoError(t, err)

	_, err = s.Get(context.Background(), "../outside")
	assert.Error(t, err)
}
