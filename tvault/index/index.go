// Package index keeps an in-memory radix tree of every stored key so
// prefix listings never scan the backend. The tree is seeded at startup,
// kept current by the API layer on put/delete, and rebuilt lazily when
// marked dirty (e.g. by the filesystem watcher).
package index

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	radix "github.com/armon/go-radix"
	"github.com/rs/zerolog"
	ignore "github.com/sabhiram/go-gitignore"

	"github.com/ZanzyTHEbar/textvault/tvault/keys"
	"github.com/ZanzyTHEbar/textvault/tvault/storage"
)

// IgnoreKey is the store entry holding gitignore-style patterns; keys
// matching a pattern are hidden from listings but remain gettable. Being
// a regular entry, it is editable through the editor itself.
const IgnoreKey = ".vaultignore"

// Index is safe for concurrent use.
type Index struct {
	store  storage.ObjectStore
	logger zerolog.Logger

	mu      sync.RWMutex
	tree    *radix.Tree
	ignorer *ignore.GitIgnore // nil when no patterns are stored
	dirty   bool
}

// New builds an index over store and seeds it with a full listing.
func New(ctx context.Context, store storage.ObjectStore, logger zerolog.Logger) (*Index, error) {
	ix := &Index{
		store:  store,
		logger: logger.With().Str("component", "index").Logger(),
	}
	if err := ix.rebuild(ctx); err != nil {
		return nil, fmt.Errorf("seed key index: %w", err)
	}
	return ix, nil
}

// rebuild replaces the tree from a full backend listing. Caller must not
// hold ix.mu.
func (ix *Index) rebuild(ctx context.Context) error {
	ks, err := ix.store.List(ctx, "")
	if err != nil {
		return err
	}

	tree := radix.New()
	for _, k := range ks {
		tree.Insert(k, struct{}{})
	}
	ignorer := ix.loadIgnorer(ctx)

	ix.mu.Lock()
	ix.tree = tree
	ix.ignorer = ignorer
	ix.dirty = false
	ix.mu.Unlock()

	ix.logger.Debug().Int("keys", tree.Len()).Msg("key index rebuilt")
	return nil
}

// loadIgnorer compiles the stored ignore patterns, or returns nil when
// none exist. Errors are logged and treated as "no patterns" — a broken
// ignore file must not take listings down.
func (ix *Index) loadIgnorer(ctx context.Context) *ignore.GitIgnore {
	body, err := ix.store.Get(ctx, IgnoreKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			ix.logger.Warn().Err(err).Msg("could not read ignore patterns")
		}
		return nil
	}
	return ignore.CompileIgnoreLines(strings.Split(body, "\n")...)
}

// List returns all visible keys starting with prefix, sorted ascending.
func (ix *Index) List(ctx context.Context, prefix string) ([]string, error) {
	ix.mu.RLock()
	dirty := ix.dirty
	ix.mu.RUnlock()
	if dirty {
		if err := ix.rebuild(ctx); err != nil {
			return nil, fmt.Errorf("rebuild key index: %w", err)
		}
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	var ks []string
	ix.tree.WalkPrefix(prefix, func(k string, _ interface{}) bool {
		if ix.ignorer != nil && k != IgnoreKey && ix.ignorer.MatchesPath(k) {
			return false
		}
		ks = append(ks, k)
		return false
	})
	sort.Strings(ks)
	return ks, nil
}

// NotePut records that key now exists. Updating the ignore entry
// invalidates the whole index so new patterns apply.
func (ix *Index) NotePut(key string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.tree.Insert(key, struct{}{})
	if key == IgnoreKey {
		ix.dirty = true
	}
}

// NoteDelete records that key is gone.
func (ix *Index) NoteDelete(key string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.tree.Delete(key)
	if key == IgnoreKey {
		ix.dirty = true
	}
}

// MarkDirty schedules a rebuild before the next List. Used by the
// filesystem watcher when the backend changed behind our back.
func (ix *Index) MarkDirty() {
	ix.mu.Lock()
	ix.dirty = true
	ix.mu.Unlock()
}

// Grouped returns the visible keys under prefix bucketed for display.
func (ix *Index) Grouped(ctx context.Context, prefix string) ([]keys.Group, error) {
	ks, err := ix.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	return keys.GroupKeys(ks), nil
}
