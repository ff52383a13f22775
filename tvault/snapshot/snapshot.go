// Package snapshot implements the bounded write-behind cache: after
// every successful remote save the editor drops a local copy named
// {epoch-ms}_{key with slashes replaced}, pruned oldest-first past a
// fixed cap. Snapshots are loss mitigation, not synchronization — the
// remote store stays the single source of truth.
package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"
)

// namePattern matches conforming snapshot names. Anything else in the
// directory is left untouched: never counted, never deleted.
var namePattern = regexp.MustCompile(`^(\d+)_`)

// Entry is one stored snapshot.
type Entry struct {
	Name      string
	SavedAt   time.Time
	Sanitized string
}

// Store writes snapshots asynchronously so the save path never waits on
// local disk, and swallows every failure — a broken cache must not break
// saving.
type Store struct {
	dir    string
	cap    int
	logger zerolog.Logger

	// now is swapped in tests to control timestamps.
	now func() time.Time

	pruneMu sync.Mutex
	pool    *pool.Pool

	mu     sync.Mutex
	closed bool
}

// NewStore creates the snapshot directory if needed. cap is the maximum
// number of conforming entries kept after pruning.
func NewStore(dir string, cap int, logger zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create snapshot dir %q: %w", dir, err)
	}
	return &Store{
		dir:    dir,
		cap:    cap,
		logger: logger.With().Str("component", "snapshot").Logger(),
		now:    time.Now,
		pool:   pool.New().WithMaxGoroutines(1),
	}, nil
}

// Sanitize converts a key into its snapshot-name form.
func Sanitize(key string) string {
	return strings.ReplaceAll(key, "/", "_")
}

// Save queues a best-effort snapshot write. It returns immediately;
// failures are logged at debug and otherwise invisible to the caller.
func (s *Store) Save(key, body string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	at := s.now()
	s.pool.Go(func() {
		s.write(key, body, at)
	})
	s.mu.Unlock()
}

func (s *Store) write(key, body string, at time.Time) {
	name := fmt.Sprintf("%d_%s", at.UnixMilli(), Sanitize(key))
	if err := os.WriteFile(filepath.Join(s.dir, name), []byte(body), 0o640); err != nil {
		s.logger.Debug().Err(err).Str("key", key).Msg("snapshot write failed")
		return
	}
	if err := s.prune(); err != nil {
		s.logger.Debug().Err(err).Msg("snapshot prune failed")
	}
}

// prune deletes the oldest conforming entries until at most cap remain.
func (s *Store) prune() error {
	s.pruneMu.Lock()
	defer s.pruneMu.Unlock()

	entries, err := s.scan()
	if err != nil {
		return err
	}
	if len(entries) <= s.cap {
		return nil
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].SavedAt.Before(entries[j].SavedAt)
	})
	for _, e := range entries[:len(entries)-s.cap] {
		if err := os.Remove(filepath.Join(s.dir, e.Name)); err != nil {
			return fmt.Errorf("remove %q: %w", e.Name, err)
		}
	}
	return nil
}

// scan returns every conforming entry in the directory.
func (s *Store) scan() ([]Entry, error) {
	dirents, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read snapshot dir: %w", err)
	}

	var entries []Entry
	for _, d := range dirents {
		if d.IsDir() {
			continue
		}
		m := namePattern.FindStringSubmatch(d.Name())
		if m == nil {
			continue
		}
		ms, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			continue
		}
		entries = append(entries, Entry{
			Name:      d.Name(),
			SavedAt:   time.UnixMilli(ms),
			Sanitized: d.Name()[len(m[0]):],
		})
	}
	return entries, nil
}

// List returns the snapshots taken for key, newest first.
func (s *Store) List(key string) ([]Entry, error) {
	entries, err := s.scan()
	if err != nil {
		return nil, err
	}
	sanitized := Sanitize(key)
	var out []Entry
	for _, e := range entries {
		if e.Sanitized == sanitized {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].SavedAt.After(out[j].SavedAt)
	})
	return out, nil
}

// Latest returns the body of the newest snapshot for key, or ok=false
// when none exists.
func (s *Store) Latest(key string) (body string, ok bool, err error) {
	entries, err := s.List(key)
	if err != nil {
		return "", false, err
	}
	if len(entries) == 0 {
		return "", false, nil
	}
	data, err := os.ReadFile(filepath.Join(s.dir, entries[0].Name))
	if err != nil {
		return "", false, fmt.Errorf("read snapshot %q: %w", entries[0].Name, err)
	}
	return string(data), true, nil
}

// Close drains queued writes. Save becomes a no-op afterwards.
func (s *Store) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.pool.Wait()
}
