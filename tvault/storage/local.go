package storage

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Local stores each entry as a file under a root directory. Writes go
// through a temp file + rename so readers never observe partial bodies.
//
// Keys use forward slashes regardless of OS; filepath handles the
// separator translation. The escape check in abs is a second line of
// defense behind key normalization in the API layer.
type Local struct {
	root string
}

// NewLocal creates a Local store rooted at root, creating the directory
// if needed.
func NewLocal(root string) (*Local, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create store root %q: %w", root, err)
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve store root: %w", err)
	}
	return &Local{root: absRoot}, nil
}

// Root returns the absolute store root directory.
func (l *Local) Root() string { return l.root }

func (l *Local) abs(key string) (string, error) {
	joined := filepath.Join(l.root, filepath.Clean(filepath.FromSlash(key)))
	rel, err := filepath.Rel(l.root, joined)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("key %q escapes store root", key)
	}
	return joined, nil
}

func (l *Local) List(ctx context.Context, prefix string) ([]string, error) {
	var ks []string
	err := filepath.WalkDir(l.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(d.Name(), ".tmp") {
			// In-flight write, not an entry.
			return nil
		}
		rel, err := filepath.Rel(l.root, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			ks = append(ks, key)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk store root: %w", err)
	}
	return ks, nil
}

func (l *Local) Get(_ context.Context, key string) (string, error) {
	abs, err := l.abs(key)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(abs)
	if os.IsNotExist(err) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("read %q: %w", key, err)
	}
	return string(data), nil
}

func (l *Local) Put(_ context.Context, key, body string) error {
	dest, err := l.abs(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
		return fmt.Errorf("mkdir %q: %w", filepath.Dir(dest), err)
	}

	tmp := dest + ".tmp"
	if err := os.WriteFile(tmp, []byte(body), 0o640); err != nil {
		return fmt.Errorf("write tmp %q: %w", tmp, err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp) //nolint:errcheck
		return fmt.Errorf("rename to %q: %w", dest, err)
	}
	return nil
}

func (l *Local) Delete(_ context.Context, key string) error {
	abs, err := l.abs(key)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %q: %w", key, err)
	}
	l.pruneEmptyParents(abs)
	return nil
}

// pruneEmptyParents removes directories left empty by a delete so
// listings do not accumulate phantom prefixes. Stops at the first
// non-empty directory or at the root.
func (l *Local) pruneEmptyParents(abs string) {
	dir := filepath.Dir(abs)
	for dir != l.root {
		if err := os.Remove(dir); err != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}

func (l *Local) Exists(_ context.Context, key string) (bool, error) {
	abs, err := l.abs(key)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(abs)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat %q: %w", key, err)
	}
	return !info.IsDir(), nil
}

func (l *Local) Close() error { return nil }

var _ ObjectStore = (*Local)(nil)
