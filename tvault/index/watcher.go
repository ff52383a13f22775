package index

import (
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watcher marks an Index dirty whenever the local store's directory tree
// changes outside the API (rsync, manual edits, another process).
// fsnotify is not recursive, so every subdirectory is registered and new
// directories are added as their create events arrive.
type Watcher struct {
	fsw    *fsnotify.Watcher
	logger zerolog.Logger
	done   chan struct{}
}

// Watch starts watching root and feeds invalidations into ix.
func Watch(root string, ix *Index, logger zerolog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	w := &Watcher{
		fsw:    fsw,
		logger: logger.With().Str("component", "watcher").Logger(),
		done:   make(chan struct{}),
	}
	if err := w.addTree(root); err != nil {
		fsw.Close()
		return nil, err
	}

	go w.run(ix)
	return w, nil
}

// addTree registers root and every directory below it.
func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watch %q: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) run(ix *Index) {
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			// New directories must be registered before their
			// contents produce events.
			if ev.Op.Has(fsnotify.Create) {
				if err := w.addTree(ev.Name); err != nil {
					w.logger.Debug().Err(err).Str("path", ev.Name).Msg("watch add skipped")
				}
			}
			ix.MarkDirty()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn().Err(err).Msg("watcher error")
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}
