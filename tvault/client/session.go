package client

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ZanzyTHEbar/textvault/tvault/keys"
	"github.com/ZanzyTHEbar/textvault/tvault/snapshot"
)

// LoadStatus tracks the body-load state independently of key selection,
// so a failed fetch keeps the user's place instead of clearing it.
type LoadStatus int

const (
	StatusIdle LoadStatus = iota
	StatusLoading
	StatusLoaded
	StatusFailed
)

func (s LoadStatus) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusLoaded:
		return "loaded"
	case StatusFailed:
		return "failed"
	}
	return "unknown"
}

// Session is the editor's state: the selected key, the live body, the
// last-saved body for dirty checking, and the key listing. Snapshots are
// written after every successful save when a snapshot store is attached.
// Not safe for concurrent use; an editor drives one session at a time.
type Session struct {
	api    *Client
	snaps  *snapshot.Store // nil disables write-behind snapshots
	logger zerolog.Logger

	key       string
	status    LoadStatus
	body      string
	savedBody string
	keys      []string
}

// NewSession creates a session over api. snaps may be nil.
func NewSession(api *Client, snaps *snapshot.Store, logger zerolog.Logger) *Session {
	return &Session{
		api:    api,
		snaps:  snaps,
		logger: logger.With().Str("component", "session").Logger(),
		status: StatusIdle,
	}
}

// Key returns the selected key, empty when idle.
func (s *Session) Key() string { return s.key }

// Body returns the live (possibly unsaved) body.
func (s *Session) Body() string { return s.body }

// Status returns the body-load status.
func (s *Session) Status() LoadStatus { return s.status }

// Dirty reports whether the live body differs from the last-saved one.
func (s *Session) Dirty() bool {
	return s.status != StatusIdle && s.body != s.savedBody
}

// SetBody replaces the live body with an edit.
func (s *Session) SetBody(body string) { s.body = body }

// Keys returns the cached key listing.
func (s *Session) Keys() []string { return s.keys }

// Grouped returns the cached listing bucketed for navigation display.
func (s *Session) Grouped() []keys.Group { return keys.GroupKeys(s.keys) }

// RefreshKeys re-fetches the key listing.
func (s *Session) RefreshKeys(ctx context.Context) error {
	ks, err := s.api.ListKeys(ctx, "")
	if err != nil {
		return fmt.Errorf("refresh keys: %w", err)
	}
	s.keys = ks
	return nil
}

// Select normalizes and selects key, then fetches its body. On fetch
// failure the selection sticks, the previous body is kept and the status
// becomes StatusFailed. An empty key deselects.
func (s *Session) Select(ctx context.Context, key string) error {
	if key == "" {
		s.Deselect()
		return nil
	}
	normalized, err := keys.Normalize(key)
	if err != nil {
		return err
	}

	s.key = normalized
	s.status = StatusLoading

	body, err := s.api.Get(ctx, normalized)
	if err != nil {
		s.status = StatusFailed
		return fmt.Errorf("load %q: %w", normalized, err)
	}
	s.body = body
	s.savedBody = body
	s.status = StatusLoaded
	return nil
}

// Deselect returns the session to idle.
func (s *Session) Deselect() {
	s.key = ""
	s.body = ""
	s.savedBody = ""
	s.status = StatusIdle
}

// Save writes the live body to the selected key, takes a best-effort
// snapshot, and refreshes the listing.
func (s *Session) Save(ctx context.Context) error {
	if s.key == "" {
		return fmt.Errorf("no key selected")
	}
	if err := s.api.Put(ctx, s.key, s.body); err != nil {
		return fmt.Errorf("save %q: %w", s.key, err)
	}
	if s.snaps != nil {
		s.snaps.Save(s.key, s.body)
	}
	s.savedBody = s.body
	s.status = StatusLoaded
	if err := s.RefreshKeys(ctx); err != nil {
		// The save itself succeeded; a stale listing is tolerable.
		s.logger.Warn().Err(err).Msg("listing refresh after save failed")
	}
	return nil
}

// Rename moves the selected key to newKey and switches the selection to
// it without re-fetching the body — the stored body already matches
// memory.
func (s *Session) Rename(ctx context.Context, newKey string) error {
	if s.key == "" {
		return fmt.Errorf("no key selected")
	}
	normalized, err := keys.Normalize(newKey)
	if err != nil {
		return err
	}
	if err := s.api.Move(ctx, s.key, normalized); err != nil {
		return fmt.Errorf("rename %q to %q: %w", s.key, normalized, err)
	}
	s.key = normalized
	if err := s.RefreshKeys(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("listing refresh after rename failed")
	}
	return nil
}

// Delete removes the selected key and clears the selection.
func (s *Session) Delete(ctx context.Context) error {
	if s.key == "" {
		return fmt.Errorf("no key selected")
	}
	if err := s.api.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("delete %q: %w", s.key, err)
	}
	if err := s.RefreshKeys(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("listing refresh after delete failed")
	}
	s.Deselect()
	return nil
}

// RestoreLatest loads the newest local snapshot of the selected key into
// the live body, leaving it unsaved so the user decides whether to keep
// it. Returns false when no snapshot exists.
func (s *Session) RestoreLatest() (bool, error) {
	if s.snaps == nil || s.key == "" {
		return false, nil
	}
	body, ok, err := s.snaps.Latest(s.key)
	if err != nil || !ok {
		return false, err
	}
	s.body = body
	return true, nil
}

// Close drains pending snapshot writes.
func (s *Session) Close() {
	if s.snaps != nil {
		s.snaps.Close()
	}
}
