package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/ZanzyTHEbar/textvault/tvault/keys"
	"github.com/ZanzyTHEbar/textvault/tvault/storage"
)

// writeStoreError surfaces a backend failure as 500 with the error text
// embedded — acceptable for a private tool, and it matches the service
// this one replaces.
func writeStoreError(w http.ResponseWriter, err error) {
	http.Error(w, fmt.Sprintf("Internal Server Error: %v", err), http.StatusInternalServerError)
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	io.WriteString(w, body) //nolint:errcheck
}

// normalizedKey extracts and normalizes the {key...} path value,
// answering 400 itself when the key is invalid.
func (s *Server) normalizedKey(w http.ResponseWriter, r *http.Request) (string, bool) {
	key, err := keys.Normalize(r.PathValue("key"))
	if err != nil {
		http.Error(w, fmt.Sprintf("Bad Request: %v", err), http.StatusBadRequest)
		return "", false
	}
	return key, true
}

// handleList returns every visible key, filtered by the optional prefix
// path remainder. The prefix is a raw string filter, not a normalized
// key — "doc" matches "docs/readme".
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	prefix := strings.TrimPrefix(r.PathValue("prefix"), "/")
	ks, err := s.index.List(r.Context(), prefix)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if ks == nil {
		ks = []string{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ks) //nolint:errcheck
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	key, ok := s.normalizedKey(w, r)
	if !ok {
		return
	}
	body, err := s.store.Get(r.Context(), key)
	if errors.Is(err, storage.ErrNotFound) {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeText(w, http.StatusOK, body)
}

func (s *Server) handlePut(w http.ResponseWriter, r *http.Request) {
	key, ok := s.normalizedKey(w, r)
	if !ok {
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, fmt.Sprintf("Bad Request: %v", err), http.StatusBadRequest)
		return
	}
	if err := s.store.Put(r.Context(), key, string(body)); err != nil {
		writeStoreError(w, err)
		return
	}
	s.index.NotePut(key)
	writeText(w, http.StatusCreated, "Saved")
}

// handleDelete removes key. Deleting an absent key still answers 200 —
// the delete is idempotent by decision, matching the backing stores.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	key, ok := s.normalizedKey(w, r)
	if !ok {
		return
	}
	if err := s.store.Delete(r.Context(), key); err != nil {
		writeStoreError(w, err)
		return
	}
	s.index.NoteDelete(key)
	writeText(w, http.StatusOK, "Deleted")
}

type moveRequest struct {
	SrcKey string `json:"srcKey"`
	DstKey string `json:"dstKey"`
}

// handleMove renames src to dst as read → write → delete. It is not
// transactional: a failure after the write leaves both keys present.
// That window is logged rather than rolled back — the duplicate is
// recoverable, a rollback that loses the write is not.
func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, fmt.Sprintf("Bad Request: %v", err), http.StatusBadRequest)
		return
	}
	result, err := s.moveSchema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil || !result.Valid() {
		http.Error(w, "Bad Request: invalid move request", http.StatusBadRequest)
		return
	}

	var req moveRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		http.Error(w, fmt.Sprintf("Bad Request: %v", err), http.StatusBadRequest)
		return
	}

	src, err := keys.Normalize(req.SrcKey)
	if err != nil {
		http.Error(w, fmt.Sprintf("Bad Request: %v", err), http.StatusBadRequest)
		return
	}
	dst, err := keys.Normalize(req.DstKey)
	if err != nil {
		http.Error(w, fmt.Sprintf("Bad Request: %v", err), http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	exists, err := s.store.Exists(ctx, dst)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if exists {
		http.Error(w, "Conflict: destination already exists", http.StatusConflict)
		return
	}

	body, err := s.store.Get(ctx, src)
	if errors.Is(err, storage.ErrNotFound) {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	if err != nil {
		writeStoreError(w, err)
		return
	}

	if err := s.store.Put(ctx, dst, body); err != nil {
		writeStoreError(w, err)
		return
	}
	s.index.NotePut(dst)

	if err := s.store.Delete(ctx, src); err != nil {
		s.logger.Warn().Err(err).
			Str("src", src).
			Str("dst", dst).
			Msg("move left both keys present: delete of source failed")
		writeStoreError(w, err)
		return
	}
	s.index.NoteDelete(src)

	writeText(w, http.StatusOK, "Moved")
}

// handleSetToken plants the auth cookie. Unauthenticated by design: it
// is the bootstrap a browser uses to obtain the cookie. The token
// travels in the URL path, so keep this endpoint off access logs you do
// not trust.
func (s *Server) handleSetToken(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    r.PathValue("token"),
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
	writeText(w, http.StatusOK, "Token set")
}
