// Package server exposes the vault over an authenticated HTTP API. The
// routes, status codes and response bodies deliberately mirror a plain
// object-store passthrough: the server adds key normalization, a shared
// secret check and a prefix index, nothing more.
package server

import (
	"net/http"

	"github.com/rs/zerolog"
	"github.com/xeipuuv/gojsonschema"

	"github.com/ZanzyTHEbar/textvault/tvault/index"
	"github.com/ZanzyTHEbar/textvault/tvault/storage"
)

// moveRequestSchema validates POST /api/mv bodies before any store
// call: both keys present, non-empty strings, nothing else.
const moveRequestSchema = `{
	"type": "object",
	"required": ["srcKey", "dstKey"],
	"properties": {
		"srcKey": {"type": "string", "minLength": 1},
		"dstKey": {"type": "string", "minLength": 1}
	},
	"additionalProperties": false
}`

// Server holds shared dependencies for all HTTP handlers.
type Server struct {
	store      storage.ObjectStore
	index      *index.Index
	logger     zerolog.Logger
	moveSchema *gojsonschema.Schema
}

// New registers all routes and returns the root http.Handler.
// Uses Go 1.22 method+path pattern syntax — no external router needed.
//
// Middleware stack (outer → inner): RequestLog → mux → Auth → handler.
// The token-setter stays outside Auth: it is the bootstrap that plants
// the cookie in the first place.
func New(store storage.ObjectStore, ix *index.Index, verify Verifier, logger zerolog.Logger) (http.Handler, error) {
	moveSchema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(moveRequestSchema))
	if err != nil {
		return nil, err
	}

	s := &Server{
		store:      store,
		index:      ix,
		logger:     logger.With().Str("component", "server").Logger(),
		moveSchema: moveSchema,
	}

	auth := Auth(verify)
	mux := http.NewServeMux()

	mux.Handle("GET /api/lists/{prefix...}", auth(http.HandlerFunc(s.handleList)))
	mux.Handle("GET /api/files/{key...}", auth(http.HandlerFunc(s.handleGet)))
	mux.Handle("PUT /api/files/{key...}", auth(http.HandlerFunc(s.handlePut)))
	mux.Handle("DELETE /api/files/{key...}", auth(http.HandlerFunc(s.handleDelete)))
	mux.Handle("POST /api/mv", auth(http.HandlerFunc(s.handleMove)))
	mux.HandleFunc("GET /set-token/{token}", s.handleSetToken)

	return RequestLog(logger)(mux), nil
}
