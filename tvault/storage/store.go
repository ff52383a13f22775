// Package storage abstracts the object store holding vault entries.
// Backends are interchangeable behind ObjectStore: an in-memory map,
// a local directory tree, and an embedded libsql database.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key has no entry.
var ErrNotFound = errors.New("key not found")

// ObjectStore is the contract every backend satisfies. Bodies are UTF-8
// text; binary payloads are out of scope. Last write wins on Put — there
// is no locking and no optimistic concurrency, matching the managed
// object stores this service fronts.
type ObjectStore interface {
	// List returns every stored key, filtered to those starting with
	// prefix when prefix is non-empty. Order is unspecified.
	List(ctx context.Context, prefix string) ([]string, error)

	// Get returns the body stored at key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Put creates or overwrites the entry at key.
	Put(ctx context.Context, key, body string) error

	// Delete removes key. Deleting an absent key succeeds.
	Delete(ctx context.Context, key string) error

	// Exists reports whether key has an entry.
	Exists(ctx context.Context, key string) (bool, error)

	// Close releases backend resources.
	Close() error
}
