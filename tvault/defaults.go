// Package tvault holds application-wide defaults shared by the config
// layer and the entrypoints.
package tvault

import (
	"os"
	"path/filepath"
)

const (
	DefaultAppName = "textvault"

	// DefaultListenAddr is the server bind address when none is configured.
	DefaultListenAddr = ":8487"

	// DefaultStoreBackend selects the object-store implementation.
	// One of "local", "libsql", "memory".
	DefaultStoreBackend = "local"

	// DefaultSnapshotCap bounds the write-behind snapshot directory.
	DefaultSnapshotCap = 100
)

// DefaultConfigPath is the system-wide config directory.
var DefaultConfigPath = filepath.Join("/etc", DefaultAppName)

// DefaultDataDir is the per-user data directory used for the local
// store root, the libsql database and the snapshot cache.
var DefaultDataDir = func() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "."+DefaultAppName)
	}
	return filepath.Join(home, "."+DefaultAppName)
}()

// DefaultStoreRoot is where the local backend keeps its files.
var DefaultStoreRoot = filepath.Join(DefaultDataDir, "files")

// DefaultDatabasePath is the embedded libsql database file.
var DefaultDatabasePath = filepath.Join(DefaultDataDir, "textvault.db")

// DefaultSnapshotDir holds the bounded write-behind snapshots.
var DefaultSnapshotDir = filepath.Join(DefaultDataDir, "snapshots")
