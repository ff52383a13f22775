package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pressly/goose/v3"
	_ "github.com/tursodatabase/go-libsql"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// LibSQL stores entries in a single objects table inside an embedded
// libsql database. Useful when the vault should travel as one file.
type LibSQL struct {
	db *sql.DB
}

// NewLibSQL opens (creating if needed) the database at path and runs
// pending migrations.
func NewLibSQL(path string) (*LibSQL, error) {
	db, err := open(path)
	if err != nil {
		return nil, err
	}

	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &LibSQL{db: db}, nil
}

// open ensures the database directory and file exist, then opens an
// embedded connection with WAL and sane pragmas and verifies basic
// connectivity.
func open(path string) (*sql.DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create database directory %q: %w", dir, err)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		f, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("create database %q: %w", path, err)
		}
		f.Close()
	}

	dsn := fmt.Sprintf("file:%s?_foreign_keys=1&_journal_mode=WAL&_synchronous=NORMAL", path)
	db, err := sql.Open("libsql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open libsql connection: %w", err)
	}

	var one int
	if err := db.QueryRow("SELECT 1").Scan(&one); err != nil {
		db.Close()
		return nil, fmt.Errorf("connectivity check failed: %w", err)
	}
	return db, nil
}

func (s *LibSQL) List(ctx context.Context, prefix string) ([]string, error) {
	// Prefix filtering happens in Go: LIKE would need escaping for
	// keys containing % or _.
	rows, err := s.db.QueryContext(ctx, "SELECT key FROM objects ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	defer rows.Close()

	var ks []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		if strings.HasPrefix(k, prefix) {
			ks = append(ks, k)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate keys: %w", err)
	}
	return ks, nil
}

func (s *LibSQL) Get(ctx context.Context, key string) (string, error) {
	var body string
	err := s.db.QueryRowContext(ctx, "SELECT body FROM objects WHERE key = ?", key).Scan(&body)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get %q: %w", key, err)
	}
	return body, nil
}

func (s *LibSQL) Put(ctx context.Context, key, body string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO objects (key, body, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at
	`, key, body)
	if err != nil {
		return fmt.Errorf("put %q: %w", key, err)
	}
	return nil
}

func (s *LibSQL) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM objects WHERE key = ?", key); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

func (s *LibSQL) Exists(ctx context.Context, key string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM objects WHERE key = ?", key).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("exists %q: %w", key, err)
	}
	return true, nil
}

func (s *LibSQL) Close() error { return s.db.Close() }

var _ ObjectStore = (*LibSQL)(nil)
