// Package storage is the live field storage: one SQL table per entity type
// whose columns are the installed storage fields. It backs onto SQLite
// (modernc.org/sqlite) or PostgreSQL (pgx).
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/entityprop/pkg/types"
)

// DatabaseFile is the SQLite database file name inside the data directory.
const DatabaseFile = "entityprop.db"

// Bookkeeping tables.
const (
	entityTypesTable  = "entityprop_entity_types"
	fieldStorageTable = "entityprop_field_storage"
)

var bookkeepingDDL = []string{
	`CREATE TABLE IF NOT EXISTS ` + entityTypesTable + ` (
    id TEXT PRIMARY KEY,
    label TEXT NOT NULL,
    schema_version INTEGER NOT NULL,
    updated_at TEXT NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS ` + fieldStorageTable + ` (
    entity_type TEXT NOT NULL,
    name TEXT NOT NULL,
    provider TEXT NOT NULL,
    type TEXT NOT NULL,
    definition TEXT NOT NULL,
    installed_at TEXT NOT NULL,
    PRIMARY KEY (entity_type, name)
)`,
}

// Backend is an open field storage.
type Backend struct {
	mu      sync.RWMutex
	closed  bool
	db      *sql.DB
	dialect dialect
	logger  *log.Logger
}

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the logger used for schema changes.
func WithLogger(l *log.Logger) Option {
	return func(b *Backend) { b.logger = l }
}

// Open connects to the storage described by cfg and creates the
// bookkeeping tables if needed.
func Open(ctx context.Context, cfg types.StorageConfig, opts ...Option) (*Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	b := &Backend{logger: log.New(io.Discard, "", 0)}
	for _, o := range opts {
		o(b)
	}

	var (
		db  *sql.DB
		err error
	)
	switch cfg.Driver {
	case types.DriverSQLite:
		b.dialect = sqliteDialect{}
		db, err = openSQLite(cfg.DataDir)
	case types.DriverPostgres:
		b.dialect = postgresDialect{}
		db, err = openPostgres(ctx, cfg.DSN)
	}
	if err != nil {
		return nil, err
	}

	for _, stmt := range bookkeepingDDL {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating bookkeeping tables: %w", err)
		}
	}
	b.db = db
	return b, nil
}

func openSQLite(dataDir string) (*sql.DB, error) {
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}
	dsn := "file:" + filepath.Join(dataDir, DatabaseFile) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// A single connection serialises writers; SQLite allows one at a time.
	db.SetMaxOpenConns(1)
	return db, nil
}

func openPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Driver returns the storage driver name.
func (b *Backend) Driver() string { return b.dialect.name() }

// Close releases the connection. Close is idempotent; afterwards every
// operation returns ErrStorageClosed.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}

// rlock takes the read lock and fails when the backend is closed. The
// caller must call b.mu.RUnlock on success.
func (b *Backend) rlock() error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return types.ErrStorageClosed
	}
	return nil
}

// newUUID generates a UUID v7 string.
func newUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func quote(ident string) string {
	return `"` + ident + `"`
}
