// Package sqlite opens a SQLite-backed table store for local and single
// node deployments.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"sportstore/internal/storage/migrate"
	"sportstore/internal/storage/sqlite/migrations"
	"sportstore/internal/storage/sqlstore"

	_ "modernc.org/sqlite"
)

// timeLayout keeps a fixed fraction width so text ordering matches time
// ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Dialect is the SQLite flavour of bind parameters and time encoding.
var Dialect = sqlstore.Dialect{
	Placeholder: func(int) string { return "?" },
	EncodeTime:  func(t time.Time) any { return t.Format(timeLayout) },
}

// Open opens a SQLite store at the provided path and applies migrations.
// The path ":memory:" opens a private in-memory database.
func Open(ctx context.Context, path string) (*sqlstore.Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := ":memory:"
	if path != ":memory:" {
		dsn = filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)"
	}
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One connection keeps an in-memory database alive and serializes
	// writers, which SQLite wants anyway.
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := migrate.Apply(ctx, sqlDB, migrations.FS, ".", Dialect.Placeholder); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlstore.New(sqlDB, Dialect), nil
}
