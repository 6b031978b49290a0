// Package postgres opens the hosted Postgres table store through the pgx
// database/sql driver.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"sportstore/internal/storage/migrate"
	"sportstore/internal/storage/postgres/migrations"
	"sportstore/internal/storage/sqlstore"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Dialect uses numbered bind parameters and native timestamps.
var Dialect = sqlstore.Dialect{
	Placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
	EncodeTime:  func(t time.Time) any { return t },
}

// Open connects with the given DSN (a postgres:// URL or key=value
// string), applies migrations and returns the store.
func Open(ctx context.Context, dsn string) (*sqlstore.Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}
	sqlDB, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := migrate.Apply(ctx, sqlDB, migrations.FS, ".", Dialect.Placeholder); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlstore.New(sqlDB, Dialect), nil
}
