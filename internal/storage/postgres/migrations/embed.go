package migrations

import "embed"

// FS holds the Postgres schema migrations.
//
//go:embed *.sql
var FS embed.FS
