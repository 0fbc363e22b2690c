package migrations

import "github.com/uptrace/bun/migrate"

// Migrations collects the schema migrations registered by the dated files in
// this package.
var Migrations = migrate.NewMigrations()
