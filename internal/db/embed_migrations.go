package db

import "embed"

// MigrationsDir is the directory of MigrationFS holding the numbered up/down SQL files for the
// users, token_revocations and logout_events tables.
const MigrationsDir = "migrations"

//go:embed migrations/*.sql
var MigrationFS embed.FS
