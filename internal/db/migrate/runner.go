// Package migrate applies the embedded casas-auth schema with golang-migrate.
package migrate

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"casas-auth/internal/db"
)

const (
	Up   = "up"
	Down = "down"
)

// ErrNoChange is returned by Run when the schema is already at the requested end.
var ErrNoChange = migrate.ErrNoChange

// Embedded returns the names of the embedded up migrations in version order,
// without the ".up.sql" suffix (e.g. "000001_users").
func Embedded() ([]string, error) {
	entries, err := fs.ReadDir(db.MigrationFS, db.MigrationsDir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if name, ok := strings.CutSuffix(e.Name(), ".up.sql"); ok {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Run migrates the database at dsn all the way up or down and returns the resulting schema
// version; 0 means no migration is applied. ErrNoChange is returned, with the current version,
// when there was nothing to do.
func Run(dsn, direction string) (uint, error) {
	if strings.TrimSpace(dsn) == "" {
		return 0, errors.New("DATABASE_URL is not set")
	}
	if direction != Up && direction != Down {
		return 0, fmt.Errorf("direction must be %s or %s, got %q", Up, Down, direction)
	}

	src, err := iofs.New(db.MigrationFS, db.MigrationsDir)
	if err != nil {
		return 0, fmt.Errorf("migrate source: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return 0, fmt.Errorf("migrate: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	step := m.Up
	if direction == Down {
		step = m.Down
	}
	runErr := step()
	if runErr != nil && !errors.Is(runErr, migrate.ErrNoChange) {
		return 0, runErr
	}

	version, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		version = 0
	case err != nil:
		return 0, fmt.Errorf("read schema version: %w", err)
	case dirty:
		return version, fmt.Errorf("schema version %d is dirty", version)
	}
	return version, runErr
}
