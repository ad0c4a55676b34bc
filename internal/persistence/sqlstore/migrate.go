package sqlstore

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Direction selects which way migrations run.
type Direction string

const (
	// MigrateUp applies pending migrations.
	MigrateUp Direction = "up"
	// MigrateDown reverts applied migrations.
	MigrateDown Direction = "down"
)

// Migrate applies every pending migration.
func (s *Store) Migrate(ctx context.Context) error {
	return s.MigrateSteps(ctx, MigrateUp, 0)
}

// MigrateSteps runs migrations in the given direction. Steps zero means all.
func (s *Store) MigrateSteps(ctx context.Context, direction Direction, steps int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m, err := s.migrator()
	if err != nil {
		return err
	}
	// m is not closed: closing it would close the shared *sql.DB.

	switch direction {
	case MigrateUp:
		if steps > 0 {
			err = m.Steps(steps)
		} else {
			err = m.Up()
		}
	case MigrateDown:
		if steps > 0 {
			err = m.Steps(-steps)
		} else {
			err = m.Down()
		}
	default:
		return fmt.Errorf("sqlstore: unknown migration direction %q", direction)
	}

	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("sqlstore: migrate %s: %w", direction, err)
	}
	return nil
}

// MigrationVersion reports the current schema version.
func (s *Store) MigrationVersion() (uint, bool, error) {
	m, err := s.migrator()
	if err != nil {
		return 0, false, err
	}
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

func (s *Store) migrator() (*migrate.Migrate, error) {
	source, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return nil, fmt.Errorf("sqlstore: load migrations: %w", err)
	}

	var driver database.Driver
	switch s.dialect {
	case DialectSQLite:
		driver, err = sqlite.WithInstance(s.db, &sqlite.Config{})
	case DialectPostgres:
		driver, err = postgres.WithInstance(s.db, &postgres.Config{})
	default:
		return nil, fmt.Errorf("sqlstore: unsupported dialect %q", s.dialect)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlstore: migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, string(s.dialect), driver)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: migrator: %w", err)
	}
	return m, nil
}
