// Package migrate applies SQL migrations to a database. The service never
// migrates ISPyB itself; migrations are used to provision fixture databases.
package migrate

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// Migrate migrates the DB of the passed dialect ("mysql" or "postgres") with
// the specified migrations source URL.
func Migrate(dbconn *sql.DB, dialect, migrations string, options ...Option) error {
	cfg := &config{migrationsTable: "migrations"}
	for _, option := range options {
		option(cfg)
	}

	var (
		driver database.Driver
		err    error
	)
	switch dialect {
	case "mysql":
		driver, err = mysql.WithInstance(dbconn, &mysql.Config{MigrationsTable: cfg.migrationsTable})
	case "postgres":
		driver, err = postgres.WithInstance(dbconn, &postgres.Config{MigrationsTable: cfg.migrationsTable})
	default:
		return fmt.Errorf("unsupported migration dialect %q", dialect)
	}
	if err != nil {
		return err
	}

	migration, err := migrate.NewWithDatabaseInstance(migrations, dialect, driver)
	if err != nil {
		return err
	}

	if err := migration.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	return nil
}

type config struct {
	migrationsTable string
}

// Option configures a Migrate call.
type Option func(*config)

// WithMigrationsTable sets the table migration versions are recorded in.
func WithMigrationsTable(name string) Option {
	return func(c *config) {
		c.migrationsTable = name
	}
}
