package sqlstore

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/pressly/goose/v3"

	"github.com/kailas-cloud/scopeq/internal/db"
)

//go:embed migrations/postgres/*.sql
var postgresMigrations embed.FS

//go:embed migrations/sqlite/*.sql
var sqliteMigrations embed.FS

// Migrate applies pending schema migrations for the store's dialect.
func (s *Store) Migrate(ctx context.Context) error {
	var err error
	switch s.dialect.Name {
	case Postgres.Name:
		err = s.migratePostgres()
	case SQLite.Name:
		err = s.migrateSQLite(ctx)
	default:
		err = fmt.Errorf("no migrations for dialect %q", s.dialect.Name)
	}
	if err != nil {
		return &db.Error{Op: db.OpMigrate, Err: err}
	}
	return nil
}

func (s *Store) migratePostgres() error {
	sourceDriver, err := iofs.New(postgresMigrations, "migrations/postgres")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	dbDriver, err := migratepg.WithInstance(s.db, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func (s *Store) migrateSQLite(ctx context.Context) error {
	sub, err := fs.Sub(sqliteMigrations, "migrations")
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}
	goose.SetBaseFS(sub)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("goose set dialect: %w", err)
	}
	if err := goose.UpContext(ctx, s.db, "sqlite"); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}
