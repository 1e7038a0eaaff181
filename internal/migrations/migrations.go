// Package migrations applies the embedded SQL schema to postgres.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
)

//go:embed sql/*.sql
var migrationsFS embed.FS

func Source() (source.Driver, error) {
	src, err := iofs.New(migrationsFS, "sql")
	if err != nil {
		return nil, fmt.Errorf("failed to create migration source: %w", err)
	}
	return src, nil
}

// Migrator owns the database handle opened for it and closes it on Close.
type Migrator struct {
	m  *migrate.Migrate
	db *sql.DB
}

func NewMigrator(databaseURL string) (*Migrator, error) {
	src, err := Source()
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}
	return &Migrator{m: m, db: db}, nil
}

// Up applies every pending migration. Being already current is not an error.
func (mg *Migrator) Up() error {
	if err := mg.m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Down rolls back n migrations, or all of them when n <= 0.
func (mg *Migrator) Down(n int) error {
	var err error
	if n > 0 {
		err = mg.m.Steps(-n)
	} else {
		err = mg.m.Down()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to roll back migrations: %w", err)
	}
	return nil
}

func (mg *Migrator) Version() (uint, bool, error) {
	v, dirty, err := mg.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return v, dirty, err
}

func (mg *Migrator) Close() error {
	srcErr, dbErr := mg.m.Close()
	return errors.Join(srcErr, dbErr)
}
