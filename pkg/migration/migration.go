package migration

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

// Runner applies file-based schema migrations against a Postgres database.
type Runner struct {
	dbURL string
	path  string
	log   *logrus.Logger
}

func NewRunner(dbURL, migrationsPath string, log *logrus.Logger) *Runner {
	if log == nil {
		log = logrus.New()
	}
	return &Runner{dbURL: dbURL, path: migrationsPath, log: log}
}

// Up applies all pending migrations. A database that is already current is
// not an error.
func (r *Runner) Up() error {
	m, err := r.open()
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			r.log.Info("schema already current")
			return nil
		}
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Down rolls back the most recent migration.
func (r *Runner) Down() error {
	m, err := r.open()
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Steps(-1); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("rollback migration: %w", err)
	}
	return nil
}

// Force overwrites the recorded version without running anything. Only for
// recovering from a dirty state.
func (r *Runner) Force(version int) error {
	m, err := r.open()
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Force(version); err != nil {
		return fmt.Errorf("force version %d: %w", version, err)
	}
	r.log.WithField("version", version).Warn("migration version forced")
	return nil
}

// Version returns the current schema version and whether it is dirty. An
// unmigrated database reports version zero.
func (r *Runner) Version() (uint, bool, error) {
	m, err := r.open()
	if err != nil {
		return 0, false, err
	}
	defer m.Close()

	version, dirty, err := m.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("read version: %w", err)
	}
	return version, dirty, nil
}

func (r *Runner) open() (*migrate.Migrate, error) {
	db, err := sql.Open("postgres", r.dbURL)
	if err != nil {
		return nil, fmt.Errorf("connect for migration: %w", err)
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("create migration driver: %w", err)
	}
	m, err := migrate.NewWithDatabaseInstance("file://"+r.path, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("create migrator: %w", err)
	}
	return m, nil
}

// AutoMigrate brings the schema up to date on process start. It refuses to
// touch a dirty database so a half-applied migration gets fixed by hand
// instead of papered over.
func AutoMigrate(dbURL, migrationsPath string, log *logrus.Logger) error {
	runner := NewRunner(dbURL, migrationsPath, log)

	version, dirty, err := runner.Version()
	if err != nil {
		return err
	}
	if dirty {
		return fmt.Errorf("database dirty at version %d, resolve manually before starting", version)
	}

	if err := runner.Up(); err != nil {
		return err
	}

	newVersion, _, err := runner.Version()
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{"from": version, "to": newVersion}).Info("schema migrations applied")
	return nil
}
