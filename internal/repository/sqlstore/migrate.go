package sqlstore

import (
	"embed"
	"errors"
	"fmt"
	"net/url"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

// Migrate applies every pending up migration for the store's dialect.
func (s *Store) Migrate() error {
	src, err := iofs.New(migrationsFS, "migrations/"+string(s.dialect))
	if err != nil {
		return fmt.Errorf("sqlstore: loading migrations: %w", err)
	}

	m, closeFn, err := s.newMigrator(src)
	if err != nil {
		return err
	}
	defer closeFn()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("sqlstore: applying migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("sqlstore: reading migration version: %w", err)
	}
	s.logger.Info().Uint("version", version).Bool("dirty", dirty).Msg("migrations applied")

	return nil
}

func (s *Store) newMigrator(src source.Driver) (*migrate.Migrate, func(), error) {
	switch s.dialect {
	case DialectSQLite:
		// The driver shares our pool; closing the migrator would close
		// the pool too, so there is nothing to release here.
		driver, err := migratesqlite.WithInstance(s.db, &migratesqlite.Config{})
		if err != nil {
			return nil, nil, fmt.Errorf("sqlstore: creating migration driver: %w", err)
		}
		m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
		if err != nil {
			return nil, nil, fmt.Errorf("sqlstore: creating migrator: %w", err)
		}
		return m, func() {}, nil

	case DialectPostgres:
		dbURL, err := pgxMigrateURL(s.dsn)
		if err != nil {
			return nil, nil, err
		}
		m, err := migrate.NewWithSourceInstance("iofs", src, dbURL)
		if err != nil {
			return nil, nil, fmt.Errorf("sqlstore: creating migrator: %w", err)
		}
		return m, func() {
			if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
				s.logger.Warn().AnErr("source", srcErr).AnErr("database", dbErr).Msg("closing migrator")
			}
		}, nil
	}

	return nil, nil, fmt.Errorf("sqlstore: no migrations for dialect %q", s.dialect)
}

// pgxMigrateURL rewrites a postgres URL to the scheme registered by the
// golang-migrate pgx/v5 driver.
func pgxMigrateURL(dsn string) (string, error) {
	u, err := url.Parse(dsn)
	if err != nil || u.Scheme == "" {
		return "", fmt.Errorf("sqlstore: postgres DSN must be a URL")
	}
	u.Scheme = "pgx5"
	return u.String(), nil
}
