// Command server runs the blog API: REST under /rest, GraphQL at /graphql.
//
// Configuration comes from the environment (and .env when present); see
// internal/config for the variables.
package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/sakif/blog-api/internal/config"
	"github.com/sakif/blog-api/internal/logger"
	"github.com/sakif/blog-api/internal/repository/sqlstore"
	"github.com/sakif/blog-api/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info", false, os.Stderr)
		bootLog.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Pretty, os.Stdout)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	if err := ensureDataDir(cfg); err != nil {
		log.Fatal().Err(err).Str("dsn", cfg.Database.DSN).Msg("failed to create database directory")
	}

	srv, err := server.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create server")
	}

	// Start blocks until SIGINT or SIGTERM.
	if err := srv.Start(); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}

// ensureDataDir creates the parent directory of a SQLite database file.
func ensureDataDir(cfg *config.Config) error {
	dialect, err := sqlstore.ParseDialect(cfg.Database.Driver)
	if err != nil {
		return err
	}
	if dialect != sqlstore.DialectSQLite {
		return nil
	}
	dsn, _, _ := strings.Cut(strings.TrimPrefix(cfg.Database.DSN, "file:"), "?")
	if dsn == "" || strings.Contains(dsn, ":memory:") || filepath.Dir(dsn) == "." {
		return nil
	}
	return os.MkdirAll(filepath.Dir(dsn), 0o755)
}
