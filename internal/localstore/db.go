// Package localstore keeps client state in a local SQLite file: the session
// token and other key/value settings plus the history of matching runs.
package localstore

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

type Store struct {
	db *sqlx.DB
}

// Open connects to the SQLite file at name, creating its directory when
// needed, and applies pending migrations.
func Open(name string) (*Store, error) {
	if dir := filepath.Dir(name); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("creating state dir %s: %w", dir, err)
		}
	}

	db, err := sqlx.Connect("sqlite", dsn(name))
	if err != nil {
		return nil, fmt.Errorf("connecting to state db: %w", err)
	}

	db.SetMaxOpenConns(1)

	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect(string(goose.DialectSQLite3)); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting dialect for migrations: %w", err)
	}

	if err := goose.Up(db.DB, "migrations"); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// dsn applies the connection pragmas the way modernc.org/sqlite reads them.
func dsn(name string) string {
	pragmas := []string{"busy_timeout(5000)", "journal_mode(WAL)", "foreign_keys(1)"}

	q := make([]string, 0, len(pragmas))
	for _, p := range pragmas {
		q = append(q, "_pragma="+p)
	}
	return name + "?" + strings.Join(q, "&")
}

func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("closing state db: %w", err)
	}
	return nil
}
