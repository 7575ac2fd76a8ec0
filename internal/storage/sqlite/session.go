// Package sqlite implements storage.Session on modernc.org/sqlite (pure Go).
//
// SQLite has no databases to switch between; the namespace container is a
// schema name from PRAGMA database_list ("main", "temp", or anything the DSN
// attached). It is mainly used for local dry runs and tests.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"objdeploy/internal/storage"
)

func init() {
	storage.Register("sqlite", func(ctx context.Context, cfg storage.Config) (storage.Session, error) {
		return Open(ctx, cfg)
	})
}

// Session is a SQLite-backed storage.Session.
type Session struct {
	*storage.DB
}

var _ storage.Session = (*Session)(nil)

// Open opens the database named by cfg.DSN, e.g. "deploy.db" or
// "file:deploy.db?_pragma=foreign_keys(1)".
func Open(ctx context.Context, cfg storage.Config) (*Session, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("sqlite: DSN must not be empty")
	}
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// One connection: SQLite serialises writers anyway, and ":memory:" would
	// otherwise give every pooled connection its own empty database.
	db.SetMaxOpenConns(1)
	if db, err = storage.PingNew(ctx, db); err != nil {
		return nil, fmt.Errorf("sqlite: %w", err)
	}
	return &Session{DB: storage.NewDB(db, nil)}, nil
}

// UseContainer checks that name is an attached schema.
func (s *Session) UseContainer(ctx context.Context, name string) error {
	names, err := s.Schemas(ctx)
	if err != nil {
		return err
	}
	for _, n := range names {
		if strings.EqualFold(n, name) {
			return nil
		}
	}
	return fmt.Errorf("sqlite: schema %q is not attached (have %v)", name, names)
}

// Schemas lists attached schema names.
func (s *Session) Schemas(ctx context.Context) ([]string, error) {
	rows, err := s.Handle().QueryContext(ctx, "PRAGMA database_list")
	if err != nil {
		return nil, fmt.Errorf("sqlite: database_list: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var (
			seq  int
			name string
			file sql.NullString
		)
		if err := rows.Scan(&seq, &name, &file); err != nil {
			return nil, fmt.Errorf("sqlite: scan database_list: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
