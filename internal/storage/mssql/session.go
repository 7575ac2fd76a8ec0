// Package mssql implements storage.Session for Microsoft SQL Server using
// go-mssqldb. The namespace container is the database; UseContainer rebuilds
// the connector with msdsn's Database field set.
package mssql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	mssql "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"

	"objdeploy/internal/storage"
)

// Error numbers for "There is already an object named ..." and
// "Database ... already exists".
const (
	errObjectExists   = 2714
	errDatabaseExists = 1801
)

func init() {
	storage.Register("mssql", func(ctx context.Context, cfg storage.Config) (storage.Session, error) {
		return Open(ctx, cfg)
	})
}

// Session is an MSSQL-backed storage.Session.
type Session struct {
	*storage.DB
	cfg msdsn.Config
}

var _ storage.Session = (*Session)(nil)

// Open validates the DSN, connects and pings.
func Open(ctx context.Context, cfg storage.Config) (*Session, error) {
	// Validate DSN early to fail fast on obvious mistakes.
	dsnCfg, err := msdsn.Parse(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("mssql dsn: %w", err)
	}
	db, err := storage.PingNew(ctx, sql.OpenDB(mssql.NewConnectorConfig(dsnCfg)))
	if err != nil {
		return nil, fmt.Errorf("mssql: %w", err)
	}
	return &Session{DB: storage.NewDB(db, classify), cfg: dsnCfg}, nil
}

// UseContainer reconnects with database name.
func (s *Session) UseContainer(ctx context.Context, name string) error {
	next := s.cfg
	next.Database = name
	db, err := storage.PingNew(ctx, sql.OpenDB(mssql.NewConnectorConfig(next)))
	if err != nil {
		return fmt.Errorf("mssql: use database %s: %w", name, err)
	}
	s.cfg = next
	return s.Swap(db)
}

func classify(err error) error {
	var mErr mssql.Error
	if !errors.As(err, &mErr) {
		return err
	}
	return storage.WrapAlreadyExists(err, mErr.Number == errObjectExists || mErr.Number == errDatabaseExists)
}
