// Package mysql implements storage.Session for MySQL using
// go-sql-driver/mysql. The namespace container is the database.
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"objdeploy/internal/storage"
)

// ER_TABLE_EXISTS_ERROR and ER_DB_CREATE_EXISTS.
const (
	errTableExists    = 1050
	errDatabaseExists = 1007
)

func init() {
	storage.Register("mysql", func(ctx context.Context, cfg storage.Config) (storage.Session, error) {
		return Open(ctx, cfg)
	})
}

// Session is a MySQL-backed storage.Session.
type Session struct {
	*storage.DB
	cfg *mysql.Config
}

var _ storage.Session = (*Session)(nil)

// Open parses cfg.DSN, connects and pings.
func Open(ctx context.Context, cfg storage.Config) (*Session, error) {
	mcfg, err := mysql.ParseDSN(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("mysql dsn: %w", err)
	}
	db, err := open(ctx, mcfg)
	if err != nil {
		return nil, err
	}
	return &Session{DB: storage.NewDB(db, classify), cfg: mcfg}, nil
}

func open(ctx context.Context, cfg *mysql.Config) (*sql.DB, error) {
	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("mysql connector: %w", err)
	}
	db, err := storage.PingNew(ctx, sql.OpenDB(connector))
	if err != nil {
		return nil, fmt.Errorf("mysql: %w", err)
	}
	return db, nil
}

// UseContainer reconnects with database name.
func (s *Session) UseContainer(ctx context.Context, name string) error {
	next := s.cfg.Clone()
	next.DBName = name
	db, err := open(ctx, next)
	if err != nil {
		return fmt.Errorf("use database %s: %w", name, err)
	}
	s.cfg = next
	return s.Swap(db)
}

func classify(err error) error {
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return err
	}
	return storage.WrapAlreadyExists(err, me.Number == errTableExists || me.Number == errDatabaseExists)
}
