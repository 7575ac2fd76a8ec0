// Package snowflake implements storage.Session on top of gosnowflake.
//
// A connection is configured either from a DSN in gosnowflake syntax
// (user:password@account/database?warehouse=WH) or from the discrete keys of
// a connections.toml entry. The active database is part of the connector
// configuration, so UseContainer rebuilds the pool with the database set
// rather than issuing USE DATABASE on one pooled connection.
package snowflake

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sf "github.com/snowflakedb/gosnowflake"

	"objdeploy/internal/storage"
)

// objectAlreadyExists is Snowflake's "Object '%s' already exists." code.
const objectAlreadyExists = 2002

func init() {
	storage.Register("snowflake", func(ctx context.Context, cfg storage.Config) (storage.Session, error) {
		return Open(ctx, cfg)
	})
}

// Session is a Snowflake-backed storage.Session.
type Session struct {
	*storage.DB
	cfg sf.Config
}

var _ storage.Session = (*Session)(nil)

// Open connects using cfg.DSN, or cfg.Params when DSN is empty.
func Open(ctx context.Context, cfg storage.Config) (*Session, error) {
	sfCfg, err := configFrom(cfg)
	if err != nil {
		return nil, err
	}
	db, err := storage.PingNew(ctx, sql.OpenDB(sf.NewConnector(sf.SnowflakeDriver{}, *sfCfg)))
	if err != nil {
		return nil, fmt.Errorf("snowflake: %w", err)
	}
	return &Session{DB: storage.NewDB(db, classify), cfg: *sfCfg}, nil
}

// UseContainer points the session at database name and checks that the
// warehouse accepted it.
func (s *Session) UseContainer(ctx context.Context, name string) error {
	c := s.cfg
	c.Database = name
	db, err := storage.PingNew(ctx, sql.OpenDB(sf.NewConnector(sf.SnowflakeDriver{}, c)))
	if err != nil {
		return fmt.Errorf("snowflake: use database %s: %w", name, err)
	}

	var current sql.NullString
	if err := db.QueryRowContext(ctx, "SELECT CURRENT_DATABASE()").Scan(&current); err != nil {
		_ = db.Close()
		return fmt.Errorf("snowflake: use database %s: %w", name, err)
	}
	if !current.Valid || !strings.EqualFold(current.String, name) {
		_ = db.Close()
		return fmt.Errorf("snowflake: database %s does not exist or is not authorized", name)
	}

	s.cfg = c
	return s.Swap(db)
}

func configFrom(cfg storage.Config) (*sf.Config, error) {
	if cfg.DSN != "" {
		c, err := sf.ParseDSN(cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("snowflake dsn: %w", err)
		}
		return c, nil
	}

	p := cfg.Params
	c := &sf.Config{
		Account:   p["account"],
		User:      p["user"],
		Password:  p["password"],
		Database:  p["database"],
		Schema:    p["schema"],
		Warehouse: p["warehouse"],
		Role:      p["role"],
		Host:      p["host"],
	}
	if c.Account == "" {
		return nil, errors.New("snowflake: connection has no account")
	}
	if c.User == "" {
		return nil, errors.New("snowflake: connection has no user")
	}
	return c, nil
}

func classify(err error) error {
	var sfErr *sf.SnowflakeError
	return storage.WrapAlreadyExists(err, errors.As(err, &sfErr) && sfErr.Number == objectAlreadyExists)
}
