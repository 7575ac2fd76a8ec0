// Package postgres implements storage.Session using a pgx v5 connection pool.
//
// The namespace container is the Postgres database; UseContainer rebuilds the
// pool against that database. Duplicate-object SQLSTATEs are reported as
// storage.ErrAlreadyExists.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"objdeploy/internal/storage"
)

// duplicateCodes are the SQLSTATEs Postgres raises for CREATE on an existing
// object: duplicate_table, duplicate_schema, duplicate_object,
// duplicate_function, duplicate_database.
var duplicateCodes = map[string]struct{}{
	"42P07": {},
	"42P06": {},
	"42710": {},
	"42723": {},
	"42P04": {},
}

// newPool is a test seam.
var newPool = pgxpool.NewWithConfig

func init() {
	storage.Register("postgres", func(ctx context.Context, cfg storage.Config) (storage.Session, error) {
		return Open(ctx, cfg)
	})
}

// Session is a Postgres-backed storage.Session.
type Session struct {
	mu   sync.RWMutex
	pool *pgxpool.Pool
	cfg  *pgxpool.Config
}

var _ storage.Session = (*Session)(nil)

// Open parses cfg.DSN, connects and pings.
func Open(ctx context.Context, cfg storage.Config) (*Session, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres dsn: %w", err)
	}
	pool, err := connect(ctx, pcfg)
	if err != nil {
		return nil, err
	}
	return &Session{pool: pool, cfg: pcfg}, nil
}

func connect(ctx context.Context, cfg *pgxpool.Config) (*pgxpool.Pool, error) {
	pool, err := newPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	return pool, nil
}

// UseContainer reconnects to database name.
func (s *Session) UseContainer(ctx context.Context, name string) error {
	next := s.cfg.Copy()
	next.ConnConfig.Database = name
	pool, err := connect(ctx, next)
	if err != nil {
		return fmt.Errorf("use database %s: %w", name, err)
	}

	s.mu.Lock()
	old := s.pool
	s.pool, s.cfg = pool, next
	s.mu.Unlock()
	old.Close()
	return nil
}

// Exec runs one statement.
func (s *Session) Exec(ctx context.Context, stmt string) (storage.ExecResult, error) {
	s.mu.RLock()
	pool := s.pool
	s.mu.RUnlock()

	tag, err := pool.Exec(ctx, stmt)
	if err != nil {
		return storage.ExecResult{}, classify(err)
	}
	return storage.ExecResult{RowsAffected: tag.RowsAffected()}, nil
}

// Close releases the pool.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pool != nil {
		s.pool.Close()
		s.pool = nil
	}
	return nil
}

func classify(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	_, dup := duplicateCodes[pgErr.Code]
	return storage.WrapAlreadyExists(err, dup)
}
