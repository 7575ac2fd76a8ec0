package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// DB adapts a database/sql pool to the Exec and Close halves of Session.
// Backends built on database/sql embed it and add UseContainer.
//
// The pool may be replaced (Swap) when the active container changes; Exec
// calls already in flight finish on the pool they started on.
type DB struct {
	mu       sync.RWMutex
	db       *sql.DB
	classify func(error) error
}

// NewDB wraps db. classify, when non-nil, may rewrite driver errors (for
// example into *AlreadyExistsError); it must return its input unchanged for
// errors it does not recognise.
func NewDB(db *sql.DB, classify func(error) error) *DB {
	return &DB{db: db, classify: classify}
}

// Handle returns the current pool.
func (d *DB) Handle() *sql.DB {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.db
}

// Swap installs a new pool and closes the previous one.
func (d *DB) Swap(db *sql.DB) error {
	d.mu.Lock()
	old := d.db
	d.db = db
	d.mu.Unlock()
	if old != nil && old != db {
		return old.Close()
	}
	return nil
}

// Exec runs one statement on the current pool.
func (d *DB) Exec(ctx context.Context, stmt string) (ExecResult, error) {
	if strings.TrimSpace(stmt) == "" {
		return ExecResult{}, nil
	}
	res, err := d.Handle().ExecContext(ctx, stmt)
	if err != nil {
		if d.classify != nil {
			err = d.classify(err)
		}
		return ExecResult{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		// DDL on several drivers does not report a count.
		n = 0
	}
	return ExecResult{RowsAffected: n}, nil
}

// Close closes the current pool.
func (d *DB) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.db == nil {
		return nil
	}
	err := d.db.Close()
	d.db = nil
	return err
}

// PingNew pings a freshly opened pool and closes it on failure.
func PingNew(ctx context.Context, db *sql.DB) (*sql.DB, error) {
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return db, nil
}

// WrapAlreadyExists returns err wrapped as *AlreadyExistsError when match
// reports true, and err unchanged otherwise.
func WrapAlreadyExists(err error, match bool) error {
	if err == nil || !match {
		return err
	}
	var ae *AlreadyExistsError
	if errors.As(err, &ae) {
		return err
	}
	return &AlreadyExistsError{Err: err}
}
