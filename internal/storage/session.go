// Package storage defines the execution backend the deployer talks to and a
// small factory that maps a backend kind ("snowflake", "postgres", ...) to a
// constructor.
//
// Callers depend only on Session. Concrete backends live in subpackages and
// register themselves from init; blank-import objdeploy/internal/storage/all
// to make every built-in backend available.
package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Session is a connection to the target warehouse.
//
// Exec must be safe for concurrent use: every deploy worker shares the same
// Session. UseContainer is called once, before any Exec.
type Session interface {
	// UseContainer selects the active namespace container (the database on
	// Snowflake, Postgres, MSSQL and MySQL; an attached schema on SQLite).
	UseContainer(ctx context.Context, name string) error

	// Exec runs a single statement to completion.
	Exec(ctx context.Context, stmt string) (ExecResult, error)

	Close() error
}

// ExecResult is what a backend reports back for one statement.
type ExecResult struct {
	RowsAffected int64
}

// Config selects and configures a backend.
type Config struct {
	Kind string // registered backend name, e.g. "snowflake"
	DSN  string // driver-specific connection string

	// Params holds discrete connection settings (account, user, ...) for
	// backends that can assemble a DSN themselves. Ignored when DSN is set.
	Params map[string]string
}

// Factory opens a Session for the given config.
type Factory func(ctx context.Context, cfg Config) (Session, error)

// ErrUnknownKind is returned by New for an unregistered backend kind.
var ErrUnknownKind = errors.New("unknown storage kind")

var (
	regMu     sync.RWMutex
	factories = map[string]Factory{}
)

// Register registers (or replaces) the factory for kind. It is typically
// called from backend packages' init functions.
func Register(kind string, f Factory) {
	regMu.Lock()
	defer regMu.Unlock()
	factories[kind] = f
}

// Kinds lists registered backend kinds in sorted order.
func Kinds() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// New opens a Session using the factory registered for cfg.Kind.
func New(ctx context.Context, cfg Config) (Session, error) {
	regMu.RLock()
	f, ok := factories[cfg.Kind]
	regMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %q (registered: %v)", ErrUnknownKind, cfg.Kind, Kinds())
	}
	s, err := f(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s session: %w", cfg.Kind, err)
	}
	return s, nil
}
