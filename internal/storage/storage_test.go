package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSession struct{}

func (stubSession) UseContainer(context.Context, string) error { return nil }
func (stubSession) Exec(context.Context, string) (ExecResult, error) {
	return ExecResult{}, nil
}
func (stubSession) Close() error { return nil }

func TestRegistry(t *testing.T) {
	Register("stub-test", func(_ context.Context, cfg Config) (Session, error) {
		if cfg.DSN == "bad" {
			return nil, errors.New("boom")
		}
		return stubSession{}, nil
	})

	assert.Contains(t, Kinds(), "stub-test")

	s, err := New(context.Background(), Config{Kind: "stub-test"})
	require.NoError(t, err)
	require.NotNil(t, s)

	_, err = New(context.Background(), Config{Kind: "stub-test", DSN: "bad"})
	require.ErrorContains(t, err, "open stub-test session: boom")

	_, err = New(context.Background(), Config{Kind: "nope"})
	require.ErrorIs(t, err, ErrUnknownKind)
}

func TestIsAlreadyExists(t *testing.T) {
	t.Parallel()

	assert.False(t, IsAlreadyExists(nil))
	assert.True(t, IsAlreadyExists(errors.New("Object ORDERS already exists")))
	assert.True(t, IsAlreadyExists(errors.New("SQL compilation error: Object 'X' ALREADY EXISTS.")))
	assert.False(t, IsAlreadyExists(errors.New("syntax error near SELECT")))

	wrapped := fmt.Errorf("exec: %w", &AlreadyExistsError{Err: errors.New(`relation "t" exists`)})
	assert.True(t, IsAlreadyExists(wrapped))
	assert.Equal(t, `exec: relation "t" exists`, wrapped.Error())
}

func TestResolveConnection_NamedEntries(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "connections.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[prod]
account = "xy12345.eu-central-1"
user = "DEPLOYER"
password = "secret"
warehouse = "COMPUTE_WH"

[local]
kind = "postgres"
dsn = "postgres://u:p@localhost:5432/dw"
`), 0o644))

	cfg, err := ResolveConnection(path, "prod")
	require.NoError(t, err)
	assert.Equal(t, "snowflake", cfg.Kind)
	assert.Empty(t, cfg.DSN)
	assert.Equal(t, "xy12345.eu-central-1", cfg.Params["account"])
	assert.Equal(t, "COMPUTE_WH", cfg.Params["warehouse"])

	cfg, err = ResolveConnection(path, "local")
	require.NoError(t, err)
	assert.Equal(t, Config{Kind: "postgres", DSN: "postgres://u:p@localhost:5432/dw", Params: map[string]string{}}, cfg)
}

func TestResolveConnection_InferFromDSN(t *testing.T) {
	t.Parallel()

	missing := filepath.Join(t.TempDir(), "none.toml")

	tests := []struct {
		id   string
		want Config
	}{
		{"postgres://u@h/db", Config{Kind: "postgres", DSN: "postgres://u@h/db"}},
		{"sqlserver://sa:pw@h:1433", Config{Kind: "mssql", DSN: "sqlserver://sa:pw@h:1433"}},
		{"mysql://u:p@tcp(h:3306)/db", Config{Kind: "mysql", DSN: "u:p@tcp(h:3306)/db"}},
		{"snowflake://u:p@acct/db", Config{Kind: "snowflake", DSN: "u:p@acct/db"}},
		{"sqlite://deploy.db", Config{Kind: "sqlite", DSN: "deploy.db"}},
		{":memory:", Config{Kind: "sqlite", DSN: ":memory:"}},
	}
	for _, tt := range tests {
		got, err := ResolveConnection(missing, tt.id)
		require.NoError(t, err, tt.id)
		assert.Equal(t, tt.want, got, tt.id)
	}

	_, err := ResolveConnection(missing, "prod")
	require.ErrorIs(t, err, ErrUnknownConnection)

	_, err = ResolveConnection(missing, "  ")
	require.ErrorIs(t, err, ErrUnknownConnection)
}
