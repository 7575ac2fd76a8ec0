package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// ErrUnknownConnection is returned when a connection identifier is neither a
// named entry in the connections file nor a recognisable DSN.
var ErrUnknownConnection = errors.New("unknown connection")

// DefaultKind is assumed for named connections that do not state a kind.
const DefaultKind = "snowflake"

// schemePrefixes maps DSN prefixes to backend kinds. strip marks prefixes
// that are not part of the driver's own DSN syntax.
var schemePrefixes = []struct {
	prefix string
	kind   string
	strip  bool
}{
	{"postgres://", "postgres", false},
	{"postgresql://", "postgres", false},
	{"sqlserver://", "mssql", false},
	{"snowflake://", "snowflake", true},
	{"mysql://", "mysql", true},
	{"sqlite://", "sqlite", true},
	{"file:", "sqlite", false},
	{":memory:", "sqlite", false},
}

// DefaultConnectionFiles lists where connection files are looked for when no
// explicit path is configured, in order.
func DefaultConnectionFiles() []string {
	files := []string{"connections.toml"}
	if home := os.Getenv("SNOWFLAKE_HOME"); home != "" {
		files = append(files, filepath.Join(home, "connections.toml"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		files = append(files, filepath.Join(home, ".snowflake", "connections.toml"))
	}
	return files
}

// ResolveConnection turns a connection identifier into a backend Config.
//
// The identifier is first looked up as a section of the connections file
// (TOML, YAML or JSON). A section carries "kind" and "dsn", or for Snowflake
// the discrete keys of a connections.toml entry (account, user, password,
// warehouse, role, ...). When no section matches, an identifier that looks
// like a DSN is accepted and its kind inferred from the scheme.
//
// An empty file means "search DefaultConnectionFiles".
func ResolveConnection(file, id string) (Config, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Config{}, fmt.Errorf("%w: empty connection identifier", ErrUnknownConnection)
	}

	candidates := []string{file}
	if file == "" {
		candidates = DefaultConnectionFiles()
	}
	for _, path := range candidates {
		cfg, ok, err := lookupConnection(path, id)
		if err != nil {
			return Config{}, err
		}
		if ok {
			return cfg, nil
		}
	}

	for _, sp := range schemePrefixes {
		if strings.HasPrefix(strings.ToLower(id), sp.prefix) {
			dsn := id
			if sp.strip {
				dsn = id[len(sp.prefix):]
			}
			return Config{Kind: sp.kind, DSN: dsn}, nil
		}
	}
	return Config{}, fmt.Errorf("%w %q: not found in connections file and not a DSN", ErrUnknownConnection, id)
}

// lookupConnection reads one connections file. A missing file is not an
// error; an unreadable or malformed one is.
func lookupConnection(path, id string) (Config, bool, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, false, nil
		}
		return Config{}, false, fmt.Errorf("stat connections file: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	if filepath.Ext(path) == "" {
		v.SetConfigType("toml")
	}
	if err := v.ReadInConfig(); err != nil {
		return Config{}, false, fmt.Errorf("read connections file %s: %w", path, err)
	}

	sub := v.Sub(id)
	if sub == nil {
		return Config{}, false, nil
	}

	cfg := Config{
		Kind:   strings.ToLower(sub.GetString("kind")),
		DSN:    sub.GetString("dsn"),
		Params: map[string]string{},
	}
	if cfg.Kind == "" {
		cfg.Kind = DefaultKind
	}
	for _, k := range sub.AllKeys() {
		if k == "kind" || k == "dsn" {
			continue
		}
		cfg.Params[k] = sub.GetString(k)
	}
	return cfg, true, nil
}
