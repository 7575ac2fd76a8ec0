// Package config defines the resolved settings of a deployment run and how
// they are read from flags, environment and config file through viper.
package config

import (
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. OBJDEPLOY_THREADS.
const EnvPrefix = "OBJDEPLOY"

// Viper keys. Flag names match.
const (
	KeyPattern         = "pattern"
	KeyConnection      = "connection"
	KeyConnectionsFile = "connections-file"
	KeyDatabase        = "database"
	KeyThreads         = "threads"
	KeyOutput          = "output"
	KeyFailedSQL       = "failed-sql"
	KeyVerbose         = "verbose"
	KeyMetricsBackend  = "metrics-backend"
	KeyPushgatewayURL  = "pushgateway-url"
	KeyStatsdAddr      = "statsd-addr"
)

// Defaults.
const (
	DefaultThreads = 5
	DefaultOutput  = "deploy_objects_info.csv"
)

// Deploy holds the settings of one deployment run.
type Deploy struct {
	// Pattern selects the object definition files; "**" recurses. There is
	// no default: an unset pattern fails validation.
	Pattern string `mapstructure:"pattern"`

	// Connection names an entry in ConnectionsFile, or is a DSN itself.
	Connection      string `mapstructure:"connection"`
	ConnectionsFile string `mapstructure:"connections-file"`

	// Database is the namespace container selected once before deploying.
	Database string `mapstructure:"database"`

	// Threads is the worker pool size.
	Threads int `mapstructure:"threads"`

	Output    string `mapstructure:"output"`
	FailedSQL string `mapstructure:"failed-sql"`
	Verbose   bool   `mapstructure:"verbose"`

	Metrics Metrics `mapstructure:",squash"`
}

// Metrics selects where run metrics are sent.
type Metrics struct {
	// Backend is "none", "pushgateway" or "datadog".
	Backend        string `mapstructure:"metrics-backend"`
	PushgatewayURL string `mapstructure:"pushgateway-url"`
	StatsdAddr     string `mapstructure:"statsd-addr"`
}

// SetDefaults registers default values and environment binding on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyThreads, DefaultThreads)
	v.SetDefault(KeyOutput, DefaultOutput)
	v.SetDefault(KeyMetricsBackend, "none")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
}

// Load reads a Deploy from v. Keys are read one by one so environment
// overrides apply even to keys absent from any config file.
func Load(v *viper.Viper) Deploy {
	return Deploy{
		Pattern:         v.GetString(KeyPattern),
		Connection:      v.GetString(KeyConnection),
		ConnectionsFile: v.GetString(KeyConnectionsFile),
		Database:        v.GetString(KeyDatabase),
		Threads:         v.GetInt(KeyThreads),
		Output:          v.GetString(KeyOutput),
		FailedSQL:       v.GetString(KeyFailedSQL),
		Verbose:         v.GetBool(KeyVerbose),
		Metrics: Metrics{
			Backend:        v.GetString(KeyMetricsBackend),
			PushgatewayURL: v.GetString(KeyPushgatewayURL),
			StatsdAddr:     v.GetString(KeyStatsdAddr),
		},
	}
}
