package main

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"objdeploy/internal/config"
	"objdeploy/internal/logger"
	"objdeploy/internal/storage"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// app carries what every subcommand shares.
type app struct {
	v       *viper.Viper
	cfgFile string
	stdout  io.Writer
	stderr  io.Writer
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{v: viper.New(), stdout: stdout, stderr: stderr}
	config.SetDefaults(a.v)

	root := &cobra.Command{
		Use:   "objdeploy",
		Short: "Deploy SQL object definitions to a warehouse concurrently",
		Long: `objdeploy discovers SQL files that each define one object (view, schema
or table), executes them against a warehouse with a pool of workers, and
writes a CSV report with the outcome of every file.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.initConfig,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (yaml, toml or json)")
	pf.String(config.KeyConnection, "", "connection name from the connections file, or a DSN (required)")
	pf.String(config.KeyConnectionsFile, "", "connections file (default: ./connections.toml, then ~/.snowflake/connections.toml)")
	pf.String(config.KeyDatabase, "", "database to deploy into (required)")
	pf.BoolP(config.KeyVerbose, "v", false, "enable debug logs")
	_ = a.v.BindPFlags(pf)

	root.AddCommand(
		newDeployCmd(a),
		newValidateCmd(a),
		newBackendsCmd(a),
		newVersionCmd(a),
	)
	return root
}

func (a *app) initConfig(cmd *cobra.Command, args []string) error {
	if a.cfgFile == "" {
		return nil
	}
	a.v.SetConfigFile(a.cfgFile)
	if err := a.v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", a.cfgFile, err)
	}
	return nil
}

func (a *app) logger() *slog.Logger {
	level := slog.LevelInfo
	if a.v.GetBool(config.KeyVerbose) {
		level = slog.LevelDebug
	}
	return logger.NewWithWriter(a.stderr, "objdeploy", level)
}

// settings loads and lints the configuration. Warnings are printed; errors
// are printed and fail the command. Issues on the ignore keys are dropped.
func (a *app) settings(ignore ...string) (config.Deploy, error) {
	d := config.Load(a.v)
	issues := slices.DeleteFunc(config.Validate(d), func(iss config.Issue) bool {
		return slices.Contains(ignore, iss.Path)
	})
	for _, iss := range issues {
		fmt.Fprintf(a.stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		return d, fmt.Errorf("invalid configuration")
	}
	return d, nil
}

func newBackendsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "List the registered storage backends",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, k := range storage.Kinds() {
				fmt.Fprintln(a.stdout, k)
			}
		},
	}
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.stdout, "objdeploy %s\n", version)
		},
	}
}
