package main

import (
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"objdeploy/internal/config"
	"objdeploy/internal/console"
	"objdeploy/internal/deploy"
	"objdeploy/internal/discovery"
	"objdeploy/internal/report"
)

func newDeployCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deploy [pattern]",
		Short: "Deploy every object file matching pattern",
		Long: `Deploy every SQL object file matching pattern. The pattern is required,
either as the argument or via --pattern; "**" matches directories. A pattern
of the form @file reads patterns and paths from file, one per line.

Each file is executed statement by statement on a shared connection; files
run concurrently on --threads workers. A file whose object already exists is
skipped. The exit code is 1 if any file failed.`,
		Example: `  objdeploy deploy 'views/**/*.sql' --connection dev --database ANALYTICS
  objdeploy deploy '**/*.sql' --connection postgres://localhost/dw --database dw --threads 10`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				a.v.Set(config.KeyPattern, args[0])
			}
			return a.runDeploy(cmd)
		},
	}

	f := cmd.Flags()
	f.String(config.KeyPattern, "", "glob pattern for SQL files (** matches directories), or @file listing patterns")
	f.Int(config.KeyThreads, config.DefaultThreads, "number of concurrent workers")
	f.String(config.KeyOutput, config.DefaultOutput, "CSV report path")
	f.String(config.KeyFailedSQL, "", "also write failing statements to this file")
	f.String(config.KeyMetricsBackend, "none", "metrics backend: none, pushgateway or datadog")
	f.String(config.KeyPushgatewayURL, "", "Pushgateway base URL")
	f.String(config.KeyStatsdAddr, "", "DogStatsD address (default $DD_AGENT_HOST:8125)")
	_ = a.v.BindPFlags(f)
	return cmd
}

func (a *app) runDeploy(cmd *cobra.Command) error {
	ctx := cmd.Context()
	d, err := a.settings()
	if err != nil {
		return err
	}
	log := a.logger()
	out := console.New(a.stdout)
	start := time.Now()

	runID := uuid.NewString()
	log = log.With("run_id", runID)
	flushMetrics := setupMetrics(d.Metrics, log)
	defer flushMetrics()

	// An unreachable warehouse fails the run even when nothing matches.
	sess, err := openSession(ctx, d, log)
	if err != nil {
		return err
	}
	defer sess.Close()

	paths, err := discovery.Resolve(d.Pattern)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		out.Warnf("No SQL files found matching pattern: %s", d.Pattern)
		if err := report.WriteCSV(d.Output, nil); err != nil {
			log.Error("write report failed", "path", d.Output, "err", err)
		}
		return nil
	}
	out.Infof("Found %d SQL files to deploy", len(paths))

	out.Infof("Using %d worker threads", d.Threads)
	prog := out.NewProgress("Deploying objects...", len(paths))
	rep := deploy.New(sess, deploy.Options{
		Workers: d.Threads,
		Console: out,
		Logger:  log,
		RunID:   runID,
	}).Deploy(ctx, paths, prog)
	prog.Finish()

	results := rep.Results()
	if err := report.WriteCSV(d.Output, results); err != nil {
		out.Errorf("Failed to write report: %v", err)
		log.Error("write report failed", "path", d.Output, "err", err)
	} else {
		out.Infof("Deployment results written to %s", d.Output)
	}
	if d.FailedSQL != "" {
		if err := report.WriteFailedSQL(d.FailedSQL, rep.Failed()); err != nil {
			out.Errorf("Failed to write failed statements: %v", err)
			log.Error("write failed statements failed", "path", d.FailedSQL, "err", err)
		} else if n := len(rep.Failed()); n > 0 {
			out.Infof("%d failed statements written to %s", n, d.FailedSQL)
		}
	}

	report.PrintSummary(a.stdout, report.Summarize(results))

	if ctx.Err() != nil {
		return errInterrupted
	}

	out.Plainf("")
	out.Plainf("Total execution time: %.2f seconds", time.Since(start).Seconds())
	if report.ExitCode(results) != 0 {
		out.Errorf("Completed with %d errors", rep.Count(deploy.StatusError))
		return errDeployFailed
	}
	out.Successf("All objects deployed successfully!")
	return nil
}

var (
	_ deploy.Progress = (*console.Progress)(nil)
	_ deploy.Printer  = (*console.Printer)(nil)
)
