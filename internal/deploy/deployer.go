package deploy

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"objdeploy/internal/logger"
	"objdeploy/internal/objectdef"
	"objdeploy/internal/storage"
)

// DefaultWorkers is the pool size when Options.Workers is not positive.
const DefaultWorkers = 5

// Options configures a Deployer.
type Options struct {
	Workers int
	Console Printer
	Logger  *slog.Logger
	RunID   string // generated when empty
}

// Deployer runs object files through a fixed pool of workers sharing one
// Session.
type Deployer struct {
	exec    *Executor
	workers int
	console Printer
	log     *slog.Logger
	runID   string
}

// New returns a Deployer over session.
func New(session storage.Session, opts Options) *Deployer {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.Console == nil {
		opts.Console = nopPrinter{}
	}
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	return &Deployer{
		exec:    NewExecutor(session, opts.Console, opts.Logger, opts.RunID),
		workers: opts.Workers,
		console: opts.Console,
		log:     opts.Logger,
		runID:   opts.RunID,
	}
}

// RunID identifies this deployment in logs and metrics.
func (d *Deployer) RunID() string { return d.runID }

// Deploy submits every path as an independent unit of work and blocks until
// all submitted units finish. The report holds one Result per submitted
// path, in completion order.
//
// A failing or panicking file never stops the others. Cancelling ctx stops
// further submissions; files already running finish.
func (d *Deployer) Deploy(ctx context.Context, paths []string, progress Progress) *Report {
	rep := NewReport(len(paths))

	ids := make(chan string, d.workers)
	for i := range d.workers {
		ids <- fmt.Sprintf("worker-%d", i)
	}

	d.log.Info("deployment started", "run_id", d.runID, "files", len(paths), "workers", d.workers)

	var g errgroup.Group
	g.SetLimit(d.workers)
	submitted := 0
	for _, path := range paths {
		if ctx.Err() != nil {
			break
		}
		submitted++
		g.Go(func() error {
			id := <-ids
			defer func() { ids <- id }()
			rep.Append(d.runOne(ctx, path, id, progress))
			return nil
		})
	}
	_ = g.Wait()

	if submitted < len(paths) {
		d.log.Warn("deployment interrupted", "run_id", d.runID, "submitted", submitted, "skipped", len(paths)-submitted)
	}
	d.log.Info("deployment finished",
		"run_id", d.runID,
		"ok", rep.Count(StatusOK),
		"empty", rep.Count(StatusEmpty),
		"already", rep.Count(StatusAlready),
		"error", rep.Count(StatusError),
	)
	return rep
}

// runOne turns a panic escaping the executor into an error result.
func (d *Deployer) runOne(ctx context.Context, path, workerID string, progress Progress) (res Result, failed *FailedStatement) {
	defer func() {
		if r := recover(); r != nil {
			d.console.Errorf("Object %s generated an exception: %v", path, r)
			d.log.Error("worker panic", "run_id", d.runID, "file", path, "worker", workerID, "panic", fmt.Sprint(r))
			res = Result{
				Namespace: objectdef.UnknownNamespace,
				Name:      objectdef.StemName(path),
				Status:    StatusError,
				Detail:    flatten(fmt.Sprint(r)),
				FilePath:  path,
				WorkerID:  workerID,
			}
			failed = nil
		}
	}()
	return d.exec.Run(ctx, path, workerID, progress)
}
