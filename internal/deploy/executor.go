package deploy

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/zeebo/xxh3"

	"objdeploy/internal/logger"
	"objdeploy/internal/metrics"
	"objdeploy/internal/objectdef"
	"objdeploy/internal/storage"
)

// Progress receives one Done call per finished file, whatever the outcome.
type Progress interface {
	Done()
}

// Printer is the console surface the deployer writes status lines to.
type Printer interface {
	Infof(format string, args ...any)
	Successf(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

type nopPrinter struct{}

func (nopPrinter) Infof(string, ...any)    {}
func (nopPrinter) Successf(string, ...any) {}
func (nopPrinter) Warnf(string, ...any)    {}
func (nopPrinter) Errorf(string, ...any)   {}

type nopProgress struct{}

func (nopProgress) Done() {}

// Executor deploys a single object file against a shared Session.
type Executor struct {
	session storage.Session
	console Printer
	log     *slog.Logger
	runID   string

	// readFile is a test seam.
	readFile func(string) ([]byte, error)
}

// NewExecutor returns an Executor. Nil console and log are replaced with
// silent defaults.
func NewExecutor(session storage.Session, console Printer, log *slog.Logger, runID string) *Executor {
	if console == nil {
		console = nopPrinter{}
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Executor{
		session:  session,
		console:  console,
		log:      log,
		runID:    runID,
		readFile: os.ReadFile,
	}
}

// Run deploys the file at path and returns its Result. failed is non-nil
// only for StatusError results whose failing statement is known.
//
// A file must open with an object header; only the text after it may be
// blank. Statements run in file order; the first failure stops the file.
// Errors never escape: they become the Result. progress.Done is called
// exactly once, even if Run panics.
func (e *Executor) Run(ctx context.Context, path, workerID string, progress Progress) (res Result, failed *FailedStatement) {
	if progress == nil {
		progress = nopProgress{}
	}
	start := time.Now()
	res = Result{
		Namespace: objectdef.UnknownNamespace,
		Name:      objectdef.StemName(path),
		Status:    StatusOK,
		FilePath:  path,
		WorkerID:  workerID,
	}
	defer func() {
		// A panic still gets recorded as an error before it propagates.
		r := recover()
		if r != nil {
			res.Status = StatusError
			res.Detail = flatten(fmt.Sprint(r))
		}
		res.Duration = time.Since(start)
		kind := res.Kind
		if kind == "" {
			kind = "unknown"
		}
		metrics.RecordObject(e.runID, string(res.Status), kind, res.Duration)
		e.log.Debug("object processed",
			"file", path,
			"worker", workerID,
			"schema", res.Namespace,
			"name", res.Name,
			"status", string(res.Status),
			"statements", res.Statements,
			"checksum", res.Checksum,
			"duration", res.Duration,
		)
		progress.Done()
		if r != nil {
			panic(r)
		}
	}()

	raw, err := e.readFile(path)
	if err != nil {
		return e.fail(res, fmt.Errorf("read %s: %w", path, err), "")
	}
	res.Checksum = fmt.Sprintf("%016x", xxh3.Hash(raw))

	text, err := objectdef.Decode(raw)
	if err != nil {
		return e.fail(res, fmt.Errorf("%s: %w", path, err), "")
	}
	h, err := objectdef.ParseHeader(text)
	if err != nil {
		return e.fail(res, fmt.Errorf("invalid SQL statement in %s: %w", path, err), "")
	}
	res.Namespace, res.Name, res.Kind = h.Namespace, h.Name, string(h.Kind)

	if objectdef.IsBlank(h.Body(text)) {
		e.console.Warnf("Skipping empty SQL for %s %s in schema %s", strings.ToLower(res.Kind), res.Name, res.Namespace)
		res.Status = StatusEmpty
		return res, nil
	}

	e.console.Infof("Executing %s in schema %s (%s)", res.Name, res.Namespace, workerID)

	// Statements already sent run to completion even if the run is interrupted.
	execCtx := context.WithoutCancel(ctx)
	var last string
	for _, stmt := range objectdef.Split(text) {
		last = stmt
		_, err := e.session.Exec(execCtx, stmt)
		metrics.RecordStatement(e.runID, err)
		if err != nil {
			return e.fail(res, err, last)
		}
		res.Statements++
		e.console.Successf("✓ Successfully deployed %d - %s in schema %s", res.Statements, res.Name, res.Namespace)
	}
	return res, nil
}

// fail classifies err into res. lastSQL is the statement being executed
// when err occurred, or "" if no statement had been attempted.
func (e *Executor) fail(res Result, err error, lastSQL string) (Result, *FailedStatement) {
	msg := flatten(err.Error())
	res.Detail = msg

	if storage.IsAlreadyExists(err) {
		e.console.Warnf("Object %s already exists, skipping creation", res.Name)
		res.Status = StatusAlready
		return res, nil
	}

	e.console.Errorf("✗ Error executing object %s in schema %s: %s", res.Name, res.Namespace, msg)
	res.Status = StatusError
	if lastSQL == "" {
		return res, nil
	}
	return res, &FailedStatement{
		Namespace: res.Namespace,
		Name:      res.Name,
		SQL:       lastSQL,
		Detail:    msg,
		FilePath:  res.FilePath,
		WorkerID:  res.WorkerID,
	}
}

// flatten puts a multi-line driver message on one line.
func flatten(s string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(s, "\n", " ")), " ")
}
