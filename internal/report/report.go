// Package report writes the per-object CSV report, the failed-statement
// file and the console summary of a deployment.
package report

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"objdeploy/internal/deploy"
)

// CSVHeader is the report's column layout. Existing consumers parse these
// names, so they stay as they are.
var CSVHeader = []string{"schema", "view_name", "status", "exception", "file_path", "thread_id"}

// WriteCSV writes one row per result, in the order given.
func WriteCSV(path string, results []deploy.Result) (err error) {
	f, err := create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	w := csv.NewWriter(f)
	if err := w.Write(CSVHeader); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	for _, r := range results {
		rec := []string{r.Namespace, r.Name, string(r.Status), r.Detail, r.FilePath, r.WorkerID}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// WriteFailedSQL writes every failing statement, each preceded by comment
// lines naming the object, the file, the worker and the error, so the file
// can be fixed up and replayed.
func WriteFailedSQL(path string, failed []deploy.FailedStatement) (err error) {
	f, err := create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	w := bufio.NewWriter(f)
	for i, fs := range failed {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "-- %s.%s (%s, %s)\n", fs.Namespace, fs.Name, fs.FilePath, fs.WorkerID)
		fmt.Fprintf(w, "-- error: %s\n", fs.Detail)
		fmt.Fprintf(w, "%s;\n", strings.TrimRight(strings.TrimSpace(fs.SQL), ";"))
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// ExitCode is 1 if any result is an error, else 0.
func ExitCode(results []deploy.Result) int {
	for _, r := range results {
		if r.Status == deploy.StatusError {
			return 1
		}
	}
	return 0
}

func create(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create dir %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}
