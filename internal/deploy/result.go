package deploy

import (
	"sync"
	"time"
)

// Status is the outcome of deploying one object file.
type Status string

const (
	// StatusOK means every statement in the file executed.
	StatusOK Status = "ok"
	// StatusEmpty means the file had nothing to execute. Not a failure.
	StatusEmpty Status = "empty"
	// StatusAlready means the warehouse reported the object already exists.
	// A soft skip: the run continues and the exit code is unaffected.
	StatusAlready Status = "already"
	// StatusError is a hard failure for this file.
	StatusError Status = "error"
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusOK, StatusEmpty, StatusAlready, StatusError}

// Result is produced exactly once per discovered file.
type Result struct {
	Namespace string
	Name      string
	Kind      string
	Status    Status
	Detail    string // set iff Status is StatusError or StatusAlready
	FilePath  string
	WorkerID  string

	Statements int           // statements executed successfully
	Checksum   string        // xxh3 of the raw file bytes, hex; empty if unreadable
	Duration   time.Duration // wall time spent on the file
}

// FailedStatement records the statement that broke a file.
type FailedStatement struct {
	Namespace string
	Name      string
	SQL       string
	Detail    string
	FilePath  string
	WorkerID  string
}

// Report collects results as workers finish. It is append-only; readers
// get copies.
type Report struct {
	mu      sync.Mutex
	results []Result
	failed  []FailedStatement
}

// NewReport returns an empty Report sized for n files.
func NewReport(n int) *Report {
	return &Report{results: make([]Result, 0, n)}
}

// Append adds one result and, if non-nil, the failed statement behind it.
func (r *Report) Append(res Result, failed *FailedStatement) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, res)
	if failed != nil {
		r.failed = append(r.failed, *failed)
	}
}

// Results returns the results in completion order.
func (r *Report) Results() []Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Result(nil), r.results...)
}

// Failed returns the recorded failed statements in completion order.
func (r *Report) Failed() []FailedStatement {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]FailedStatement(nil), r.failed...)
}

// Len returns the number of results.
func (r *Report) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.results)
}

// Count returns how many results have status s.
func (r *Report) Count(s Status) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, res := range r.results {
		if res.Status == s {
			n++
		}
	}
	return n
}
