package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// MaxThreads is the pool size above which Validate warns.
const MaxThreads = 64

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError blocks the run.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is printed but does not block the run.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding. Path is the setting's key,
// e.g. "threads" or "metrics-backend".
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Validate checks d without touching the network or the filesystem beyond
// path syntax. It does not mutate d.
func Validate(d Deploy) []Issue {
	var issues []Issue
	add := func(sev IssueSeverity, path, format string, args ...any) {
		issues = append(issues, Issue{Severity: sev, Path: path, Message: fmt.Sprintf(format, args...)})
	}

	switch {
	case strings.TrimSpace(d.Pattern) == "":
		add(SeverityError, KeyPattern, "pattern must not be empty")
	case strings.HasPrefix(d.Pattern, "@"):
		if strings.TrimSpace(d.Pattern[1:]) == "" {
			add(SeverityError, KeyPattern, "list file name missing after @")
		}
	case !doublestar.ValidatePathPattern(filepath.Clean(d.Pattern)):
		add(SeverityError, KeyPattern, "malformed pattern %q", d.Pattern)
	case !strings.HasSuffix(strings.ToLower(d.Pattern), ".sql"):
		add(SeverityWarning, KeyPattern, "pattern %q does not end in .sql; non-SQL files will be executed too", d.Pattern)
	}

	if strings.TrimSpace(d.Connection) == "" {
		add(SeverityError, KeyConnection, "connection must not be empty")
	}
	if strings.TrimSpace(d.Database) == "" {
		add(SeverityError, KeyDatabase, "database must not be empty")
	}

	switch {
	case d.Threads <= 0:
		add(SeverityError, KeyThreads, "threads must be > 0 (got %d)", d.Threads)
	case d.Threads > MaxThreads:
		add(SeverityWarning, KeyThreads, "threads=%d is unusually high; warehouses queue concurrent statements beyond a few dozen", d.Threads)
	}

	if strings.TrimSpace(d.Output) == "" {
		add(SeverityError, KeyOutput, "output must not be empty")
	}
	if d.FailedSQL != "" && filepath.Clean(d.FailedSQL) == filepath.Clean(d.Output) {
		add(SeverityError, KeyFailedSQL, "failed-sql must differ from output (%s)", d.Output)
	}

	issues = append(issues, validateMetrics(d.Metrics)...)
	return issues
}

func validateMetrics(m Metrics) []Issue {
	var issues []Issue
	switch strings.ToLower(m.Backend) {
	case "", "none":
	case "pushgateway":
		if strings.TrimSpace(m.PushgatewayURL) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     KeyPushgatewayURL,
				Message:  "pushgateway backend requires pushgateway-url",
			})
		}
	case "datadog":
		if strings.TrimSpace(m.StatsdAddr) == "" {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     KeyStatsdAddr,
				Message:  "statsd-addr not set; falling back to DD_AGENT_HOST or localhost:8125",
			})
		}
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     KeyMetricsBackend,
			Message:  fmt.Sprintf("unknown metrics backend %q (want none, pushgateway or datadog)", m.Backend),
		})
	}
	return issues
}
