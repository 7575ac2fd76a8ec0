package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"objdeploy/internal/deploy"
)

func sample() []deploy.Result {
	return []deploy.Result{
		{Namespace: "SALES", Name: "V_ORDERS", Status: deploy.StatusOK, FilePath: "views/v_orders.sql", WorkerID: "worker-0"},
		{Namespace: "SALES", Name: "V_BAD", Status: deploy.StatusError, Detail: `invalid identifier "X", at line 2`, FilePath: "views/v_bad.sql", WorkerID: "worker-1"},
		{Namespace: "unknown", Name: "blank", Status: deploy.StatusEmpty, FilePath: "blank.sql", WorkerID: "worker-2"},
		{Namespace: "HR", Name: "HR", Status: deploy.StatusAlready, Detail: "Object 'HR' already exists.", FilePath: "hr.sql", WorkerID: "worker-0"},
	}
}

func TestWriteCSV(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out", "report.csv")
	require.NoError(t, WriteCSV(path, sample()))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	recs, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, recs, 5)
	assert.Equal(t, []string{"schema", "view_name", "status", "exception", "file_path", "thread_id"}, recs[0])
	assert.Equal(t, []string{"SALES", "V_BAD", "error", `invalid identifier "X", at line 2`, "views/v_bad.sql", "worker-1"}, recs[2])
	assert.Equal(t, []string{"unknown", "blank", "empty", "", "blank.sql", "worker-2"}, recs[3])
}

func TestWriteCSV_EmptyRun(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "report.csv")
	require.NoError(t, WriteCSV(path, nil))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "schema,view_name,status,exception,file_path,thread_id\n", string(b))
}

func TestWriteCSV_Unwritable(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))
	require.Error(t, WriteCSV(filepath.Join(blocker, "report.csv"), sample()))
}

func TestWriteFailedSQL(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "failed.sql")
	err := WriteFailedSQL(path, []deploy.FailedStatement{
		{Namespace: "S", Name: "V1", SQL: "CREATE VIEW \"S\".\"V1\" AS SELECT x", Detail: "no such column x", FilePath: "v1.sql", WorkerID: "worker-3"},
		{Namespace: "S", Name: "V2", SQL: "GRANT SELECT ON v2 TO r;", Detail: "role r missing", FilePath: "v2.sql", WorkerID: "worker-0"},
	})
	require.NoError(t, err)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	want := "-- S.V1 (v1.sql, worker-3)\n" +
		"-- error: no such column x\n" +
		"CREATE VIEW \"S\".\"V1\" AS SELECT x;\n" +
		"\n" +
		"-- S.V2 (v2.sql, worker-0)\n" +
		"-- error: role r missing\n" +
		"GRANT SELECT ON v2 TO r;\n"
	assert.Equal(t, want, string(b))
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1, ExitCode(sample()))
	assert.Equal(t, 0, ExitCode(sample()[2:]))
	assert.Equal(t, 0, ExitCode(nil))
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	s := Summarize(sample())
	assert.Equal(t, 4, s.Total)
	require.Len(t, s.Lines, 4)

	var order []deploy.Status
	sum := 0.0
	for _, l := range s.Lines {
		order = append(order, l.Status)
		sum += l.Percent
		assert.Equal(t, 1, l.Count)
	}
	assert.Equal(t, deploy.Statuses, order)
	assert.InDelta(t, 100.0, sum, 0.01)
	require.Len(t, s.Errors, 1)
	assert.Equal(t, "V_BAD", s.Errors[0].Name)
}

func TestSummarize_OmitsZeroCounts(t *testing.T) {
	t.Parallel()

	results := []deploy.Result{
		{Status: deploy.StatusOK}, {Status: deploy.StatusOK}, {Status: deploy.StatusError},
	}
	s := Summarize(results)
	require.Len(t, s.Lines, 2)
	assert.Equal(t, deploy.StatusOK, s.Lines[0].Status)
	assert.InDelta(t, 66.67, s.Lines[0].Percent, 0.01)
	assert.Equal(t, deploy.StatusError, s.Lines[1].Status)

	assert.Empty(t, Summarize(nil).Lines)
}

func TestPrintSummary(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	PrintSummary(&buf, Summarize(sample()))
	out := buf.String()

	assert.Contains(t, out, "Deployment Summary")
	assert.Contains(t, out, "TOTAL")
	assert.Contains(t, out, "25.0%")
	assert.Contains(t, out, "100.0%")
	assert.Contains(t, out, `SALES.V_BAD: invalid identifier "X", at line 2`)
	assert.NotContains(t, out, "more errors")
	assert.NotContains(t, out, "\x1b[", "no escape codes off-terminal")
	assert.Less(t, strings.Index(out, "ok"), strings.Index(out, "error"))
}

func TestPrintSummary_TruncatesErrors(t *testing.T) {
	t.Parallel()

	var results []deploy.Result
	for i := range 13 {
		results = append(results, deploy.Result{Namespace: "S", Name: fmt.Sprintf("V%d", i), Status: deploy.StatusError, Detail: "boom"})
	}
	var buf bytes.Buffer
	PrintSummary(&buf, Summarize(results))
	out := buf.String()

	assert.Contains(t, out, "S.V9: boom")
	assert.NotContains(t, out, "S.V10: boom")
	assert.Contains(t, out, "... and 3 more errors (see CSV for full details)")
}

func TestPrintSummary_TruncatesLongDetail(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", MaxDetailWidth+50)
	var buf bytes.Buffer
	PrintSummary(&buf, Summarize([]deploy.Result{
		{Namespace: "S", Name: "V", Status: deploy.StatusError, Detail: long},
	}))
	out := buf.String()

	assert.Contains(t, out, "S.V: "+strings.Repeat("x", MaxDetailWidth-3)+"...\n")
	assert.NotContains(t, out, long)
}
