package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-runewidth"

	"objdeploy/internal/deploy"
)

const (
	// MaxListedErrors caps the error details printed under the summary table.
	MaxListedErrors = 10
	// MaxDetailWidth caps each printed detail, in terminal cells. The CSV
	// keeps the full text.
	MaxDetailWidth = 200
)

// Line is one status row of a Summary.
type Line struct {
	Status  deploy.Status
	Count   int
	Percent float64
}

// Summary aggregates a deployment's results.
type Summary struct {
	Lines  []Line // fixed status order, zero counts omitted
	Total  int
	Errors []deploy.Result // error results in report order
}

// Summarize counts results per status.
func Summarize(results []deploy.Result) Summary {
	counts := make(map[deploy.Status]int, len(deploy.Statuses))
	s := Summary{Total: len(results)}
	for _, r := range results {
		counts[r.Status]++
		if r.Status == deploy.StatusError {
			s.Errors = append(s.Errors, r)
		}
	}
	for _, st := range deploy.Statuses {
		n := counts[st]
		if n == 0 {
			continue
		}
		s.Lines = append(s.Lines, Line{Status: st, Count: n, Percent: 100 * float64(n) / float64(s.Total)})
	}
	return s
}

// PrintSummary renders s as a table followed by the first MaxListedErrors
// error details. Colors are used only when w is a terminal.
func PrintSummary(w io.Writer, s Summary) {
	r := lipgloss.NewRenderer(w)
	title := r.NewStyle().Bold(true)
	head := r.NewStyle().Bold(true).Padding(0, 1)
	cell := r.NewStyle().Padding(0, 1)
	colors := map[string]lipgloss.TerminalColor{
		string(deploy.StatusOK):      lipgloss.Color("2"),
		string(deploy.StatusEmpty):   lipgloss.Color("3"),
		string(deploy.StatusAlready): lipgloss.Color("3"),
		string(deploy.StatusError):   lipgloss.Color("1"),
	}

	rows := make([][]string, 0, len(s.Lines)+1)
	for _, l := range s.Lines {
		rows = append(rows, []string{string(l.Status), strconv.Itoa(l.Count), fmt.Sprintf("%.1f%%", l.Percent)})
	}
	totalPct := "0.0%"
	if s.Total > 0 {
		totalPct = "100.0%"
	}
	rows = append(rows, []string{"TOTAL", strconv.Itoa(s.Total), totalPct})

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderRow(false).
		Headers("Status", "Count", "Percentage").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return head
			case row == len(rows)-1:
				return cell.Bold(true)
			case col == 0:
				if c, ok := colors[rows[row][0]]; ok {
					return cell.Foreground(c)
				}
			}
			return cell
		})

	fmt.Fprintln(w)
	fmt.Fprintln(w, title.Render("Deployment Summary"))
	fmt.Fprintln(w, t.String())

	if len(s.Errors) == 0 {
		return
	}
	fail := r.NewStyle().Foreground(lipgloss.Color("1"))
	fmt.Fprintln(w)
	fmt.Fprintln(w, fail.Render("Errors:"))
	for i, e := range s.Errors {
		if i == MaxListedErrors {
			fmt.Fprintf(w, "... and %d more errors (see CSV for full details)\n", len(s.Errors)-MaxListedErrors)
			break
		}
		fmt.Fprintf(w, "  %s.%s: %s\n", e.Namespace, e.Name, runewidth.Truncate(e.Detail, MaxDetailWidth, "..."))
	}
}
