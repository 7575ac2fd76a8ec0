package console

import (
	"fmt"
	"sync/atomic"

	"github.com/charmbracelet/bubbles/progress"
)

// Progress counts finished units of work and, on a terminal, keeps a bar
// below the status lines. Done may be called from any goroutine.
type Progress struct {
	p     *Printer
	label string
	total int
	done  atomic.Int64
	bar   progress.Model
}

// NewProgress starts a progress display for total units.
func (p *Printer) NewProgress(label string, total int) *Progress {
	g := &Progress{
		p:     p,
		label: label,
		total: total,
		bar:   progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
	}
	g.render(0)
	return g
}

// Done records one finished unit.
func (g *Progress) Done() {
	g.render(g.done.Add(1))
}

// Completed returns the number of Done calls so far.
func (g *Progress) Completed() int {
	return int(g.done.Load())
}

// Finish removes the bar.
func (g *Progress) Finish() {
	g.p.clearStatus()
}

func (g *Progress) render(n int64) {
	if !g.p.tty {
		return
	}
	pct := 1.0
	if g.total > 0 {
		pct = float64(n) / float64(g.total)
	}
	g.p.setStatus(fmt.Sprintf("%s %s %d/%d", g.label, g.bar.ViewAs(pct), n, g.total))
}
