// Package console prints the human-facing side of a deployment run: one
// colored line per event, plus an optional progress bar pinned below them
// when writing to a terminal.
//
// Lines are written atomically; any number of workers may print at once.
package console

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// clearLine returns the cursor to column 0 and erases the line.
const clearLine = "\r\x1b[2K"

// Printer writes colored status lines.
type Printer struct {
	mu     sync.Mutex
	w      io.Writer
	tty    bool
	status string // transient line redrawn below every message

	info    lipgloss.Style
	success lipgloss.Style
	warn    lipgloss.Style
	fail    lipgloss.Style
	bold    lipgloss.Style
}

// New returns a Printer for w. Colors are used only when w is a terminal
// that supports them.
func New(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		w:       w,
		tty:     isTTYWriter(w),
		info:    r.NewStyle().Foreground(lipgloss.Color("12")),
		success: r.NewStyle().Foreground(lipgloss.Color("10")),
		warn:    r.NewStyle().Foreground(lipgloss.Color("11")),
		fail:    r.NewStyle().Foreground(lipgloss.Color("9")),
		bold:    r.NewStyle().Bold(true),
	}
}

// isTTYWriter reports whether w is a terminal.
func isTTYWriter(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Infof prints a blue line.
func (p *Printer) Infof(format string, args ...any) { p.emit(p.info, format, args...) }

// Successf prints a green line.
func (p *Printer) Successf(format string, args ...any) { p.emit(p.success, format, args...) }

// Warnf prints a yellow line.
func (p *Printer) Warnf(format string, args ...any) { p.emit(p.warn, format, args...) }

// Errorf prints a red line.
func (p *Printer) Errorf(format string, args ...any) { p.emit(p.fail, format, args...) }

// Plainf prints an unstyled line.
func (p *Printer) Plainf(format string, args ...any) { p.emit(lipgloss.NewStyle(), format, args...) }

func (p *Printer) emit(style lipgloss.Style, format string, args ...any) {
	line := style.Render(fmt.Sprintf(format, args...))

	p.mu.Lock()
	defer p.mu.Unlock()
	p.hideStatus()
	fmt.Fprintln(p.w, line)
	p.showStatus()
}

// setStatus replaces the transient status line. Ignored off-terminal.
func (p *Printer) setStatus(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.tty {
		return
	}
	p.status = s
	fmt.Fprint(p.w, clearLine+s)
}

// clearStatus removes the transient status line for good.
func (p *Printer) clearStatus() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hideStatus()
	p.status = ""
}

// caller holds p.mu
func (p *Printer) hideStatus() {
	if p.tty && p.status != "" {
		fmt.Fprint(p.w, clearLine)
	}
}

// caller holds p.mu
func (p *Printer) showStatus() {
	if p.tty && p.status != "" {
		fmt.Fprint(p.w, p.status)
	}
}
