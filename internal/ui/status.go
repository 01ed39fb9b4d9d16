package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/corpeningc/maintkit/internal/git"
	"github.com/corpeningc/maintkit/internal/kvaudit"
	"github.com/corpeningc/maintkit/internal/schema"
)

const (
	iconOK      = "✅"
	iconWarn    = "⚠️"
	iconMissing = "❌"
)

// Printer writes the human-facing status lines. Colors follow the terminal capabilities
// of w, so a buffer gets plain text.
type Printer struct {
	w io.Writer

	titleStyle   lipgloss.Style
	successStyle lipgloss.Style
	warnStyle    lipgloss.Style
	errorStyle   lipgloss.Style
	pathStyle    lipgloss.Style
	helpStyle    lipgloss.Style
}

func NewPrinter(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)

	return &Printer{
		w: w,

		titleStyle: r.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true),

		successStyle: r.NewStyle().
			Foreground(lipgloss.Color("46")),

		warnStyle: r.NewStyle().
			Foreground(lipgloss.Color("214")),

		errorStyle: r.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true),

		pathStyle: r.NewStyle().
			Foreground(lipgloss.Color("39")),

		helpStyle: r.NewStyle().
			Foreground(lipgloss.Color("245")),
	}
}

func (p *Printer) Title(format string, args ...any) {
	fmt.Fprintln(p.w, p.titleStyle.Render(fmt.Sprintf(format, args...)))
}

func (p *Printer) Info(format string, args ...any) {
	fmt.Fprintln(p.w, fmt.Sprintf(format, args...))
}

func (p *Printer) Hint(format string, args ...any) {
	fmt.Fprintln(p.w, p.helpStyle.Render(fmt.Sprintf(format, args...)))
}

func (p *Printer) Success(format string, args ...any) {
	fmt.Fprintln(p.w, p.successStyle.Render(iconOK+" "+fmt.Sprintf(format, args...)))
}

func (p *Printer) Warning(format string, args ...any) {
	fmt.Fprintln(p.w, p.warnStyle.Render(iconWarn+"  "+fmt.Sprintf(format, args...)))
}

func (p *Printer) Error(format string, args ...any) {
	fmt.Fprintln(p.w, p.errorStyle.Render(iconMissing+" "+fmt.Sprintf(format, args...)))
}

// FileResult prints the one status line for a resolved target.
func (p *Printer) FileResult(target string, r git.FileResult) {
	line := fmt.Sprintf("%s: %s", p.pathStyle.Render(target), r.Message())

	switch r.Status {
	case git.StatusResolved:
		fmt.Fprintln(p.w, iconOK+" "+line)
	case git.StatusNotFound:
		fmt.Fprintln(p.w, iconMissing+" "+line)
	default:
		fmt.Fprintln(p.w, iconWarn+" "+line)
	}
}

func (p *Printer) Statement(ev schema.Event) {
	fmt.Fprintln(p.w)
	p.Info("[%d/%d] Executing statement...", ev.Index, ev.Total)
	p.Hint("Preview: %s", ev.Preview())

	switch {
	case ev.Skipped:
		p.Hint("skipped (too short)")
	case ev.Err != nil:
		p.Warning("%v", ev.Err)
	default:
		p.Success("Success")
	}
}

func (p *Printer) SchemaSummary(s schema.Summary) {
	const rule = "=================================================="
	fmt.Fprintln(p.w)
	p.Info(rule)
	p.Success("Successful: %d", s.Succeeded)
	p.Error("Errors: %d", s.Failed)
	if s.Skipped > 0 {
		p.Hint("Skipped: %d", s.Skipped)
	}
	p.Info(rule)
}

func (p *Printer) KVReport(r kvaudit.FileReport) {
	switch r.Status {
	case kvaudit.NeedsMigration:
		msg := fmt.Sprintf("%s: %d KV call(s), needs migration", p.pathStyle.Render(r.Path), r.KVCalls)
		if r.Stamped {
			msg += " (marked)"
		}
		p.Warning("%s", msg)
	case kvaudit.MigratedClean:
		p.Success("%s: marked MIGRATED, no KV usage", p.pathStyle.Render(r.Path))
	default:
		p.Info("   %s: no KV usage", p.pathStyle.Render(r.Path))
	}
}
