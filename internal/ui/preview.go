package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/corpeningc/maintkit/internal/git"
)

// PreviewModel shows, for every resolved file, each conflict section and the side the
// heuristic kept.
type PreviewModel struct {
	results  []git.FileResult
	content  string
	viewport viewport.Model
	ready    bool

	// Styles
	titleStyle   lipgloss.Style
	headerStyle  lipgloss.Style
	keptStyle    lipgloss.Style
	droppedStyle lipgloss.Style
	helpStyle    lipgloss.Style
}

func NewPreviewModel(results []git.FileResult) PreviewModel {
	vp := viewport.New(0, 0)
	vp.Style = lipgloss.NewStyle()

	m := PreviewModel{
		results:  results,
		viewport: vp,

		titleStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")),

		headerStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")),

		keptStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("46")),

		droppedStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Strikethrough(true),

		helpStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")),
	}
	m.content = m.render()
	return m
}

func (m PreviewModel) Init() tea.Cmd {
	return nil
}

func (m PreviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		headerHeight := 4 // Title + help + borders
		if !m.ready {
			m.viewport = viewport.New(msg.Width-2, msg.Height-headerHeight)
			m.viewport.Style = lipgloss.NewStyle()
			m.ready = true
		} else {
			m.viewport.Width = msg.Width - 2
			m.viewport.Height = msg.Height - headerHeight
		}
		m.viewport.SetContent(m.content)

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit

		case "j", "down":
			m.viewport.ScrollDown(1)

		case "k", "up":
			m.viewport.ScrollUp(1)

		case "d", "ctrl+d":
			m.viewport.HalfPageDown()

		case "u", "ctrl+u":
			m.viewport.HalfPageUp()

		case "g", "home":
			m.viewport.GotoTop()

		case "G", "end":
			m.viewport.GotoBottom()
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m PreviewModel) View() string {
	if !m.ready {
		return "Loading preview..."
	}

	var sections []string

	title := m.titleStyle.Render(fmt.Sprintf("Conflict preview - %d file(s)", len(m.results)))
	sections = append(sections, title)

	sections = append(sections, m.viewport.View())

	help := m.helpStyle.Render("j/k: line by line | d/u: half page | g/G: top/bottom | q: done")
	sections = append(sections, help)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// Content is the full preview text shown in the viewport.
func (m PreviewModel) Content() string {
	return m.content
}

func (m PreviewModel) render() string {
	var b strings.Builder

	for _, r := range m.results {
		if len(r.Resolutions) == 0 {
			continue
		}
		b.WriteString(m.headerStyle.Render(fmt.Sprintf("── %s (%d section(s))", r.Path, len(r.Resolutions))))
		b.WriteString("\n")

		for i, res := range r.Resolutions {
			fmt.Fprintf(&b, "#%d lines %d-%d: keep %s [%s]\n",
				i+1, res.Section.StartLine, res.Section.EndLine, res.Choice, res.Rule)

			ours, theirs := m.droppedStyle, m.keptStyle
			if res.Choice == git.ChooseOurs {
				ours, theirs = m.keptStyle, m.droppedStyle
			}
			writeBlock(&b, "<", res.Section.OurChanges, ours)
			writeBlock(&b, ">", res.Section.TheirChanges, theirs)
			b.WriteString("\n")
		}
	}

	if b.Len() == 0 {
		return m.helpStyle.Render("No conflict sections found.")
	}
	return b.String()
}

func writeBlock(b *strings.Builder, prefix, text string, style lipgloss.Style) {
	for _, l := range strings.Split(text, "\n") {
		b.WriteString(style.Render(prefix + " " + l))
		b.WriteString("\n")
	}
}

func ShowPreview(results []git.FileResult) error {
	m := NewPreviewModel(results)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
