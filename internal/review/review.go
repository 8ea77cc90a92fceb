// Package review provides the interactive terminal UI for stepping
// through a patch file by file and choosing what to apply.
package review

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rejig-dev/rejig/internal/patch"
)

type decision int

const (
	pending decision = iota
	approved
	skipped
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	hunkStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	addStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	deleteStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	contextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	metaStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

// Model pages through the files of one patch.
type Model struct {
	patch     *patch.Patch
	decisions []decision
	index     int
	viewport  viewport.Model
	ready     bool
	aborted   bool
	width     int
}

// NewModel creates the review model for a patch.
func NewModel(p *patch.Patch) Model {
	return Model{
		patch:     p,
		decisions: make([]decision, len(p.Files)),
		width:     80,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles key and resize events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		// Header and footer take one line each plus a separator.
		height := msg.Height - 3
		if height < 3 {
			height = 3
		}
		if !m.ready {
			m.viewport = viewport.New(msg.Width, height)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = height
		}
		m.viewport.SetContent(m.renderCurrent())
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "a", "y":
			return m.decide(approved)
		case "s":
			return m.decide(skipped)
		case "p", "left":
			if m.index > 0 {
				m.index--
				m.viewport.SetContent(m.renderCurrent())
				m.viewport.GotoTop()
			}
			return m, nil
		case "q", "ctrl+c", "esc":
			m.aborted = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) decide(d decision) (tea.Model, tea.Cmd) {
	if len(m.patch.Files) == 0 {
		return m, tea.Quit
	}
	m.decisions[m.index] = d
	if m.index == len(m.patch.Files)-1 {
		return m, tea.Quit
	}
	m.index++
	m.viewport.SetContent(m.renderCurrent())
	m.viewport.GotoTop()
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if len(m.patch.Files) == 0 {
		return "nothing to review\n"
	}

	f := &m.patch.Files[m.index]
	header := headerStyle.Render(fmt.Sprintf("rejig review — file %d/%d — %s (+%d/-%d)",
		m.index+1, len(m.patch.Files), f.Path(), f.Additions(), f.Deletions()))
	footer := footerStyle.Render("a approve · s skip · p previous · ↑/↓ scroll · q quit")

	body := m.renderCurrent()
	if m.ready {
		body = m.viewport.View()
	}
	return header + "\n" + body + "\n" + footer
}

func (m Model) renderCurrent() string {
	if len(m.patch.Files) == 0 {
		return ""
	}
	f := &m.patch.Files[m.index]
	var b strings.Builder

	switch {
	case f.IsBinary:
		b.WriteString(metaStyle.Render("binary file change") + "\n")
	case f.IsNew:
		b.WriteString(metaStyle.Render("new file") + "\n")
	case f.IsDeleted:
		b.WriteString(metaStyle.Render("deleted file") + "\n")
	case f.IsRenamed:
		b.WriteString(metaStyle.Render(fmt.Sprintf("renamed from %s", f.OldPath)) + "\n")
	}

	for i := range f.Hunks {
		h := &f.Hunks[i]
		header := fmt.Sprintf("@@ -%d,%d +%d,%d @@", h.OldStart, h.OldCount, h.NewStart, h.NewCount)
		if h.FunctionContext != "" {
			header += " " + h.FunctionContext
		}
		b.WriteString(hunkStyle.Render(header) + "\n")
		for _, c := range h.Changes {
			line := c.Kind.String() + c.Content
			switch c.Kind {
			case patch.Add:
				b.WriteString(addStyle.Render(line))
			case patch.Delete:
				b.WriteString(deleteStyle.Render(line))
			default:
				b.WriteString(contextStyle.Render(line))
			}
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// Aborted reports whether the user quit before finishing.
func (m Model) Aborted() bool {
	return m.aborted
}

// Approved returns the paths the user approved, in patch order.
func (m Model) Approved() []string {
	var paths []string
	for i, d := range m.decisions {
		if d == approved {
			paths = append(paths, m.patch.Files[i].Path())
		}
	}
	return paths
}

// Run opens the review UI and returns the subset of the patch the user
// approved. An aborted session returns (nil, nil).
func Run(p *patch.Patch) (*patch.Patch, error) {
	m := NewModel(p)
	prog := tea.NewProgram(m, tea.WithAltScreen())
	result, err := prog.Run()
	if err != nil {
		return nil, fmt.Errorf("review ui: %w", err)
	}

	final := result.(Model)
	if final.Aborted() {
		return nil, nil
	}
	return Filter(p, final.Approved()), nil
}

// Filter returns a patch containing only the files whose path is in
// keep, preserving order.
func Filter(p *patch.Patch, keep []string) *patch.Patch {
	wanted := make(map[string]bool, len(keep))
	for _, path := range keep {
		wanted[path] = true
	}
	out := &patch.Patch{Format: p.Format}
	for i := range p.Files {
		if wanted[p.Files[i].Path()] {
			out.Files = append(out.Files, p.Files[i])
		}
	}
	return out
}
