// Package tui is the terminal host: a bubbletea program that draws the
// editor's scene on a character grid and maps keys and mouse events onto
// editor commands and pointer gestures.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"treemind/internal/arrange"
	"treemind/internal/editor"
	"treemind/internal/geom"
	"treemind/internal/render"
)

type Mode int

const (
	ModeNormal Mode = iota
	ModeEditing
	ModeConfirm
	ModeHelp
)

type ConfirmAction int

const (
	ConfirmDelete ConfirmAction = iota
	ConfirmClear
	ConfirmArrange
)

type Options struct {
	// Path of the tree file; exports are written next to it.
	Path string
	// SaveDirectory overrides where exports go.
	SaveDirectory string
	Confirmations bool
	Clipboard     Clipboard
	Cell          geom.Size
	Logger        *log.Logger
}

type Model struct {
	ed     *editor.Editor
	opts   Options
	logger *log.Logger

	width  int
	height int
	mode   Mode

	confirmAction ConfirmAction
	input         textinput.Model

	arranging      bool
	successMessage string
	errorMessage   string
}

type arrangedMsg struct{ res arrange.Result }

type exportedMsg struct {
	path string
	err  error
}

func New(ed *editor.Editor, opts Options) Model {
	if opts.Cell.Empty() {
		opts.Cell = render.DefaultCell
	}
	if opts.Clipboard == nil {
		opts.Clipboard = SystemClipboard{}
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	in := textinput.New()
	in.Prompt = "Title: "
	in.CharLimit = 200
	in.Width = 40
	return Model{
		ed:     ed,
		opts:   opts,
		logger: opts.Logger,
		mode:   ModeNormal,
		input:  in,
	}
}

// Run starts the terminal editor and blocks until the user quits.
func Run(ed *editor.Editor, opts Options) error {
	p := tea.NewProgram(
		New(ed, opts),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ed.Resize(m.canvasView())
		m.ed.Recenter()
		return m, nil

	case tea.MouseMsg:
		if m.mode == ModeNormal {
			m.handleMouse(msg)
		}
		return m, nil

	case arrangedMsg:
		m.arranging = false
		res, err := m.ed.ApplyArrange(msg.res)
		if err != nil {
			m.fail(err)
			return m, nil
		}
		m.succeed(fmt.Sprintf("Arranged %d nodes", len(res.Positions)))
		return m, nil

	case exportedMsg:
		if msg.err != nil {
			m.fail(msg.err)
			return m, nil
		}
		m.succeed("Exported to " + msg.path)
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case ModeEditing:
			return m.handleEditKey(msg)
		case ModeConfirm:
			return m.handleConfirmKey(msg)
		case ModeHelp:
			m.mode = ModeNormal
			return m, nil
		}
		return m.handleKey(msg)
	}
	return m, nil
}

// canvasRows leaves the bottom row for the status line.
func (m Model) canvasRows() int {
	return max(m.height-1, 1)
}

func (m Model) canvasView() geom.Size {
	return geom.Size{
		W: float64(max(m.width, 1)) * m.opts.Cell.W,
		H: float64(m.canvasRows()) * m.opts.Cell.H,
	}
}

func (m *Model) succeed(msg string) {
	m.successMessage = msg
	m.errorMessage = ""
}

func (m *Model) fail(err error) {
	m.errorMessage = err.Error()
	m.successMessage = ""
	m.logger.Error("command failed", "err", err)
}

var (
	statusStyle = lipgloss.NewStyle().Reverse(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

func (m Model) View() string {
	if m.mode == ModeHelp {
		return helpView()
	}
	term := render.NewTerminal(max(m.width, 1), m.canvasRows(), m.opts.Cell)
	render.Draw(m.ed.Scene(), term)

	var b strings.Builder
	b.WriteString(strings.Join(term.Lines(), "\n"))
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	return b.String()
}

func (m Model) statusLine() string {
	switch m.mode {
	case ModeEditing:
		return m.input.View()
	case ModeConfirm:
		return statusStyle.Render("CONFIRM | " + m.confirmMessage())
	}

	tree := m.ed.Tree()
	focus, _ := tree.Node(m.ed.Focus())
	status := fmt.Sprintf("NORMAL | %d nodes | zoom %.1f | %s [%s]",
		tree.Len(), m.ed.Viewport().Scale(), focus.Title, focus.Color)
	if m.arranging {
		status += " | arranging…"
	}
	line := statusStyle.Render(status)
	switch {
	case m.errorMessage != "":
		line += " " + errorStyle.Render("ERROR: "+m.errorMessage)
	case m.successMessage != "":
		line += " " + okStyle.Render(m.successMessage)
	default:
		line += " ? for help | q to quit"
	}
	return line
}

func (m Model) confirmMessage() string {
	switch m.confirmAction {
	case ConfirmDelete:
		return "Delete this node? Its children move up. (y/n)"
	case ConfirmClear:
		return "Clear the whole map? This cannot be undone. (y/n)"
	case ConfirmArrange:
		return "Auto-arrange? Manual placement will be lost. (y/n)"
	}
	return "(y/n)"
}

func helpView() string {
	lines := []string{
		"treemind help",
		"=============",
		"",
		"  a / tab        Add child to the selected node (or root)",
		"  d / delete     Delete selected node",
		"  e / enter      Edit title",
		"  space          Toggle completed",
		"  c              Cycle color",
		"  h/l            Previous/next sibling",
		"  k/j            Parent/first child",
		"  ^ / $ / g      First sibling/last sibling/root",
		"  [ / ]          Move node before/after its sibling",
		"  H/J/K/L        Pan",
		"  + / -          Zoom in/out",
		"  0              Recenter on selection",
		"  A              Auto-arrange",
		"  X              Clear map",
		"  E              Export PDF",
		"  y / p          Copy/paste title",
		"  esc            Deselect",
		"  q              Quit",
		"",
		"Mouse: click to select, drag a node to move it, drag empty space",
		"to pan, wheel to zoom, right click to cancel a drag.",
		"",
		"Press any key to return.",
	}
	return strings.Join(lines, "\n")
}
