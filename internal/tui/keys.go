package tui

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"treemind/internal/editor"
	"treemind/internal/geom"
)

// panCells is how far one pan key moves the view, in cells.
const panCells = 4

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.errorMessage = ""
	switch msg.String() {
	case "q", "ctrl+c":
		m.ed.Controller().CancelAll()
		return m, tea.Quit
	case "?":
		m.mode = ModeHelp
	case "esc":
		m.ed.Controller().CancelAll()
		m.ed.Deselect()
		m.successMessage = ""

	case "a", "tab":
		if _, err := m.ed.AddChild(); err != nil {
			m.fail(err)
		}
	case "d", "delete", "backspace":
		if _, ok := m.ed.Selected(); !ok {
			m.fail(editor.ErrNoSelection)
			break
		}
		return m.confirm(ConfirmDelete)
	case "X":
		return m.confirm(ConfirmClear)
	case "A":
		return m.confirm(ConfirmArrange)
	case "e", "enter":
		return m.startEditing()
	case " ", "x":
		if err := m.ed.ToggleCompleted(); err != nil {
			m.fail(err)
		}
	case "c":
		c, err := m.ed.CycleColor()
		if err != nil {
			m.fail(err)
			break
		}
		m.succeed("Color " + c.String())

	case "h", "left":
		m.ed.SelectSibling(-1)
	case "l", "right":
		m.ed.SelectSibling(1)
	case "k", "up":
		m.ed.SelectParent()
	case "j", "down":
		m.ed.SelectChild()
	case "^", "home":
		m.ed.SelectEdgeSibling(false)
	case "$", "end":
		m.ed.SelectEdgeSibling(true)
	case "g":
		m.ed.SelectRoot()
	case "[":
		if err := m.ed.MoveSibling(-1); err != nil {
			m.fail(err)
		}
	case "]":
		if err := m.ed.MoveSibling(1); err != nil {
			m.fail(err)
		}
	case "H", "shift+left":
		m.pan(panCells, 0)
	case "L", "shift+right":
		m.pan(-panCells, 0)
	case "K", "shift+up":
		m.pan(0, panCells)
	case "J", "shift+down":
		m.pan(0, -panCells)

	case "+", "=":
		m.ed.ZoomIn()
	case "-", "_":
		m.ed.ZoomOut()
	case "0":
		m.ed.Recenter()

	case "E":
		return m, m.export()
	case "y":
		m.copyTitle()
	case "p":
		m.pasteTitle()
	}
	return m, nil
}

// pan moves the view by whole cells through the viewport's pan gesture.
func (m *Model) pan(cols, rows int) {
	vp := m.ed.Viewport()
	if vp.Panning() {
		return
	}
	vp.BeginPan()
	vp.UpdatePan(geom.Point{
		X: float64(cols) * m.opts.Cell.W,
		Y: float64(rows) * m.opts.Cell.H,
	})
	vp.EndPan()
}

func (m Model) confirm(action ConfirmAction) (tea.Model, tea.Cmd) {
	if !m.opts.Confirmations {
		return m.run(action)
	}
	m.confirmAction = action
	m.mode = ModeConfirm
	return m, nil
}

func (m Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.mode = ModeNormal
	switch strings.ToLower(msg.String()) {
	case "y", "enter":
		return m.run(m.confirmAction)
	}
	m.successMessage = ""
	return m, nil
}

func (m Model) run(action ConfirmAction) (tea.Model, tea.Cmd) {
	switch action {
	case ConfirmDelete:
		if err := m.ed.Delete(); err != nil {
			m.fail(err)
			break
		}
		m.succeed("Deleted")
	case ConfirmClear:
		m.ed.Clear()
		m.succeed("Cleared")
	case ConfirmArrange:
		if m.arranging {
			break
		}
		m.arranging = true
		job := m.ed.PrepareArrange()
		return m, func() tea.Msg { return arrangedMsg{res: job()} }
	}
	return m, nil
}

func (m Model) startEditing() (tea.Model, tea.Cmd) {
	n, _ := m.ed.Tree().Node(m.ed.Focus())
	m.input.SetValue(n.Title)
	m.input.CursorEnd()
	m.mode = ModeEditing
	cmd := m.input.Focus()
	return m, cmd
}

func (m Model) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.mode = ModeNormal
		m.input.Blur()
		if err := m.ed.Rename(strings.TrimSpace(m.input.Value())); err != nil {
			m.fail(err)
		}
		return m, nil
	case "esc":
		m.mode = ModeNormal
		m.input.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// export renders synchronously, since the tree is not safe to read from
// another goroutine, and writes the file in a command.
func (m Model) export() tea.Cmd {
	doc, err := m.ed.Export()
	if err != nil {
		return func() tea.Msg { return exportedMsg{err: err} }
	}
	path := ExportPath(m.opts.Path, m.opts.SaveDirectory)
	return func() tea.Msg {
		if err := os.WriteFile(path, doc.PDF, 0o644); err != nil {
			return exportedMsg{err: fmt.Errorf("write export: %w", err)}
		}
		return exportedMsg{path: path}
	}
}

// ExportPath puts <name>.pdf next to the tree file, or into dir when set.
func ExportPath(treePath, dir string) string {
	name := "treemind"
	if treePath != "" {
		name = strings.TrimSuffix(filepath.Base(treePath), filepath.Ext(treePath))
	}
	out := name + ".pdf"
	if dir != "" {
		return filepath.Join(dir, out)
	}
	if treePath == "" {
		return out
	}
	return filepath.Join(filepath.Dir(treePath), out)
}

var errEmptyClipboard = errors.New("clipboard is empty")

func (m *Model) copyTitle() {
	n, _ := m.ed.Tree().Node(m.ed.Focus())
	if err := m.opts.Clipboard.WriteAll(n.Title); err != nil {
		m.fail(fmt.Errorf("copy: %w", err))
		return
	}
	m.succeed("Copied title")
}

func (m *Model) pasteTitle() {
	text, err := m.opts.Clipboard.ReadAll()
	if err != nil {
		m.fail(fmt.Errorf("paste: %w", err))
		return
	}
	title := cleanClipboardText(text)
	if title == "" {
		m.fail(errEmptyClipboard)
		return
	}
	if err := m.ed.Rename(title); err != nil {
		m.fail(err)
		return
	}
	m.succeed("Pasted title")
}
