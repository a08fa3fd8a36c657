package tui

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"treemind/internal/editor"
	"treemind/internal/geom"
	"treemind/internal/mindmap"
	"treemind/internal/store"
)

type fakeClipboard struct {
	text string
	err  error
}

func (c *fakeClipboard) ReadAll() (string, error) { return c.text, c.err }

func (c *fakeClipboard) WriteAll(text string) error {
	if c.err != nil {
		return c.err
	}
	c.text = text
	return nil
}

type harness struct {
	m   Model
	ed  *editor.Editor
	mem *store.Memory
	cb  *fakeClipboard
}

func newHarness(t *testing.T, confirmations bool) *harness {
	t.Helper()
	quiet := log.New(io.Discard)
	mem := store.NewMemory(nil)
	tree := mindmap.New(mindmap.WithSaver(mem), mindmap.WithLogger(quiet))
	ed := editor.New(tree, editor.Options{Logger: quiet})
	cb := &fakeClipboard{}
	h := &harness{ed: ed, mem: mem, cb: cb}
	h.m = New(ed, Options{
		Path:          filepath.Join(t.TempDir(), "ideas.tmm"),
		Confirmations: confirmations,
		Clipboard:     cb,
		Logger:        quiet,
	})
	// 80×31 cells of 10×20 leaves an 800×600 canvas above the status line
	h.send(tea.WindowSizeMsg{Width: 80, Height: 31})
	return h
}

func (h *harness) send(msg tea.Msg) tea.Cmd {
	next, cmd := h.m.Update(msg)
	h.m = next.(Model)
	return cmd
}

func (h *harness) key(s string) tea.Cmd {
	switch s {
	case "enter":
		return h.send(tea.KeyMsg{Type: tea.KeyEnter})
	case "esc":
		return h.send(tea.KeyMsg{Type: tea.KeyEscape})
	}
	return h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func (h *harness) mouse(x, y int, action tea.MouseAction, button tea.MouseButton) {
	h.send(tea.MouseMsg{X: x, Y: y, Action: action, Button: button})
}

func TestResizeCentersRoot(t *testing.T) {
	h := newHarness(t, true)
	assert.Equal(t, geom.Size{W: 800, H: 600}, h.ed.View())
	root := h.ed.Tree().Root()
	assert.Equal(t, geom.Point{X: 400, Y: 300}, h.ed.Viewport().ToScreen(geom.Point{X: root.X, Y: root.Y}))
}

func TestAddAndConfirmDelete(t *testing.T) {
	h := newHarness(t, true)
	h.key("a")
	require.Equal(t, 2, h.ed.Tree().Len())

	h.key("d")
	assert.Equal(t, ModeConfirm, h.m.mode)
	assert.Contains(t, h.m.View(), "Delete this node?")
	h.key("n")
	assert.Equal(t, ModeNormal, h.m.mode)
	assert.Equal(t, 2, h.ed.Tree().Len())

	h.key("d")
	h.key("y")
	assert.Equal(t, 1, h.ed.Tree().Len())
	assert.Equal(t, "Deleted", h.m.successMessage)
}

func TestDeleteWithoutSelection(t *testing.T) {
	h := newHarness(t, false)
	h.key("d")
	assert.Equal(t, ModeNormal, h.m.mode)
	assert.Equal(t, editor.ErrNoSelection.Error(), h.m.errorMessage)
}

func TestClearWithoutConfirmations(t *testing.T) {
	h := newHarness(t, false)
	h.key("a")
	h.key("a")
	h.key("X")
	assert.Equal(t, 1, h.ed.Tree().Len())
}

func TestArrangeRunsAsCommand(t *testing.T) {
	h := newHarness(t, false)
	h.key("a")
	h.key("esc")
	h.key("a")

	cmd := h.key("A")
	require.NotNil(t, cmd)
	assert.True(t, h.m.arranging)
	h.send(cmd())
	assert.False(t, h.m.arranging)
	assert.Equal(t, h.ed.Tree().RootID(), h.ed.Focus())
	assert.Equal(t, "Arranged 3 nodes", h.m.successMessage)

	for _, n := range h.ed.Tree().Nodes() {
		if n.IsRoot() {
			continue
		}
		root := h.ed.Tree().Root()
		assert.InDelta(t, 200, n.Y-root.Y, 1e-9)
	}
}

func TestEditTitle(t *testing.T) {
	h := newHarness(t, true)
	h.key("a")
	h.key("e")
	assert.Equal(t, ModeEditing, h.m.mode)
	h.key("!")
	h.key("enter")
	assert.Equal(t, ModeNormal, h.m.mode)
	n, _ := h.ed.Tree().Node(h.ed.Focus())
	assert.Equal(t, "New idea!", n.Title)

	h.key("e")
	h.key("?")
	h.key("esc")
	n, _ = h.ed.Tree().Node(h.ed.Focus())
	assert.Equal(t, "New idea!", n.Title, "escape discards the edit")
}

func TestToggleAndColorKeys(t *testing.T) {
	h := newHarness(t, true)
	h.key(" ")
	h.key("c")
	root := h.ed.Tree().Root()
	assert.True(t, root.Completed)
	assert.Equal(t, mindmap.ColorBlue, root.Color)
}

func TestZoomAndPanKeys(t *testing.T) {
	h := newHarness(t, true)
	h.key("+")
	assert.InDelta(t, 1.2, h.ed.Viewport().Scale(), 1e-9)
	h.key("-")
	assert.InDelta(t, 1.0, h.ed.Viewport().Scale(), 1e-9)

	before := h.ed.Viewport().Offset()
	h.key("H")
	after := h.ed.Viewport().Offset()
	assert.InDelta(t, before.X+4*10*0.25, after.X, 1e-9)
	h.key("0")
	assert.Equal(t, before, h.ed.Viewport().Offset())
}

func TestPbpasteFallsBackToPlainCall(t *testing.T) {
	var calls [][]string
	run := func(name string, args ...string) ([]byte, error) {
		calls = append(calls, append([]string{name}, args...))
		if len(args) > 0 {
			return nil, errors.New("no text flavor")
		}
		return []byte("plain"), nil
	}
	text, ok := pbpaste(run)
	require.True(t, ok)
	assert.Equal(t, "plain", text)
	assert.Equal(t, [][]string{{"pbpaste", "-Prefer", "txt"}, {"pbpaste"}}, calls)

	_, ok = pbpaste(func(string, ...string) ([]byte, error) { return nil, errors.New("missing") })
	assert.False(t, ok)
}

func TestReorderKeys(t *testing.T) {
	h := newHarness(t, true)
	h.key("a")
	first, _ := h.ed.Selected()
	h.key("esc")
	h.key("a")
	second, _ := h.ed.Selected()

	h.key("[")
	root := h.ed.Tree().RootID()
	assert.Equal(t, []mindmap.NodeID{second, first}, h.ed.Tree().Children(root))
	h.key("$")
	assert.Equal(t, first, h.ed.Focus())
	h.key("g")
	assert.Equal(t, root, h.ed.Focus())
	h.key("esc")
	h.key("]")
	assert.Equal(t, editor.ErrNoSelection.Error(), h.m.errorMessage)
}

func TestClipboard(t *testing.T) {
	h := newHarness(t, true)
	h.key("y")
	assert.Equal(t, mindmap.RootTitle, h.cb.text)

	h.cb.text = "  first line\r\nsecond\tline \x07"
	h.key("p")
	assert.Equal(t, "first line second line", h.ed.Tree().Root().Title)

	h.cb.text = " \n "
	h.key("p")
	assert.Equal(t, errEmptyClipboard.Error(), h.m.errorMessage)

	h.cb.err = errors.New("no clipboard")
	h.key("y")
	assert.Contains(t, h.m.errorMessage, "no clipboard")
}

func TestMouseTapAndDrag(t *testing.T) {
	h := newHarness(t, true)
	h.key("a")
	h.key("esc")
	child := h.ed.Tree().Nodes()[1]

	// root at screen (400, 300) is cell (40, 15); the child at (620, 300)
	// is cell (62, 15)
	h.mouse(40, 15, tea.MouseActionPress, tea.MouseButtonLeft)
	h.mouse(40, 15, tea.MouseActionRelease, tea.MouseButtonNone)
	id, ok := h.ed.Selected()
	require.True(t, ok)
	assert.Equal(t, h.ed.Tree().RootID(), id)

	saves := h.mem.Saves()
	h.mouse(62, 15, tea.MouseActionPress, tea.MouseButtonLeft)
	h.mouse(66, 15, tea.MouseActionMotion, tea.MouseButtonLeft)
	h.mouse(72, 15, tea.MouseActionMotion, tea.MouseButtonLeft)
	assert.Equal(t, saves, h.mem.Saves())
	h.mouse(72, 15, tea.MouseActionRelease, tea.MouseButtonNone)
	assert.Equal(t, saves+1, h.mem.Saves())

	n, _ := h.ed.Tree().Node(child.ID)
	assert.InDelta(t, child.X+100*0.35, n.X, 1e-9)
	assert.Equal(t, child.Y, n.Y)
}

func TestMouseRightClickCancelsDrag(t *testing.T) {
	h := newHarness(t, true)
	root := h.ed.Tree().Root()
	h.mouse(40, 15, tea.MouseActionPress, tea.MouseButtonLeft)
	h.mouse(50, 20, tea.MouseActionMotion, tea.MouseButtonLeft)
	h.mouse(50, 20, tea.MouseActionPress, tea.MouseButtonRight)
	assert.Equal(t, root, h.ed.Tree().Root())
	assert.Zero(t, h.ed.Controller().Active())
}

func TestMouseWheelZooms(t *testing.T) {
	h := newHarness(t, true)
	h.mouse(10, 10, tea.MouseActionPress, tea.MouseButtonWheelUp)
	assert.InDelta(t, 1.1, h.ed.Viewport().Scale(), 1e-9)
	h.mouse(10, 10, tea.MouseActionPress, tea.MouseButtonWheelDown)
	assert.InDelta(t, 1.0, h.ed.Viewport().Scale(), 1e-9)
}

func TestExportWritesPDF(t *testing.T) {
	quiet := log.New(io.Discard)
	tree := mindmap.New(mindmap.WithExtent(300), mindmap.WithLogger(quiet))
	ed := editor.New(tree, editor.Options{Logger: quiet})
	dir := t.TempDir()
	h := &harness{ed: ed, m: New(ed, Options{Path: filepath.Join(dir, "ideas.tmm"), Logger: quiet})}
	h.send(tea.WindowSizeMsg{Width: 40, Height: 20})

	cmd := h.key("E")
	require.NotNil(t, cmd)
	h.send(cmd())

	want := filepath.Join(dir, "ideas.pdf")
	assert.Equal(t, "Exported to "+want, h.m.successMessage)
	data, err := os.ReadFile(want)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "%PDF"))
}

func TestExportPath(t *testing.T) {
	tests := []struct {
		tree, dir, want string
	}{
		{"maps/ideas.tmm", "", "maps/ideas.pdf"},
		{"ideas.yaml", "", "ideas.pdf"},
		{"maps/ideas.tmm", "/out", "/out/ideas.pdf"},
		{"", "", "treemind.pdf"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExportPath(tt.tree, tt.dir))
	}
}

func TestViewShowsStatus(t *testing.T) {
	h := newHarness(t, true)
	view := h.m.View()
	lines := strings.Split(view, "\n")
	assert.Len(t, lines, 31)
	assert.Contains(t, lines[30], "NORMAL")
	assert.Contains(t, view, mindmap.RootTitle)

	h.key("?")
	assert.Contains(t, h.m.View(), "treemind help")
	h.key("z")
	assert.Equal(t, ModeNormal, h.m.mode)
}
