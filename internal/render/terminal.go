package render

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"treemind/internal/geom"
	"treemind/internal/mindmap"
)

// DefaultCell is how many screen units one terminal cell covers.
var DefaultCell = geom.Size{W: 10, H: 20}

type cellStyle struct {
	color mindmap.Color
	kind  uint8
}

const (
	kindBlank uint8 = iota
	kindEdge
	kindBorder
	kindSelected
	kindText
	kindDone
)

// Terminal draws scenes onto a character grid. Screen space is divided into
// cells of Cell size; a cell holds the last rune drawn into it.
type Terminal struct {
	cols, rows int
	cell       geom.Size
	runes      [][]rune
	styles     [][]cellStyle
}

func NewTerminal(cols, rows int, cell geom.Size) *Terminal {
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	if cell.Empty() {
		cell = DefaultCell
	}
	t := &Terminal{cols: cols, rows: rows, cell: cell}
	t.runes = make([][]rune, rows)
	t.styles = make([][]cellStyle, rows)
	for i := range t.runes {
		t.runes[i] = make([]rune, cols)
		t.styles[i] = make([]cellStyle, cols)
		for j := range t.runes[i] {
			t.runes[i][j] = ' '
		}
	}
	return t
}

// ViewSize is the screen-space size covered by the grid.
func (t *Terminal) ViewSize() geom.Size {
	return geom.Size{W: float64(t.cols) * t.cell.W, H: float64(t.rows) * t.cell.H}
}

// CellCenter maps a grid cell to the screen point at its center.
func CellCenter(col, row int, cell geom.Size) geom.Point {
	return geom.Point{
		X: (float64(col) + 0.5) * cell.W,
		Y: (float64(row) + 0.5) * cell.H,
	}
}

func (t *Terminal) toCell(p geom.Point) (int, int) {
	return int(math.Floor(p.X / t.cell.W)), int(math.Floor(p.Y / t.cell.H))
}

func (t *Terminal) set(col, row int, r rune, st cellStyle) {
	if row < 0 || row >= t.rows || col < 0 || col >= t.cols {
		return
	}
	t.runes[row][col] = r
	t.styles[row][col] = st
}

func (t *Terminal) DrawEdge(e Edge) {
	fc, fr := t.toCell(e.From)
	tc, tr := t.toCell(e.To)
	steps := 2*(abs(tc-fc)+abs(tr-fr)) + 1
	st := cellStyle{color: e.Color, kind: kindEdge}
	for i := 0; i <= steps; i++ {
		p := geom.Quad(e.From, e.Ctrl, e.To, float64(i)/float64(steps))
		c, r := t.toCell(p)
		t.set(c, r, '·', st)
	}
}

func (t *Terminal) DrawBubble(b Bubble) {
	rect := b.Rect()
	x0, y0 := t.toCell(rect.Min)
	x1, y1 := t.toCell(rect.Max)
	if x1-x0 < 2 {
		x1 = x0 + 2
	}
	if y1-y0 < 2 {
		y1 = y0 + 2
	}

	tl, tr, bl, br, h, v := '╭', '╮', '╰', '╯', '─', '│'
	kind := kindBorder
	if b.Selected {
		tl, tr, bl, br, h, v = '┏', '┓', '┗', '┛', '━', '┃'
		kind = kindSelected
	}
	border := cellStyle{color: b.Color, kind: kind}
	blank := cellStyle{color: b.Color, kind: kindBlank}

	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			switch {
			case y == y0 && x == x0:
				t.set(x, y, tl, border)
			case y == y0 && x == x1:
				t.set(x, y, tr, border)
			case y == y1 && x == x0:
				t.set(x, y, bl, border)
			case y == y1 && x == x1:
				t.set(x, y, br, border)
			case y == y0 || y == y1:
				t.set(x, y, h, border)
			case x == x0 || x == x1:
				t.set(x, y, v, border)
			default:
				t.set(x, y, ' ', blank)
			}
		}
	}

	title := []rune(b.Title)
	if b.Completed {
		title = append([]rune("✓ "), title...)
	}
	width := x1 - x0 - 1
	if len(title) > width {
		if width <= 1 {
			title = title[:max(width, 0)]
		} else {
			title = append(title[:width-1], '…')
		}
	}
	text := cellStyle{color: b.Color, kind: kindText}
	if b.Completed {
		text.kind = kindDone
	}
	row := (y0 + y1) / 2
	start := x0 + 1 + (width-len(title))/2
	for i, r := range title {
		t.set(start+i, row, r, text)
	}
}

func (s cellStyle) render(text string) string {
	if s.kind == kindBlank {
		return text
	}
	st := lipgloss.NewStyle().Foreground(TermColor(s.color))
	switch s.kind {
	case kindEdge, kindDone:
		st = st.Faint(true)
	case kindSelected:
		st = st.Bold(true)
	}
	return st.Render(text)
}

// Lines returns the grid as styled strings, one per row.
func (t *Terminal) Lines() []string {
	out := make([]string, t.rows)
	for i := range t.runes {
		var line strings.Builder
		var run []rune
		cur := t.styles[i][0]
		for j, r := range t.runes[i] {
			if st := t.styles[i][j]; st != cur {
				line.WriteString(cur.render(string(run)))
				run = run[:0]
				cur = st
			}
			run = append(run, r)
		}
		line.WriteString(cur.render(string(run)))
		out[i] = line.String()
	}
	return out
}

// Plain returns the grid without styling.
func (t *Terminal) Plain() []string {
	out := make([]string, t.rows)
	for i, row := range t.runes {
		out[i] = string(row)
	}
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
