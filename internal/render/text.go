package render

import (
	"math"
	"strings"

	"treemind/internal/geom"
	"treemind/internal/mindmap"
)

type shifted geom.Point

func (s shifted) ToScreen(p geom.Point) geom.Point { return p.Sub(geom.Point(s)) }

func (shifted) Scale() float64 { return 1 }

// ExportText draws the tree onto a character grid cropped to its bubbles,
// with one blank cell of margin. Trailing spaces are trimmed.
func ExportText(tree *mindmap.Tree, cell geom.Size) []string {
	if cell.Empty() {
		cell = DefaultCell
	}
	bounds := Build(tree, Identity{}).Bounds()
	origin := bounds.Min.Sub(geom.Point{X: cell.W, Y: cell.H})
	cols := int(math.Floor((bounds.Max.X-bounds.Min.X)/cell.W)) + 3
	rows := int(math.Floor((bounds.Max.Y-bounds.Min.Y)/cell.H)) + 3

	term := NewTerminal(cols, rows, cell)
	Draw(Build(tree, shifted(origin)), term)
	lines := term.Plain()
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " ")
	}
	return lines
}
