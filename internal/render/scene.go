// Package render turns a mind-map tree into drawable geometry and draws it.
//
// Build produces a Scene: one quadratic Edge per parent/child pair and one
// fixed-size Bubble per node, already transformed to screen space. A Scene
// carries no styling; Renderer implementations and a Palette decide how
// tags and states look. Draw always paints every edge before any bubble so
// bubbles sit on top of the curves they connect.
//
// Export runs the same Build at scale 1 with no offset, rasterizes the
// result and wraps it in a single-page PDF, so exported geometry matches the
// live view at scale 1.
package render

import (
	"treemind/internal/geom"
	"treemind/internal/mindmap"
)

// Bubble size in canvas units.
const (
	BubbleWidth  = 180.0
	BubbleHeight = 64.0
)

// BubbleSize is the canvas-space size of every node bubble.
var BubbleSize = geom.Size{W: BubbleWidth, H: BubbleHeight}

// Transform maps canvas points to screen points. *viewport.Viewport
// satisfies it.
type Transform interface {
	ToScreen(p geom.Point) geom.Point
	Scale() float64
}

// Identity is the export transform: scale 1, no offset.
type Identity struct{}

func (Identity) ToScreen(p geom.Point) geom.Point { return p }

func (Identity) Scale() float64 { return 1 }

// Edge is a quadratic curve from the parent center to the child center with
// its control point at the straight-line midpoint.
type Edge struct {
	Parent mindmap.NodeID
	Child  mindmap.NodeID
	From   geom.Point
	Ctrl   geom.Point
	To     geom.Point
	Color  mindmap.Color
}

type Bubble struct {
	ID        mindmap.NodeID
	Center    geom.Point
	Size      geom.Size
	Title     string
	Color     mindmap.Color
	Completed bool
	Root      bool
	Selected  bool
}

func (b Bubble) Rect() geom.Rect {
	return geom.RectAround(b.Center, b.Size)
}

// Scene is the renderer-independent geometry of one frame. Bubbles are in
// tree insertion order, which is also paint order.
type Scene struct {
	Scale   float64
	Edges   []Edge
	Bubbles []Bubble
}

// Build lays out a frame of tree under tr.
func Build(tree *mindmap.Tree, tr Transform) Scene {
	nodes := tree.Nodes()
	scale := tr.Scale()
	byID := make(map[mindmap.NodeID]geom.Point, len(nodes))
	sc := Scene{
		Scale:   scale,
		Bubbles: make([]Bubble, 0, len(nodes)),
		Edges:   make([]Edge, 0, len(nodes)),
	}
	size := geom.Size{W: BubbleWidth * scale, H: BubbleHeight * scale}
	for _, n := range nodes {
		c := tr.ToScreen(geom.Point{X: n.X, Y: n.Y})
		byID[n.ID] = c
		sc.Bubbles = append(sc.Bubbles, Bubble{
			ID:        n.ID,
			Center:    c,
			Size:      size,
			Title:     n.Title,
			Color:     n.Color,
			Completed: n.Completed,
			Root:      n.IsRoot(),
		})
	}
	for _, n := range nodes {
		if n.IsRoot() {
			continue
		}
		from, to := byID[n.Parent], byID[n.ID]
		sc.Edges = append(sc.Edges, Edge{
			Parent: n.Parent,
			Child:  n.ID,
			From:   from,
			Ctrl:   geom.Mid(from, to),
			To:     to,
			Color:  n.Color,
		})
	}
	return sc
}

// MarkSelected flags the bubble of id, clearing any previous flag.
func (s *Scene) MarkSelected(id mindmap.NodeID) {
	for i := range s.Bubbles {
		s.Bubbles[i].Selected = s.Bubbles[i].ID == id
	}
}

// BubbleAt returns the topmost bubble containing p.
func (s Scene) BubbleAt(p geom.Point) (mindmap.NodeID, bool) {
	for i := len(s.Bubbles) - 1; i >= 0; i-- {
		if s.Bubbles[i].Rect().Contains(p) {
			return s.Bubbles[i].ID, true
		}
	}
	return 0, false
}

// Bounds covers every bubble of the scene.
func (s Scene) Bounds() geom.Rect {
	var r geom.Rect
	for _, b := range s.Bubbles {
		br := b.Rect()
		r = r.Extend(br.Min).Extend(br.Max)
	}
	return r
}

// Renderer draws one scene element at a time.
type Renderer interface {
	DrawEdge(e Edge)
	DrawBubble(b Bubble)
}

// Draw paints every edge, then every bubble.
func Draw(s Scene, r Renderer) {
	for _, e := range s.Edges {
		r.DrawEdge(e)
	}
	for _, b := range s.Bubbles {
		r.DrawBubble(b)
	}
}
