// Package arrange recomputes every node position from the tree shape alone.
//
// Leaves take consecutive horizontal slots in post-order; an internal node
// sits over the midpoint of its first and last child, and every node sits on
// the row of its depth. Spacing and row gap start from base values and
// shrink (never grow) so the laid-out tree fits a fraction of the canvas,
// but never below their minimums. The finished layout is translated so its
// bounding box is centered on the canvas.
//
// Arranging discards all manual placement.
package arrange

import (
	"math"

	"github.com/charmbracelet/log"

	"treemind/internal/geom"
	"treemind/internal/mindmap"
)

type Options struct {
	BaseSpacing float64
	BaseGap     float64
	MinSpacing  float64
	MinGap      float64
	// Fill is the share of the canvas side the layout may use before
	// spacing shrinks.
	Fill float64
}

func DefaultOptions() Options {
	return Options{
		BaseSpacing: 260,
		BaseGap:     200,
		MinSpacing:  160,
		MinGap:      140,
		Fill:        0.85,
	}
}

// Result is one computed layout. Revision is the tree revision it was
// computed from.
type Result struct {
	Positions map[mindmap.NodeID]geom.Point
	Spacing   float64
	Gap       float64
	Leaves    int
	Depth     int
	Revision  uint64
}

type Engine struct {
	opts   Options
	logger *log.Logger
}

// NewEngine returns an engine; zero or invalid option fields fall back to
// the defaults.
func NewEngine(opts Options, logger *log.Logger) *Engine {
	def := DefaultOptions()
	pick := func(v, d float64) float64 {
		if v > 0 && geom.Finite(v) {
			return v
		}
		return d
	}
	opts.BaseSpacing = pick(opts.BaseSpacing, def.BaseSpacing)
	opts.BaseGap = pick(opts.BaseGap, def.BaseGap)
	opts.MinSpacing = pick(opts.MinSpacing, def.MinSpacing)
	opts.MinGap = pick(opts.MinGap, def.MinGap)
	opts.Fill = pick(opts.Fill, def.Fill)
	if opts.Fill > 1 {
		opts.Fill = 1
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{opts: opts, logger: logger}
}

func (e *Engine) Options() Options { return e.opts }

// LeafCount is 1 for a leaf, else the sum over the children.
func LeafCount(tree *mindmap.Tree, id mindmap.NodeID) int {
	children := tree.Children(id)
	if len(children) == 0 {
		return 1
	}
	n := 0
	for _, c := range children {
		n += LeafCount(tree, c)
	}
	return n
}

// TreeDepth is 1 for a leaf, else one more than the deepest child.
func TreeDepth(tree *mindmap.Tree, id mindmap.NodeID) int {
	deepest := 0
	for _, c := range tree.Children(id) {
		if d := TreeDepth(tree, c); d > deepest {
			deepest = d
		}
	}
	return 1 + deepest
}

// Compute lays out tree without touching it.
func (e *Engine) Compute(tree *mindmap.Tree) Result {
	root := tree.RootID()
	leaves := LeafCount(tree, root)
	depth := TreeDepth(tree, root)
	usable := e.opts.Fill * tree.Extent()

	spacing := fit(e.opts.BaseSpacing, e.opts.MinSpacing, usable, float64(leaves-1)*e.opts.BaseSpacing)
	gap := fit(e.opts.BaseGap, e.opts.MinGap, usable, float64(depth-1)*e.opts.BaseGap)

	pos := layout(tree, root, spacing, gap)

	var box geom.Rect
	for _, p := range pos {
		box = box.Extend(p)
	}
	shift := geom.Size{W: tree.Extent(), H: tree.Extent()}.Center().Sub(box.Center())
	for id, p := range pos {
		pos[id] = p.Add(shift)
	}

	return Result{
		Positions: pos,
		Spacing:   spacing,
		Gap:       gap,
		Leaves:    leaves,
		Depth:     depth,
		Revision:  tree.Revision(),
	}
}

// Arrange computes a layout and applies it to tree in one batch.
func (e *Engine) Arrange(tree *mindmap.Tree) (Result, error) {
	res := e.Compute(tree)
	if err := tree.ApplyPositions(res.Positions); err != nil {
		return res, err
	}
	e.logger.Info("arranged tree", "nodes", len(res.Positions), "leaves", res.Leaves,
		"depth", res.Depth, "spacing", res.Spacing, "gap", res.Gap)
	return res, nil
}

// ApplyIfCurrent applies res only if tree has not changed since res was
// computed. A stale result is discarded and false returned.
func (e *Engine) ApplyIfCurrent(tree *mindmap.Tree, res Result) (bool, error) {
	if res.Revision != tree.Revision() {
		e.logger.Debug("discarding stale layout", "computed", res.Revision, "current", tree.Revision())
		return false, nil
	}
	if err := tree.ApplyPositions(res.Positions); err != nil {
		return false, err
	}
	return true, nil
}

// fit scales base down so needed fits usable, floored at floor.
func fit(base, floor, usable, needed float64) float64 {
	k := 1.0
	if needed > 0 {
		k = math.Min(1, usable/needed)
	}
	return math.Max(floor, base*k)
}

// layout assigns untranslated positions: leaves at successive multiples of
// spacing in post-order, parents over the midpoint of their first and last
// child, rows at level × gap.
func layout(tree *mindmap.Tree, root mindmap.NodeID, spacing, gap float64) map[mindmap.NodeID]geom.Point {
	pos := make(map[mindmap.NodeID]geom.Point, tree.Len())
	nextX := 0.0
	var place func(id mindmap.NodeID, level int)
	place = func(id mindmap.NodeID, level int) {
		y := float64(level) * gap
		children := tree.Children(id)
		if len(children) == 0 {
			pos[id] = geom.Point{X: nextX, Y: y}
			nextX += spacing
			return
		}
		for _, c := range children {
			place(c, level+1)
		}
		first, last := pos[children[0]], pos[children[len(children)-1]]
		pos[id] = geom.Point{X: (first.X + last.X) / 2, Y: y}
	}
	place(root, 0)
	return pos
}
