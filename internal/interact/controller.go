// Package interact turns raw pointer gestures into tree and viewport
// mutations.
//
// A press on a node arms a node drag; a press on empty canvas arms a pan.
// Node drags win: a gesture that starts on a bubble never pans the canvas.
// Movement below the tap slop is not movement, so a press and release in
// place is a tap. Drag baselines are captured per node on the first real
// movement and released on pointer up, which is also the only point where a
// drag persists the tree.
package interact

import (
	"math"

	"github.com/charmbracelet/log"

	"treemind/internal/geom"
	"treemind/internal/mindmap"
	"treemind/internal/render"
	"treemind/internal/viewport"
)

// PointerID distinguishes simultaneous pointers (mouse button, touch).
type PointerID int

const (
	DefaultDragSensitivity = 0.35
	DefaultTapSlop         = 4.0
)

type gestureKind int

const (
	gesturePending gestureKind = iota
	gestureDrag
	gesturePan
)

type gesture struct {
	kind   gestureKind
	onNode bool
	node   mindmap.NodeID
	origin geom.Point
	moved  bool
}

type Controller struct {
	tree   *mindmap.Tree
	vp     *viewport.Viewport
	sel    *Selection
	logger *log.Logger

	dragSensitivity float64
	tapSlop         float64

	gestures  map[PointerID]*gesture
	dragStart map[mindmap.NodeID]geom.Point
	pinching  bool
}

type Option func(*Controller)

func WithDragSensitivity(k float64) Option {
	return func(c *Controller) {
		if k > 0 && k <= 1 {
			c.dragSensitivity = k
		}
	}
}

func WithTapSlop(px float64) Option {
	return func(c *Controller) {
		if px >= 0 && geom.Finite(px) {
			c.tapSlop = px
		}
	}
}

func WithLogger(l *log.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

func New(tree *mindmap.Tree, vp *viewport.Viewport, sel *Selection, opts ...Option) *Controller {
	c := &Controller{
		tree:            tree,
		vp:              vp,
		sel:             sel,
		logger:          log.Default(),
		dragSensitivity: DefaultDragSensitivity,
		tapSlop:         DefaultTapSlop,
		gestures:        make(map[PointerID]*gesture),
		dragStart:       make(map[mindmap.NodeID]geom.Point),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PointerDown starts a gesture for ptr at a screen position.
func (c *Controller) PointerDown(ptr PointerID, screen geom.Point) {
	if !screen.Finite() || c.pinching {
		return
	}
	if _, busy := c.gestures[ptr]; busy {
		c.Cancel(ptr)
	}
	g := &gesture{origin: screen}
	if id, ok := render.Build(c.tree, c.vp).BubbleAt(screen); ok {
		if c.captured(id) {
			c.logger.Debug("node already captured, ignoring press", "node", id, "pointer", ptr)
			return
		}
		g.onNode, g.node = true, id
	} else if c.vp.Panning() {
		return
	}
	c.gestures[ptr] = g
}

// PointerMove advances the gesture of ptr. Node drags move the node by the
// damped, scale-corrected delta from the press point; pans move the
// viewport.
func (c *Controller) PointerMove(ptr PointerID, screen geom.Point) {
	g, ok := c.gestures[ptr]
	if !ok || !screen.Finite() {
		return
	}
	delta := screen.Sub(g.origin)
	if !g.moved {
		if math.Hypot(delta.X, delta.Y) < c.tapSlop {
			return
		}
		g.moved = true
	}

	if g.onNode {
		if g.kind == gesturePending {
			n, ok := c.tree.Node(g.node)
			if !ok {
				delete(c.gestures, ptr)
				return
			}
			c.dragStart[g.node] = geom.Point{X: n.X, Y: n.Y}
			g.kind = gestureDrag
			c.logger.Debug("drag start", "node", g.node, "x", n.X, "y", n.Y)
		}
		start := c.dragStart[g.node]
		p := start.Add(c.vp.ScreenDeltaToCanvas(delta, c.dragSensitivity))
		if err := c.tree.MoveTo(g.node, p.X, p.Y); err != nil {
			c.logger.Debug("drag dropped", "node", g.node, "err", err)
			delete(c.dragStart, g.node)
			delete(c.gestures, ptr)
		}
		return
	}

	if g.kind == gesturePending {
		c.vp.BeginPan()
		g.kind = gesturePan
	}
	c.vp.UpdatePan(delta)
}

// PointerUp ends the gesture of ptr. A press that never moved is a tap: on a
// node it selects the node, on empty canvas it clears the selection.
func (c *Controller) PointerUp(ptr PointerID, screen geom.Point) {
	c.PointerMove(ptr, screen)
	g, ok := c.gestures[ptr]
	if !ok {
		return
	}
	delete(c.gestures, ptr)

	switch {
	case !g.moved && g.onNode:
		if c.tree.Has(g.node) {
			c.sel.Set(g.node)
		}
	case !g.moved:
		c.sel.Clear()
	case g.kind == gestureDrag:
		delete(c.dragStart, g.node)
		c.tree.Flush()
		c.logger.Debug("drag end", "node", g.node)
	case g.kind == gesturePan:
		c.vp.EndPan()
	}
}

// Cancel abandons the gesture of ptr and restores the last committed state:
// a dragged node returns to its captured start, a pan to its base offset.
func (c *Controller) Cancel(ptr PointerID) {
	g, ok := c.gestures[ptr]
	if !ok {
		return
	}
	delete(c.gestures, ptr)
	switch g.kind {
	case gestureDrag:
		if start, ok := c.dragStart[g.node]; ok {
			_ = c.tree.MoveTo(g.node, start.X, start.Y)
			delete(c.dragStart, g.node)
		}
		c.logger.Debug("drag cancelled", "node", g.node)
	case gesturePan:
		c.vp.CancelPan()
	}
}

func (c *Controller) CancelAll() {
	for ptr := range c.gestures {
		c.Cancel(ptr)
	}
}

// PinchBegin starts a zoom gesture. Any drag or pan in flight is cancelled
// first.
func (c *Controller) PinchBegin() {
	c.CancelAll()
	c.vp.BeginZoom()
	c.pinching = true
}

func (c *Controller) PinchUpdate(magnification float64) {
	if c.pinching {
		c.vp.UpdateZoom(magnification)
	}
}

func (c *Controller) PinchEnd() {
	if c.pinching {
		c.vp.EndZoom()
		c.pinching = false
	}
}

func (c *Controller) PinchCancel() {
	if c.pinching {
		c.vp.CancelZoom()
		c.pinching = false
	}
}

// Active reports how many pointers have a gesture in progress.
func (c *Controller) Active() int { return len(c.gestures) }

// Dragging reports whether id has a captured drag baseline.
func (c *Controller) Dragging(id mindmap.NodeID) bool {
	_, ok := c.dragStart[id]
	return ok
}

func (c *Controller) captured(id mindmap.NodeID) bool {
	for _, g := range c.gestures {
		if g.onNode && g.node == id {
			return true
		}
	}
	return false
}
