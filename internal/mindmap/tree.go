package mindmap

import (
	"fmt"
	"math"

	"github.com/charmbracelet/log"

	"treemind/internal/geom"
)

type Tree struct {
	nodes  map[NodeID]*Node
	order  []NodeID
	root   NodeID
	nextID NodeID

	extent float64
	radius float64

	saver    Saver
	logger   *log.Logger
	saveErr  error
	revision uint64
}

type Option func(*Tree)

// WithExtent sets the side of the square canvas, capped at MaxExtent.
// Non-positive values are ignored.
func WithExtent(s float64) Option {
	return func(t *Tree) {
		if s > 0 && geom.Finite(s) {
			t.extent = min(s, MaxExtent)
		}
	}
}

// WithChildRadius sets the distance of a new child from its anchor.
func WithChildRadius(r float64) Option {
	return func(t *Tree) {
		if r > 0 && geom.Finite(r) {
			t.radius = r
		}
	}
}

func WithSaver(s Saver) Option {
	return func(t *Tree) { t.saver = s }
}

func WithLogger(l *log.Logger) Option {
	return func(t *Tree) {
		if l != nil {
			t.logger = l
		}
	}
}

// New returns an empty tree. The root is seeded on first access.
func New(opts ...Option) *Tree {
	t := &Tree{
		nodes:  make(map[NodeID]*Node),
		root:   NoParent,
		extent: DefaultExtent,
		radius: DefaultChildRadius,
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Tree) Extent() float64 { return t.extent }

// Revision increases with every mutation, flushed or not.
func (t *Tree) Revision() uint64 { return t.revision }

// LastSaveError is the error of the most recent flush, nil once a later
// flush succeeds.
func (t *Tree) LastSaveError() error { return t.saveErr }

func (t *Tree) Len() int {
	t.ensureRoot()
	return len(t.order)
}

// Root returns the root, seeding it at the canvas center if the tree has
// none.
func (t *Tree) Root() Node {
	return t.ensureRoot().clone()
}

func (t *Tree) RootID() NodeID {
	return t.ensureRoot().ID
}

func (t *Tree) Node(id NodeID) (Node, bool) {
	t.ensureRoot()
	n, ok := t.nodes[id]
	if !ok {
		return Node{}, false
	}
	return n.clone(), true
}

func (t *Tree) Has(id NodeID) bool {
	_, ok := t.nodes[id]
	return ok
}

// Children returns the child ids of id in insertion order.
func (t *Tree) Children(id NodeID) []NodeID {
	n, ok := t.nodes[id]
	if !ok {
		return nil
	}
	return append([]NodeID(nil), n.Children...)
}

// Nodes returns copies of every node in insertion order, root first.
func (t *Tree) Nodes() []Node {
	t.ensureRoot()
	out := make([]Node, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.nodes[id].clone())
	}
	return out
}

func (t *Tree) Records() []Record {
	t.ensureRoot()
	return t.records()
}

// records walks the tree depth first so that Load rebuilds every child
// list in the same order.
func (t *Tree) records() []Record {
	out := make([]Record, 0, len(t.order))
	stack := []NodeID{t.root}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := t.nodes[id]
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, n.Children[i])
		}
		out = append(out, Record{
			ID:        n.ID,
			Title:     n.Title,
			Parent:    n.Parent,
			X:         n.X,
			Y:         n.Y,
			Color:     n.Color,
			Completed: n.Completed,
		})
	}
	return out
}

func (t *Tree) ensureRoot() *Node {
	if r, ok := t.nodes[t.root]; ok {
		return r
	}
	c := t.extent / 2
	r := &Node{ID: t.nextID, Title: RootTitle, X: c, Y: c, Parent: NoParent}
	t.nextID++
	t.nodes[r.ID] = r
	t.order = append([]NodeID{r.ID}, t.order...)
	t.root = r.ID
	t.logger.Debug("seeded root", "id", r.ID)
	t.touch()
	t.flush()
	return r
}

// AddChild creates a node under anchor. Child k of an anchor is placed at
// angle 60°·k on a circle of the configured radius, so six siblings fill the
// ring before slots repeat.
func (t *Tree) AddChild(anchor NodeID) (Node, error) {
	t.ensureRoot()
	a, ok := t.nodes[anchor]
	if !ok {
		return Node{}, fmt.Errorf("add child to %d: %w", anchor, ErrNodeNotFound)
	}
	angle := float64(len(a.Children)) * math.Pi / 3
	n := &Node{
		ID:     t.nextID,
		Title:  ChildTitle,
		X:      t.clamp(a.X + t.radius*math.Cos(angle)),
		Y:      t.clamp(a.Y + t.radius*math.Sin(angle)),
		Parent: a.ID,
	}
	t.nextID++
	t.nodes[n.ID] = n
	t.order = append(t.order, n.ID)
	a.Children = append(a.Children, n.ID)
	t.touch()
	t.flush()
	return n.clone(), nil
}

// Delete splices a non-root node out of the tree: its children move to its
// parent, then the node is removed.
func (t *Tree) Delete(id NodeID) error {
	t.ensureRoot()
	n, ok := t.nodes[id]
	if !ok {
		return fmt.Errorf("delete %d: %w", id, ErrNodeNotFound)
	}
	if n.IsRoot() {
		return ErrRootDelete
	}
	t.hoistChildren(n)
	parent := t.nodes[n.Parent]
	parent.Children = without(parent.Children, id)
	delete(t.nodes, id)
	t.order = without(t.order, id)
	t.touch()
	t.flush()
	return nil
}

// ReparentChildrenOnDelete moves every child of id to id's parent, appended
// in order after the parent's existing children. The node itself stays.
func (t *Tree) ReparentChildrenOnDelete(id NodeID) error {
	t.ensureRoot()
	n, ok := t.nodes[id]
	if !ok {
		return fmt.Errorf("reparent children of %d: %w", id, ErrNodeNotFound)
	}
	if n.IsRoot() {
		return ErrRootDelete
	}
	if len(n.Children) == 0 {
		return nil
	}
	t.hoistChildren(n)
	t.touch()
	t.flush()
	return nil
}

func (t *Tree) hoistChildren(n *Node) {
	parent := t.nodes[n.Parent]
	for _, cid := range n.Children {
		t.nodes[cid].Parent = parent.ID
		parent.Children = append(parent.Children, cid)
	}
	n.Children = nil
}

// Reparent moves the subtree rooted at id under newParent.
func (t *Tree) Reparent(id, newParent NodeID) error {
	t.ensureRoot()
	n, ok := t.nodes[id]
	if !ok {
		return fmt.Errorf("reparent %d: %w", id, ErrNodeNotFound)
	}
	if _, ok := t.nodes[newParent]; !ok {
		return fmt.Errorf("reparent %d under %d: %w", id, newParent, ErrNodeNotFound)
	}
	if n.IsRoot() {
		return ErrRootMove
	}
	for p := newParent; p != NoParent; p = t.nodes[p].Parent {
		if p == id {
			return fmt.Errorf("reparent %d under %d: %w", id, newParent, ErrCycle)
		}
	}
	if n.Parent == newParent {
		return nil
	}
	old := t.nodes[n.Parent]
	old.Children = without(old.Children, id)
	np := t.nodes[newParent]
	np.Children = append(np.Children, id)
	n.Parent = newParent
	t.touch()
	t.flush()
	return nil
}

// MoveSibling shifts id by delta places among its siblings. Moving past
// either end stops there.
func (t *Tree) MoveSibling(id NodeID, delta int) error {
	t.ensureRoot()
	n, ok := t.nodes[id]
	if !ok {
		return fmt.Errorf("move sibling %d: %w", id, ErrNodeNotFound)
	}
	if n.IsRoot() {
		return ErrRootMove
	}
	siblings := t.nodes[n.Parent].Children
	from := indexOf(siblings, id)
	to := max(0, min(len(siblings)-1, from+delta))
	if to == from {
		return nil
	}
	copy(siblings[from:], siblings[from+1:])
	copy(siblings[to+1:], siblings[to:len(siblings)-1])
	siblings[to] = id
	t.touch()
	t.flush()
	return nil
}

// MoveTo writes a clamped position without persisting it. Callers finishing
// a gesture call Flush once.
func (t *Tree) MoveTo(id NodeID, x, y float64) error {
	n, ok := t.nodes[id]
	if !ok {
		return fmt.Errorf("move %d: %w", id, ErrNodeNotFound)
	}
	if !geom.Finite(x) || !geom.Finite(y) {
		return fmt.Errorf("move %d: %w", id, ErrNonFinite)
	}
	n.X, n.Y = t.clamp(x), t.clamp(y)
	t.touch()
	return nil
}

func (t *Tree) SetPosition(id NodeID, x, y float64) error {
	if err := t.MoveTo(id, x, y); err != nil {
		return err
	}
	t.flush()
	return nil
}

// ApplyPositions replaces the positions of every listed node in one step.
// Unknown ids are ignored; if any coordinate is not finite nothing is
// written.
func (t *Tree) ApplyPositions(pos map[NodeID]geom.Point) error {
	t.ensureRoot()
	for id, p := range pos {
		if !p.Finite() {
			return fmt.Errorf("apply position of %d: %w", id, ErrNonFinite)
		}
	}
	for id, p := range pos {
		if n, ok := t.nodes[id]; ok {
			n.X, n.Y = t.clamp(p.X), t.clamp(p.Y)
		}
	}
	t.touch()
	t.flush()
	return nil
}

func (t *Tree) SetTitle(id NodeID, title string) error {
	return t.update(id, func(n *Node) { n.Title = title })
}

func (t *Tree) ToggleCompleted(id NodeID) error {
	return t.update(id, func(n *Node) { n.Completed = !n.Completed })
}

func (t *Tree) SetColor(id NodeID, c Color) error {
	if !c.Valid() {
		return fmt.Errorf("set color of %d: unknown color %d", id, int(c))
	}
	return t.update(id, func(n *Node) { n.Color = c })
}

func (t *Tree) update(id NodeID, fn func(*Node)) error {
	t.ensureRoot()
	n, ok := t.nodes[id]
	if !ok {
		return fmt.Errorf("update %d: %w", id, ErrNodeNotFound)
	}
	fn(n)
	t.touch()
	t.flush()
	return nil
}

// Clear removes every node and seeds a fresh root.
func (t *Tree) Clear() {
	t.nodes = make(map[NodeID]*Node)
	t.order = nil
	t.root = NoParent
	t.ensureRoot()
}

// Flush hands the current records to the saver. A failure is logged and
// kept in LastSaveError; the in-memory tree stays as it is.
func (t *Tree) Flush() {
	t.ensureRoot()
	t.flush()
}

func (t *Tree) flush() {
	if t.saver == nil {
		return
	}
	if err := t.saver.Save(t.records()); err != nil {
		t.saveErr = err
		t.logger.Warn("save failed, keeping in-memory tree", "err", err)
		return
	}
	t.saveErr = nil
}

func (t *Tree) touch() { t.revision++ }

func (t *Tree) clamp(v float64) float64 {
	return geom.Clamp(v, 0, t.extent)
}

// Validate checks the structural invariants: a single parentless root,
// parent/children agreement, and reachability of every node from the root.
func (t *Tree) Validate() error {
	root, ok := t.nodes[t.root]
	if !ok {
		if len(t.nodes) == 0 {
			return nil
		}
		return fmt.Errorf("root %d missing", t.root)
	}
	if root.Parent != NoParent {
		return fmt.Errorf("root %d has parent %d", root.ID, root.Parent)
	}
	if len(t.order) != len(t.nodes) {
		return fmt.Errorf("order lists %d nodes, arena holds %d", len(t.order), len(t.nodes))
	}
	listed := make(map[NodeID]NodeID, len(t.nodes))
	for _, n := range t.nodes {
		if n.ID != t.root && n.Parent == NoParent {
			return fmt.Errorf("node %d has no parent", n.ID)
		}
		for _, c := range n.Children {
			child, ok := t.nodes[c]
			if !ok {
				return fmt.Errorf("node %d lists missing child %d", n.ID, c)
			}
			if child.Parent != n.ID {
				return fmt.Errorf("node %d lists child %d whose parent is %d", n.ID, c, child.Parent)
			}
			if prev, dup := listed[c]; dup {
				return fmt.Errorf("node %d listed by %d and %d", c, prev, n.ID)
			}
			listed[c] = n.ID
		}
	}
	seen := map[NodeID]bool{root.ID: true}
	queue := []NodeID{root.ID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, c := range t.nodes[id].Children {
			if seen[c] {
				return fmt.Errorf("node %d reached twice", c)
			}
			seen[c] = true
			queue = append(queue, c)
		}
	}
	if len(seen) != len(t.nodes) {
		return fmt.Errorf("%d of %d nodes unreachable from root", len(t.nodes)-len(seen), len(t.nodes))
	}
	return nil
}

func without(ids []NodeID, id NodeID) []NodeID {
	out := ids[:0:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func indexOf(ids []NodeID, id NodeID) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
