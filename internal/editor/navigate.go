package editor

import "treemind/internal/mindmap"

// SelectParent moves the selection one level up. At the root it stays.
func (e *Editor) SelectParent() {
	n, ok := e.tree.Node(e.Focus())
	if !ok || n.IsRoot() {
		e.Select(e.tree.RootID())
		return
	}
	e.Select(n.Parent)
}

// SelectChild moves the selection to the first child, if any.
func (e *Editor) SelectChild() {
	children := e.tree.Children(e.Focus())
	if len(children) == 0 {
		return
	}
	e.Select(children[0])
}

// SelectSibling moves the selection delta places along its parent's
// children, wrapping around.
func (e *Editor) SelectSibling(delta int) {
	n, ok := e.tree.Node(e.Focus())
	if !ok || n.IsRoot() {
		return
	}
	siblings := e.tree.Children(n.Parent)
	i := indexOf(siblings, n.ID)
	if i < 0 {
		return
	}
	j := ((i+delta)%len(siblings) + len(siblings)) % len(siblings)
	e.Select(siblings[j])
}

// SelectRoot selects the root.
func (e *Editor) SelectRoot() {
	e.Select(e.tree.RootID())
}

// SelectEdgeSibling selects the first sibling, or the last when last is set.
func (e *Editor) SelectEdgeSibling(last bool) {
	n, ok := e.tree.Node(e.Focus())
	if !ok || n.IsRoot() {
		return
	}
	siblings := e.tree.Children(n.Parent)
	if last {
		e.Select(siblings[len(siblings)-1])
		return
	}
	e.Select(siblings[0])
}

// MoveSibling shifts the selected node delta places among its siblings.
// The selection follows the node.
func (e *Editor) MoveSibling(delta int) error {
	id, ok := e.Selected()
	if !ok {
		return ErrNoSelection
	}
	return e.tree.MoveSibling(id, delta)
}

func indexOf(ids []mindmap.NodeID, id mindmap.NodeID) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
