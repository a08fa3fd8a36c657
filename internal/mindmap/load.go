package mindmap

import "treemind/internal/geom"

// Load attaches a tree from persisted records. Damaged input is repaired
// rather than rejected: duplicate ids are dropped, a missing root is seeded,
// extra roots, orphans and cycle members are re-attached under the root, and
// positions are clamped onto the canvas. Each repair is logged as a warning
// and the repaired tree is flushed once.
func Load(records []Record, opts ...Option) *Tree {
	t := New(opts...)
	repairs := 0
	warn := func(msg string, kv ...any) {
		repairs++
		t.logger.Warn(msg, kv...)
	}

	for _, r := range records {
		if _, dup := t.nodes[r.ID]; dup || r.ID < 0 {
			warn("dropping record with duplicate or invalid id", "id", r.ID)
			continue
		}
		n := &Node{
			ID:        r.ID,
			Title:     r.Title,
			X:         r.X,
			Y:         r.Y,
			Completed: r.Completed,
			Color:     r.Color,
			Parent:    r.Parent,
		}
		if !n.Color.Valid() {
			n.Color = ColorDefault
		}
		if !geom.Finite(n.X) || !geom.Finite(n.Y) {
			warn("resetting non-finite position", "id", n.ID)
			n.X, n.Y = t.extent/2, t.extent/2
		}
		n.X, n.Y = t.clamp(n.X), t.clamp(n.Y)
		t.nodes[n.ID] = n
		t.order = append(t.order, n.ID)
		if n.ID >= t.nextID {
			t.nextID = n.ID + 1
		}
		if n.Parent == NoParent && t.root == NoParent {
			t.root = n.ID
		}
	}

	if t.root == NoParent {
		if len(t.order) > 0 {
			warn("no root in records, seeding one")
		}
		// ensureRoot would flush before the links below are repaired.
		saver := t.saver
		t.saver = nil
		t.ensureRoot()
		t.saver = saver
	} else {
		t.order = append([]NodeID{t.root}, without(t.order, t.root)...)
	}

	for _, id := range t.order {
		n := t.nodes[id]
		if id == t.root {
			continue
		}
		if n.Parent == NoParent {
			warn("extra root re-attached under root", "id", id)
			n.Parent = t.root
			continue
		}
		if _, ok := t.nodes[n.Parent]; !ok || n.Parent == id {
			warn("orphan re-attached under root", "id", id, "parent", n.Parent)
			n.Parent = t.root
		}
	}

	for _, id := range t.order {
		path := map[NodeID]bool{}
		for p := id; p != t.root; p = t.nodes[p].Parent {
			if path[p] {
				warn("cycle broken by re-attaching under root", "id", p)
				t.nodes[p].Parent = t.root
				break
			}
			path[p] = true
		}
	}

	for _, id := range t.order {
		if id == t.root {
			continue
		}
		p := t.nodes[t.nodes[id].Parent]
		p.Children = append(p.Children, id)
	}

	if repairs > 0 {
		t.logger.Warn("tree repaired on load", "repairs", repairs)
		t.flush()
	}
	t.logger.Debug("tree loaded", "nodes", len(t.order))
	return t
}
