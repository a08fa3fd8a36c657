package interact

import "treemind/internal/mindmap"

// Selection is the observable "currently selected node" shared between the
// controller and the host toolbar.
type Selection struct {
	id  mindmap.NodeID
	set bool

	subs   []subscriber
	nextID int
}

type subscriber struct {
	id int
	fn func(id mindmap.NodeID, ok bool)
}

func (s *Selection) Get() (mindmap.NodeID, bool) {
	return s.id, s.set
}

func (s *Selection) Set(id mindmap.NodeID) {
	if s.set && s.id == id {
		return
	}
	s.id, s.set = id, true
	s.notify()
}

func (s *Selection) Clear() {
	if !s.set {
		return
	}
	s.id, s.set = 0, false
	s.notify()
}

// Subscribe registers fn for selection changes, in registration order. The
// returned func removes it.
func (s *Selection) Subscribe(fn func(id mindmap.NodeID, ok bool)) (cancel func()) {
	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	return func() {
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

func (s *Selection) notify() {
	for _, sub := range append([]subscriber(nil), s.subs...) {
		sub.fn(s.id, s.set)
	}
}
