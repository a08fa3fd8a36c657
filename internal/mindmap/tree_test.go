package mindmap

import (
	"errors"
	"io"
	"math"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"treemind/internal/geom"
)

type countingSaver struct {
	calls int
	last  []Record
	err   error
}

func (s *countingSaver) Save(records []Record) error {
	s.calls++
	s.last = records
	return s.err
}

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func newTree(t *testing.T, opts ...Option) (*Tree, *countingSaver) {
	t.Helper()
	s := &countingSaver{}
	opts = append([]Option{WithSaver(s), WithLogger(quietLogger())}, opts...)
	return New(opts...), s
}

func TestRootSeededLazily(t *testing.T) {
	tree, saver := newTree(t)
	assert.Equal(t, 0, saver.calls)

	root := tree.Root()
	assert.True(t, root.IsRoot())
	assert.Equal(t, 1500.0, root.X)
	assert.Equal(t, 1500.0, root.Y)
	assert.Equal(t, RootTitle, root.Title)
	assert.Equal(t, 1, saver.calls)

	again := tree.Root()
	assert.Equal(t, root.ID, again.ID)
	assert.Equal(t, 1, saver.calls)
}

func TestAddChildFansOutAtSixtyDegrees(t *testing.T) {
	tree, _ := newTree(t)
	root := tree.Root()

	first, err := tree.AddChild(root.ID)
	require.NoError(t, err)
	assert.InDelta(t, 1720, first.X, 1e-9)
	assert.InDelta(t, 1500, first.Y, 1e-9)

	second, err := tree.AddChild(root.ID)
	require.NoError(t, err)
	assert.InDelta(t, 1610, second.X, 1e-9)
	assert.InDelta(t, 1500+220*math.Sqrt(3)/2, second.Y, 1e-9)
	assert.InDelta(t, 1690.5, second.Y, 0.1)

	for k := 2; k < 8; k++ {
		c, err := tree.AddChild(root.ID)
		require.NoError(t, err)
		angle := float64(k) * math.Pi / 3
		assert.InDelta(t, 1500+220*math.Cos(angle), c.X, 1e-9, "child %d", k)
		assert.InDelta(t, 1500+220*math.Sin(angle), c.Y, 1e-9, "child %d", k)
	}

	assert.Len(t, tree.Root().Children, 8)
	require.NoError(t, tree.Validate())
}

func TestAddChildClampsNearEdge(t *testing.T) {
	tree, _ := newTree(t, WithExtent(300))
	root := tree.Root()
	c, err := tree.AddChild(root.ID)
	require.NoError(t, err)
	assert.Equal(t, 300.0, c.X)
	assert.Equal(t, 150.0, c.Y)
}

func TestWithExtentCaps(t *testing.T) {
	tree, _ := newTree(t, WithExtent(1e12))
	assert.Equal(t, MaxExtent, tree.Extent())
	tree, _ = newTree(t, WithExtent(-1))
	assert.Equal(t, DefaultExtent, tree.Extent())
}

func TestAddChildUnknownAnchor(t *testing.T) {
	tree, saver := newTree(t)
	tree.Root()
	calls := saver.calls

	_, err := tree.AddChild(42)
	assert.ErrorIs(t, err, ErrNodeNotFound)
	assert.Equal(t, 1, tree.Len())
	assert.Equal(t, calls, saver.calls)
}

func TestDeleteRootRejected(t *testing.T) {
	tree, saver := newTree(t)
	root := tree.Root()
	_, err := tree.AddChild(root.ID)
	require.NoError(t, err)
	before := tree.Records()
	calls := saver.calls

	err = tree.Delete(root.ID)
	assert.ErrorIs(t, err, ErrRootDelete)
	assert.Equal(t, before, tree.Records())
	assert.Equal(t, calls, saver.calls)
}

func TestDeleteSplicesChildrenToParent(t *testing.T) {
	tree, _ := newTree(t)
	root := tree.Root()
	a, _ := tree.AddChild(root.ID)
	b, _ := tree.AddChild(root.ID)
	c1, _ := tree.AddChild(a.ID)
	c2, _ := tree.AddChild(a.ID)

	require.NoError(t, tree.Delete(a.ID))

	_, ok := tree.Node(a.ID)
	assert.False(t, ok)
	assert.Equal(t, []NodeID{b.ID, c1.ID, c2.ID}, tree.Root().Children)
	for _, id := range []NodeID{c1.ID, c2.ID} {
		n, ok := tree.Node(id)
		require.True(t, ok)
		assert.Equal(t, root.ID, n.Parent)
	}
	require.NoError(t, tree.Validate())
}

func TestReparentChildrenOnDeleteKeepsNode(t *testing.T) {
	tree, _ := newTree(t)
	root := tree.Root()
	a, _ := tree.AddChild(root.ID)
	c, _ := tree.AddChild(a.ID)

	require.NoError(t, tree.ReparentChildrenOnDelete(a.ID))
	n, ok := tree.Node(a.ID)
	require.True(t, ok)
	assert.Empty(t, n.Children)
	got, _ := tree.Node(c.ID)
	assert.Equal(t, root.ID, got.Parent)
	require.NoError(t, tree.Validate())
}

func TestDeleteUnknown(t *testing.T) {
	tree, _ := newTree(t)
	assert.ErrorIs(t, tree.Delete(7), ErrNodeNotFound)
}

func TestReparentRejectsCycles(t *testing.T) {
	tree, _ := newTree(t)
	root := tree.Root()
	a, _ := tree.AddChild(root.ID)
	b, _ := tree.AddChild(a.ID)
	c, _ := tree.AddChild(b.ID)

	assert.ErrorIs(t, tree.Reparent(a.ID, c.ID), ErrCycle)
	assert.ErrorIs(t, tree.Reparent(a.ID, a.ID), ErrCycle)
	assert.ErrorIs(t, tree.Reparent(root.ID, a.ID), ErrRootMove)
	assert.ErrorIs(t, tree.Reparent(99, a.ID), ErrNodeNotFound)

	require.NoError(t, tree.Reparent(c.ID, root.ID))
	assert.Equal(t, []NodeID{a.ID, c.ID}, tree.Root().Children)
	require.NoError(t, tree.Validate())
}

func TestMoveSiblingReorders(t *testing.T) {
	tree, saver := newTree(t)
	root := tree.Root()
	a, _ := tree.AddChild(root.ID)
	b, _ := tree.AddChild(root.ID)
	c, _ := tree.AddChild(root.ID)
	d, _ := tree.AddChild(a.ID)

	require.NoError(t, tree.MoveSibling(c.ID, -1))
	assert.Equal(t, []NodeID{a.ID, c.ID, b.ID}, tree.Root().Children)
	require.NoError(t, tree.MoveSibling(a.ID, 5))
	assert.Equal(t, []NodeID{c.ID, b.ID, a.ID}, tree.Root().Children)

	calls, rev := saver.calls, tree.Revision()
	require.NoError(t, tree.MoveSibling(c.ID, -1))
	require.NoError(t, tree.MoveSibling(d.ID, 1))
	assert.Equal(t, calls, saver.calls, "moving past the end is a no-op")
	assert.Equal(t, rev, tree.Revision())

	assert.ErrorIs(t, tree.MoveSibling(root.ID, 1), ErrRootMove)
	assert.ErrorIs(t, tree.MoveSibling(42, 1), ErrNodeNotFound)

	again := Load(tree.Records(), WithLogger(quietLogger()))
	assert.Equal(t, []NodeID{c.ID, b.ID, a.ID}, again.Root().Children, "order survives a reload")
	require.NoError(t, again.Validate())
}

func TestPositionWritesClamp(t *testing.T) {
	tree, saver := newTree(t)
	root := tree.Root()

	tests := []struct {
		name string
		x, y float64
		want geom.Point
	}{
		{"inside", 10, 20, geom.Point{X: 10, Y: 20}},
		{"negative", -5, -1e9, geom.Point{X: 0, Y: 0}},
		{"beyond", 3001, 1e12, geom.Point{X: 3000, Y: 3000}},
		{"infinite", math.Inf(1), math.Inf(-1), geom.Point{X: 3000, Y: 3000}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tree.SetPosition(root.ID, tt.x, tt.y)
			if math.IsInf(tt.x, 0) {
				assert.ErrorIs(t, err, ErrNonFinite)
				return
			}
			require.NoError(t, err)
			n, _ := tree.Node(root.ID)
			assert.Equal(t, tt.want, geom.Point{X: n.X, Y: n.Y})
		})
	}

	calls := saver.calls
	assert.ErrorIs(t, tree.SetPosition(root.ID, math.NaN(), 1), ErrNonFinite)
	assert.Equal(t, calls, saver.calls)
}

func TestMoveToDoesNotFlush(t *testing.T) {
	tree, saver := newTree(t)
	root := tree.Root()
	calls := saver.calls
	rev := tree.Revision()

	require.NoError(t, tree.MoveTo(root.ID, 1, 2))
	assert.Equal(t, calls, saver.calls)
	assert.Greater(t, tree.Revision(), rev)

	tree.Flush()
	assert.Equal(t, calls+1, saver.calls)
	assert.Equal(t, 1.0, saver.last[0].X)
}

func TestApplyPositionsIsAtomic(t *testing.T) {
	tree, saver := newTree(t)
	root := tree.Root()
	a, _ := tree.AddChild(root.ID)
	calls := saver.calls

	err := tree.ApplyPositions(map[NodeID]geom.Point{
		root.ID: {X: 1, Y: 1},
		a.ID:    {X: math.NaN(), Y: 0},
	})
	assert.ErrorIs(t, err, ErrNonFinite)
	n, _ := tree.Node(root.ID)
	assert.Equal(t, 1500.0, n.X)
	assert.Equal(t, calls, saver.calls)

	require.NoError(t, tree.ApplyPositions(map[NodeID]geom.Point{
		root.ID: {X: 1, Y: 1},
		a.ID:    {X: 4000, Y: 2},
		77:      {X: 5, Y: 5},
	}))
	assert.Equal(t, calls+1, saver.calls)
	n, _ = tree.Node(a.ID)
	assert.Equal(t, 3000.0, n.X)
}

func TestAttributeMutations(t *testing.T) {
	tree, saver := newTree(t)
	root := tree.Root()
	calls := saver.calls

	require.NoError(t, tree.SetTitle(root.ID, "Plan"))
	require.NoError(t, tree.ToggleCompleted(root.ID))
	require.NoError(t, tree.SetColor(root.ID, ColorTeal))
	assert.Error(t, tree.SetColor(root.ID, Color(99)))
	assert.ErrorIs(t, tree.SetTitle(5, "x"), ErrNodeNotFound)

	n, _ := tree.Node(root.ID)
	assert.Equal(t, "Plan", n.Title)
	assert.True(t, n.Completed)
	assert.Equal(t, ColorTeal, n.Color)
	assert.Equal(t, calls+3, saver.calls)
}

func TestClearReseedsRoot(t *testing.T) {
	tree, _ := newTree(t)
	root := tree.Root()
	a, _ := tree.AddChild(root.ID)
	_, _ = tree.AddChild(a.ID)

	tree.Clear()
	assert.Equal(t, 1, tree.Len())
	fresh := tree.Root()
	assert.NotEqual(t, root.ID, fresh.ID)
	assert.Equal(t, 1500.0, fresh.X)
	assert.Empty(t, fresh.Children)
	require.NoError(t, tree.Validate())
}

func TestSaveFailureKeepsMemory(t *testing.T) {
	tree, saver := newTree(t)
	root := tree.Root()
	saver.err = errors.New("disk full")

	require.NoError(t, tree.SetPosition(root.ID, 10, 10))
	assert.EqualError(t, tree.LastSaveError(), "disk full")
	n, _ := tree.Node(root.ID)
	assert.Equal(t, 10.0, n.X)

	saver.err = nil
	require.NoError(t, tree.SetTitle(root.ID, "ok"))
	assert.NoError(t, tree.LastSaveError())
}

func TestRandomEditsKeepInvariants(t *testing.T) {
	tree, _ := newTree(t)
	root := tree.Root()
	ids := []NodeID{root.ID}
	// Deterministic pseudo-random walk over add/delete.
	seed := uint32(7)
	next := func(n int) int {
		seed = seed*1664525 + 1013904223
		return int(seed>>8) % n
	}
	for i := 0; i < 400; i++ {
		pick := ids[next(len(ids))]
		if next(3) == 0 && pick != root.ID {
			require.NoError(t, tree.Delete(pick))
			ids = without(ids, pick)
		} else {
			c, err := tree.AddChild(pick)
			require.NoError(t, err)
			ids = append(ids, c.ID)
		}
		require.NoError(t, tree.Validate(), "step %d", i)
	}

	roots := 0
	for _, n := range tree.Nodes() {
		if n.IsRoot() {
			roots++
		}
	}
	assert.Equal(t, 1, roots)
	assert.Equal(t, len(ids), tree.Len())
}

func TestColorNames(t *testing.T) {
	for _, c := range Colors() {
		got, err := ParseColor(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}
	c, err := ParseColor("")
	require.NoError(t, err)
	assert.Equal(t, ColorDefault, c)
	_, err = ParseColor("mauve")
	assert.Error(t, err)
	assert.Equal(t, ColorDefault, ColorTeal.Next())
}
