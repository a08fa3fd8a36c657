// Package editor is the command surface a host binds its toolbar, keys and
// menus to. It owns one tree together with the viewport, selection,
// interaction controller and arrange engine that act on it.
//
// Destructive commands (Clear, AutoArrange, Delete) run immediately;
// asking the user first is the host's job.
package editor

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"treemind/internal/arrange"
	"treemind/internal/geom"
	"treemind/internal/interact"
	"treemind/internal/mindmap"
	"treemind/internal/render"
	"treemind/internal/viewport"
)

// ZoomStep is the scale change of one ZoomIn or ZoomOut.
const ZoomStep = 0.2

var ErrNoSelection = errors.New("no node selected")

type Options struct {
	View            geom.Size
	PanSensitivity  float64
	DragSensitivity float64
	Arrange         arrange.Options
	Export          render.ExportOptions
	Logger          *log.Logger
}

type Editor struct {
	tree   *mindmap.Tree
	vp     *viewport.Viewport
	sel    *interact.Selection
	ctl    *interact.Controller
	engine *arrange.Engine
	view   geom.Size
	export render.ExportOptions
	logger *log.Logger
}

// New attaches an editor to tree and centers the view on the root.
func New(tree *mindmap.Tree, opts Options) *Editor {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	vp := viewport.New()
	if opts.PanSensitivity > 0 {
		vp.SetPanSensitivity(opts.PanSensitivity)
	}
	sel := &interact.Selection{}
	ctlOpts := []interact.Option{interact.WithLogger(logger)}
	if opts.DragSensitivity > 0 {
		ctlOpts = append(ctlOpts, interact.WithDragSensitivity(opts.DragSensitivity))
	}
	e := &Editor{
		tree:   tree,
		vp:     vp,
		sel:    sel,
		ctl:    interact.New(tree, vp, sel, ctlOpts...),
		engine: arrange.NewEngine(opts.Arrange, logger),
		view:   opts.View,
		export: opts.Export,
		logger: logger,
	}
	e.centerOn(tree.RootID())
	return e
}

func (e *Editor) Tree() *mindmap.Tree              { return e.tree }
func (e *Editor) Viewport() *viewport.Viewport     { return e.vp }
func (e *Editor) Selection() *interact.Selection   { return e.sel }
func (e *Editor) Controller() *interact.Controller { return e.ctl }
func (e *Editor) View() geom.Size                  { return e.view }

// Resize tells the editor the current screen size of the view.
func (e *Editor) Resize(view geom.Size) {
	if view.Empty() || !geom.Finite(view.W) || !geom.Finite(view.H) {
		return
	}
	e.view = view
}

// Selected returns the selected node if it still exists.
func (e *Editor) Selected() (mindmap.NodeID, bool) {
	id, ok := e.sel.Get()
	if !ok || !e.tree.Has(id) {
		return 0, false
	}
	return id, true
}

// Focus is the selected node, or the root when nothing is selected.
func (e *Editor) Focus() mindmap.NodeID {
	if id, ok := e.Selected(); ok {
		return id
	}
	return e.tree.RootID()
}

// Select focuses id and centers the view on it.
func (e *Editor) Select(id mindmap.NodeID) error {
	if !e.tree.Has(id) {
		return fmt.Errorf("select %d: %w", id, mindmap.ErrNodeNotFound)
	}
	e.sel.Set(id)
	e.centerOn(id)
	return nil
}

// Deselect clears the selection; focus falls back to the root.
func (e *Editor) Deselect() { e.sel.Clear() }

// AddChild adds a child to the focused node and selects it.
func (e *Editor) AddChild() (mindmap.Node, error) {
	n, err := e.tree.AddChild(e.Focus())
	if err != nil {
		return n, err
	}
	e.sel.Set(n.ID)
	e.logger.Debug("added node", "id", n.ID, "parent", n.Parent)
	return n, nil
}

// Delete splices the selected node out and selects its former parent.
func (e *Editor) Delete() error {
	id, ok := e.Selected()
	if !ok {
		return ErrNoSelection
	}
	n, _ := e.tree.Node(id)
	if err := e.tree.Delete(id); err != nil {
		return err
	}
	e.sel.Set(n.Parent)
	e.logger.Debug("deleted node", "id", id, "children", len(n.Children))
	return nil
}

func (e *Editor) ToggleCompleted() error {
	return e.tree.ToggleCompleted(e.Focus())
}

func (e *Editor) Recolor(c mindmap.Color) error {
	return e.tree.SetColor(e.Focus(), c)
}

// CycleColor moves the focused node to the next color tag.
func (e *Editor) CycleColor() (mindmap.Color, error) {
	id := e.Focus()
	n, _ := e.tree.Node(id)
	next := n.Color.Next()
	return next, e.tree.SetColor(id, next)
}

func (e *Editor) Rename(title string) error {
	return e.tree.SetTitle(e.Focus(), title)
}

func (e *Editor) ZoomIn()  { e.zoom(ZoomStep) }
func (e *Editor) ZoomOut() { e.zoom(-ZoomStep) }

func (e *Editor) zoom(delta float64) {
	n, _ := e.tree.Node(e.Focus())
	e.vp.ZoomBy(delta, geom.Point{X: n.X, Y: n.Y}, e.view)
}

// Recenter centers the view on the focused node.
func (e *Editor) Recenter() { e.centerOn(e.Focus()) }

func (e *Editor) centerOn(id mindmap.NodeID) {
	n, ok := e.tree.Node(id)
	if !ok {
		return
	}
	e.vp.CenterOn(geom.Point{X: n.X, Y: n.Y}, e.view)
}

// Clear drops every node and starts over from a fresh root.
func (e *Editor) Clear() {
	e.ctl.CancelAll()
	e.tree.Clear()
	e.sel.Clear()
	e.centerOn(e.tree.RootID())
	e.logger.Info("cleared tree")
}

// AutoArrange lays out the whole tree, selects the root and recenters.
func (e *Editor) AutoArrange() (arrange.Result, error) {
	e.ctl.CancelAll()
	res, err := e.engine.Arrange(e.tree)
	if err != nil {
		return res, err
	}
	e.afterArrange()
	return res, nil
}

// ComputeArrange computes a layout without applying it. It only reads the
// tree, so a host may run it off its update loop.
func (e *Editor) ComputeArrange() arrange.Result {
	return e.engine.Compute(e.tree)
}

// PrepareArrange snapshots the tree and returns a layout job that is safe to
// run on another goroutine. Its result carries the revision of the live tree
// at snapshot time; hand it to ApplyArrange.
func (e *Editor) PrepareArrange() func() arrange.Result {
	rev := e.tree.Revision()
	snap := mindmap.Load(e.tree.Records(),
		mindmap.WithExtent(e.tree.Extent()),
		mindmap.WithLogger(e.logger))
	engine := e.engine
	return func() arrange.Result {
		res := engine.Compute(snap)
		res.Revision = rev
		return res
	}
}

// ApplyArrange applies a computed layout. If the tree changed since res was
// computed the layout is recomputed from the current tree first.
func (e *Editor) ApplyArrange(res arrange.Result) (arrange.Result, error) {
	e.ctl.CancelAll()
	ok, err := e.engine.ApplyIfCurrent(e.tree, res)
	if err != nil {
		return res, err
	}
	if !ok {
		return e.AutoArrange()
	}
	e.afterArrange()
	return res, nil
}

func (e *Editor) afterArrange() {
	root := e.tree.RootID()
	e.sel.Set(root)
	e.centerOn(root)
}

// Export renders the whole canvas to a document.
func (e *Editor) Export() (*render.Document, error) {
	doc, err := render.Export(e.tree, e.export)
	if err != nil {
		e.logger.Error("export failed", "err", err)
		return nil, err
	}
	e.logger.Info("exported", "width", doc.Width, "height", doc.Height, "pdf_bytes", len(doc.PDF))
	return doc, nil
}

// Scene is the current frame under the live viewport.
func (e *Editor) Scene() render.Scene {
	sc := render.Build(e.tree, e.vp)
	if id, ok := e.Selected(); ok {
		sc.MarkSelected(id)
	}
	return sc
}
