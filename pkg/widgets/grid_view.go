package widgets

import (
	"github.com/go-flint/flint/pkg/core"
	"github.com/go-flint/flint/pkg/layout"
)

// GridView scrolls its children in a fixed-stride grid. Only the rows
// intersecting the visible region plus the cache extent are laid out.
type GridView struct {
	// CrossAxisCount is the number of tracks across the scroll axis.
	CrossAxisCount int
	// MainAxisSpacing is the gap between rows.
	MainAxisSpacing float64
	// CrossAxisSpacing is the gap between tracks.
	CrossAxisSpacing float64
	// ChildAspectRatio is cross extent over main extent per cell. Zero
	// means square cells.
	ChildAspectRatio float64
	// ScrollOffset is the current scroll position in pixels.
	ScrollOffset float64
	// CacheExtent overrides the look-ahead region when positive.
	CacheExtent float64
	// CacheExtentStyle selects pixel or viewport-relative cache extents.
	CacheExtentStyle layout.CacheExtentStyle
	Children         []core.Widget
}

func (g GridView) CreateElement() core.Element {
	return core.NewRenderElement()
}

func (g GridView) Key() any {
	return nil
}

func (g GridView) Arity() core.Arity {
	return core.ArityVariable
}

func (g GridView) Protocol() core.Protocol {
	return core.ProtocolSliver
}

func (g GridView) ChildWidgets() []core.Widget {
	return g.Children
}

func (g GridView) delegate() layout.FixedCrossAxisCountGridDelegate {
	return layout.FixedCrossAxisCountGridDelegate{
		CrossAxisCount:   g.CrossAxisCount,
		MainAxisSpacing:  g.MainAxisSpacing,
		CrossAxisSpacing: g.CrossAxisSpacing,
		ChildAspectRatio: g.ChildAspectRatio,
	}
}

func (g GridView) CreateRenderObject(ctx core.BuildContext) layout.RenderObject {
	viewport := layout.NewRenderViewport(layout.AxisDirectionDown, 0)
	grid := layout.NewRenderSliverGrid(g.delegate())
	viewport.SetSliverChildren([]layout.RenderSliver{grid})
	g.configure(viewport)
	return &renderGridView{RenderViewport: viewport, grid: grid}
}

func (g GridView) UpdateRenderObject(ctx core.BuildContext, renderObject layout.RenderObject) {
	view, ok := renderObject.(*renderGridView)
	if !ok {
		return
	}
	view.grid.SetDelegate(g.delegate())
	g.configure(view.RenderViewport)
}

func (g GridView) configure(viewport *layout.RenderViewport) {
	viewport.SetScrollOffset(g.ScrollOffset)
	if g.CacheExtent > 0 {
		viewport.SetCacheExtent(g.CacheExtent, g.CacheExtentStyle)
	}
}

// renderGridView pairs a viewport with its single grid sliver and routes
// the reconciler's child list to the sliver.
type renderGridView struct {
	*layout.RenderViewport
	grid *layout.RenderSliverGrid
}

func (r *renderGridView) SetChildren(children []layout.RenderObject) {
	r.grid.SetChildren(children)
}
