package widgets

import (
	"github.com/go-flint/flint/pkg/core"
	"github.com/go-flint/flint/pkg/layout"
)

// ListView scrolls its children in a single run where every child gets the
// same fixed main-axis extent. Children outside the visible region plus the
// cache extent are skipped entirely.
type ListView struct {
	// ItemExtent is the fixed main-axis extent of every child.
	ItemExtent float64
	// ScrollOffset is the current scroll position in pixels.
	ScrollOffset float64
	// CacheExtent overrides the look-ahead region when positive.
	CacheExtent float64
	// CacheExtentStyle selects pixel or viewport-relative cache extents.
	CacheExtentStyle layout.CacheExtentStyle
	Children         []core.Widget
}

func (l ListView) CreateElement() core.Element {
	return core.NewRenderElement()
}

func (l ListView) Key() any {
	return nil
}

func (l ListView) Arity() core.Arity {
	return core.ArityVariable
}

func (l ListView) Protocol() core.Protocol {
	return core.ProtocolSliver
}

func (l ListView) ChildWidgets() []core.Widget {
	return l.Children
}

func (l ListView) CreateRenderObject(ctx core.BuildContext) layout.RenderObject {
	viewport := layout.NewRenderViewport(layout.AxisDirectionDown, 0)
	list := layout.NewRenderSliverFixedExtentList(l.ItemExtent)
	viewport.SetSliverChildren([]layout.RenderSliver{list})
	l.configure(viewport)
	return &renderListView{RenderViewport: viewport, list: list}
}

func (l ListView) UpdateRenderObject(ctx core.BuildContext, renderObject layout.RenderObject) {
	view, ok := renderObject.(*renderListView)
	if !ok {
		return
	}
	view.list.SetItemExtent(l.ItemExtent)
	l.configure(view.RenderViewport)
}

func (l ListView) configure(viewport *layout.RenderViewport) {
	viewport.SetScrollOffset(l.ScrollOffset)
	if l.CacheExtent > 0 {
		viewport.SetCacheExtent(l.CacheExtent, l.CacheExtentStyle)
	}
}

type renderListView struct {
	*layout.RenderViewport
	list *layout.RenderSliverFixedExtentList
}

func (r *renderListView) SetChildren(children []layout.RenderObject) {
	r.list.SetChildren(children)
}
