package widgets

import (
	"github.com/go-flint/flint/pkg/core"
	"github.com/go-flint/flint/pkg/layout"
	"github.com/go-flint/flint/pkg/rendering"
)

// Padding insets its child by the given edge insets.
type Padding struct {
	core.RenderBase
	Padding layout.EdgeInsets
	Child   core.Widget
}

func (p Padding) CreateElement() core.Element {
	return core.NewRenderElement()
}

func (p Padding) Arity() core.Arity {
	return core.AritySingle
}

func (p Padding) ChildWidget() core.Widget {
	return p.Child
}

func (p Padding) CreateRenderObject(ctx core.BuildContext) layout.RenderObject {
	pad := &renderPadding{padding: p.Padding}
	pad.SetSelf(pad)
	return pad
}

func (p Padding) UpdateRenderObject(ctx core.BuildContext, renderObject layout.RenderObject) {
	pad, ok := renderObject.(*renderPadding)
	if !ok {
		return
	}
	if pad.padding != p.Padding {
		pad.padding = p.Padding
		pad.MarkNeedsLayout()
	}
}

type renderPadding struct {
	layout.RenderBoxBase
	padding layout.EdgeInsets
	child   layout.RenderBox
}

func (r *renderPadding) SetChild(child layout.RenderObject) {
	layout.SetParentOnChild(r.child, nil)
	r.child = layout.AsRenderBox(child)
	layout.SetParentOnChild(r.child, r.Self())
}

func (r *renderPadding) VisitChildren(visitor func(layout.RenderObject)) {
	if r.child != nil {
		visitor(r.child)
	}
}

func (r *renderPadding) PerformLayout() {
	constraints := r.Constraints()
	if r.child == nil {
		r.SetSize(constraints.Constrain(r.padding.InflateSize(rendering.Size{})))
		return
	}
	r.child.Layout(r.padding.Deflate(constraints), true)
	r.child.SetParentData(&layout.BoxParentData{Offset: r.padding.TopLeft()})
	r.SetSize(constraints.Constrain(r.padding.InflateSize(r.child.Size())))
}

func (r *renderPadding) Paint(ctx *layout.PaintContext) {
	if r.child != nil {
		ctx.PaintChildWithLayer(r.child, getChildOffset(r.child))
	}
	r.ClearNeedsPaint()
}
