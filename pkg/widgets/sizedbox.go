package widgets

import (
	"github.com/go-flint/flint/pkg/core"
	"github.com/go-flint/flint/pkg/layout"
	"github.com/go-flint/flint/pkg/rendering"
)

// SizedBox forces a specific width and/or height on its child, or reserves
// empty space when it has no child. A zero dimension is treated as
// unspecified and falls back to the incoming constraints.
type SizedBox struct {
	core.RenderBase
	Width  float64
	Height float64
	Child  core.Widget
}

func (s SizedBox) CreateElement() core.Element {
	return core.NewRenderElement()
}

func (s SizedBox) Arity() core.Arity {
	return core.AritySingle
}

func (s SizedBox) ChildWidget() core.Widget {
	return s.Child
}

func (s SizedBox) CreateRenderObject(ctx core.BuildContext) layout.RenderObject {
	box := &renderSizedBox{width: s.Width, height: s.Height}
	box.SetSelf(box)
	return box
}

func (s SizedBox) UpdateRenderObject(ctx core.BuildContext, renderObject layout.RenderObject) {
	box, ok := renderObject.(*renderSizedBox)
	if !ok {
		return
	}
	if box.width != s.Width || box.height != s.Height {
		box.width = s.Width
		box.height = s.Height
		box.MarkNeedsLayout()
	}
}

type renderSizedBox struct {
	layout.RenderBoxBase
	width  float64
	height float64
	child  layout.RenderBox
}

func (r *renderSizedBox) SetChild(child layout.RenderObject) {
	layout.SetParentOnChild(r.child, nil)
	r.child = layout.AsRenderBox(child)
	layout.SetParentOnChild(r.child, r.Self())
}

func (r *renderSizedBox) VisitChildren(visitor func(layout.RenderObject)) {
	if r.child != nil {
		visitor(r.child)
	}
}

// sizeConstraints narrows the incoming constraints to the configured
// dimensions. Unset (zero) dimensions pass the incoming range through.
func (r *renderSizedBox) sizeConstraints(c layout.Constraints) layout.Constraints {
	out := c
	if r.width > 0 {
		w := c.ConstrainWidth(r.width)
		out.MinWidth, out.MaxWidth = w, w
	}
	if r.height > 0 {
		h := c.ConstrainHeight(r.height)
		out.MinHeight, out.MaxHeight = h, h
	}
	return out
}

func (r *renderSizedBox) PerformLayout() {
	constraints := r.sizeConstraints(r.Constraints())
	if r.child != nil {
		r.child.Layout(constraints, true)
		r.SetSize(r.child.Size())
		r.child.SetParentData(&layout.BoxParentData{})
		return
	}
	r.SetSize(constraints.Constrain(rendering.Size{Width: r.width, Height: r.height}))
}

func (r *renderSizedBox) Paint(ctx *layout.PaintContext) {
	if r.child != nil {
		ctx.PaintChildWithLayer(r.child, getChildOffset(r.child))
	}
	r.ClearNeedsPaint()
}
