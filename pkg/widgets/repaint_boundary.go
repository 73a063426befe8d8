package widgets

import (
	"github.com/go-flint/flint/pkg/core"
	"github.com/go-flint/flint/pkg/layout"
	"github.com/go-flint/flint/pkg/rendering"
)

// RepaintBoundary isolates its subtree into a separate paint layer.
// This allows the subtree to be cached and reused when it doesn't change,
// which can significantly improve performance for static content next to
// frequently animating content.
type RepaintBoundary struct {
	core.RenderBase
	Child core.Widget
}

func (r RepaintBoundary) CreateElement() core.Element {
	return core.NewRenderElement()
}

func (r RepaintBoundary) Arity() core.Arity {
	return core.AritySingle
}

func (r RepaintBoundary) ChildWidget() core.Widget {
	return r.Child
}

func (r RepaintBoundary) CreateRenderObject(ctx core.BuildContext) layout.RenderObject {
	box := &renderRepaintBoundary{}
	box.SetSelf(box)
	return box
}

func (r RepaintBoundary) UpdateRenderObject(ctx core.BuildContext, renderObject layout.RenderObject) {
	// No properties to update
}

type renderRepaintBoundary struct {
	layout.RenderBoxBase
	child layout.RenderBox
}

// IsRepaintBoundary returns true - this IS a repaint boundary.
func (r *renderRepaintBoundary) IsRepaintBoundary() bool {
	return true
}

func (r *renderRepaintBoundary) SetChild(child layout.RenderObject) {
	layout.SetParentOnChild(r.child, nil)
	r.child = layout.AsRenderBox(child)
	layout.SetParentOnChild(r.child, r.Self())
}

func (r *renderRepaintBoundary) VisitChildren(visitor func(layout.RenderObject)) {
	if r.child != nil {
		visitor(r.child)
	}
}

func (r *renderRepaintBoundary) PerformLayout() {
	constraints := r.Constraints()
	if r.child != nil {
		r.child.Layout(constraints, true)
		r.SetSize(r.child.Size())
		r.child.SetParentData(&layout.BoxParentData{})
	} else {
		r.SetSize(constraints.Constrain(rendering.Size{}))
	}
}

func (r *renderRepaintBoundary) Paint(ctx *layout.PaintContext) {
	if r.child != nil {
		ctx.PaintChild(r.child, getChildOffset(r.child))
	}
	r.ClearNeedsPaint()
}
