package widgets

import (
	"math"

	"github.com/go-flint/flint/pkg/core"
	"github.com/go-flint/flint/pkg/layout"
	"github.com/go-flint/flint/pkg/rendering"
)

// Center positions its child at the center of the available space.
//
// Center expands to fill available space, then centers the child within
// that space. The child is given loose constraints, allowing it to size
// itself.
//
// Example:
//
//	Center{Child: ColoredBox{Color: 0xFF2196F3}}
type Center struct {
	core.RenderBase
	Child core.Widget
}

func (c Center) CreateElement() core.Element {
	return core.NewRenderElement()
}

func (c Center) Arity() core.Arity {
	return core.AritySingle
}

func (c Center) ChildWidget() core.Widget {
	return c.Child
}

func (c Center) CreateRenderObject(ctx core.BuildContext) layout.RenderObject {
	center := &renderCenter{}
	center.SetSelf(center)
	return center
}

func (c Center) UpdateRenderObject(ctx core.BuildContext, renderObject layout.RenderObject) {}

type renderCenter struct {
	layout.RenderBoxBase
	child layout.RenderBox
}

func (r *renderCenter) SetChild(child layout.RenderObject) {
	layout.SetParentOnChild(r.child, nil)
	r.child = layout.AsRenderBox(child)
	layout.SetParentOnChild(r.child, r.Self())
}

func (r *renderCenter) VisitChildren(visitor func(layout.RenderObject)) {
	if r.child != nil {
		visitor(r.child)
	}
}

func (r *renderCenter) PerformLayout() {
	constraints := r.Constraints()

	// Handle unbounded constraints by measuring the child first.
	targetWidth := constraints.MaxWidth
	targetHeight := constraints.MaxHeight
	childAlreadyLaidOut := false

	if r.child != nil && (math.IsInf(targetWidth, 1) || math.IsInf(targetHeight, 1)) {
		r.child.Layout(layout.Loose(rendering.Size{Width: targetWidth, Height: targetHeight}), true)
		childSize := r.child.Size()
		if math.IsInf(targetWidth, 1) {
			targetWidth = childSize.Width
		}
		if math.IsInf(targetHeight, 1) {
			targetHeight = childSize.Height
		}
		if math.IsInf(constraints.MaxWidth, 1) && math.IsInf(constraints.MaxHeight, 1) {
			childAlreadyLaidOut = true
		}
	}

	size := constraints.Constrain(rendering.Size{Width: targetWidth, Height: targetHeight})
	r.SetSize(size)

	if r.child != nil {
		if !childAlreadyLaidOut {
			r.child.Layout(layout.Loose(size), true)
		}
		childSize := r.child.Size()
		offset := layout.AlignmentCenter.WithinRect(
			rendering.RectFromLTWH(0, 0, size.Width, size.Height),
			childSize,
		)
		r.child.SetParentData(&layout.BoxParentData{Offset: offset})
	}
}

func (r *renderCenter) Paint(ctx *layout.PaintContext) {
	if r.child != nil {
		ctx.PaintChildWithLayer(r.child, getChildOffset(r.child))
	}
	r.ClearNeedsPaint()
}
