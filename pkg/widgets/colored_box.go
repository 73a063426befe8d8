package widgets

import (
	"github.com/go-flint/flint/pkg/core"
	"github.com/go-flint/flint/pkg/layout"
	"github.com/go-flint/flint/pkg/rendering"
)

// ColoredBox fills the available space with a solid color.
//
// With no child, it expands to the biggest size its constraints allow, or
// the smallest when unbounded. With a child, it sizes to the child and
// paints the fill behind it.
type ColoredBox struct {
	core.RenderBase
	Color rendering.Color
	Child core.Widget
}

func (c ColoredBox) CreateElement() core.Element {
	return core.NewRenderElement()
}

func (c ColoredBox) Arity() core.Arity {
	return core.AritySingle
}

func (c ColoredBox) ChildWidget() core.Widget {
	return c.Child
}

func (c ColoredBox) CreateRenderObject(ctx core.BuildContext) layout.RenderObject {
	box := &renderColoredBox{color: c.Color}
	box.SetSelf(box)
	return box
}

func (c ColoredBox) UpdateRenderObject(ctx core.BuildContext, renderObject layout.RenderObject) {
	box, ok := renderObject.(*renderColoredBox)
	if !ok {
		return
	}
	if box.color != c.Color {
		box.color = c.Color
		box.MarkNeedsPaint()
	}
}

type renderColoredBox struct {
	layout.RenderBoxBase
	color rendering.Color
	child layout.RenderBox
}

func (r *renderColoredBox) SetChild(child layout.RenderObject) {
	layout.SetParentOnChild(r.child, nil)
	r.child = layout.AsRenderBox(child)
	layout.SetParentOnChild(r.child, r.Self())
}

func (r *renderColoredBox) VisitChildren(visitor func(layout.RenderObject)) {
	if r.child != nil {
		visitor(r.child)
	}
}

func (r *renderColoredBox) PerformLayout() {
	constraints := r.Constraints()
	if r.child != nil {
		r.child.Layout(constraints, true)
		r.SetSize(r.child.Size())
		r.child.SetParentData(&layout.BoxParentData{})
		return
	}
	if constraints.HasBoundedWidth() && constraints.HasBoundedHeight() {
		r.SetSize(constraints.Biggest())
	} else {
		r.SetSize(constraints.Smallest())
	}
}

func (r *renderColoredBox) Paint(ctx *layout.PaintContext) {
	size := r.Size()
	if !size.IsEmpty() {
		ctx.Canvas.DrawRect(
			rendering.RectFromLTWH(0, 0, size.Width, size.Height),
			rendering.Paint{Color: r.color, Style: rendering.PaintStyleFill},
		)
	}
	if r.child != nil {
		ctx.PaintChildWithLayer(r.child, getChildOffset(r.child))
	}
	r.ClearNeedsPaint()
}
