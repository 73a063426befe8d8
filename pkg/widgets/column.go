package widgets

import (
	"math"

	"github.com/go-flint/flint/pkg/core"
	"github.com/go-flint/flint/pkg/layout"
	"github.com/go-flint/flint/pkg/rendering"
)

// Column lays out its children vertically, top to bottom. Each child is
// given the column's loose cross-axis constraints and unbounded height, and
// the column sizes to the tallest stack that fits.
type Column struct {
	core.RenderBase
	Children []core.Widget
}

func (c Column) CreateElement() core.Element {
	return core.NewRenderElement()
}

func (c Column) Arity() core.Arity {
	return core.ArityMulti
}

func (c Column) ChildWidgets() []core.Widget {
	return c.Children
}

func (c Column) CreateRenderObject(ctx core.BuildContext) layout.RenderObject {
	column := &renderColumn{}
	column.SetSelf(column)
	return column
}

func (c Column) UpdateRenderObject(ctx core.BuildContext, renderObject layout.RenderObject) {}

type renderColumn struct {
	layout.RenderBoxBase
	children []layout.RenderBox
}

func (r *renderColumn) SetChildren(children []layout.RenderObject) {
	for _, child := range r.children {
		layout.SetParentOnChild(child, nil)
	}
	r.children = r.children[:0]
	for _, child := range children {
		if box := layout.AsRenderBox(child); box != nil {
			r.children = append(r.children, box)
			layout.SetParentOnChild(box, r.Self())
		}
	}
	r.MarkNeedsLayout()
}

func (r *renderColumn) VisitChildren(visitor func(layout.RenderObject)) {
	for _, child := range r.children {
		visitor(child)
	}
}

func (r *renderColumn) PerformLayout() {
	constraints := r.Constraints()
	childConstraints := layout.Constraints{
		MaxWidth:  constraints.MaxWidth,
		MaxHeight: math.Inf(1),
	}

	var width, height float64
	for _, child := range r.children {
		child.Layout(childConstraints, true)
		size := child.Size()
		child.SetParentData(&layout.BoxParentData{Offset: rendering.Offset{Y: height}})
		height += size.Height
		width = math.Max(width, size.Width)
	}
	r.SetSize(constraints.Constrain(rendering.Size{Width: width, Height: height}))
}

func (r *renderColumn) Paint(ctx *layout.PaintContext) {
	for _, child := range r.children {
		ctx.PaintChildWithLayer(child, getChildOffset(child))
	}
	r.ClearNeedsPaint()
}
