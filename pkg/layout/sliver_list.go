package layout

import (
	"math"

	"github.com/go-flint/flint/pkg/rendering"
)

// RenderSliverFixedExtentList lays out box children in a single main-axis
// run where every child occupies the same fixed extent, so child positions
// are computable without laying out the preceding children.
type RenderSliverFixedExtentList struct {
	RenderSliverBase
	itemExtent float64
	children   []RenderBox

	firstLaidOut int
	lastLaidOut  int
}

// NewRenderSliverFixedExtentList returns a list sliver with the given
// per-child main-axis extent.
func NewRenderSliverFixedExtentList(itemExtent float64) *RenderSliverFixedExtentList {
	r := &RenderSliverFixedExtentList{itemExtent: itemExtent, firstLaidOut: -1, lastLaidOut: -1}
	r.SetSelf(r)
	return r
}

// ItemExtent returns the fixed per-child extent.
func (r *RenderSliverFixedExtentList) ItemExtent() float64 {
	return r.itemExtent
}

// SetItemExtent changes the per-child extent.
func (r *RenderSliverFixedExtentList) SetItemExtent(extent float64) {
	if floatEqualSliver(r.itemExtent, extent) {
		return
	}
	r.itemExtent = extent
	r.MarkNeedsLayout()
}

// SetChildren replaces the list's box children.
func (r *RenderSliverFixedExtentList) SetChildren(children []RenderObject) {
	r.children = r.children[:0]
	for _, child := range children {
		if box, ok := child.(RenderBox); ok {
			r.children = append(r.children, box)
		}
	}
	r.MarkNeedsLayout()
}

// ChildCount returns the number of box children.
func (r *RenderSliverFixedExtentList) ChildCount() int {
	return len(r.children)
}

// LaidOutRange returns the child index range materialized by the last
// layout, or (-1, -1) when nothing was laid out.
func (r *RenderSliverFixedExtentList) LaidOutRange() (first, last int) {
	return r.firstLaidOut, r.lastLaidOut
}

// PerformSliverLayout lays out the children intersecting the visible and
// cache regions and reports the list's geometry.
func (r *RenderSliverFixedExtentList) PerformSliverLayout() SliverGeometry {
	c := r.SliverConstraints()
	count := len(r.children)
	r.firstLaidOut, r.lastLaidOut = -1, -1
	if count == 0 || r.itemExtent <= 0 {
		return SliverGeometry{}
	}

	totalExtent := float64(count) * r.itemExtent
	cacheStart := math.Max(0, c.ScrollOffset+c.CacheOrigin)
	cacheEnd := c.ScrollOffset + c.RemainingCacheExtent

	first := int(math.Floor(cacheStart / r.itemExtent))
	last := int(math.Ceil(cacheEnd / r.itemExtent))
	if first < 0 {
		first = 0
	}
	if last > count-1 {
		last = count - 1
	}
	if first > last {
		return SliverGeometry{ScrollExtent: totalExtent, MaxPaintExtent: totalExtent}
	}

	vertical := c.AxisDirection.Axis() == AxisVertical
	childConstraints := c.AsBoxConstraints(r.itemExtent, r.itemExtent, -1)
	for i := first; i <= last; i++ {
		child := r.children[i]
		child.Layout(childConstraints, true)

		main := float64(i)*r.itemExtent - c.ScrollOffset
		var offset rendering.Offset
		if vertical {
			offset = rendering.Offset{Y: main}
		} else {
			offset = rendering.Offset{X: main}
		}
		if data, ok := child.ParentData().(*BoxParentData); ok {
			data.Offset = offset
		} else {
			child.SetParentData(&BoxParentData{Offset: offset})
		}
	}
	r.firstLaidOut, r.lastLaidOut = first, last

	paintExtent := clampSliver(totalExtent-c.ScrollOffset, 0, c.RemainingPaintExtent)
	cacheExtent := clampSliver(totalExtent-cacheStart, 0, c.RemainingCacheExtent)
	return SliverGeometry{
		ScrollExtent:      totalExtent,
		PaintExtent:       paintExtent,
		LayoutExtent:      paintExtent,
		MaxPaintExtent:    totalExtent,
		HitTestExtent:     paintExtent,
		Visible:           paintExtent > 0,
		HasVisualOverflow: totalExtent > c.RemainingPaintExtent+c.ScrollOffset || c.ScrollOffset > 0,
		CacheExtent:       cacheExtent,
	}
}

// Paint draws the laid-out children at their assigned offsets.
func (r *RenderSliverFixedExtentList) Paint(ctx *PaintContext) {
	if r.firstLaidOut < 0 {
		return
	}
	for i := r.firstLaidOut; i <= r.lastLaidOut && i < len(r.children); i++ {
		child := r.children[i]
		offset := rendering.Offset{}
		if data, ok := child.ParentData().(*BoxParentData); ok {
			offset = data.Offset
		}
		ctx.PaintChild(child, offset)
	}
	r.needsPaint = false
}
