package layout

import (
	"math"

	"github.com/go-flint/flint/pkg/rendering"
)

// SliverGridLayout describes a fixed-stride grid arrangement computed from
// sliver constraints: every child occupies one cell of childMainAxisExtent by
// childCrossAxisExtent, advanced by the main and cross strides.
type SliverGridLayout struct {
	CrossAxisCount       int
	MainAxisStride       float64
	CrossAxisStride      float64
	ChildMainAxisExtent  float64
	ChildCrossAxisExtent float64
}

// MinChildIndexForScrollOffset returns the first child index whose row
// intersects the given scroll offset.
func (l SliverGridLayout) MinChildIndexForScrollOffset(scrollOffset float64) int {
	if l.MainAxisStride <= 0 {
		return 0
	}
	row := int(math.Floor(scrollOffset / l.MainAxisStride))
	if row < 0 {
		row = 0
	}
	return row * l.CrossAxisCount
}

// MaxChildIndexForScrollOffset returns the last child index whose row
// intersects the given scroll offset.
func (l SliverGridLayout) MaxChildIndexForScrollOffset(scrollOffset float64) int {
	if l.MainAxisStride <= 0 || l.CrossAxisCount <= 0 {
		return 0
	}
	rows := int(math.Ceil(scrollOffset / l.MainAxisStride))
	idx := (rows+1)*l.CrossAxisCount - 1
	if idx < 0 {
		return 0
	}
	return idx
}

// GeometryForChildIndex returns the cell a child occupies: its main-axis
// scroll offset, cross-axis offset, and extents.
func (l SliverGridLayout) GeometryForChildIndex(index int) SliverGridGeometry {
	count := l.CrossAxisCount
	if count < 1 {
		count = 1
	}
	return SliverGridGeometry{
		ScrollOffset:    float64(index/count) * l.MainAxisStride,
		CrossAxisOffset: float64(index%count) * l.CrossAxisStride,
		MainAxisExtent:  l.ChildMainAxisExtent,
		CrossAxisExtent: l.ChildCrossAxisExtent,
	}
}

// ComputeMaxScrollOffset returns the total scroll extent needed to lay out
// childCount children. The last row carries no trailing spacing.
func (l SliverGridLayout) ComputeMaxScrollOffset(childCount int) float64 {
	if childCount <= 0 || l.CrossAxisCount <= 0 {
		return 0
	}
	rows := (childCount + l.CrossAxisCount - 1) / l.CrossAxisCount
	spacing := l.MainAxisStride - l.ChildMainAxisExtent
	return float64(rows)*l.MainAxisStride - spacing
}

// SliverGridGeometry places one grid child within its sliver.
type SliverGridGeometry struct {
	ScrollOffset    float64
	CrossAxisOffset float64
	MainAxisExtent  float64
	CrossAxisExtent float64
}

// BoxConstraints returns tight constraints for the child cell.
func (g SliverGridGeometry) BoxConstraints(c SliverConstraints) Constraints {
	return c.AsBoxConstraints(g.MainAxisExtent, g.MainAxisExtent, g.CrossAxisExtent)
}

// GridDelegate computes a grid layout from sliver constraints.
type GridDelegate interface {
	GetLayout(constraints SliverConstraints) SliverGridLayout
	ShouldRelayout(old GridDelegate) bool
}

// FixedCrossAxisCountGridDelegate arranges children in a fixed number of
// cross-axis tracks, dividing the remaining cross extent evenly.
type FixedCrossAxisCountGridDelegate struct {
	CrossAxisCount   int
	MainAxisSpacing  float64
	CrossAxisSpacing float64
	ChildAspectRatio float64
}

// GetLayout implements GridDelegate.
func (d FixedCrossAxisCountGridDelegate) GetLayout(constraints SliverConstraints) SliverGridLayout {
	count := d.CrossAxisCount
	if count < 1 {
		count = 1
	}
	usable := constraints.CrossAxisExtent - d.CrossAxisSpacing*float64(count-1)
	childCross := usable / float64(count)
	if childCross < 0 {
		childCross = 0
	}
	ratio := d.ChildAspectRatio
	if ratio <= 0 {
		ratio = 1
	}
	childMain := childCross / ratio
	return SliverGridLayout{
		CrossAxisCount:       count,
		MainAxisStride:       childMain + d.MainAxisSpacing,
		CrossAxisStride:      childCross + d.CrossAxisSpacing,
		ChildMainAxisExtent:  childMain,
		ChildCrossAxisExtent: childCross,
	}
}

// ShouldRelayout implements GridDelegate.
func (d FixedCrossAxisCountGridDelegate) ShouldRelayout(old GridDelegate) bool {
	prev, ok := old.(FixedCrossAxisCountGridDelegate)
	if !ok {
		return true
	}
	return prev.CrossAxisCount != d.CrossAxisCount ||
		!floatEqualSliver(prev.MainAxisSpacing, d.MainAxisSpacing) ||
		!floatEqualSliver(prev.CrossAxisSpacing, d.CrossAxisSpacing) ||
		!floatEqualSliver(prev.ChildAspectRatio, d.ChildAspectRatio)
}

// MaxCrossAxisExtentGridDelegate arranges children in as many tracks as fit
// with each track at most MaxCrossAxisExtent wide.
type MaxCrossAxisExtentGridDelegate struct {
	MaxCrossAxisExtent float64
	MainAxisSpacing    float64
	CrossAxisSpacing   float64
	ChildAspectRatio   float64
}

// GetLayout implements GridDelegate.
func (d MaxCrossAxisExtentGridDelegate) GetLayout(constraints SliverConstraints) SliverGridLayout {
	maxExtent := d.MaxCrossAxisExtent
	if maxExtent <= 0 {
		maxExtent = 1
	}
	count := int(math.Ceil((constraints.CrossAxisExtent + d.CrossAxisSpacing) /
		(maxExtent + d.CrossAxisSpacing)))
	if count < 1 {
		count = 1
	}
	fixed := FixedCrossAxisCountGridDelegate{
		CrossAxisCount:   count,
		MainAxisSpacing:  d.MainAxisSpacing,
		CrossAxisSpacing: d.CrossAxisSpacing,
		ChildAspectRatio: d.ChildAspectRatio,
	}
	return fixed.GetLayout(constraints)
}

// ShouldRelayout implements GridDelegate.
func (d MaxCrossAxisExtentGridDelegate) ShouldRelayout(old GridDelegate) bool {
	prev, ok := old.(MaxCrossAxisExtentGridDelegate)
	if !ok {
		return true
	}
	return !floatEqualSliver(prev.MaxCrossAxisExtent, d.MaxCrossAxisExtent) ||
		!floatEqualSliver(prev.MainAxisSpacing, d.MainAxisSpacing) ||
		!floatEqualSliver(prev.CrossAxisSpacing, d.CrossAxisSpacing) ||
		!floatEqualSliver(prev.ChildAspectRatio, d.ChildAspectRatio)
}

func floatEqualSliver(a, b float64) bool {
	return math.Abs(a-b) < epsilonSliver
}

// RenderSliverGrid lays out box children in a delegate-defined grid, only
// materializing the rows intersecting the visible and cache regions.
type RenderSliverGrid struct {
	RenderSliverBase
	delegate GridDelegate
	children []RenderBox

	firstLaidOut int
	lastLaidOut  int
}

// NewRenderSliverGrid returns a grid sliver driven by the given delegate.
func NewRenderSliverGrid(delegate GridDelegate) *RenderSliverGrid {
	r := &RenderSliverGrid{delegate: delegate, firstLaidOut: -1, lastLaidOut: -1}
	r.SetSelf(r)
	return r
}

// Delegate returns the current grid delegate.
func (r *RenderSliverGrid) Delegate() GridDelegate {
	return r.delegate
}

// SetDelegate swaps the delegate, relaying out only when the new delegate
// reports a material change.
func (r *RenderSliverGrid) SetDelegate(delegate GridDelegate) {
	prev := r.delegate
	r.delegate = delegate
	if prev == nil || delegate.ShouldRelayout(prev) {
		r.MarkNeedsLayout()
	}
}

// SetChildren replaces the grid's box children.
func (r *RenderSliverGrid) SetChildren(children []RenderObject) {
	r.children = r.children[:0]
	for _, child := range children {
		if box, ok := child.(RenderBox); ok {
			r.children = append(r.children, box)
		}
	}
	r.MarkNeedsLayout()
}

// ChildCount returns the number of box children.
func (r *RenderSliverGrid) ChildCount() int {
	return len(r.children)
}

// LaidOutRange returns the child index range materialized by the last
// layout, or (-1, -1) when nothing was laid out.
func (r *RenderSliverGrid) LaidOutRange() (first, last int) {
	return r.firstLaidOut, r.lastLaidOut
}

// PerformSliverLayout lays out the intersecting children and reports the
// grid's geometry.
func (r *RenderSliverGrid) PerformSliverLayout() SliverGeometry {
	c := r.SliverConstraints()
	count := len(r.children)
	r.firstLaidOut, r.lastLaidOut = -1, -1
	if count == 0 || r.delegate == nil {
		return SliverGeometry{}
	}

	grid := r.delegate.GetLayout(c)
	totalExtent := grid.ComputeMaxScrollOffset(count)

	cacheStart := math.Max(0, c.ScrollOffset+c.CacheOrigin)
	cacheEnd := c.ScrollOffset + c.RemainingCacheExtent
	first := grid.MinChildIndexForScrollOffset(cacheStart)
	last := grid.MaxChildIndexForScrollOffset(cacheEnd)
	if last > count-1 {
		last = count - 1
	}
	if first > last {
		return SliverGeometry{ScrollExtent: totalExtent, MaxPaintExtent: totalExtent}
	}

	vertical := c.AxisDirection.Axis() == AxisVertical
	for i := first; i <= last; i++ {
		cell := grid.GeometryForChildIndex(i)
		child := r.children[i]
		child.Layout(cell.BoxConstraints(c), true)

		var offset rendering.Offset
		if vertical {
			offset = rendering.Offset{X: cell.CrossAxisOffset, Y: cell.ScrollOffset - c.ScrollOffset}
		} else {
			offset = rendering.Offset{X: cell.ScrollOffset - c.ScrollOffset, Y: cell.CrossAxisOffset}
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
func (r *RenderSliverGrid) Paint(ctx *PaintContext) {
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

func clampSliver(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
