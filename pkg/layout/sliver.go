package layout

import (
	"fmt"
	"math"

	"github.com/go-flint/flint/pkg/errors"
	"github.com/go-flint/flint/pkg/rendering"
)

// Axis is a layout axis.
type Axis int

const (
	AxisVertical Axis = iota
	AxisHorizontal
)

// AxisDirection is a direction along a layout axis.
type AxisDirection int

const (
	AxisDirectionDown AxisDirection = iota
	AxisDirectionUp
	AxisDirectionRight
	AxisDirectionLeft
)

// Axis returns the axis the direction runs along.
func (d AxisDirection) Axis() Axis {
	if d == AxisDirectionLeft || d == AxisDirectionRight {
		return AxisHorizontal
	}
	return AxisVertical
}

// GrowthDirection is the direction in which sliver content grows relative to
// its axis direction.
type GrowthDirection int

const (
	GrowthForward GrowthDirection = iota
	GrowthReverse
)

// ScrollDirection is the user's current scroll activity.
type ScrollDirection int

const (
	ScrollIdle ScrollDirection = iota
	ScrollForward
	ScrollReverse
)

// SliverConstraints are the inputs for scroll-aware layout: where the
// viewport's scroll position sits relative to this sliver and how much paint
// and cache space remains for it.
type SliverConstraints struct {
	// AxisDirection is the main-axis direction (e.g., Down for a vertical
	// scroll view).
	AxisDirection AxisDirection
	// GrowthDirection is the content growth direction relative to
	// AxisDirection.
	GrowthDirection GrowthDirection
	// UserScrollDirection is the current scroll activity, for
	// scroll-dependent effects.
	UserScrollDirection ScrollDirection
	// ScrollOffset is the scroll position within this sliver: how far the
	// sliver's leading edge sits before the visible region.
	ScrollOffset float64
	// PrecedingScrollExtent is the scroll extent occupied by earlier slivers.
	PrecedingScrollExtent float64
	// Overlap is how much the previous sliver paints into this one's space
	// (pinned headers).
	Overlap float64
	// RemainingPaintExtent is the viewport space left for this sliver to
	// paint into.
	RemainingPaintExtent float64
	// CrossAxisExtent is the available extent across the main axis.
	CrossAxisExtent float64
	// CrossAxisDirection is the direction along the cross axis.
	CrossAxisDirection AxisDirection
	// ViewportMainAxisExtent is the viewport's full main-axis extent.
	ViewportMainAxisExtent float64
	// RemainingCacheExtent is the space left for layout including the cache
	// region (at least RemainingPaintExtent).
	RemainingCacheExtent float64
	// CacheOrigin is the offset before ScrollOffset where the cache region
	// starts (zero or negative).
	CacheOrigin float64
}

// IsNormalized reports whether the constraint values are internally
// consistent.
func (c SliverConstraints) IsNormalized() bool {
	return c.ScrollOffset >= 0 &&
		c.CrossAxisExtent >= 0 &&
		c.RemainingPaintExtent >= 0 &&
		c.CacheOrigin <= 0 &&
		c.RemainingCacheExtent >= c.RemainingPaintExtent &&
		c.AxisDirection.Axis() != c.CrossAxisDirection.Axis()
}

// AsBoxConstraints converts the sliver constraints into box constraints for
// a child spanning the cross axis, with the given main-axis extent range.
func (c SliverConstraints) AsBoxConstraints(minExtent, maxExtent, crossAxisExtent float64) Constraints {
	cross := crossAxisExtent
	if cross < 0 {
		cross = c.CrossAxisExtent
	}
	if c.AxisDirection.Axis() == AxisHorizontal {
		return Constraints{
			MinWidth:  minExtent,
			MaxWidth:  maxExtent,
			MinHeight: cross,
			MaxHeight: cross,
		}
	}
	return Constraints{
		MinWidth:  cross,
		MaxWidth:  cross,
		MinHeight: minExtent,
		MaxHeight: maxExtent,
	}
}

// SliverGeometry describes the space a sliver occupies after layout.
type SliverGeometry struct {
	// ScrollExtent is the total scrollable length the sliver has content
	// for, whether or not it is currently visible.
	ScrollExtent float64
	// PaintExtent is the currently visible length. Must not exceed the
	// constraints' RemainingPaintExtent.
	PaintExtent float64
	// PaintOrigin is where painting starts relative to the layout position
	// (negative to paint before it).
	PaintOrigin float64
	// LayoutExtent is the length the next sliver is positioned after,
	// including cache look-ahead. Defaults to PaintExtent.
	LayoutExtent float64
	// MaxPaintExtent is the most the sliver could paint if unconstrained.
	MaxPaintExtent float64
	// HitTestExtent is the length accepting hits. Defaults to PaintExtent.
	HitTestExtent float64
	// Visible reports whether any content is currently visible.
	Visible bool
	// HasVisualOverflow reports whether the sliver paints outside its
	// layout bounds, requiring the viewport to clip.
	HasVisualOverflow bool
	// CacheExtent is the length consumed in the cache region.
	CacheExtent float64
}

// checkSliverGeometry validates the geometry invariants against the
// constraints that produced it: paint extent within the remaining paint
// extent, scroll extent at least the paint extent.
func checkSliverGeometry(op string, g SliverGeometry, c SliverConstraints) SliverGeometry {
	ok := g.PaintExtent <= c.RemainingPaintExtent+epsilonSliver &&
		g.ScrollExtent >= g.PaintExtent-epsilonSliver
	if ok {
		return g
	}
	detail := fmt.Sprintf("paintExtent %.2f, remainingPaintExtent %.2f, scrollExtent %.2f",
		g.PaintExtent, c.RemainingPaintExtent, g.ScrollExtent)
	if DebugChecks {
		panic(&errors.ConstraintError{Op: op, Detail: detail})
	}
	errors.ReportConstraintError(&errors.ConstraintError{Op: op, Detail: detail})
	g.PaintExtent = math.Min(g.PaintExtent, c.RemainingPaintExtent)
	g.ScrollExtent = math.Max(g.ScrollExtent, g.PaintExtent)
	return g
}

const epsilonSliver = 0.0001

// RenderSliver is a render node following the sliver protocol.
type RenderSliver interface {
	LayoutSliver(constraints SliverConstraints) SliverGeometry
	SliverGeometry() SliverGeometry
	Paint(ctx *PaintContext)
	MarkNeedsLayout()
	MarkNeedsPaint()
	SetOwner(owner *PipelineOwner)
}

// SliverParentData stores the paint offset the viewport assigned a sliver.
type SliverParentData struct {
	PaintOffset rendering.Offset
}

// RenderSliverBase provides memoized sliver layout, mirroring the box
// protocol's clean-subtree short circuit.
type RenderSliverBase struct {
	self        RenderSliver
	parent      RenderObject
	owner       *PipelineOwner
	constraints SliverConstraints
	geometry    SliverGeometry
	parentData  any
	needsLayout bool
	needsPaint  bool
	depth       int
}

// SetSelf registers the concrete sliver for layout dispatch.
func (r *RenderSliverBase) SetSelf(self RenderSliver) {
	r.self = self
	r.needsLayout = true
	r.needsPaint = true
}

// SetParent records the owning viewport's render object.
func (r *RenderSliverBase) SetParent(parent RenderObject) {
	r.parent = parent
	if getter, ok := parent.(interface{ Depth() int }); ok && parent != nil {
		r.depth = getter.Depth() + 1
	} else {
		r.depth = 0
	}
	r.needsLayout = true
}

// Depth returns the node depth.
func (r *RenderSliverBase) Depth() int {
	return r.depth
}

// SetOwner assigns the pipeline owner.
func (r *RenderSliverBase) SetOwner(owner *PipelineOwner) {
	r.owner = owner
}

// SliverConstraints returns the last received constraints.
func (r *RenderSliverBase) SliverConstraints() SliverConstraints {
	return r.constraints
}

// SliverGeometry returns the last computed geometry.
func (r *RenderSliverBase) SliverGeometry() SliverGeometry {
	return r.geometry
}

// NeedsLayout reports whether the sliver needs layout.
func (r *RenderSliverBase) NeedsLayout() bool {
	return r.needsLayout
}

// MarkNeedsLayout schedules the sliver's owning viewport for relayout.
func (r *RenderSliverBase) MarkNeedsLayout() {
	if r.needsLayout {
		return
	}
	r.needsLayout = true
	if r.parent != nil {
		r.parent.MarkNeedsLayout()
	}
}

// MarkNeedsPaint schedules the sliver's owning viewport for repaint.
func (r *RenderSliverBase) MarkNeedsPaint() {
	r.needsPaint = true
	if r.parent != nil {
		r.parent.MarkNeedsPaint()
	}
}

// ParentData returns viewport-assigned data.
func (r *RenderSliverBase) ParentData() any {
	return r.parentData
}

// SetParentData assigns viewport-controlled data.
func (r *RenderSliverBase) SetParentData(data any) {
	r.parentData = data
}

// LayoutSliver computes geometry for the given constraints, skipping
// recomputation when the sliver is clean and the constraints are unchanged.
func (r *RenderSliverBase) LayoutSliver(constraints SliverConstraints) SliverGeometry {
	if !r.needsLayout && r.constraints == constraints {
		return r.geometry
	}
	r.constraints = constraints
	r.needsLayout = false

	if performer, ok := r.self.(interface {
		PerformSliverLayout() SliverGeometry
	}); ok {
		r.geometry = checkSliverGeometry("layout.RenderSliverBase.LayoutSliver",
			performer.PerformSliverLayout(), constraints)
	}
	return r.geometry
}
