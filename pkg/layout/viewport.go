package layout

import (
	"math"

	"github.com/go-flint/flint/pkg/rendering"
)

// CacheExtentStyle selects how a viewport's cache extent value is
// interpreted.
type CacheExtentStyle int

const (
	// CacheExtentPixel treats the cache extent as logical pixels.
	CacheExtentPixel CacheExtentStyle = iota
	// CacheExtentViewport treats the cache extent as a multiple of the
	// viewport's main-axis extent.
	CacheExtentViewport
)

// DefaultCacheExtent is the pixel cache extent used when none is configured.
const DefaultCacheExtent = 250.0

// RenderViewport is the box-protocol host for sliver children: it sizes
// itself to its constraints, translates its scroll offset into per-sliver
// constraints, and positions each sliver's paint region.
//
// The anchor places the zero scroll offset at a fraction of the main-axis
// extent. Slivers before the center index grow against the axis direction.
type RenderViewport struct {
	RenderBoxBase

	axisDirection      AxisDirection
	crossAxisDirection AxisDirection
	anchor             float64
	centerIndex        int
	scrollOffset       float64
	cacheExtent        float64
	cacheStyle         CacheExtentStyle

	children []RenderSliver
}

// NewRenderViewport returns a viewport scrolling along the given axis
// direction with the zero offset anchored at the given fraction.
func NewRenderViewport(axisDirection AxisDirection, anchor float64) *RenderViewport {
	r := &RenderViewport{
		axisDirection: axisDirection,
		anchor:        clampSliver(anchor, 0, 1),
		centerIndex:   -1,
		cacheExtent:   DefaultCacheExtent,
		cacheStyle:    CacheExtentPixel,
	}
	if axisDirection.Axis() == AxisVertical {
		r.crossAxisDirection = AxisDirectionRight
	} else {
		r.crossAxisDirection = AxisDirectionDown
	}
	r.SetSelf(r)
	return r
}

// Anchor returns the zero-offset anchor fraction.
func (r *RenderViewport) Anchor() float64 {
	return r.anchor
}

// SetAnchor moves the zero-offset anchor, clamped to [0, 1].
func (r *RenderViewport) SetAnchor(anchor float64) {
	anchor = clampSliver(anchor, 0, 1)
	if floatEqualSliver(r.anchor, anchor) {
		return
	}
	r.anchor = anchor
	r.MarkNeedsLayout()
}

// ScrollOffset returns the current scroll position.
func (r *RenderViewport) ScrollOffset() float64 {
	return r.scrollOffset
}

// SetScrollOffset moves the scroll position.
func (r *RenderViewport) SetScrollOffset(offset float64) {
	if floatEqualSliver(r.scrollOffset, offset) {
		return
	}
	r.scrollOffset = offset
	r.MarkNeedsLayout()
}

// SetCacheExtent configures the look-ahead region laid out beyond the
// visible extent.
func (r *RenderViewport) SetCacheExtent(value float64, style CacheExtentStyle) {
	if floatEqualSliver(r.cacheExtent, value) && r.cacheStyle == style {
		return
	}
	r.cacheExtent = value
	r.cacheStyle = style
	r.MarkNeedsLayout()
}

// SetCenterIndex selects the sliver at which forward growth starts. Slivers
// before it grow against the axis direction. A negative index means the
// first sliver is the center.
func (r *RenderViewport) SetCenterIndex(index int) {
	if r.centerIndex == index {
		return
	}
	r.centerIndex = index
	r.MarkNeedsLayout()
}

// SetSliverChildren replaces the viewport's sliver children in paint order.
func (r *RenderViewport) SetSliverChildren(children []RenderSliver) {
	for _, child := range r.children {
		if detach, ok := child.(interface{ SetParent(RenderObject) }); ok {
			detach.SetParent(nil)
		}
	}
	r.children = children
	for _, child := range children {
		if attach, ok := child.(interface{ SetParent(RenderObject) }); ok {
			attach.SetParent(r.self)
		}
	}
	r.MarkNeedsLayout()
}

// SliverChildren returns the viewport's sliver children.
func (r *RenderViewport) SliverChildren() []RenderSliver {
	return r.children
}

// VisitChildren implements the box child walk. Sliver children do not
// follow the box protocol, so the walk is empty.
func (r *RenderViewport) VisitChildren(visitor func(RenderObject)) {}

// SetOwner attaches the viewport and its slivers to a pipeline owner.
func (r *RenderViewport) SetOwner(owner *PipelineOwner) {
	r.RenderBoxBase.SetOwner(owner)
	for _, child := range r.children {
		child.SetOwner(owner)
	}
}

func (r *RenderViewport) mainAxisExtent() float64 {
	if r.axisDirection.Axis() == AxisHorizontal {
		return r.Size().Width
	}
	return r.Size().Height
}

func (r *RenderViewport) crossAxisExtent() float64 {
	if r.axisDirection.Axis() == AxisHorizontal {
		return r.Size().Height
	}
	return r.Size().Width
}

// RealizedCacheExtent returns the cache extent in pixels for the viewport's
// current main-axis extent.
func (r *RenderViewport) RealizedCacheExtent() float64 {
	if r.cacheStyle == CacheExtentViewport {
		return r.cacheExtent * r.mainAxisExtent()
	}
	return r.cacheExtent
}

// PerformLayout sizes the viewport to its constraints and sequences sliver
// layout from the center outward.
func (r *RenderViewport) PerformLayout() {
	c := r.Constraints()
	r.SetSize(c.Biggest())

	mainExtent := r.mainAxisExtent()
	crossExtent := r.crossAxisExtent()
	cache := r.RealizedCacheExtent()
	anchorPixels := r.anchor * mainExtent

	center := r.centerIndex
	if center < 0 || center > len(r.children) {
		center = 0
	}

	// Reverse-growth slivers sit before the center and fill the region
	// above the anchor, nearest first.
	preceding := 0.0
	for i := center - 1; i >= 0; i-- {
		r.layoutSliver(r.children[i], GrowthReverse, preceding,
			anchorPixels, mainExtent, crossExtent, cache)
		preceding += r.children[i].SliverGeometry().ScrollExtent
	}

	preceding = 0.0
	for i := center; i < len(r.children); i++ {
		r.layoutSliver(r.children[i], GrowthForward, preceding,
			anchorPixels, mainExtent, crossExtent, cache)
		preceding += r.children[i].SliverGeometry().ScrollExtent
	}
}

// layoutSliver derives one sliver's constraints from the viewport state and
// records its paint offset.
func (r *RenderViewport) layoutSliver(child RenderSliver, growth GrowthDirection,
	preceding, anchorPixels, mainExtent, crossExtent, cache float64) {

	var layoutPos, sliverScroll float64
	if growth == GrowthForward {
		// Layout position of the sliver's leading edge in viewport
		// coordinates.
		layoutPos = anchorPixels + preceding - r.scrollOffset
		sliverScroll = math.Max(0, r.scrollOffset-anchorPixels-preceding)
	} else {
		// Reverse slivers extend from the anchor toward the viewport start,
		// exposed as the scroll offset goes negative.
		layoutPos = anchorPixels - preceding + r.scrollOffset
		sliverScroll = math.Max(0, -r.scrollOffset-preceding)
	}

	remainingPaint := math.Max(0, mainExtent-math.Max(0, layoutPos))
	cacheOrigin := math.Max(-sliverScroll, -cache)
	remainingCache := remainingPaint + cache - cacheOrigin

	constraints := SliverConstraints{
		AxisDirection:          r.axisDirection,
		GrowthDirection:        growth,
		UserScrollDirection:    ScrollIdle,
		ScrollOffset:           sliverScroll,
		PrecedingScrollExtent:  preceding,
		Overlap:                0,
		RemainingPaintExtent:   remainingPaint,
		CrossAxisExtent:        crossExtent,
		CrossAxisDirection:     r.crossAxisDirection,
		ViewportMainAxisExtent: mainExtent,
		RemainingCacheExtent:   remainingCache,
		CacheOrigin:            cacheOrigin,
	}
	geometry := child.LayoutSliver(constraints)

	paintMain := math.Max(0, layoutPos) + geometry.PaintOrigin
	if growth == GrowthReverse {
		paintMain = math.Max(0, layoutPos-geometry.PaintExtent) + geometry.PaintOrigin
	}
	var offset rendering.Offset
	if r.axisDirection.Axis() == AxisVertical {
		offset = rendering.Offset{Y: paintMain}
	} else {
		offset = rendering.Offset{X: paintMain}
	}
	if getter, ok := child.(interface{ ParentData() any }); ok {
		if data, ok := getter.ParentData().(*SliverParentData); ok {
			data.PaintOffset = offset
			return
		}
	}
	if setter, ok := child.(interface{ SetParentData(any) }); ok {
		setter.SetParentData(&SliverParentData{PaintOffset: offset})
	}
}

// Paint draws visible slivers at their assigned paint offsets, clipping to
// the viewport bounds when any sliver overflows. With DebugChecks enabled
// the overflowed bounds are additionally stroked with the indicator color.
func (r *RenderViewport) Paint(ctx *PaintContext) {
	clip := false
	for _, child := range r.children {
		if child.SliverGeometry().HasVisualOverflow {
			clip = true
			break
		}
	}
	if clip {
		ctx.Canvas.Save()
		ctx.Canvas.ClipRect(rendering.RectFromLTWH(0, 0,
			r.Size().Width, r.Size().Height))
		defer ctx.Canvas.Restore()
	}
	for _, child := range r.children {
		if !child.SliverGeometry().Visible {
			continue
		}
		var paintOffset rendering.Offset
		if getter, ok := child.(interface{ ParentData() any }); ok {
			if data, ok := getter.ParentData().(*SliverParentData); ok {
				paintOffset = data.PaintOffset
			}
		}
		ctx.Canvas.Save()
		ctx.Canvas.Translate(paintOffset.X, paintOffset.Y)
		child.Paint(ctx)
		ctx.Canvas.Restore()
	}
	if clip {
		debugPaintOverflowIndicator(ctx, rendering.RectFromLTWH(0, 0,
			r.Size().Width, r.Size().Height))
	}
	r.ClearNeedsPaint()
}

// TotalScrollExtent returns the combined scroll extent of the forward
// slivers after the last layout.
func (r *RenderViewport) TotalScrollExtent() float64 {
	center := r.centerIndex
	if center < 0 || center > len(r.children) {
		center = 0
	}
	total := 0.0
	for i := center; i < len(r.children); i++ {
		total += r.children[i].SliverGeometry().ScrollExtent
	}
	return total
}
