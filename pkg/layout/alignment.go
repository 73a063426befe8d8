package layout

import (
	"math"

	"github.com/go-flint/flint/pkg/rendering"
)

// Alignment describes a point within a rectangle in normalized coordinates:
// (-1, -1) is the top-left corner, (0, 0) the center, (1, 1) the
// bottom-right corner.
type Alignment struct {
	X float64
	Y float64
}

var (
	AlignmentTopLeft      = Alignment{-1, -1}
	AlignmentTopCenter    = Alignment{0, -1}
	AlignmentTopRight     = Alignment{1, -1}
	AlignmentCenterLeft   = Alignment{-1, 0}
	AlignmentCenter       = Alignment{0, 0}
	AlignmentCenterRight  = Alignment{1, 0}
	AlignmentBottomLeft   = Alignment{-1, 1}
	AlignmentBottomCenter = Alignment{0, 1}
	AlignmentBottomRight  = Alignment{1, 1}
)

// WithinRect positions a box of the given size inside rect according to the
// alignment and returns the box's top-left offset.
func (a Alignment) WithinRect(rect rendering.Rect, size rendering.Size) rendering.Offset {
	halfWidthDelta := (rect.Width() - size.Width) / 2
	halfHeightDelta := (rect.Height() - size.Height) / 2
	return rendering.Offset{
		X: rect.Left + halfWidthDelta + a.X*halfWidthDelta,
		Y: rect.Top + halfHeightDelta + a.Y*halfHeightDelta,
	}
}

// EdgeInsets describes offsets from the four edges of a box.
type EdgeInsets struct {
	Left   float64
	Top    float64
	Right  float64
	Bottom float64
}

// EdgeInsetsAll creates insets with the same value on all sides.
func EdgeInsetsAll(value float64) EdgeInsets {
	return EdgeInsets{Left: value, Top: value, Right: value, Bottom: value}
}

// EdgeInsetsSymmetric creates insets with symmetric horizontal and vertical
// values.
func EdgeInsetsSymmetric(horizontal, vertical float64) EdgeInsets {
	return EdgeInsets{Left: horizontal, Top: vertical, Right: horizontal, Bottom: vertical}
}

// EdgeInsetsOnly creates insets with a specific value on each side.
func EdgeInsetsOnly(left, top, right, bottom float64) EdgeInsets {
	return EdgeInsets{Left: left, Top: top, Right: right, Bottom: bottom}
}

// Horizontal returns the combined left and right insets.
func (e EdgeInsets) Horizontal() float64 {
	return e.Left + e.Right
}

// Vertical returns the combined top and bottom insets.
func (e EdgeInsets) Vertical() float64 {
	return e.Top + e.Bottom
}

// TopLeft returns the top-left inset as an offset.
func (e EdgeInsets) TopLeft() rendering.Offset {
	return rendering.Offset{X: e.Left, Y: e.Top}
}

// Deflate shrinks the constraints by the insets, for laying out a child
// inside the padded region.
func (e EdgeInsets) Deflate(c Constraints) Constraints {
	horizontal := e.Horizontal()
	vertical := e.Vertical()
	deflated := Constraints{
		MinWidth:  math.Max(0, c.MinWidth-horizontal),
		MaxWidth:  math.Max(0, c.MaxWidth-horizontal),
		MinHeight: math.Max(0, c.MinHeight-vertical),
		MaxHeight: math.Max(0, c.MaxHeight-vertical),
	}
	return deflated.Normalize()
}

// InflateSize grows a size by the insets.
func (e EdgeInsets) InflateSize(size rendering.Size) rendering.Size {
	return rendering.Size{
		Width:  size.Width + e.Horizontal(),
		Height: size.Height + e.Vertical(),
	}
}
