// Package layout implements the box and sliver layout protocols: constraint
// types, the render object base behavior, dirty scheduling, and the layout
// cache.
package layout

import (
	"math"

	"github.com/go-flint/flint/pkg/rendering"
)

// Inf is the unbounded constraint value.
var Inf = math.Inf(1)

// Constraints describes the box layout constraints passed from parent to
// child: an inclusive range for each axis. Max values may be infinite
// (unbounded), used by scrollable content.
type Constraints struct {
	MinWidth  float64
	MaxWidth  float64
	MinHeight float64
	MaxHeight float64
}

// Tight creates constraints that admit exactly the given size.
func Tight(size rendering.Size) Constraints {
	return Constraints{
		MinWidth:  size.Width,
		MaxWidth:  size.Width,
		MinHeight: size.Height,
		MaxHeight: size.Height,
	}
}

// TightFor creates tight constraints for the given dimensions.
func TightFor(width, height float64) Constraints {
	return Tight(rendering.Size{Width: width, Height: height})
}

// Loose creates constraints with zero minimums and the given size as maximum.
func Loose(size rendering.Size) Constraints {
	return Constraints{
		MaxWidth:  size.Width,
		MaxHeight: size.Height,
	}
}

// Unbounded creates constraints with no maximum on either axis.
func Unbounded() Constraints {
	return Constraints{MaxWidth: Inf, MaxHeight: Inf}
}

// Loosen returns a copy with both minimums set to zero.
func (c Constraints) Loosen() Constraints {
	c.MinWidth = 0
	c.MinHeight = 0
	return c
}

// Tighten returns a copy with both minimums raised to the maximums,
// admitting only the biggest size. Infinite maximums are left loose.
func (c Constraints) Tighten() Constraints {
	if !math.IsInf(c.MaxWidth, 1) {
		c.MinWidth = c.MaxWidth
	}
	if !math.IsInf(c.MaxHeight, 1) {
		c.MinHeight = c.MaxHeight
	}
	return c
}

// Constrain clamps the given size into the constraint range.
func (c Constraints) Constrain(size rendering.Size) rendering.Size {
	return rendering.Size{
		Width:  c.ConstrainWidth(size.Width),
		Height: c.ConstrainHeight(size.Height),
	}
}

// ConstrainWidth clamps a width into the horizontal range.
func (c Constraints) ConstrainWidth(width float64) float64 {
	return math.Min(math.Max(width, c.MinWidth), c.MaxWidth)
}

// ConstrainHeight clamps a height into the vertical range.
func (c Constraints) ConstrainHeight(height float64) float64 {
	return math.Min(math.Max(height, c.MinHeight), c.MaxHeight)
}

// Biggest returns the largest size satisfying the constraints.
func (c Constraints) Biggest() rendering.Size {
	return rendering.Size{Width: c.MaxWidth, Height: c.MaxHeight}
}

// Smallest returns the smallest size satisfying the constraints.
func (c Constraints) Smallest() rendering.Size {
	return rendering.Size{Width: c.MinWidth, Height: c.MinHeight}
}

// IsTight reports whether the constraints admit exactly one size.
func (c Constraints) IsTight() bool {
	return c.MinWidth == c.MaxWidth && c.MinHeight == c.MaxHeight
}

// IsNormalized reports whether min <= max holds on both axes and no value is
// negative.
func (c Constraints) IsNormalized() bool {
	return c.MinWidth >= 0 && c.MinWidth <= c.MaxWidth &&
		c.MinHeight >= 0 && c.MinHeight <= c.MaxHeight
}

// HasBoundedWidth reports whether MaxWidth is finite.
func (c Constraints) HasBoundedWidth() bool {
	return !math.IsInf(c.MaxWidth, 1)
}

// HasBoundedHeight reports whether MaxHeight is finite.
func (c Constraints) HasBoundedHeight() bool {
	return !math.IsInf(c.MaxHeight, 1)
}

// Normalize returns a copy with min/max swapped into order and negative
// values clamped to zero. Used for release-mode recovery after a violated
// normalization check.
func (c Constraints) Normalize() Constraints {
	if c.MinWidth < 0 {
		c.MinWidth = 0
	}
	if c.MinHeight < 0 {
		c.MinHeight = 0
	}
	if c.MinWidth > c.MaxWidth {
		c.MaxWidth = c.MinWidth
	}
	if c.MinHeight > c.MaxHeight {
		c.MaxHeight = c.MinHeight
	}
	return c
}
