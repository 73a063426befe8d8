package layout

import (
	"fmt"

	"golang.org/x/image/colornames"

	"github.com/go-flint/flint/pkg/errors"
	"github.com/go-flint/flint/pkg/rendering"
)

// DebugChecks enables fatal constraint assertions. When false, violations are
// reported through the errors handler and clamped.
var DebugChecks = false

// debugOverflowColor is the indicator color painted over a child that
// overflows its parent's bounds in debug configurations.
var debugOverflowColor = rendering.ColorFromRGBA(colornames.Red)

// checkConstraints validates constraint normalization before use.
// Returns a usable (possibly clamped) value.
func checkConstraints(op string, c Constraints) Constraints {
	if c.IsNormalized() {
		return c
	}
	detail := fmt.Sprintf("min > max or negative min: %+v", c)
	if DebugChecks {
		panic(&errors.ConstraintError{Op: op, Detail: detail})
	}
	errors.ReportConstraintError(&errors.ConstraintError{Op: op, Detail: detail})
	return c.Normalize()
}

// checkFiniteSize validates that a computed size resolved its dimensions.
// An infinite dimension at finalization means an unbounded constraint was
// propagated into a context that cannot resolve it.
func checkFiniteSize(op string, size rendering.Size, c Constraints) rendering.Size {
	if size.IsFinite() {
		return size
	}
	detail := fmt.Sprintf("unresolved infinite extent: %+v", size)
	if DebugChecks {
		panic(&errors.ConstraintError{Op: op, Detail: detail})
	}
	errors.ReportConstraintError(&errors.ConstraintError{Op: op, Detail: detail})
	if !size.IsFinite() {
		fallback := c
		if !fallback.HasBoundedWidth() {
			fallback.MaxWidth = fallback.MinWidth
		}
		if !fallback.HasBoundedHeight() {
			fallback.MaxHeight = fallback.MinHeight
		}
		size = fallback.Constrain(rendering.Size{})
	}
	return size
}

// debugPaintOverflowIndicator flags an overflowing child region.
// Painted only when DebugChecks is enabled; release builds clip silently.
func debugPaintOverflowIndicator(ctx *PaintContext, bounds rendering.Rect) {
	if !DebugChecks || ctx == nil || ctx.Canvas == nil {
		return
	}
	ctx.Canvas.DrawRect(bounds, rendering.Paint{
		Color:       debugOverflowColor,
		Style:       rendering.PaintStyleStroke,
		StrokeWidth: 2,
	})
}
