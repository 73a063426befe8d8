package rendering

import "image/color"

// Color is a 32-bit ARGB color value.
type Color uint32

// ColorFromRGBA converts a standard library color to an ARGB Color.
func ColorFromRGBA(c color.RGBA) Color {
	return Color(uint32(c.A)<<24 | uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B))
}

// Alpha returns the alpha channel (0-255).
func (c Color) Alpha() uint8 {
	return uint8(c >> 24)
}

// PaintStyle controls whether shapes are filled or stroked.
type PaintStyle int

const (
	PaintStyleFill PaintStyle = iota
	PaintStyleStroke
)

// Paint describes how a shape is drawn.
type Paint struct {
	Color       Color
	Style       PaintStyle
	StrokeWidth float64
}
