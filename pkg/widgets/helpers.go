package widgets

import (
	"github.com/go-flint/flint/pkg/core"
	"github.com/go-flint/flint/pkg/layout"
	"github.com/go-flint/flint/pkg/rendering"
)

// getChildOffset extracts the offset from a child's parent data.
func getChildOffset(child layout.RenderBox) rendering.Offset {
	if child == nil {
		return rendering.Offset{}
	}
	if data, ok := child.ParentData().(*layout.BoxParentData); ok {
		return data.Offset
	}
	return rendering.Offset{}
}

// Centered wraps a child in a Center widget.
func Centered(child core.Widget) Center {
	return Center{Child: child}
}

// Padded wraps a child with the specified padding.
func Padded(padding layout.EdgeInsets, child core.Widget) Padding {
	return Padding{Padding: padding, Child: child}
}

// PaddingAll wraps a child with uniform padding on all sides.
func PaddingAll(value float64, child core.Widget) Padding {
	return Padding{Padding: layout.EdgeInsetsAll(value), Child: child}
}

// VSpace creates a fixed-height vertical spacer.
func VSpace(height float64) SizedBox {
	return SizedBox{Height: height}
}

// HSpace creates a fixed-width horizontal spacer.
func HSpace(width float64) SizedBox {
	return SizedBox{Width: width}
}
