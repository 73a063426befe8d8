package layout

import (
	"github.com/go-flint/flint/pkg/rendering"
)

// PaintContext provides the canvas for painting render objects.
type PaintContext struct {
	Canvas rendering.Canvas
}

// PaintChild paints a child render box at the given offset.
func (p *PaintContext) PaintChild(child RenderBox, offset rendering.Offset) {
	if child == nil {
		return
	}
	p.Canvas.Save()
	p.Canvas.Translate(offset.X, offset.Y)
	child.Paint(p)
	p.Canvas.Restore()
}

// PaintChildWithLayer paints a child, compositing its cached layer when the
// child is a clean repaint boundary. This is what keeps a parent's recording
// stable while a child boundary re-records independently.
func (p *PaintContext) PaintChildWithLayer(child RenderBox, offset rendering.Offset) {
	if child == nil {
		return
	}

	if boundary, ok := child.(interface {
		IsRepaintBoundary() bool
		Layer() *rendering.Layer
	}); ok && boundary.IsRepaintBoundary() {
		if layer := boundary.Layer(); layer != nil {
			layer.Offset = offset
			p.Canvas.Save()
			p.Canvas.Translate(offset.X, offset.Y)
			p.Canvas.DrawLayer(layer)
			p.Canvas.Restore()
			return
		}
	}

	p.PaintChild(child, offset)
}

// RecordPaint records a render object's painting into a fresh display list.
func RecordPaint(object RenderObject) *rendering.DisplayList {
	var recorder rendering.PictureRecorder
	canvas := recorder.BeginRecording(object.Size())
	ctx := &PaintContext{Canvas: canvas}
	object.Paint(ctx)
	if clearer, ok := object.(interface{ ClearNeedsPaint() }); ok {
		clearer.ClearNeedsPaint()
	}
	return recorder.EndRecording()
}
