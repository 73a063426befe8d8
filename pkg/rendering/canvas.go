package rendering

// Canvas records or renders drawing commands.
type Canvas interface {
	// Save pushes the current transform and clip state.
	Save()

	// Restore pops the most recent transform and clip state.
	Restore()

	// Translate moves the origin by the given offset.
	Translate(dx, dy float64)

	// ClipRect restricts future drawing to the given rectangle.
	ClipRect(rect Rect)

	// Clear fills the entire canvas with the given color.
	Clear(color Color)

	// DrawRect draws a rectangle with the provided paint.
	DrawRect(rect Rect, paint Paint)

	// DrawLine draws a line segment with the provided paint.
	DrawLine(start, end Offset, paint Paint)

	// DrawLayer composites a previously produced layer at the current transform.
	DrawLayer(layer *Layer)
}

// DisplayList is an immutable list of drawing operations.
// It can be replayed onto any Canvas implementation.
type DisplayList struct {
	ops  []displayOp
	size Size
}

// Paint replays the recorded operations onto the provided canvas.
func (d *DisplayList) Paint(canvas Canvas) {
	for _, op := range d.ops {
		op.execute(canvas)
	}
}

// Size returns the size recorded when the display list was created.
func (d *DisplayList) Size() Size {
	return d.size
}

// OpCount returns the number of recorded operations.
func (d *DisplayList) OpCount() int {
	return len(d.ops)
}

type displayOp interface {
	execute(canvas Canvas)
}

type opSave struct{}

func (opSave) execute(c Canvas) { c.Save() }

type opRestore struct{}

func (opRestore) execute(c Canvas) { c.Restore() }

type opTranslate struct{ dx, dy float64 }

func (o opTranslate) execute(c Canvas) { c.Translate(o.dx, o.dy) }

type opClipRect struct{ rect Rect }

func (o opClipRect) execute(c Canvas) { c.ClipRect(o.rect) }

type opClear struct{ color Color }

func (o opClear) execute(c Canvas) { c.Clear(o.color) }

type opDrawRect struct {
	rect  Rect
	paint Paint
}

func (o opDrawRect) execute(c Canvas) { c.DrawRect(o.rect, o.paint) }

type opDrawLine struct {
	start, end Offset
	paint      Paint
}

func (o opDrawLine) execute(c Canvas) { c.DrawLine(o.start, o.end, o.paint) }

type opDrawLayer struct{ layer *Layer }

func (o opDrawLayer) execute(c Canvas) { c.DrawLayer(o.layer) }

// PictureRecorder records drawing commands into a display list.
type PictureRecorder struct {
	ops       []displayOp
	recording bool
	size      Size
}

// BeginRecording starts a new recording session.
func (r *PictureRecorder) BeginRecording(size Size) Canvas {
	r.ops = r.ops[:0]
	r.recording = true
	r.size = size
	return &recordingCanvas{recorder: r}
}

// EndRecording finishes the recording and returns a display list.
func (r *PictureRecorder) EndRecording() *DisplayList {
	if !r.recording {
		return &DisplayList{size: r.size}
	}
	r.recording = false
	ops := make([]displayOp, len(r.ops))
	copy(ops, r.ops)
	return &DisplayList{
		ops:  ops,
		size: r.size,
	}
}

func (r *PictureRecorder) append(op displayOp) {
	if !r.recording {
		return
	}
	r.ops = append(r.ops, op)
}

type recordingCanvas struct {
	recorder *PictureRecorder
}

func (c *recordingCanvas) Save()                { c.recorder.append(opSave{}) }
func (c *recordingCanvas) Restore()             { c.recorder.append(opRestore{}) }
func (c *recordingCanvas) Translate(dx, dy float64) {
	c.recorder.append(opTranslate{dx: dx, dy: dy})
}
func (c *recordingCanvas) ClipRect(rect Rect)   { c.recorder.append(opClipRect{rect: rect}) }
func (c *recordingCanvas) Clear(color Color)    { c.recorder.append(opClear{color: color}) }
func (c *recordingCanvas) DrawRect(rect Rect, paint Paint) {
	c.recorder.append(opDrawRect{rect: rect, paint: paint})
}
func (c *recordingCanvas) DrawLine(start, end Offset, paint Paint) {
	c.recorder.append(opDrawLine{start: start, end: end, paint: paint})
}
func (c *recordingCanvas) DrawLayer(layer *Layer) {
	c.recorder.append(opDrawLayer{layer: layer})
}
