package rendering

// Layer is a retained piece of painted output.
//
// Repaint boundaries each own a stable Layer; the layer's content is replaced
// when the boundary re-records, but the Layer identity never changes, so
// parent layers can reference children without re-recording themselves.
type Layer struct {
	// Offset is the layer's position within its parent.
	Offset Offset
	// Size is the painted extent of the layer.
	Size Size
	// Dirty marks the layer's content as stale.
	Dirty bool

	content *DisplayList
}

// Content returns the layer's recorded display list, or nil before first paint.
func (l *Layer) Content() *DisplayList {
	return l.content
}

// SetContent replaces the layer's display list and clears the dirty mark.
func (l *Layer) SetContent(content *DisplayList) {
	l.content = content
	l.Dirty = false
}

// MarkDirty flags the layer's content as stale.
func (l *Layer) MarkDirty() {
	l.Dirty = true
}

// Dispose releases the layer's content.
func (l *Layer) Dispose() {
	l.content = nil
}
