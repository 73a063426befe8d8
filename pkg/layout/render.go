package layout

import (
	"github.com/go-flint/flint/pkg/rendering"
)

// RenderObject handles layout and painting for one node of the render tree.
type RenderObject interface {
	Layout(constraints Constraints, parentUsesSize bool)
	Size() rendering.Size
	Paint(ctx *PaintContext)
	ParentData() any
	SetParentData(data any)
	MarkNeedsLayout()
	MarkNeedsPaint()
	SetOwner(owner *PipelineOwner)
	IsRepaintBoundary() bool
}

// RenderBox is a RenderObject with box layout.
type RenderBox interface {
	RenderObject
}

// ChildVisitor is implemented by render objects that have children.
type ChildVisitor interface {
	// VisitChildren calls the visitor function for each child.
	VisitChildren(visitor func(RenderObject))
}

// BoxParentData stores the offset for a child in a box layout.
type BoxParentData struct {
	Offset rendering.Offset
}

// RenderBoxBase provides base behavior for render boxes.
type RenderBoxBase struct {
	size             rendering.Size
	parentData       any
	owner            *PipelineOwner
	self             RenderObject
	parent           RenderObject     // parent reference for tree walking
	depth            int              // tree depth (root = 0)
	relayoutBoundary RenderObject     // cached nearest relayout boundary
	needsLayout      bool             // local dirty flag
	constraints      Constraints      // last received constraints
	repaintBoundary  RenderObject     // cached nearest repaint boundary
	needsPaint       bool             // local dirty flag for paint
	layer            *rendering.Layer // stable layer for boundaries
}

// Size returns the current size of the render box.
func (r *RenderBoxBase) Size() rendering.Size {
	return r.size
}

// SetSize updates the render box size.
// If the size changes, marks paint as dirty since the render object's content
// needs to be re-recorded at the new size.
func (r *RenderBoxBase) SetSize(size rendering.Size) {
	if r.size == size {
		return
	}
	r.size = size
	r.MarkNeedsPaint()
}

// ParentData returns the parent-assigned data for this render box.
func (r *RenderBoxBase) ParentData() any {
	return r.parentData
}

// SetParentData assigns parent-controlled data to this render box.
// If the offset in BoxParentData changes, marks the parent for repaint since
// the parent's recorded child reference embeds the offset and becomes stale.
func (r *RenderBoxBase) SetParentData(data any) {
	if newData, ok := data.(*BoxParentData); ok {
		oldData, hadOldData := r.parentData.(*BoxParentData)
		needsParentRepaint := !hadOldData || oldData.Offset != newData.Offset
		if needsParentRepaint && r.parent != nil {
			r.parent.MarkNeedsPaint()
		}
	}
	r.parentData = data
}

// MarkNeedsLayout marks this render box as needing layout.
//
// When a node needs layout, the walk goes up the tree marking each node until
// it reaches a relayout boundary. The boundary then gets scheduled. During
// layout, all marked nodes run their PerformLayout because their needsLayout
// flag is true, so a deep descendant's change propagates from the boundary
// down through all intermediate nodes.
func (r *RenderBoxBase) MarkNeedsLayout() {
	if r.needsLayout {
		return
	}
	r.needsLayout = true

	if r.owner != nil && r.self != nil {
		r.owner.Cache().MarkNodeDirty(r.self)
	}

	if r.owner == nil || r.self == nil {
		return
	}

	// If we are our own relayout boundary, schedule ourselves
	if r.relayoutBoundary == r.self {
		r.owner.ScheduleLayout(r.self)
		return
	}

	// Walk up until a boundary schedules itself. Each node along the path
	// gets needsLayout=true so the layout chain doesn't break at
	// intermediate nodes.
	if r.parent != nil {
		r.parent.MarkNeedsLayout()
		return
	}

	// No parent and not a boundary - likely during initial setup before the
	// tree is fully connected. Schedule self to ensure we get laid out.
	r.owner.ScheduleLayout(r.self)
}

// MarkNeedsPaint marks this render box as needing paint.
//
// The walk goes up the tree until it reaches a repaint boundary, which gets
// scheduled. When we hit a boundary we STOP walking up: parent boundaries
// reference child boundaries by layer, not embedded content, so changing a
// child's content doesn't require re-recording the parent.
//
// Note: unlike MarkNeedsLayout, we don't early-return when needsPaint is
// true. SetSelf pre-sets needsPaint=true without scheduling, and
// SchedulePaint already deduplicates.
func (r *RenderBoxBase) MarkNeedsPaint() {
	r.needsPaint = true

	var isCurrentlyBoundary bool
	if r.self != nil {
		isCurrentlyBoundary = r.self.IsRepaintBoundary()
	}
	wasBoundary := r.layer != nil

	// Boundary status transitions require the parent to re-record.
	if isCurrentlyBoundary != wasBoundary && r.parent != nil {
		r.parent.MarkNeedsPaint()
	}

	if !isCurrentlyBoundary && r.layer != nil {
		r.layer.Dispose()
		r.layer = nil
	}

	if r.owner == nil || r.self == nil {
		if r.layer != nil {
			r.layer.MarkDirty()
		}
		return
	}

	if isCurrentlyBoundary {
		r.EnsureLayer().MarkDirty()
		r.owner.SchedulePaint(r.self)
		return
	}

	if r.parent != nil {
		r.parent.MarkNeedsPaint()
		return
	}

	r.owner.SchedulePaint(r.self)
}

// SetOwner assigns the pipeline owner for scheduling layout and paint.
func (r *RenderBoxBase) SetOwner(owner *PipelineOwner) {
	r.owner = owner
}

// Owner returns the pipeline owner, or nil before attachment.
func (r *RenderBoxBase) Owner() *PipelineOwner {
	return r.owner
}

// SetSelf registers the concrete render object for scheduling.
func (r *RenderBoxBase) SetSelf(self RenderObject) {
	r.self = self
	r.needsLayout = true // new render objects always need initial layout
	r.needsPaint = true  // new render objects always need initial paint
}

// Self returns the concrete render object registered via SetSelf.
func (r *RenderBoxBase) Self() RenderObject {
	return r.self
}

// Parent returns the parent render object.
func (r *RenderBoxBase) Parent() RenderObject {
	return r.parent
}

// SetParent sets the parent render object and computes depth.
// Clears relayoutBoundary and constraints to prevent stale references when
// the object is reparented to a different subtree.
func (r *RenderBoxBase) SetParent(parent RenderObject) {
	if r.parent == parent {
		return
	}
	oldParent := r.parent
	r.parent = parent
	if parent == nil {
		r.depth = 0
	} else if getter, ok := parent.(interface{ Depth() int }); ok {
		r.depth = getter.Depth() + 1
	} else {
		r.depth = 1
	}
	// Clear stale state from old parent tree
	r.relayoutBoundary = nil
	r.constraints = Constraints{}
	r.needsLayout = true
	r.repaintBoundary = nil
	r.needsPaint = true
	// Preserve stable layer identity when reparenting
	if r.layer != nil {
		r.layer.MarkDirty()
	}

	// Both parents' recorded child references are stale.
	if oldParent != nil {
		oldParent.MarkNeedsPaint()
	}
	if parent != nil {
		parent.MarkNeedsPaint()
	}
}

// Depth returns the tree depth (root = 0).
func (r *RenderBoxBase) Depth() int {
	return r.depth
}

// RelayoutBoundary returns the cached nearest relayout boundary.
func (r *RenderBoxBase) RelayoutBoundary() RenderObject {
	return r.relayoutBoundary
}

// NeedsLayout returns true if this render box needs layout.
func (r *RenderBoxBase) NeedsLayout() bool {
	return r.needsLayout
}

// Constraints returns the last received constraints.
func (r *RenderBoxBase) Constraints() Constraints {
	return r.constraints
}

// IsRepaintBoundary returns whether this render object repaints separately.
// Override this in render objects that should isolate their paint.
func (r *RenderBoxBase) IsRepaintBoundary() bool {
	return false
}

// RepaintBoundary returns the cached nearest repaint boundary.
func (r *RenderBoxBase) RepaintBoundary() RenderObject {
	return r.repaintBoundary
}

// NeedsPaint returns true if this render box needs painting.
func (r *RenderBoxBase) NeedsPaint() bool {
	return r.needsPaint
}

// Layer returns the cached layer for repaint boundaries.
func (r *RenderBoxBase) Layer() *rendering.Layer {
	return r.layer
}

// EnsureLayer returns the existing layer or creates one if needed.
// The layer has stable identity - never replace it, only mark dirty.
func (r *RenderBoxBase) EnsureLayer() *rendering.Layer {
	if r.layer == nil {
		r.layer = &rendering.Layer{Dirty: true, Size: r.size}
	}
	return r.layer
}

// SetLayerContent updates the layer's content (called after recording).
func (r *RenderBoxBase) SetLayerContent(content *rendering.DisplayList) {
	if r.layer == nil {
		r.layer = &rendering.Layer{}
	}
	r.layer.SetContent(content)
	r.layer.Size = r.size
}

// ClearNeedsPaint marks this render object as painted.
func (r *RenderBoxBase) ClearNeedsPaint() {
	r.needsPaint = false
}

// Dispose releases resources held by this render box.
// Call this when the render object is permanently removed from the tree.
func (r *RenderBoxBase) Dispose() {
	if r.owner != nil && r.self != nil {
		r.owner.Cache().InvalidateNode(r.self)
	}
	if r.layer != nil {
		r.layer.Dispose()
		r.layer = nil
	}
}

// childCount returns the number of children reachable from the registered
// concrete render object.
func (r *RenderBoxBase) childCount() int {
	visitor, ok := r.self.(ChildVisitor)
	if !ok {
		return 0
	}
	count := 0
	visitor.VisitChildren(func(RenderObject) { count++ })
	return count
}

// Layout handles boundary determination, cache consultation, and delegation
// to PerformLayout.
//
// A node becomes a relayout boundary when:
//   - It receives tight constraints (parent dictates exact size)
//   - It is the root (no parent)
//   - Parent doesn't use our size (parentUsesSize=false)
//
// Boundaries contain layout changes - when a descendant needs layout, the
// walk up stops at the boundary, preventing unnecessary relayout of
// ancestors.
//
// Before computing, the layout cache is consulted with (node, constraints,
// child count); a clean hit restores the cached size with no recomputation.
// A structural change (different child count) misses even under identical
// constraints. After PerformLayout the fresh result is stored.
func (r *RenderBoxBase) Layout(constraints Constraints, parentUsesSize bool) {
	constraints = checkConstraints("layout.RenderBoxBase.Layout", constraints)

	shouldBeBoundary := constraints.IsTight() || r.parent == nil || !parentUsesSize

	if shouldBeBoundary {
		r.relayoutBoundary = r.self
	} else if r.parent != nil {
		// Inherit boundary from parent
		if getter, ok := r.parent.(interface{ RelayoutBoundary() RenderObject }); ok {
			r.relayoutBoundary = getter.RelayoutBoundary()
		}
	}

	// Determine repaint boundary (inherited unless explicit)
	if r.self != nil && r.self.IsRepaintBoundary() {
		r.repaintBoundary = r.self
		// Schedule paint if this boundary needs it. This ensures boundaries
		// are scheduled on their first layout, since SetSelf sets
		// needsPaint=true but can't schedule (no owner yet).
		if r.needsPaint && r.owner != nil {
			r.EnsureLayer().MarkDirty()
			r.owner.SchedulePaint(r.self)
		}
	} else if r.parent != nil {
		if getter, ok := r.parent.(interface{ RepaintBoundary() RenderObject }); ok {
			r.repaintBoundary = getter.RepaintBoundary()
		}
	}

	var cache *LayoutCache
	childCount := 0
	if r.owner != nil && r.self != nil {
		cache = r.owner.Cache()
		childCount = r.childCount()
		if !r.needsLayout {
			if size, ok := cache.Lookup(r.self, constraints, childCount); ok {
				r.size = size
				r.constraints = constraints
				return
			}
		}
	}

	// Skip layout if we're clean and constraints haven't changed.
	// This is the key optimization - unchanged subtrees don't re-layout.
	if !r.needsLayout && r.constraints == constraints {
		return
	}

	// Store constraints and clear the dirty flag before performing layout so
	// that a re-mark during PerformLayout is caught next frame.
	r.constraints = constraints
	r.needsLayout = false

	if performer, ok := r.self.(interface{ PerformLayout() }); ok {
		performer.PerformLayout()
	}

	r.size = checkFiniteSize("layout.RenderBoxBase.Layout", r.size, constraints)

	if cache != nil {
		cache.Store(r.self, constraints, r.childCount(), r.size)
	}
}

// SetParentOnChild sets the parent reference on a child render object.
// It marks both the old and new parent as needing layout when the parent
// changes.
func SetParentOnChild(child, parent RenderObject) {
	if child == nil {
		return
	}
	getter, _ := child.(interface{ Parent() RenderObject })
	setter, ok := child.(interface{ SetParent(RenderObject) })
	if !ok {
		return
	}
	currentParent := RenderObject(nil)
	if getter != nil {
		currentParent = getter.Parent()
	}
	if currentParent == parent {
		return
	}
	setter.SetParent(parent)
	if currentParent != nil {
		currentParent.MarkNeedsLayout()
	}
	if parent != nil {
		parent.MarkNeedsLayout()
	}
}

// AsRenderBox converts a RenderObject to a RenderBox.
// Returns nil if the child is nil or not a RenderBox.
func AsRenderBox(child RenderObject) RenderBox {
	box, _ := child.(RenderBox)
	return box
}

// WithinBounds checks if a position is within the given size.
func WithinBounds(position rendering.Offset, size rendering.Size) bool {
	return position.X >= 0 && position.Y >= 0 && position.X <= size.Width && position.Y <= size.Height
}
