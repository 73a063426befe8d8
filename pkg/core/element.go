package core

import (
	"fmt"
	"reflect"
	"time"

	"github.com/go-flint/flint/pkg/errors"
	"github.com/go-flint/flint/pkg/layout"
)

// Lifecycle is an element's position in its state machine:
// Initial -> Active <-> Inactive -> Defunct. Defunct is absorbing; a defunct
// handle never resolves again.
type Lifecycle int

const (
	// LifecycleInitial is the state before first mount.
	LifecycleInitial Lifecycle = iota
	// LifecycleActive is mounted and participating in frames.
	LifecycleActive
	// LifecycleInactive is temporarily detached (e.g., keyed reparenting)
	// without destruction. Inactive elements not reactivated by end of frame
	// are unmounted.
	LifecycleInactive
	// LifecycleDefunct is unmounted; terminal.
	LifecycleDefunct
)

func (l Lifecycle) String() string {
	switch l {
	case LifecycleActive:
		return "active"
	case LifecycleInactive:
		return "inactive"
	case LifecycleDefunct:
		return "defunct"
	default:
		return "initial"
	}
}

// Element is the instantiation of a Widget at a particular location in the
// tree. Elements manage lifecycle and identity across rebuilds.
type Element interface {
	BuildContext

	Handle() Handle
	Depth() int
	Slot() any
	Lifecycle() Lifecycle
	Flags() ElementFlags
	Mount(parent Element, slot any)
	Update(newWidget Widget)
	Unmount()
	Deactivate()
	Activate()
	MarkNeedsBuild()
	RebuildIfNeeded()
	VisitChildren(visitor func(Element) bool)
	RenderObject() layout.RenderObject

	parentElement() Element
	setWidget(widget Widget)
	setBuildOwner(owner *BuildOwner)
	setSelf(self Element)
	setSlot(slot any)
	bind(handle Handle, flags ElementFlags, tree *Tree)
}

type elementBase struct {
	widget       Widget
	parent       Element
	depth        int
	slot         any
	buildOwner   *BuildOwner
	self         Element
	handle       Handle
	flags        ElementFlags
	lifecycle    Lifecycle
	tree         *Tree
	renderParent *RenderElement // nearest ancestor that owns a render object
}

func newElementBase() elementBase {
	return elementBase{flags: NewElementFlags()}
}

func (e *elementBase) Widget() Widget {
	return e.widget
}

func (e *elementBase) Handle() Handle {
	return e.handle
}

func (e *elementBase) Depth() int {
	return e.depth
}

func (e *elementBase) Slot() any {
	return e.slot
}

func (e *elementBase) Lifecycle() Lifecycle {
	return e.lifecycle
}

func (e *elementBase) Flags() ElementFlags {
	return e.flags
}

func (e *elementBase) MarkNeedsBuild() {
	if e.lifecycle == LifecycleDefunct {
		return
	}
	if e.flags.Contains(FlagDirty) {
		return
	}
	e.flags.Insert(FlagDirty)
	if e.buildOwner != nil && e.self != nil {
		e.buildOwner.ScheduleBuild(e.self)
	}
}

func (e *elementBase) parentElement() Element {
	return e.parent
}

func (e *elementBase) setWidget(widget Widget) {
	e.widget = widget
}

func (e *elementBase) setSelf(self Element) {
	e.self = self
}

func (e *elementBase) setBuildOwner(owner *BuildOwner) {
	e.buildOwner = owner
}

func (e *elementBase) setSlot(slot any) {
	e.slot = slot
}

func (e *elementBase) setParent(parent Element) {
	e.parent = parent
}

func (e *elementBase) bind(handle Handle, flags ElementFlags, tree *Tree) {
	e.handle = handle
	e.flags = flags
	e.tree = tree
}

func (e *elementBase) isMounted() bool {
	return e.lifecycle == LifecycleActive
}

// mountBase performs the bookkeeping common to all element kinds: parent and
// depth wiring, arena registration, and the initial flag byte. New elements
// start dirty for build, layout, and paint.
func (e *elementBase) mountBase(parent Element, slot any) {
	e.parent = parent
	e.slot = slot
	if parent != nil {
		e.depth = parent.Depth() + 1
	} else {
		e.depth = 0
	}
	if e.buildOwner != nil && e.handle.IsNull() {
		e.buildOwner.Tree().Insert(e.self)
	}
	e.lifecycle = LifecycleActive
	e.flags.Insert(FlagDirty | FlagNeedsLayout | FlagNeedsPaint | FlagMounted | FlagActive)
	e.flags.Remove(FlagDetached)
}

// unmountBase releases the arena slot and moves the element to Defunct.
// Concrete Unmount implementations detach children first.
func (e *elementBase) unmountBase() {
	e.lifecycle = LifecycleDefunct
	e.flags.Store(FlagDetached)
	if e.tree != nil && !e.handle.IsNull() {
		e.tree.release(e.handle)
	}
	e.parent = nil
	e.renderParent = nil
}

func (e *elementBase) deactivateBase() {
	if e.lifecycle != LifecycleActive {
		return
	}
	e.lifecycle = LifecycleInactive
	e.flags.Remove(FlagActive)
	e.flags.Insert(FlagDetached)
}

// activateBase reattaches a deactivated element below a new parent and slot.
// Reactivation re-marks the element dirty for rebuild.
func (e *elementBase) activateBase(parent Element, slot any) {
	e.parent = parent
	e.slot = slot
	if parent != nil {
		e.depth = parent.Depth() + 1
	} else {
		e.depth = 0
	}
	e.lifecycle = LifecycleActive
	e.flags.Insert(FlagActive | FlagMounted)
	e.flags.Remove(FlagDetached)
	e.flags.Remove(FlagDirty) // MarkNeedsBuild below re-inserts and schedules
	if e.self != nil {
		e.self.MarkNeedsBuild()
	}
}

// findRenderParent walks up the element tree to find the nearest
// RenderElement.
func (e *elementBase) findRenderParent() *RenderElement {
	current := e.parent
	for current != nil {
		if renderElement, ok := current.(*RenderElement); ok {
			return renderElement
		}
		current = current.parentElement()
	}
	return nil
}

func (e *elementBase) FindAncestor(predicate func(Element) bool) Element {
	current := e.parent
	for current != nil {
		if predicate(current) {
			return current
		}
		current = current.parentElement()
	}
	return nil
}

// safeBuild executes a build function with panic recovery.
// A panicking build reports through the errors handler and yields no child;
// the failure stays contained to this subtree.
func (e *elementBase) safeBuild(buildFn func() Widget) Widget {
	var built Widget
	var buildErr *errors.BuildError

	func() {
		defer func() {
			if r := recover(); r != nil {
				buildErr = &errors.BuildError{
					Widget:     reflect.TypeOf(e.widget).String(),
					Element:    reflect.TypeOf(e.self).String(),
					Recovered:  r,
					StackTrace: errors.CaptureStack(),
					Timestamp:  time.Now(),
				}
			}
		}()
		built = buildFn()
	}()

	if buildErr != nil {
		errors.ReportBuildError(buildErr)
		return nil
	}
	return built
}

// CompositeElement hosts a widget that builds a child widget. It owns no
// render object.
type CompositeElement struct {
	elementBase
	child Element
}

// NewCompositeElement creates an unmounted composite element.
func NewCompositeElement() *CompositeElement {
	e := &CompositeElement{elementBase: newElementBase()}
	e.setSelf(e)
	return e
}

func (e *CompositeElement) Mount(parent Element, slot any) {
	e.mountBase(parent, slot)
	e.renderParent = e.findRenderParent()
	e.rebuild()
}

func (e *CompositeElement) Update(newWidget Widget) {
	e.widget = newWidget
	e.MarkNeedsBuild()
}

func (e *CompositeElement) Unmount() {
	if e.lifecycle == LifecycleDefunct {
		return
	}
	if e.child != nil {
		e.child.Unmount()
		e.child = nil
	}
	e.unmountBase()
}

func (e *CompositeElement) Deactivate() {
	e.deactivateBase()
	if e.child != nil {
		e.child.Deactivate()
	}
}

func (e *CompositeElement) Activate() {
	e.activateBase(e.parent, e.slot)
	if e.child != nil {
		e.child.Activate()
	}
}

func (e *CompositeElement) RebuildIfNeeded() {
	if !e.flags.Contains(FlagDirty) || !e.isMounted() {
		return
	}
	e.rebuild()
}

func (e *CompositeElement) rebuild() {
	// Clear the dirty flag before building so a mark made during the build
	// re-schedules the element for the next pass instead of being swallowed.
	e.flags.Remove(FlagDirty)
	widget, ok := e.widget.(CompositeWidget)
	if !ok {
		return
	}
	built := e.safeBuild(func() Widget { return widget.Build(e) })
	e.child = updateChild(e.child, built, e, nil, e.buildOwner)
}

func (e *CompositeElement) VisitChildren(visitor func(Element) bool) {
	if e.child != nil {
		visitor(e.child)
	}
}

// RenderObject returns the render object of the built subtree.
func (e *CompositeElement) RenderObject() layout.RenderObject {
	if e.child != nil {
		return e.child.RenderObject()
	}
	return nil
}

// RenderElement hosts a widget that owns a render object, with a declared
// arity and protocol checked at mount.
type RenderElement struct {
	elementBase
	renderObject layout.RenderObject
	children     []Element
}

// NewRenderElement creates an unmounted render element.
func NewRenderElement() *RenderElement {
	e := &RenderElement{elementBase: newElementBase()}
	e.setSelf(e)
	return e
}

func (e *RenderElement) Mount(parent Element, slot any) {
	e.mountBase(parent, slot)

	widget := e.widget.(RenderWidget)
	e.renderObject = widget.CreateRenderObject(e)
	e.checkProtocol(widget)
	if e.buildOwner != nil && e.renderObject != nil {
		e.renderObject.SetOwner(e.buildOwner.Pipeline())
	}
	e.attachRenderObject(slot)
	e.rebuild()
}

func (e *RenderElement) Update(newWidget Widget) {
	e.widget = newWidget
	e.MarkNeedsBuild()
}

func (e *RenderElement) Unmount() {
	if e.lifecycle == LifecycleDefunct {
		return
	}
	// Children first: their render objects detach before ours is disposed,
	// so child handles never point at unmounted parents.
	for i := len(e.children) - 1; i >= 0; i-- {
		e.children[i].Unmount()
	}
	e.children = nil

	e.detachRenderObject()
	if disposer, ok := e.renderObject.(interface{ Dispose() }); ok {
		disposer.Dispose()
	}
	e.renderObject = nil
	e.unmountBase()
}

func (e *RenderElement) Deactivate() {
	e.deactivateBase()
	e.detachRenderObject()
	for _, child := range e.children {
		child.Deactivate()
	}
}

func (e *RenderElement) Activate() {
	e.activateBase(e.parent, e.slot)
	e.renderParent = e.findRenderParent()
	e.attachRenderObject(e.slot)
	for _, child := range e.children {
		child.Activate()
	}
}

func (e *RenderElement) RebuildIfNeeded() {
	if !e.flags.Contains(FlagDirty) || !e.isMounted() {
		return
	}
	e.rebuild()
}

func (e *RenderElement) rebuild() {
	// Cleared before the update runs; a mark made mid-rebuild re-schedules.
	e.flags.Remove(FlagDirty)

	widget := e.widget.(RenderWidget)
	widget.UpdateRenderObject(e, e.renderObject)

	want := childWidgetsOf(widget)
	e.checkArity(widget, len(want))
	e.children = updateChildren(e.children, want, e, e.buildOwner)

	// Rebuild the render children list now that e.children is fully
	// populated. insertRenderObjectChild only sets parent references for
	// multi-child render objects - it can't rebuild the list during child
	// mount since e.children isn't ready yet.
	e.rebuildChildrenRenderList()
}

// checkArity verifies the configured child count against the widget's
// declared arity. Violations are reported and the excess ignored rather
// than crashing the frame.
func (e *RenderElement) checkArity(widget RenderWidget, childCount int) {
	arity := widget.Arity()
	violated := (arity == ArityLeaf && childCount > 0) ||
		(arity == AritySingle && childCount > 1)
	if !violated {
		return
	}
	errors.Report(&errors.EngineError{
		Op:   "core.RenderElement.Mount",
		Kind: errors.KindBuild,
		Err: fmt.Errorf("%s widget %s configured with %d children",
			arity, reflect.TypeOf(widget).String(), childCount),
	})
}

// checkProtocol verifies the created render object speaks the widget's
// declared layout protocol. A sliver widget must produce either a sliver or
// a box that hosts slivers (a viewport adapter); violations are reported and
// the element mounts anyway, the same policy as arity violations.
func (e *RenderElement) checkProtocol(widget RenderWidget) {
	if widget.Protocol() != ProtocolSliver || e.renderObject == nil {
		return
	}
	if _, ok := e.renderObject.(layout.RenderSliver); ok {
		return
	}
	if _, ok := e.renderObject.(interface {
		SetSliverChildren([]layout.RenderSliver)
	}); ok {
		return
	}
	errors.Report(&errors.EngineError{
		Op:   "core.RenderElement.Mount",
		Kind: errors.KindBuild,
		Err: fmt.Errorf("sliver widget %s created render object %s, which neither lays out as a sliver nor hosts slivers",
			reflect.TypeOf(widget).String(), reflect.TypeOf(e.renderObject).String()),
	})
}

func (e *RenderElement) VisitChildren(visitor func(Element) bool) {
	for _, child := range e.children {
		if !visitor(child) {
			return
		}
	}
}

// RenderObject exposes the backing render object for the element.
func (e *RenderElement) RenderObject() layout.RenderObject {
	return e.renderObject
}

// attachRenderObject attaches this element's render object to the render
// tree. Called from Mount after the render object is created.
func (e *RenderElement) attachRenderObject(slot any) {
	e.renderParent = e.findRenderParent()
	if e.renderParent != nil {
		e.renderParent.insertRenderObjectChild(e.renderObject, slot)
	}
}

// detachRenderObject removes this element's render object from the render
// tree. Called from Unmount and Deactivate.
func (e *RenderElement) detachRenderObject() {
	if e.renderParent != nil {
		e.renderParent.removeRenderObjectChild(e.renderObject, e.slot)
		e.renderParent = nil
	}
}

// insertRenderObjectChild adds a child render object at the given slot.
func (e *RenderElement) insertRenderObjectChild(child layout.RenderObject, slot any) {
	if child == nil {
		return
	}
	if setter, ok := child.(interface{ SetParent(layout.RenderObject) }); ok {
		setter.SetParent(e.renderObject)
	}
	// For single-child render objects, set the child directly
	if single, ok := e.renderObject.(interface{ SetChild(layout.RenderObject) }); ok {
		single.SetChild(child)
		return
	}
	// For multi-child: parent reference is set above; the children list is
	// rebuilt by rebuild() after all children are mounted.
}

// removeRenderObjectChild removes a child render object.
func (e *RenderElement) removeRenderObjectChild(child layout.RenderObject, slot any) {
	if child == nil {
		return
	}
	if setter, ok := child.(interface{ SetParent(layout.RenderObject) }); ok {
		setter.SetParent(nil)
	}
	if single, ok := e.renderObject.(interface{ SetChild(layout.RenderObject) }); ok {
		single.SetChild(nil)
		return
	}
	e.rebuildChildrenRenderList()
}

// rebuildChildrenRenderList rebuilds render object children from element
// children.
func (e *RenderElement) rebuildChildrenRenderList() {
	multi, ok := e.renderObject.(interface{ SetChildren([]layout.RenderObject) })
	if !ok {
		return
	}
	objects := make([]layout.RenderObject, 0, len(e.children))
	for _, child := range e.children {
		if ro := child.RenderObject(); ro != nil {
			objects = append(objects, ro)
		}
	}
	multi.SetChildren(objects)
}

// updateChild reconciles one child position against a new widget.
//
// Same concrete type and equal key: the element is updated in place,
// preserving its handle and render object. A type or key mismatch
// deactivates the old child (keyed children stay claimable for reordering
// until end of frame) and inflates a new element.
func updateChild(existing Element, widget Widget, parent Element, slot any, owner *BuildOwner) Element {
	if widget == nil {
		if existing != nil {
			deactivateChild(existing, owner)
		}
		return nil
	}
	if existing != nil && canUpdateWidget(existing.Widget(), widget) {
		existing.setSlot(slot)
		existing.Update(widget)
		return existing
	}
	if existing != nil {
		deactivateChild(existing, owner)
	}
	if key := widget.Key(); key != nil && owner != nil {
		if reclaimed := owner.takeInactive(key, widget); reclaimed != nil {
			adoptChild(reclaimed, widget, parent, slot)
			return reclaimed
		}
	}
	element := inflateWidget(widget, owner)
	element.Mount(parent, slot)
	return element
}

// adoptChild reattaches a reclaimed inactive element below a new parent.
// Keyed relocation is the one legitimate case where an element's parent and
// slot change after initial mount.
func adoptChild(element Element, widget Widget, parent Element, slot any) {
	if setter, ok := element.(interface{ setParent(Element) }); ok {
		setter.setParent(parent)
	}
	element.Activate()
	element.setSlot(slot)
	element.Update(widget)
}

// deactivateChild moves a child out of the active tree. Keyed children are
// parked in the owner's inactive registry for possible relocation; the rest
// wait for FinalizeTree. Without an owner the child is unmounted directly.
func deactivateChild(child Element, owner *BuildOwner) {
	if owner == nil {
		child.Unmount()
		return
	}
	child.Deactivate()
	owner.addInactive(child)
}

// canUpdateWidget reports whether an element configured with existing can be
// updated in place to next: same concrete type and equal keys.
func canUpdateWidget(existing Widget, next Widget) bool {
	if existing == nil || next == nil {
		return false
	}
	if reflect.TypeOf(existing) != reflect.TypeOf(next) {
		return false
	}
	return reflect.DeepEqual(existing.Key(), next.Key())
}

func inflateWidget(widget Widget, owner *BuildOwner) Element {
	if widget == nil {
		return nil
	}
	element := widget.CreateElement()
	element.setWidget(widget)
	element.setBuildOwner(owner)
	element.setSelf(element)
	return element
}

// updateChildren reconciles an ordered child list against new widgets.
//
// Children are matched by key when present, positionally otherwise. New
// children are mounted before unmatched old children are deactivated
// (insert before remove), and a keyed child may move to a different slot
// without losing its element.
func updateChildren(oldChildren []Element, newWidgets []Widget, parent Element, owner *BuildOwner) []Element {
	oldKeyed := make(map[any]Element)
	for _, child := range oldChildren {
		if key := child.Widget().Key(); key != nil {
			oldKeyed[key] = child
		}
	}

	used := make(map[Element]bool, len(oldChildren))
	newChildren := make([]Element, 0, len(newWidgets))
	oldIndex := 0

	for slot, widget := range newWidgets {
		var candidate Element
		if key := widget.Key(); key != nil {
			candidate = oldKeyed[key]
		} else {
			// Next unclaimed unkeyed old child, in order.
			for oldIndex < len(oldChildren) {
				next := oldChildren[oldIndex]
				if !used[next] && next.Widget().Key() == nil {
					candidate = next
					break
				}
				oldIndex++
			}
		}

		if candidate != nil && canUpdateWidget(candidate.Widget(), widget) {
			used[candidate] = true
			if candidate.Slot() != slot {
				candidate.setSlot(slot)
			}
			candidate.Update(widget)
			newChildren = append(newChildren, candidate)
			continue
		}
		if candidate != nil && widget.Key() == nil {
			// Positional mismatch: the candidate is consumed so later
			// positions don't retry it; it is deactivated below.
			oldIndex++
		}
		newChildren = append(newChildren, updateChild(nil, widget, parent, slot, owner))
	}

	for _, child := range oldChildren {
		if !used[child] {
			deactivateChild(child, owner)
		}
	}
	return newChildren
}
