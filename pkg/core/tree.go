package core

import (
	"iter"
	"slices"
	"sync"
	"sync/atomic"
)

// Handle is a stable integer key for an element in the arena.
//
// The low 32 bits index the arena slot; the high 32 bits carry the slot's
// generation, so a handle held across an unmount (slot reuse) no longer
// resolves. The zero Handle is the null handle.
type Handle uint64

// NullHandle is the zero handle; it never resolves.
const NullHandle Handle = 0

func makeHandle(index, gen uint32) Handle {
	return Handle(uint64(gen)<<32 | uint64(index))
}

func (h Handle) index() uint32 {
	return uint32(h)
}

func (h Handle) generation() uint32 {
	return uint32(h >> 32)
}

// IsNull reports whether the handle is the null handle.
func (h Handle) IsNull() bool {
	return h == NullHandle
}

type treeSlot struct {
	gen     uint32
	element Element
}

// Tree is the element arena: it owns all elements by stable handle and
// provides navigation, insertion, removal, and dirty iteration.
//
// The pipeline thread holds the tree's write lock for structural mutation
// and its read lock for navigation. Marking an element dirty through
// MarkDirty is the one operation permitted from any goroutine without the
// lock; it goes through the lock-free DirtySet.
type Tree struct {
	mu    sync.RWMutex
	slots []treeSlot // slots[0] is reserved; handles are 1-based
	free  []uint32
	count int
	flags flagStore
	dirty atomic.Pointer[DirtySet]
}

// NewTree creates an empty element arena.
func NewTree() *Tree {
	t := &Tree{slots: make([]treeSlot, 1)}
	t.dirty.Store(NewDirtySet(defaultDirtyCapacity))
	return t
}

// Len returns the number of live elements.
func (t *Tree) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.count
}

// Insert registers an element and returns its handle. The element's flag
// byte is rebound to arena storage, preserving any bits already set.
func (t *Tree) Insert(element Element) Handle {
	t.mu.Lock()
	defer t.mu.Unlock()

	var index uint32
	if n := len(t.free); n > 0 {
		index = t.free[n-1]
		t.free = t.free[:n-1]
	} else {
		t.slots = append(t.slots, treeSlot{})
		index = uint32(len(t.slots) - 1)
	}
	t.slots[index].element = element
	t.count++

	if dirty := t.dirty.Load(); uint32(len(t.slots)) > dirty.Capacity() {
		t.growDirtyLocked(dirty)
	}

	handle := makeHandle(index, t.slots[index].gen)
	lane := t.flags.laneFor(index)
	lane.Store(element.Flags().Load())
	element.bind(handle, lane, t)
	return handle
}

// growDirtyLocked swaps in a dirty set with doubled capacity, carrying over
// the set bits. A mark racing the swap on the old set can be lost; the cost
// is one deferred rebuild, the same as the out-of-range policy.
func (t *Tree) growDirtyLocked(old *DirtySet) {
	grown := NewDirtySet(old.Capacity() * 2)
	for _, index := range old.CollectDirty() {
		grown.MarkDirty(index)
	}
	t.dirty.Store(grown)
}

// Get resolves a handle to its element. Stale handles (removed element or
// reused slot) return false rather than panicking, because queued
// references from prior frames can race an unmount.
func (t *Tree) Get(handle Handle) (Element, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.getLocked(handle)
}

func (t *Tree) getLocked(handle Handle) (Element, bool) {
	index := handle.index()
	if handle.IsNull() || index >= uint32(len(t.slots)) {
		return nil, false
	}
	slot := t.slots[index]
	if slot.gen != handle.generation() || slot.element == nil {
		return nil, false
	}
	return slot.element, true
}

// Remove unmounts the element and its whole subtree (children first) and
// frees the arena slots. Returns false for stale handles.
func (t *Tree) Remove(handle Handle) bool {
	element, ok := t.Get(handle)
	if !ok {
		return false
	}
	element.Unmount()
	return true
}

// release frees an element's slot. Called by the element during unmount,
// after its children are detached and its render object disposed.
func (t *Tree) release(handle Handle) {
	t.mu.Lock()
	defer t.mu.Unlock()
	index := handle.index()
	if index >= uint32(len(t.slots)) {
		return
	}
	slot := &t.slots[index]
	if slot.gen != handle.generation() || slot.element == nil {
		return
	}
	slot.element = nil
	slot.gen++ // stale handles to this slot stop resolving
	t.count--
	t.free = append(t.free, index)
	t.dirty.Load().ClearDirty(index)
}

// MarkDirty sets the dirty bit for a handle. Lock-free and safe from any
// goroutine; stale and out-of-range handles are ignored.
func (t *Tree) MarkDirty(handle Handle) bool {
	if handle.IsNull() {
		return false
	}
	return t.dirty.Load().MarkDirty(handle.index())
}

// DrainDirty takes the dirty bitmap's contents and resolves them to live
// elements sorted by depth ascending. Reserved for the pipeline thread.
func (t *Tree) DrainDirty() []Element {
	indices := t.dirty.Load().Drain()
	if len(indices) == 0 {
		return nil
	}

	t.mu.RLock()
	elements := make([]Element, 0, len(indices))
	for _, index := range indices {
		if index < uint32(len(t.slots)) {
			if el := t.slots[index].element; el != nil {
				elements = append(elements, el)
			}
		}
	}
	t.mu.RUnlock()

	slices.SortFunc(elements, func(a, b Element) int {
		return a.Depth() - b.Depth()
	})
	return elements
}

// HasDirty reports whether any element is marked in the dirty bitmap.
func (t *Tree) HasDirty() bool {
	return t.dirty.Load().Len() > 0
}

// Ancestors returns the chain of elements from the handle's parent up to the
// root. The sequence snapshots the tree's read lock for its duration and
// cannot be restarted.
func (t *Tree) Ancestors(handle Handle) iter.Seq[Element] {
	return func(yield func(Element) bool) {
		t.mu.RLock()
		defer t.mu.RUnlock()
		element, ok := t.getLocked(handle)
		if !ok {
			return
		}
		for current := element.parentElement(); current != nil; current = current.parentElement() {
			if !yield(current) {
				return
			}
		}
	}
}

// Children returns the handle's direct children in slot order. The sequence
// snapshots the tree's read lock for its duration.
func (t *Tree) Children(handle Handle) iter.Seq[Element] {
	return func(yield func(Element) bool) {
		t.mu.RLock()
		defer t.mu.RUnlock()
		element, ok := t.getLocked(handle)
		if !ok {
			return
		}
		element.VisitChildren(func(child Element) bool {
			return yield(child)
		})
	}
}

// Descendants returns the handle's subtree in depth-first order, excluding
// the element itself. The sequence snapshots the tree's read lock for its
// duration.
func (t *Tree) Descendants(handle Handle) iter.Seq[Element] {
	return func(yield func(Element) bool) {
		t.mu.RLock()
		defer t.mu.RUnlock()
		element, ok := t.getLocked(handle)
		if !ok {
			return
		}
		var walk func(Element) bool
		walk = func(el Element) bool {
			ok := true
			el.VisitChildren(func(child Element) bool {
				if !yield(child) {
					ok = false
					return false
				}
				ok = walk(child)
				return ok
			})
			return ok
		}
		walk(element)
	}
}
