package core

import (
	"fmt"
	"reflect"
	"slices"
	"sync"

	"github.com/go-flint/flint/pkg/errors"
	"github.com/go-flint/flint/pkg/layout"
)

// BuildOwner tracks dirty elements that need rebuilding and owns the element
// arena and pipeline used by one widget tree.
type BuildOwner struct {
	tree     *Tree
	pipeline *layout.PipelineOwner
	dirty    []Element
	dirtySet map[Element]bool
	inactive []Element
	mu       sync.Mutex

	// OnNeedsFrame is called when a new element is scheduled for rebuild,
	// signalling the platform that a frame should be rendered.
	OnNeedsFrame func()
}

// NewBuildOwner creates a BuildOwner with a fresh arena and pipeline.
func NewBuildOwner() *BuildOwner {
	return &BuildOwner{
		tree:     NewTree(),
		pipeline: &layout.PipelineOwner{},
	}
}

// Tree returns the element arena.
func (b *BuildOwner) Tree() *Tree {
	return b.tree
}

// Pipeline returns the PipelineOwner for render object scheduling.
func (b *BuildOwner) Pipeline() *layout.PipelineOwner {
	return b.pipeline
}

// MountRoot inflates a widget as a tree root and returns its element.
func (b *BuildOwner) MountRoot(widget Widget) Element {
	element := inflateWidget(widget, b)
	if element == nil {
		return nil
	}
	element.Mount(nil, nil)
	return element
}

// ScheduleBuild marks an element as needing rebuild.
func (b *BuildOwner) ScheduleBuild(element Element) {
	added := func() bool {
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.dirtySet[element] {
			return false
		}
		if b.dirtySet == nil {
			b.dirtySet = make(map[Element]bool)
		}
		b.dirtySet[element] = true
		b.dirty = append(b.dirty, element)
		return true
	}()

	if added && b.OnNeedsFrame != nil {
		b.OnNeedsFrame()
	}
}

// NeedsWork returns true if there are dirty elements or pending layout or
// paint.
func (b *BuildOwner) NeedsWork() bool {
	b.mu.Lock()
	hasDirty := len(b.dirty) > 0
	b.mu.Unlock()
	if hasDirty || b.tree.HasDirty() {
		return true
	}
	return b.pipeline.NeedsLayout() || b.pipeline.NeedsPaint()
}

// maxBuildPasses bounds how many times one FlushBuild call re-drains the
// dirty list. Elements still dirty at the cap carry over to the next frame.
const maxBuildPasses = 100

// FlushBuild rebuilds all dirty elements in depth order (parents first).
//
// The cross-thread dirty bitmap is drained first so that elements marked
// from other goroutines since the last frame join this pass. Rebuilding may
// schedule further work; the loop re-drains until the dirty list is empty.
// Mutually invalidating builds (a child marking its parent, whose rebuild
// re-marks the child) would keep the list non-empty forever, so the loop is
// capped: leftovers stay scheduled for the next frame and the stall is
// reported as backpressure.
func (b *BuildOwner) FlushBuild() {
	for _, element := range b.tree.DrainDirty() {
		element.MarkNeedsBuild()
	}

	for pass := 0; ; pass++ {
		b.mu.Lock()
		if len(b.dirty) == 0 {
			b.mu.Unlock()
			return
		}
		if pass >= maxBuildPasses {
			deferred := len(b.dirty)
			b.mu.Unlock()
			errors.Report(&errors.EngineError{
				Op:   "core.BuildOwner.FlushBuild",
				Kind: errors.KindBackpressure,
				Err: fmt.Errorf("build did not settle after %d passes, %d elements deferred to the next frame",
					maxBuildPasses, deferred),
			})
			return
		}

		slices.SortFunc(b.dirty, func(a, b Element) int {
			return a.Depth() - b.Depth()
		})

		dirty := b.dirty
		b.dirty = nil
		clear(b.dirtySet)
		b.mu.Unlock()

		for _, element := range dirty {
			if element.Lifecycle() != LifecycleActive {
				continue
			}
			element.RebuildIfNeeded()
		}
	}
}

// addInactive parks a deactivated element for possible keyed reactivation
// within the frame.
func (b *BuildOwner) addInactive(element Element) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.inactive = append(b.inactive, element)
}

// takeInactive reclaims a parked element whose widget matches the given key
// and concrete type. Returns nil if no parked element qualifies.
func (b *BuildOwner) takeInactive(key any, widget Widget) Element {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, element := range b.inactive {
		if element.Lifecycle() != LifecycleInactive {
			continue
		}
		existing := element.Widget()
		if existing == nil || !reflect.DeepEqual(existing.Key(), key) {
			continue
		}
		if reflect.TypeOf(existing) != reflect.TypeOf(widget) {
			continue
		}
		b.inactive = slices.Delete(b.inactive, i, i+1)
		return element
	}
	return nil
}

// FinalizeTree unmounts elements that were deactivated during the frame and
// never reactivated.
func (b *BuildOwner) FinalizeTree() {
	b.mu.Lock()
	inactive := b.inactive
	b.inactive = nil
	b.mu.Unlock()

	for _, element := range inactive {
		if element.Lifecycle() == LifecycleInactive {
			element.Unmount()
		}
	}
}
