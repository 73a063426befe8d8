// Package engine drives the frame pipeline: it owns the element tree,
// sequences the build, layout and paint phases, flushes deferred effects
// between frames, and hands the composited layer tree to a Presenter.
package engine

import (
	stderrors "errors"
	"sync"
	"time"

	"github.com/go-flint/flint/pkg/core"
	"github.com/go-flint/flint/pkg/errors"
	"github.com/go-flint/flint/pkg/layout"
	"github.com/go-flint/flint/pkg/rendering"
)

// Phase identifies where in the frame pipeline the coordinator currently is.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseBuilding
	PhaseLayingOut
	PhasePainting
)

func (p Phase) String() string {
	switch p {
	case PhaseBuilding:
		return "build"
	case PhaseLayingOut:
		return "layout"
	case PhasePainting:
		return "paint"
	default:
		return "idle"
	}
}

// FrameStats accumulates frame accounting across the coordinator's lifetime.
type FrameStats struct {
	// TotalFrames is the number of BuildFrame calls.
	TotalFrames uint64
	// SkippedFrames counts frames where no work was pending and the previous
	// layer tree was returned unchanged.
	SkippedFrames uint64
	// PresentFailures counts presentations rejected by the Presenter.
	PresentFailures uint64
}

// SkipRate returns the fraction of frames that were skipped.
func (s FrameStats) SkipRate() float64 {
	if s.TotalFrames == 0 {
		return 0
	}
	return float64(s.SkippedFrames) / float64(s.TotalFrames)
}

// Coordinator sequences frames over one element tree. All frame processing
// happens under an internal lock; BuildFrame is safe to call from any
// goroutine but frames never overlap.
type Coordinator struct {
	mu        sync.Mutex
	owner     *core.BuildOwner
	effects   *core.EffectScheduler
	presenter Presenter

	root       core.Element
	rootRender layout.RenderObject

	phase         Phase
	stats         FrameStats
	lastLayer     *rendering.Layer
	presentFailed bool

	// OnNeedsFrame, when set, is invoked whenever tree state changes outside
	// a frame and a new frame should be scheduled.
	OnNeedsFrame func()
}

// NewCoordinator creates a coordinator presenting frames to the given
// presenter. A nil presenter is allowed; frames are then produced but not
// delivered anywhere.
func NewCoordinator(presenter Presenter) *Coordinator {
	c := &Coordinator{
		owner:     core.NewBuildOwner(),
		effects:   core.NewEffectScheduler(),
		presenter: presenter,
	}
	c.owner.OnNeedsFrame = func() {
		if c.OnNeedsFrame != nil {
			c.OnNeedsFrame()
		}
	}
	return c
}

// Owner returns the build owner managing the element tree.
func (c *Coordinator) Owner() *core.BuildOwner {
	return c.owner
}

// Effects returns the deferred effect scheduler. Effects scheduled during a
// frame run at the start of the next frame.
func (c *Coordinator) Effects() *core.EffectScheduler {
	return c.effects
}

// Phase returns the current frame phase.
func (c *Coordinator) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Stats returns a snapshot of the frame accounting.
func (c *Coordinator) Stats() FrameStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// InsertRoot mounts the widget as the tree root and returns its handle.
// An existing root is unmounted first. A nil widget mounts nothing and
// returns the null handle.
func (c *Coordinator) InsertRoot(widget core.Widget) core.Handle {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.root != nil {
		c.root.Unmount()
		c.root = nil
		c.rootRender = nil
		c.lastLayer = nil
	}

	c.root = c.owner.MountRoot(widget)
	if c.root == nil {
		return core.NullHandle
	}
	c.rootRender = c.root.RenderObject()
	if c.rootRender != nil {
		pipeline := c.owner.Pipeline()
		pipeline.ScheduleLayout(c.rootRender)
		pipeline.SchedulePaint(c.rootRender)
	}
	return c.root.Handle()
}

// RootHandle returns the handle of the mounted root, or the null handle
// when no root is mounted.
func (c *Coordinator) RootHandle() core.Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.root == nil {
		return core.NullHandle
	}
	return c.root.Handle()
}

// RequestRebuild marks the element behind the handle as needing build.
// Stale or unknown handles are reported and ignored.
func (c *Coordinator) RequestRebuild(handle core.Handle) bool {
	element, ok := c.resolve("engine.Coordinator.RequestRebuild", handle)
	if !ok {
		return false
	}
	element.MarkNeedsBuild()
	return true
}

// RequestLayout marks the render object behind the handle as needing layout.
// Stale or unknown handles are reported and ignored.
func (c *Coordinator) RequestLayout(handle core.Handle) bool {
	element, ok := c.resolve("engine.Coordinator.RequestLayout", handle)
	if !ok {
		return false
	}
	if renderObject := element.RenderObject(); renderObject != nil {
		renderObject.MarkNeedsLayout()
		return true
	}
	return false
}

// RequestPaint marks the render object behind the handle as needing paint.
// Stale or unknown handles are reported and ignored.
func (c *Coordinator) RequestPaint(handle core.Handle) bool {
	element, ok := c.resolve("engine.Coordinator.RequestPaint", handle)
	if !ok {
		return false
	}
	if renderObject := element.RenderObject(); renderObject != nil {
		renderObject.MarkNeedsPaint()
		return true
	}
	return false
}

func (c *Coordinator) resolve(op string, handle core.Handle) (core.Element, bool) {
	element, ok := c.owner.Tree().Get(handle)
	if !ok {
		errors.Report(&errors.EngineError{
			Op:   op,
			Kind: errors.KindStructural,
			Err:  stderrors.New("stale or unknown element handle"),
		})
		return nil, false
	}
	return element, true
}

// NeedsFrame reports whether pending work would make the next BuildFrame
// produce new content.
func (c *Coordinator) NeedsFrame() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.needsFrameLocked()
}

func (c *Coordinator) needsFrameLocked() bool {
	if c.root == nil {
		return false
	}
	return c.owner.NeedsWork() ||
		c.effects.PendingCount() > 0 ||
		c.presentFailed ||
		c.lastLayer == nil
}

// BuildFrame runs one frame for the given root handle: effects, build,
// layout, then paint. It returns the root layer tree, or nil when the
// handle does not resolve to the mounted root. When no work is pending the
// previous layer is returned and the frame counted as skipped.
//
// A panic in any phase is recovered and reported with the phase attached;
// the frame returns the previous layer so a single bad build cannot take
// down the frame loop.
func (c *Coordinator) BuildFrame(root core.Handle, constraints layout.Constraints) *rendering.Layer {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer func() { c.phase = PhaseIdle }()

	c.stats.TotalFrames++

	if c.root == nil || c.root.Handle() != root {
		if _, ok := c.owner.Tree().Get(root); !ok {
			errors.Report(&errors.EngineError{
				Op:    "engine.Coordinator.BuildFrame",
				Kind:  errors.KindStructural,
				Err:   stderrors.New("stale or unknown root handle"),
				Phase: c.phase.String(),
			})
		}
		c.stats.SkippedFrames++
		return nil
	}

	if !c.needsFrameLocked() {
		c.stats.SkippedFrames++
		return c.lastLayer
	}

	if !c.runPhase(PhaseBuilding, func() {
		c.effects.Flush()
		c.owner.FlushBuild()
		c.owner.FinalizeTree()
	}) {
		return c.lastLayer
	}

	if c.rootRender == nil {
		c.rootRender = c.root.RenderObject()
	}
	if c.rootRender == nil {
		c.stats.SkippedFrames++
		return c.lastLayer
	}

	if !c.runPhase(PhaseLayingOut, func() {
		c.owner.Pipeline().FlushLayoutForRoot(c.rootRender, constraints)
	}) {
		return c.lastLayer
	}

	var layer *rendering.Layer
	if !c.runPhase(PhasePainting, func() {
		layer = c.flushPaint()
	}) {
		return c.lastLayer
	}

	c.lastLayer = layer
	c.present(layer)
	return layer
}

// runPhase executes one frame phase with panic isolation. It returns false
// when the phase panicked.
func (c *Coordinator) runPhase(phase Phase, fn func()) (completed bool) {
	c.phase = phase
	defer func() {
		if r := recover(); r != nil {
			errors.ReportPanic(&errors.PanicError{
				Op:         "engine.Coordinator.BuildFrame",
				Value:      r,
				StackTrace: errors.CaptureStack(),
				Timestamp:  time.Now(),
			})
			completed = false
		}
	}()
	fn()
	return true
}

// flushPaint re-records every dirty repaint boundary and returns the root
// layer. Boundaries are processed children first so parent recordings
// reference fresh child layers.
func (c *Coordinator) flushPaint() *rendering.Layer {
	dirtyBoundaries := c.owner.Pipeline().FlushPaint()
	for i := len(dirtyBoundaries) - 1; i >= 0; i-- {
		recordBoundary(dirtyBoundaries[i])
	}

	rootLayer := ensureRootLayer(c.rootRender)
	if rootLayer != nil && rootLayer.Content() == nil {
		recordBoundary(c.rootRender)
	}
	return rootLayer
}

// recordBoundary records one boundary's painting into its stable layer.
func recordBoundary(boundary layout.RenderObject) {
	holder, ok := boundary.(interface {
		EnsureLayer() *rendering.Layer
	})
	if !ok {
		return
	}
	layer := holder.EnsureLayer()
	layer.Size = boundary.Size()
	layer.SetContent(layout.RecordPaint(boundary))
}

func ensureRootLayer(root layout.RenderObject) *rendering.Layer {
	holder, ok := root.(interface {
		EnsureLayer() *rendering.Layer
	})
	if !ok {
		return nil
	}
	return holder.EnsureLayer()
}

// present delivers the layer to the presenter. A lost surface keeps the
// frame marked failed so the next BuildFrame re-presents instead of
// skipping.
func (c *Coordinator) present(layer *rendering.Layer) {
	c.presentFailed = false
	if c.presenter == nil || layer == nil {
		return
	}
	if err := c.presenter.Present(layer); err != nil {
		c.stats.PresentFailures++
		if stderrors.Is(err, ErrSurfaceLost) {
			c.presentFailed = true
			return
		}
		errors.Report(&errors.EngineError{
			Op:    "engine.Coordinator.BuildFrame",
			Kind:  errors.KindRender,
			Err:   err,
			Phase: PhasePainting.String(),
		})
	}
}
