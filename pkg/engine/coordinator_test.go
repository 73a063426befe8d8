package engine

import (
	"sync"
	"testing"

	"github.com/go-flint/flint/pkg/core"
	"github.com/go-flint/flint/pkg/errors"
	"github.com/go-flint/flint/pkg/layout"
	"github.com/go-flint/flint/pkg/rendering"
	"github.com/go-flint/flint/pkg/widgets"
)

func frameConstraints() layout.Constraints {
	return layout.Tight(rendering.Size{Width: 800, Height: 600})
}

func centeredBoxApp() core.Widget {
	return widgets.Centered(widgets.SizedBox{
		Width:  200,
		Height: 100,
		Child:  widgets.ColoredBox{Color: rendering.Color(0xFF2196F3)},
	})
}

type capturingErrorHandler struct {
	mu     sync.Mutex
	engine []*errors.EngineError
	panics []*errors.PanicError
	builds []*errors.BuildError
}

func (h *capturingErrorHandler) HandleError(err *errors.EngineError) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.engine = append(h.engine, err)
}

func (h *capturingErrorHandler) HandlePanic(err *errors.PanicError) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.panics = append(h.panics, err)
}

func (h *capturingErrorHandler) HandleBuildError(err *errors.BuildError) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.builds = append(h.builds, err)
}

func (h *capturingErrorHandler) HandleConstraintError(err *errors.ConstraintError) {}

func TestBuildFrameProducesRootLayer(t *testing.T) {
	presents := 0
	c := NewCoordinator(PresenterFunc(func(layer *rendering.Layer) error {
		presents++
		return nil
	}))

	root := c.InsertRoot(centeredBoxApp())
	if root.IsNull() {
		t.Fatal("InsertRoot returned the null handle")
	}

	layer := c.BuildFrame(root, frameConstraints())
	if layer == nil {
		t.Fatal("BuildFrame returned nil for a fresh root")
	}
	want := rendering.Size{Width: 800, Height: 600}
	if layer.Size != want {
		t.Errorf("root layer size = %v, want %v", layer.Size, want)
	}
	if layer.Content() == nil {
		t.Error("root layer has no recorded content")
	}
	if presents != 1 {
		t.Errorf("presenter called %d times, want 1", presents)
	}

	stats := c.Stats()
	if stats.TotalFrames != 1 || stats.SkippedFrames != 0 {
		t.Errorf("stats = %+v, want 1 total, 0 skipped", stats)
	}
	if c.Phase() != PhaseIdle {
		t.Errorf("phase after frame = %v, want idle", c.Phase())
	}
}

func TestBuildFrameCentersChild(t *testing.T) {
	c := NewCoordinator(nil)
	root := c.InsertRoot(centeredBoxApp())
	c.BuildFrame(root, frameConstraints())

	element, ok := c.Owner().Tree().Get(root)
	if !ok {
		t.Fatal("root handle did not resolve")
	}
	center := element.RenderObject()

	var child layout.RenderObject
	center.(layout.ChildVisitor).VisitChildren(func(ro layout.RenderObject) {
		child = ro
	})
	if child == nil {
		t.Fatal("centered child render object not found")
	}

	wantSize := rendering.Size{Width: 200, Height: 100}
	if child.Size() != wantSize {
		t.Errorf("child size = %v, want %v", child.Size(), wantSize)
	}
	data, ok := child.ParentData().(*layout.BoxParentData)
	if !ok {
		t.Fatal("child parent data was not box parent data")
	}
	wantOffset := rendering.Offset{X: 300, Y: 250}
	if data.Offset != wantOffset {
		t.Errorf("child offset = %v, want %v", data.Offset, wantOffset)
	}
}

func TestBuildFrameSkipsWhenClean(t *testing.T) {
	presents := 0
	c := NewCoordinator(PresenterFunc(func(layer *rendering.Layer) error {
		presents++
		return nil
	}))
	root := c.InsertRoot(centeredBoxApp())

	first := c.BuildFrame(root, frameConstraints())
	if c.NeedsFrame() {
		t.Error("NeedsFrame() = true immediately after a presented frame")
	}

	second := c.BuildFrame(root, frameConstraints())
	if second != first {
		t.Error("clean frame did not return the previous layer")
	}
	if presents != 1 {
		t.Errorf("presenter called %d times across a skipped frame, want 1", presents)
	}

	stats := c.Stats()
	if stats.TotalFrames != 2 || stats.SkippedFrames != 1 {
		t.Errorf("stats = %+v, want 2 total, 1 skipped", stats)
	}
	if got := stats.SkipRate(); got != 0.5 {
		t.Errorf("SkipRate() = %v, want 0.5", got)
	}
}

func TestBuildFrameUnknownHandle(t *testing.T) {
	handler := &capturingErrorHandler{}
	errors.SetHandler(handler)
	defer errors.SetHandler(nil)

	c := NewCoordinator(nil)
	c.InsertRoot(centeredBoxApp())

	if layer := c.BuildFrame(core.Handle(1<<40 | 7), frameConstraints()); layer != nil {
		t.Error("BuildFrame returned a layer for an unknown handle")
	}
	if stats := c.Stats(); stats.SkippedFrames != 1 {
		t.Errorf("SkippedFrames = %d, want 1", stats.SkippedFrames)
	}

	handler.mu.Lock()
	defer handler.mu.Unlock()
	if len(handler.engine) != 1 || handler.engine[0].Kind != errors.KindStructural {
		t.Fatalf("expected one structural error, got %v", handler.engine)
	}
}

func TestBuildFrameNoRoot(t *testing.T) {
	handler := &capturingErrorHandler{}
	errors.SetHandler(handler)
	defer errors.SetHandler(nil)

	c := NewCoordinator(nil)
	if c.RootHandle() != core.NullHandle {
		t.Error("RootHandle() != null before InsertRoot")
	}
	if layer := c.BuildFrame(core.NullHandle, frameConstraints()); layer != nil {
		t.Error("BuildFrame produced a layer without a root")
	}
}

func TestInsertRootNilWidget(t *testing.T) {
	c := NewCoordinator(nil)
	if root := c.InsertRoot(nil); !root.IsNull() {
		t.Errorf("InsertRoot(nil) = %v, want null handle", root)
	}
	if c.RootHandle() != core.NullHandle {
		t.Error("RootHandle() != null after a nil insert")
	}
	if layer := c.BuildFrame(core.NullHandle, frameConstraints()); layer != nil {
		t.Error("BuildFrame produced a layer after a nil insert")
	}
}

func TestSurfaceLostRepresentsNextFrame(t *testing.T) {
	presents := 0
	c := NewCoordinator(PresenterFunc(func(layer *rendering.Layer) error {
		presents++
		if presents == 1 {
			return ErrSurfaceLost
		}
		return nil
	}))
	root := c.InsertRoot(centeredBoxApp())

	layer := c.BuildFrame(root, frameConstraints())
	if layer == nil {
		t.Fatal("frame with a lost surface returned nil")
	}
	if stats := c.Stats(); stats.PresentFailures != 1 {
		t.Errorf("PresentFailures = %d, want 1", stats.PresentFailures)
	}
	if !c.NeedsFrame() {
		t.Fatal("NeedsFrame() = false while the last present failed")
	}

	c.BuildFrame(root, frameConstraints())
	if presents != 2 {
		t.Errorf("presenter called %d times, want 2 (retry after lost surface)", presents)
	}
	stats := c.Stats()
	if stats.PresentFailures != 1 {
		t.Errorf("PresentFailures = %d after successful retry, want 1", stats.PresentFailures)
	}
	if stats.SkippedFrames != 0 {
		t.Errorf("retry frame was skipped: %+v", stats)
	}
	if c.NeedsFrame() {
		t.Error("NeedsFrame() = true after a successful retry")
	}
}

func TestEffectsRunAtFrameStart(t *testing.T) {
	c := NewCoordinator(nil)
	root := c.InsertRoot(centeredBoxApp())
	c.BuildFrame(root, frameConstraints())

	ran := false
	id := c.Effects().Register(func() { ran = true })
	c.Effects().Schedule(id)

	if !c.NeedsFrame() {
		t.Fatal("NeedsFrame() = false with a pending effect")
	}
	c.BuildFrame(root, frameConstraints())
	if !ran {
		t.Error("pending effect did not run during the frame")
	}
}

// trapWidget is a leaf render widget whose update panics when tripped,
// exercising phase-level panic recovery in the frame loop.
type trapWidget struct {
	core.RenderBase
	trip *bool
}

func (w trapWidget) CreateElement() core.Element { return core.NewRenderElement() }
func (w trapWidget) Arity() core.Arity           { return core.ArityLeaf }

func (w trapWidget) CreateRenderObject(ctx core.BuildContext) layout.RenderObject {
	box := &trapRenderBox{}
	box.SetSelf(box)
	return box
}

func (w trapWidget) UpdateRenderObject(ctx core.BuildContext, renderObject layout.RenderObject) {
	if *w.trip {
		panic("update failure")
	}
}

type trapRenderBox struct {
	layout.RenderBoxBase
}

func (b *trapRenderBox) VisitChildren(visit func(layout.RenderObject)) {}

func (b *trapRenderBox) PerformLayout() {
	b.SetSize(b.Constraints().Smallest())
}

func (b *trapRenderBox) Paint(ctx *layout.PaintContext) {
	b.ClearNeedsPaint()
}

func TestBuildPanicReturnsPreviousLayer(t *testing.T) {
	handler := &capturingErrorHandler{}
	errors.SetHandler(handler)
	defer errors.SetHandler(nil)

	trip := false
	c := NewCoordinator(nil)
	root := c.InsertRoot(trapWidget{trip: &trip})
	first := c.BuildFrame(root, frameConstraints())
	if first == nil {
		t.Fatal("initial frame returned nil")
	}

	trip = true
	if !c.RequestRebuild(root) {
		t.Fatal("RequestRebuild rejected the live root")
	}
	layer := c.BuildFrame(root, frameConstraints())
	if layer != first {
		t.Error("frame after a contained panic did not return the previous layer")
	}

	handler.mu.Lock()
	defer handler.mu.Unlock()
	if len(handler.panics) != 1 {
		t.Fatalf("captured %d panics, want 1", len(handler.panics))
	}
	if handler.panics[0].Value != "update failure" {
		t.Errorf("panic value = %v", handler.panics[0].Value)
	}
}

func TestRequestsResolveAndReportStaleHandles(t *testing.T) {
	handler := &capturingErrorHandler{}
	errors.SetHandler(handler)
	defer errors.SetHandler(nil)

	c := NewCoordinator(nil)
	root := c.InsertRoot(centeredBoxApp())
	c.BuildFrame(root, frameConstraints())

	if !c.RequestRebuild(root) {
		t.Error("RequestRebuild rejected the live root")
	}
	if !c.RequestLayout(root) {
		t.Error("RequestLayout rejected the live root")
	}
	if !c.RequestPaint(root) {
		t.Error("RequestPaint rejected the live root")
	}
	if !c.NeedsFrame() {
		t.Error("NeedsFrame() = false after explicit invalidation")
	}

	stale := core.Handle(1<<40 | 3)
	if c.RequestRebuild(stale) || c.RequestLayout(stale) || c.RequestPaint(stale) {
		t.Error("a stale handle was accepted")
	}
	handler.mu.Lock()
	defer handler.mu.Unlock()
	if len(handler.engine) != 3 {
		t.Fatalf("captured %d structural errors, want 3", len(handler.engine))
	}
	for _, err := range handler.engine {
		if err.Kind != errors.KindStructural {
			t.Errorf("error kind = %v, want structural", err.Kind)
		}
	}
}

func TestInsertRootReplacesExistingRoot(t *testing.T) {
	c := NewCoordinator(nil)
	first := c.InsertRoot(centeredBoxApp())
	c.BuildFrame(first, frameConstraints())

	second := c.InsertRoot(widgets.ColoredBox{Color: rendering.Color(0xFF000000)})
	if second == first {
		t.Error("replacement root reused the old handle")
	}
	if _, ok := c.Owner().Tree().Get(first); ok {
		t.Error("old root handle still resolves after replacement")
	}
	if c.RootHandle() != second {
		t.Errorf("RootHandle() = %v, want %v", c.RootHandle(), second)
	}

	layer := c.BuildFrame(second, frameConstraints())
	if layer == nil {
		t.Fatal("frame for the replacement root returned nil")
	}
	want := rendering.Size{Width: 800, Height: 600}
	if layer.Size != want {
		t.Errorf("replacement layer size = %v, want %v", layer.Size, want)
	}
}
