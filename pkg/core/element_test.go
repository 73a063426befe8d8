package core

import (
	"sync"
	"testing"

	"github.com/go-flint/flint/pkg/errors"
	"github.com/go-flint/flint/pkg/layout"
)

// stubBox is a minimal multi-child render object for exercising the
// reconciler without pulling in real widgets.
type stubBox struct {
	layout.RenderBoxBase
	children []layout.RenderObject
}

func newStubBox() *stubBox {
	b := &stubBox{}
	b.SetSelf(b)
	return b
}

func (b *stubBox) SetChildren(children []layout.RenderObject) {
	b.children = children
}

func (b *stubBox) VisitChildren(visit func(layout.RenderObject)) {
	for _, child := range b.children {
		visit(child)
	}
}

func (b *stubBox) PerformLayout() {
	b.SetSize(b.Constraints().Smallest())
}

func (b *stubBox) Paint(ctx *layout.PaintContext) {
	b.ClearNeedsPaint()
}

type stubLeafBox struct {
	layout.RenderBoxBase
}

func newStubLeafBox() *stubLeafBox {
	b := &stubLeafBox{}
	b.SetSelf(b)
	return b
}

func (b *stubLeafBox) VisitChildren(visit func(layout.RenderObject)) {}

func (b *stubLeafBox) PerformLayout() {
	b.SetSize(b.Constraints().Smallest())
}

func (b *stubLeafBox) Paint(ctx *layout.PaintContext) {
	b.ClearNeedsPaint()
}

// listWidget is a multi-child render widget.
type listWidget struct {
	RenderBase
	Children []Widget
}

func (w listWidget) CreateElement() Element { return NewRenderElement() }
func (w listWidget) Arity() Arity           { return ArityMulti }
func (w listWidget) ChildWidgets() []Widget { return w.Children }

func (w listWidget) CreateRenderObject(ctx BuildContext) layout.RenderObject {
	return newStubBox()
}

func (w listWidget) UpdateRenderObject(ctx BuildContext, renderObject layout.RenderObject) {}

// tileWidget is a leaf render widget with an optional key.
type tileWidget struct {
	ID   any
	Tint uint32
}

func (w tileWidget) Key() any               { return w.ID }
func (w tileWidget) Protocol() Protocol     { return ProtocolBox }
func (w tileWidget) CreateElement() Element { return NewRenderElement() }
func (w tileWidget) Arity() Arity           { return ArityLeaf }

func (w tileWidget) CreateRenderObject(ctx BuildContext) layout.RenderObject {
	return newStubLeafBox()
}

func (w tileWidget) UpdateRenderObject(ctx BuildContext, renderObject layout.RenderObject) {}

// badgeWidget is a second leaf widget type, for type-mismatch remounts.
type badgeWidget struct {
	ID any
}

func (w badgeWidget) Key() any               { return w.ID }
func (w badgeWidget) Protocol() Protocol     { return ProtocolBox }
func (w badgeWidget) CreateElement() Element { return NewRenderElement() }
func (w badgeWidget) Arity() Arity           { return ArityLeaf }

func (w badgeWidget) CreateRenderObject(ctx BuildContext) layout.RenderObject {
	return newStubLeafBox()
}

func (w badgeWidget) UpdateRenderObject(ctx BuildContext, renderObject layout.RenderObject) {}

// builderWidget delegates Build to a closure.
type builderWidget struct {
	CompositeBase
	build func(ctx BuildContext) Widget
}

func (w builderWidget) Build(ctx BuildContext) Widget { return w.build(ctx) }

func childElements(e Element) []Element {
	var out []Element
	e.VisitChildren(func(child Element) bool {
		out = append(out, child)
		return true
	})
	return out
}

// captureHandler records reported errors for assertions.
type captureHandler struct {
	mu          sync.Mutex
	engine      []*errors.EngineError
	panics      []*errors.PanicError
	builds      []*errors.BuildError
	constraints []*errors.ConstraintError
}

func (h *captureHandler) HandleError(err *errors.EngineError) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.engine = append(h.engine, err)
}

func (h *captureHandler) HandlePanic(err *errors.PanicError) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.panics = append(h.panics, err)
}

func (h *captureHandler) HandleBuildError(err *errors.BuildError) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.builds = append(h.builds, err)
}

func (h *captureHandler) HandleConstraintError(err *errors.ConstraintError) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.constraints = append(h.constraints, err)
}

func TestMountRootInflatesSubtree(t *testing.T) {
	owner := NewBuildOwner()
	root := owner.MountRoot(builderWidget{build: func(ctx BuildContext) Widget {
		return listWidget{Children: []Widget{
			tileWidget{Tint: 0xFF0000FF},
			tileWidget{Tint: 0xFF00FF00},
		}}
	}})

	if root == nil {
		t.Fatal("MountRoot returned nil")
	}
	if root.Lifecycle() != LifecycleActive {
		t.Fatalf("root lifecycle = %v, want active", root.Lifecycle())
	}
	if owner.Tree().Len() != 4 {
		t.Errorf("tree Len() = %d, want 4 (composite, list, two tiles)", owner.Tree().Len())
	}
	if root.RenderObject() == nil {
		t.Fatal("composite root did not expose the built render object")
	}

	box := root.RenderObject().(*stubBox)
	if len(box.children) != 2 {
		t.Errorf("render children = %d, want 2", len(box.children))
	}
}

func TestUpdatePreservesElementIdentity(t *testing.T) {
	owner := NewBuildOwner()
	root := owner.MountRoot(listWidget{Children: []Widget{
		tileWidget{ID: "a", Tint: 1},
		tileWidget{ID: "b", Tint: 1},
	}})

	before := childElements(root)
	if len(before) != 2 {
		t.Fatalf("mounted %d children, want 2", len(before))
	}
	handles := []Handle{before[0].Handle(), before[1].Handle()}
	renders := []layout.RenderObject{before[0].RenderObject(), before[1].RenderObject()}

	root.Update(listWidget{Children: []Widget{
		tileWidget{ID: "a", Tint: 2},
		tileWidget{ID: "b", Tint: 2},
	}})
	owner.FlushBuild()
	owner.FinalizeTree()

	after := childElements(root)
	if len(after) != 2 {
		t.Fatalf("after update: %d children, want 2", len(after))
	}
	for i := range after {
		if after[i].Handle() != handles[i] {
			t.Errorf("child %d handle changed across a same-widget update", i)
		}
		if after[i].RenderObject() != renders[i] {
			t.Errorf("child %d render object changed across a same-widget update", i)
		}
		if got := after[i].Widget().(tileWidget).Tint; got != 2 {
			t.Errorf("child %d widget not updated in place: tint = %d", i, got)
		}
	}
}

func TestKeyedReorderMovesElements(t *testing.T) {
	owner := NewBuildOwner()
	root := owner.MountRoot(listWidget{Children: []Widget{
		tileWidget{ID: "a"},
		tileWidget{ID: "b"},
		tileWidget{ID: "c"},
	}})

	byKey := make(map[any]Handle)
	for _, child := range childElements(root) {
		byKey[child.Widget().Key()] = child.Handle()
	}

	root.Update(listWidget{Children: []Widget{
		tileWidget{ID: "c"},
		tileWidget{ID: "a"},
		tileWidget{ID: "b"},
	}})
	owner.FlushBuild()
	owner.FinalizeTree()

	after := childElements(root)
	wantOrder := []any{"c", "a", "b"}
	if len(after) != len(wantOrder) {
		t.Fatalf("after reorder: %d children, want %d", len(after), len(wantOrder))
	}
	for i, child := range after {
		key := child.Widget().Key()
		if key != wantOrder[i] {
			t.Errorf("position %d holds key %v, want %v", i, key, wantOrder[i])
		}
		if child.Handle() != byKey[key] {
			t.Errorf("key %v did not keep its element across the reorder", key)
		}
	}
	if owner.Tree().Len() != 4 {
		t.Errorf("tree Len() = %d after reorder, want 4", owner.Tree().Len())
	}
}

func TestTypeMismatchRemountsChild(t *testing.T) {
	owner := NewBuildOwner()
	root := owner.MountRoot(listWidget{Children: []Widget{tileWidget{}}})

	old := childElements(root)[0]
	oldHandle := old.Handle()

	root.Update(listWidget{Children: []Widget{badgeWidget{}}})
	owner.FlushBuild()
	owner.FinalizeTree()

	replacement := childElements(root)[0]
	if replacement.Handle() == oldHandle {
		t.Error("type mismatch reused the old element")
	}
	if _, ok := replacement.Widget().(badgeWidget); !ok {
		t.Errorf("replacement widget is %T", replacement.Widget())
	}
	if old.Lifecycle() != LifecycleDefunct {
		t.Errorf("displaced element lifecycle = %v, want defunct", old.Lifecycle())
	}
	if _, ok := owner.Tree().Get(oldHandle); ok {
		t.Error("displaced element's handle still resolves")
	}
}

func TestTakeInactiveMatchesKeyAndType(t *testing.T) {
	owner := NewBuildOwner()
	element := inflateWidget(tileWidget{ID: "x"}, owner)
	element.Mount(nil, nil)
	element.Deactivate()
	owner.addInactive(element)

	if got := owner.takeInactive("x", badgeWidget{ID: "x"}); got != nil {
		t.Error("takeInactive matched a widget of a different type")
	}
	if got := owner.takeInactive("y", tileWidget{ID: "y"}); got != nil {
		t.Error("takeInactive matched a different key")
	}
	if got := owner.takeInactive("x", tileWidget{ID: "x"}); got != element {
		t.Errorf("takeInactive(%q) = %v, want the parked element", "x", got)
	}
	// The element was claimed; a second take finds nothing.
	if got := owner.takeInactive("x", tileWidget{ID: "x"}); got != nil {
		t.Error("takeInactive returned an already-claimed element")
	}
}

func TestFinalizeTreeUnmountsUnclaimed(t *testing.T) {
	owner := NewBuildOwner()
	element := inflateWidget(tileWidget{ID: "gone"}, owner)
	element.Mount(nil, nil)
	handle := element.Handle()

	element.Deactivate()
	owner.addInactive(element)
	if element.Lifecycle() != LifecycleInactive {
		t.Fatalf("lifecycle = %v after deactivate, want inactive", element.Lifecycle())
	}

	owner.FinalizeTree()
	if element.Lifecycle() != LifecycleDefunct {
		t.Errorf("lifecycle = %v after finalize, want defunct", element.Lifecycle())
	}
	if _, ok := owner.Tree().Get(handle); ok {
		t.Error("handle still resolves after finalize")
	}
}

func TestBuildPanicIsContained(t *testing.T) {
	handler := &captureHandler{}
	errors.SetHandler(handler)
	defer errors.SetHandler(nil)

	owner := NewBuildOwner()
	root := owner.MountRoot(builderWidget{build: func(ctx BuildContext) Widget {
		panic("boom")
	}})

	if root == nil {
		t.Fatal("MountRoot returned nil for a panicking build")
	}
	if root.Lifecycle() != LifecycleActive {
		t.Errorf("root lifecycle = %v, want active", root.Lifecycle())
	}
	if root.RenderObject() != nil {
		t.Error("panicking build produced a child render object")
	}

	handler.mu.Lock()
	defer handler.mu.Unlock()
	if len(handler.builds) != 1 {
		t.Fatalf("captured %d build errors, want 1", len(handler.builds))
	}
	if handler.builds[0].Recovered != "boom" {
		t.Errorf("recovered value = %v", handler.builds[0].Recovered)
	}
}

// boxOnlySliverWidget declares the sliver protocol but creates a plain box
// render object.
type boxOnlySliverWidget struct {
	RenderBase
}

func (w boxOnlySliverWidget) CreateElement() Element { return NewRenderElement() }
func (w boxOnlySliverWidget) Arity() Arity           { return ArityLeaf }
func (w boxOnlySliverWidget) Protocol() Protocol     { return ProtocolSliver }

func (w boxOnlySliverWidget) CreateRenderObject(ctx BuildContext) layout.RenderObject {
	return newStubLeafBox()
}

func (w boxOnlySliverWidget) UpdateRenderObject(ctx BuildContext, renderObject layout.RenderObject) {}

// sliverHostBox is a box render object that hosts slivers, the shape scroll
// view adapters take.
type sliverHostBox struct {
	stubLeafBox
	slivers []layout.RenderSliver
}

func (b *sliverHostBox) SetSliverChildren(children []layout.RenderSliver) {
	b.slivers = children
}

type sliverHostWidget struct {
	RenderBase
}

func (w sliverHostWidget) CreateElement() Element { return NewRenderElement() }
func (w sliverHostWidget) Arity() Arity           { return ArityLeaf }
func (w sliverHostWidget) Protocol() Protocol     { return ProtocolSliver }

func (w sliverHostWidget) CreateRenderObject(ctx BuildContext) layout.RenderObject {
	box := &sliverHostBox{}
	box.SetSelf(box)
	return box
}

func (w sliverHostWidget) UpdateRenderObject(ctx BuildContext, renderObject layout.RenderObject) {}

func TestMountReportsProtocolMismatch(t *testing.T) {
	handler := &captureHandler{}
	errors.SetHandler(handler)
	defer errors.SetHandler(nil)

	owner := NewBuildOwner()
	element := owner.MountRoot(boxOnlySliverWidget{})
	if element.Lifecycle() != LifecycleActive {
		t.Fatalf("mismatched element lifecycle = %v, want active", element.Lifecycle())
	}

	handler.mu.Lock()
	defer handler.mu.Unlock()
	if len(handler.engine) != 1 {
		t.Fatalf("captured %d engine errors, want 1", len(handler.engine))
	}
	if handler.engine[0].Kind != errors.KindBuild {
		t.Errorf("error kind = %v, want build", handler.engine[0].Kind)
	}
}

func TestMountAcceptsSliverHost(t *testing.T) {
	handler := &captureHandler{}
	errors.SetHandler(handler)
	defer errors.SetHandler(nil)

	owner := NewBuildOwner()
	owner.MountRoot(sliverHostWidget{})

	handler.mu.Lock()
	defer handler.mu.Unlock()
	if len(handler.engine) != 0 {
		t.Errorf("sliver-hosting render object was reported: %v", handler.engine[0])
	}
}

func TestCompositeRebuildSwapsChild(t *testing.T) {
	owner := NewBuildOwner()
	useBadge := false
	root := owner.MountRoot(builderWidget{build: func(ctx BuildContext) Widget {
		if useBadge {
			return badgeWidget{}
		}
		return tileWidget{}
	}})

	first := childElements(root)[0]
	if _, ok := first.Widget().(tileWidget); !ok {
		t.Fatalf("initial child widget is %T", first.Widget())
	}

	useBadge = true
	root.MarkNeedsBuild()
	owner.FlushBuild()
	owner.FinalizeTree()

	second := childElements(root)[0]
	if _, ok := second.Widget().(badgeWidget); !ok {
		t.Errorf("rebuilt child widget is %T", second.Widget())
	}
	if first.Lifecycle() != LifecycleDefunct {
		t.Errorf("replaced child lifecycle = %v, want defunct", first.Lifecycle())
	}
}
