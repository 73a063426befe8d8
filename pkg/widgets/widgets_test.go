package widgets

import (
	"math"
	"testing"

	"github.com/go-flint/flint/pkg/layout"
	"github.com/go-flint/flint/pkg/rendering"
)

func layoutRoot(t *testing.T, root layout.RenderObject, constraints layout.Constraints) {
	t.Helper()
	root.Layout(constraints, false)
}

func TestSizedBoxReservesSpace(t *testing.T) {
	box := SizedBox{Width: 200, Height: 100}.CreateRenderObject(nil)
	layoutRoot(t, box, layout.Loose(rendering.Size{Width: 800, Height: 600}))

	want := rendering.Size{Width: 200, Height: 100}
	if box.Size() != want {
		t.Errorf("size = %v, want %v", box.Size(), want)
	}
}

func TestSizedBoxRespectsIncomingConstraints(t *testing.T) {
	box := SizedBox{Width: 900, Height: 100}.CreateRenderObject(nil)
	layoutRoot(t, box, layout.Loose(rendering.Size{Width: 800, Height: 600}))

	if got := box.Size().Width; got != 800 {
		t.Errorf("width = %v, want the constraint maximum 800", got)
	}
}

func TestSizedBoxForcesChildSize(t *testing.T) {
	box := SizedBox{Width: 200, Height: 100}.CreateRenderObject(nil)
	fill := ColoredBox{}.CreateRenderObject(nil)
	box.(interface{ SetChild(layout.RenderObject) }).SetChild(fill)

	layoutRoot(t, box, layout.Loose(rendering.Size{Width: 800, Height: 600}))

	want := rendering.Size{Width: 200, Height: 100}
	if fill.Size() != want {
		t.Errorf("child size = %v, want %v", fill.Size(), want)
	}
	if box.Size() != want {
		t.Errorf("box size = %v, want %v", box.Size(), want)
	}
}

func TestColoredBoxFillsBoundedSpace(t *testing.T) {
	fill := ColoredBox{Color: 0xFFFF0000}.CreateRenderObject(nil)
	layoutRoot(t, fill, layout.Loose(rendering.Size{Width: 400, Height: 300}))

	want := rendering.Size{Width: 400, Height: 300}
	if fill.Size() != want {
		t.Errorf("size = %v, want %v", fill.Size(), want)
	}
}

func TestColoredBoxShrinksWhenUnbounded(t *testing.T) {
	fill := ColoredBox{}.CreateRenderObject(nil)
	layoutRoot(t, fill, layout.Constraints{
		MaxWidth:  math.Inf(1),
		MaxHeight: math.Inf(1),
	})

	if got := fill.Size(); !got.IsEmpty() {
		t.Errorf("unbounded size = %v, want empty", got)
	}
}

func TestCenterPositionsChild(t *testing.T) {
	center := Center{}.CreateRenderObject(nil)
	child := SizedBox{Width: 200, Height: 100}.CreateRenderObject(nil)
	center.(interface{ SetChild(layout.RenderObject) }).SetChild(child)

	layoutRoot(t, center, layout.Tight(rendering.Size{Width: 800, Height: 600}))

	if center.Size() != (rendering.Size{Width: 800, Height: 600}) {
		t.Errorf("center size = %v, want the full 800x600", center.Size())
	}
	data, ok := child.ParentData().(*layout.BoxParentData)
	if !ok {
		t.Fatal("child parent data was not box parent data")
	}
	want := rendering.Offset{X: 300, Y: 250}
	if data.Offset != want {
		t.Errorf("child offset = %v, want %v", data.Offset, want)
	}
}

func TestPaddingInsetsChild(t *testing.T) {
	pad := PaddingAll(10, nil).CreateRenderObject(nil)
	child := SizedBox{Width: 50, Height: 20}.CreateRenderObject(nil)
	pad.(interface{ SetChild(layout.RenderObject) }).SetChild(child)

	layoutRoot(t, pad, layout.Loose(rendering.Size{Width: 800, Height: 600}))

	if pad.Size() != (rendering.Size{Width: 70, Height: 40}) {
		t.Errorf("padded size = %v, want 70x40", pad.Size())
	}
	data := child.ParentData().(*layout.BoxParentData)
	if data.Offset != (rendering.Offset{X: 10, Y: 10}) {
		t.Errorf("child offset = %v, want 10,10", data.Offset)
	}
}

func TestColumnStacksChildren(t *testing.T) {
	column := Column{}.CreateRenderObject(nil)
	first := SizedBox{Width: 100, Height: 30}.CreateRenderObject(nil)
	second := SizedBox{Width: 60, Height: 50}.CreateRenderObject(nil)
	column.(interface{ SetChildren([]layout.RenderObject) }).SetChildren(
		[]layout.RenderObject{first, second})

	layoutRoot(t, column, layout.Loose(rendering.Size{Width: 800, Height: 600}))

	if column.Size() != (rendering.Size{Width: 100, Height: 80}) {
		t.Errorf("column size = %v, want 100x80", column.Size())
	}
	firstData := first.ParentData().(*layout.BoxParentData)
	secondData := second.ParentData().(*layout.BoxParentData)
	if firstData.Offset.Y != 0 || secondData.Offset.Y != 30 {
		t.Errorf("stack offsets = %v, %v; want 0 and 30", firstData.Offset.Y, secondData.Offset.Y)
	}
}

func TestSpacerHelpers(t *testing.T) {
	if v := VSpace(24); v.Height != 24 || v.Width != 0 {
		t.Errorf("VSpace(24) = %+v", v)
	}
	if h := HSpace(16); h.Width != 16 || h.Height != 0 {
		t.Errorf("HSpace(16) = %+v", h)
	}
	if c := Centered(VSpace(1)); c.Child == nil {
		t.Error("Centered dropped its child")
	}
}
