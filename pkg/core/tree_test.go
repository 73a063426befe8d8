package core

import (
	"testing"
)

func TestTreeInsertAndGet(t *testing.T) {
	tree := NewTree()
	element := NewCompositeElement()

	handle := tree.Insert(element)
	if handle.IsNull() {
		t.Fatal("Insert returned the null handle")
	}

	got, ok := tree.Get(handle)
	if !ok || got != Element(element) {
		t.Fatalf("Get(%v) = %v, %v", handle, got, ok)
	}
	if tree.Len() != 1 {
		t.Errorf("Len() = %d, want 1", tree.Len())
	}
}

func TestTreeNullHandleNeverResolves(t *testing.T) {
	tree := NewTree()
	if _, ok := tree.Get(NullHandle); ok {
		t.Error("Get(NullHandle) resolved")
	}
}

func TestTreeStaleHandleAfterRemove(t *testing.T) {
	tree := NewTree()
	element := NewCompositeElement()
	handle := tree.Insert(element)

	if !tree.Remove(handle) {
		t.Fatal("Remove returned false for a live handle")
	}
	if _, ok := tree.Get(handle); ok {
		t.Error("stale handle resolved after Remove")
	}
	if tree.Remove(handle) {
		t.Error("Remove succeeded twice for the same handle")
	}
}

func TestTreeSlotReuseBumpsGeneration(t *testing.T) {
	tree := NewTree()
	first := NewCompositeElement()
	oldHandle := tree.Insert(first)
	tree.Remove(oldHandle)

	second := NewCompositeElement()
	newHandle := tree.Insert(second)

	// The slot is reused but the generation differs, so the old handle must
	// not resolve to the new occupant.
	if newHandle == oldHandle {
		t.Fatal("reused slot produced an identical handle")
	}
	if _, ok := tree.Get(oldHandle); ok {
		t.Error("old-generation handle resolved to the new occupant")
	}
	if got, ok := tree.Get(newHandle); !ok || got != Element(second) {
		t.Errorf("Get(new handle) = %v, %v", got, ok)
	}
}

func TestTreeMarkDirtyAndDrain(t *testing.T) {
	tree := NewTree()
	a := NewCompositeElement()
	b := NewCompositeElement()
	ha := tree.Insert(a)
	hb := tree.Insert(b)

	if !tree.MarkDirty(ha) || !tree.MarkDirty(hb) {
		t.Fatal("MarkDirty failed for live handles")
	}
	if !tree.HasDirty() {
		t.Fatal("HasDirty() = false after marks")
	}

	drained := tree.DrainDirty()
	if len(drained) != 2 {
		t.Fatalf("DrainDirty() returned %d elements, want 2", len(drained))
	}
	if tree.HasDirty() {
		t.Error("HasDirty() = true after drain")
	}
}

func TestTreeStaleDirtyMarkDrainsToNothing(t *testing.T) {
	tree := NewTree()
	element := NewCompositeElement()
	handle := tree.Insert(element)
	tree.Remove(handle)

	// The bitmap accepts the index without a generation check; the drain is
	// where stale marks fall out.
	tree.MarkDirty(handle)
	if drained := tree.DrainDirty(); len(drained) != 0 {
		t.Errorf("DrainDirty() resolved %d elements for a stale mark", len(drained))
	}
	if tree.MarkDirty(NullHandle) {
		t.Error("MarkDirty accepted the null handle")
	}
}

func TestTreeDirtySetGrowsPastDefaultCapacity(t *testing.T) {
	tree := NewTree()

	var handles []Handle
	for range defaultDirtyCapacity + 100 {
		handles = append(handles, tree.Insert(NewCompositeElement()))
	}

	last := handles[len(handles)-1]
	if !tree.MarkDirty(last) {
		t.Fatal("MarkDirty failed for a slot past the default dirty capacity")
	}
	drained := tree.DrainDirty()
	if len(drained) != 1 {
		t.Errorf("DrainDirty() = %d elements, want 1", len(drained))
	}
}
