package core

import (
	"math/bits"
	"sync/atomic"
)

// defaultDirtyCapacity is the number of element slots the dirty bitmap covers
// by default.
const defaultDirtyCapacity = 10000

// DirtySet is a lock-free bitmap of dirty element slots.
//
// It is the engine's one intentionally lock-free cross-thread channel:
// background work may mark an element dirty without blocking, or being
// blocked by, the pipeline thread. The pipeline drains the set at the start
// of the build phase.
//
// Slot indices are 1-based; index 0 and out-of-range indices are ignored.
type DirtySet struct {
	words    []atomic.Uint64
	capacity uint32
}

// NewDirtySet creates a dirty set covering the given number of slots.
func NewDirtySet(capacity uint32) *DirtySet {
	if capacity == 0 {
		capacity = defaultDirtyCapacity
	}
	words := (capacity + 63) / 64
	return &DirtySet{
		words:    make([]atomic.Uint64, words+1),
		capacity: capacity,
	}
}

// Capacity returns the number of slots the set covers.
func (d *DirtySet) Capacity() uint32 {
	return d.capacity
}

// MarkDirty sets the bit for the given slot. Safe from any goroutine.
// Returns false for out-of-range indices, which are silently ignored.
func (d *DirtySet) MarkDirty(index uint32) bool {
	if index == 0 || index > d.capacity {
		return false
	}
	word, bit := index/64, index%64
	d.words[word].Or(1 << bit)
	return true
}

// IsDirty reports whether the bit for the given slot is set.
func (d *DirtySet) IsDirty(index uint32) bool {
	if index == 0 || index > d.capacity {
		return false
	}
	word, bit := index/64, index%64
	return d.words[word].Load()&(1<<bit) != 0
}

// ClearDirty clears the bit for the given slot.
// Reserved for the pipeline thread.
func (d *DirtySet) ClearDirty(index uint32) {
	if index == 0 || index > d.capacity {
		return
	}
	word, bit := index/64, index%64
	d.words[word].And(^uint64(1 << bit))
}

// CollectDirty returns the set slot indices in ascending order without
// clearing them.
func (d *DirtySet) CollectDirty() []uint32 {
	var result []uint32
	for w := range d.words {
		word := d.words[w].Load()
		for word != 0 {
			index := uint32(w*64) + uint32(bits.TrailingZeros64(word))
			if index >= 1 && index <= d.capacity {
				result = append(result, index)
			}
			word &= word - 1
		}
	}
	return result
}

// Drain atomically takes and clears the set bits, returning slot indices in
// ascending order. Reserved for the pipeline thread.
func (d *DirtySet) Drain() []uint32 {
	var result []uint32
	for w := range d.words {
		word := d.words[w].Swap(0)
		for word != 0 {
			index := uint32(w*64) + uint32(bits.TrailingZeros64(word))
			if index >= 1 && index <= d.capacity {
				result = append(result, index)
			}
			word &= word - 1
		}
	}
	return result
}

// Len returns the number of set bits.
func (d *DirtySet) Len() int {
	count := 0
	for w := range d.words {
		count += bits.OnesCount64(d.words[w].Load())
	}
	return count
}
