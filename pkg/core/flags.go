package core

import "sync/atomic"

// Flag is a single element state bit.
type Flag uint8

const (
	// FlagDirty marks the element as needing rebuild.
	FlagDirty Flag = 1 << 0
	// FlagNeedsLayout marks the element's render object as needing layout.
	FlagNeedsLayout Flag = 1 << 1
	// FlagNeedsPaint marks the element's render object as needing paint.
	FlagNeedsPaint Flag = 1 << 2
	// FlagDetached marks the element as detached from the tree.
	FlagDetached Flag = 1 << 3
	// FlagMounted marks the element as mounted.
	FlagMounted Flag = 1 << 4
	// FlagActive marks the element as active in the tree.
	FlagActive Flag = 1 << 5
)

// flagLanes is the number of one-byte flag lanes packed into each word.
const flagLanes = 4

// ElementFlags is a lock-free view of one element's flag byte.
//
// Each element's flags occupy exactly one byte, packed four to a word in
// block-allocated storage that never moves, so views stay valid for the
// element's lifetime. Insert and Remove are atomic read-modify-write
// operations; Contains and Load are atomic loads. Go's atomics are
// sequentially consistent, so a flag set on one goroutine is visible to any
// goroutine that subsequently loads the byte.
//
// Clearing the dirty, needs-layout, and needs-paint bits is reserved for the
// pipeline thread that processes the corresponding phase. Concurrent misuse
// costs at worst a spurious extra pass, never a torn byte.
type ElementFlags struct {
	word  *atomic.Uint32
	shift uint32
}

// NewElementFlags allocates a standalone flag byte.
// Elements receive arena-backed flags when registered with a Tree.
func NewElementFlags() ElementFlags {
	return ElementFlags{word: new(atomic.Uint32)}
}

// Insert atomically sets the given flag bits.
func (f ElementFlags) Insert(flag Flag) {
	mask := uint32(flag) << f.shift
	for {
		old := f.word.Load()
		if old&mask == mask {
			return
		}
		if f.word.CompareAndSwap(old, old|mask) {
			return
		}
	}
}

// Remove atomically clears the given flag bits.
func (f ElementFlags) Remove(flag Flag) {
	mask := uint32(flag) << f.shift
	for {
		old := f.word.Load()
		if old&mask == 0 {
			return
		}
		if f.word.CompareAndSwap(old, old&^mask) {
			return
		}
	}
}

// Contains reports whether all given flag bits are set.
func (f ElementFlags) Contains(flag Flag) bool {
	return Flag(f.word.Load()>>f.shift)&flag == flag
}

// IsAnySet reports whether any of the given flag bits are set.
func (f ElementFlags) IsAnySet(flags Flag) bool {
	return Flag(f.word.Load()>>f.shift)&flags != 0
}

// Load returns the current flag byte.
func (f ElementFlags) Load() Flag {
	return Flag(f.word.Load() >> f.shift)
}

// Store replaces the flag byte.
func (f ElementFlags) Store(flags Flag) {
	mask := uint32(0xFF) << f.shift
	value := uint32(flags) << f.shift
	for {
		old := f.word.Load()
		if f.word.CompareAndSwap(old, old&^mask|value) {
			return
		}
	}
}

// Clear resets the flag byte to zero.
func (f ElementFlags) Clear() {
	f.Store(0)
}

// flagStore allocates flag bytes in fixed blocks so lanes never move.
type flagStore struct {
	blocks [][]atomic.Uint32
}

// flagBlockWords is the number of words per block (flagBlockWords*flagLanes
// flag bytes).
const flagBlockWords = 256

// laneFor returns the flag view for the given slot index.
func (s *flagStore) laneFor(index uint32) ElementFlags {
	word := index / flagLanes
	block := int(word / flagBlockWords)
	for block >= len(s.blocks) {
		s.blocks = append(s.blocks, make([]atomic.Uint32, flagBlockWords))
	}
	return ElementFlags{
		word:  &s.blocks[block][word%flagBlockWords],
		shift: (index % flagLanes) * 8,
	}
}
