package core

import (
	"fmt"
	"sync"

	"github.com/go-flint/flint/pkg/errors"
)

// MaxPendingEffects is the hard ceiling on queued effects. Reaching it
// triggers an emergency flush rather than unbounded growth.
const MaxPendingEffects = 10000

// EffectID identifies a registered effect callback.
type EffectID uint64

// EffectScheduler batches and deduplicates side-effect callbacks triggered
// by state changes.
//
// Scheduling an already-queued effect is a no-op, which prevents redundant
// reactive re-triggering within one batch. Flush drains the queue in FIFO
// order with single-pass semantics: effects scheduled during a flush land in
// the next flush, and nested Flush calls while already flushing do nothing.
type EffectScheduler struct {
	mu       sync.Mutex
	effects  map[EffectID]func()
	queue    []EffectID
	queued   map[EffectID]struct{}
	nextID   EffectID
	flushing bool
}

// NewEffectScheduler creates an empty scheduler.
func NewEffectScheduler() *EffectScheduler {
	return &EffectScheduler{
		effects: make(map[EffectID]func()),
		queued:  make(map[EffectID]struct{}),
	}
}

// Register adds an effect callback and returns its id.
func (s *EffectScheduler) Register(fn func()) EffectID {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.effects[id] = fn
	return id
}

// Unregister removes an effect. A queued occurrence of the id is skipped at
// flush time.
func (s *EffectScheduler) Unregister(id EffectID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.effects, id)
}

// Schedule queues an effect for the next flush. Idempotent while the effect
// is already queued. Unknown ids are ignored.
func (s *EffectScheduler) Schedule(id EffectID) {
	s.mu.Lock()
	if _, ok := s.effects[id]; !ok {
		s.mu.Unlock()
		return
	}
	if _, ok := s.queued[id]; ok {
		s.mu.Unlock()
		return
	}
	s.queued[id] = struct{}{}
	s.queue = append(s.queue, id)
	overflow := len(s.queue) >= MaxPendingEffects && !s.flushing
	s.mu.Unlock()

	if overflow {
		errors.Report(&errors.EngineError{
			Op:   "core.EffectScheduler.Schedule",
			Kind: errors.KindBackpressure,
			Err:  fmt.Errorf("pending effects reached ceiling %d, forcing emergency flush", MaxPendingEffects),
		})
		s.Flush()
	}
}

// Flush executes queued effects in FIFO order.
//
// Effects scheduled while flushing are queued for the next flush; a nested
// Flush call during execution is a no-op.
func (s *EffectScheduler) Flush() {
	s.mu.Lock()
	if s.flushing || len(s.queue) == 0 {
		s.mu.Unlock()
		return
	}
	s.flushing = true
	batch := s.queue
	s.queue = nil
	for _, id := range batch {
		delete(s.queued, id)
	}
	s.mu.Unlock()

	for _, id := range batch {
		s.mu.Lock()
		fn := s.effects[id]
		s.mu.Unlock()
		if fn != nil {
			s.runEffect(id, fn)
		}
	}

	s.mu.Lock()
	s.flushing = false
	s.mu.Unlock()
}

// runEffect executes one callback with panic recovery so a single failing
// effect doesn't abort the batch.
func (s *EffectScheduler) runEffect(id EffectID, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			errors.ReportPanic(&errors.PanicError{
				Op:         fmt.Sprintf("core.EffectScheduler effect %d", id),
				Value:      r,
				StackTrace: errors.CaptureStack(),
			})
		}
	}()
	fn()
}

// PendingCount returns the number of queued effects.
func (s *EffectScheduler) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Clear drops all queued effects without executing them.
func (s *EffectScheduler) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = nil
	clear(s.queued)
}
