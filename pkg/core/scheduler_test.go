package core

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/go-flint/flint/pkg/errors"
)

func TestEffectScheduleDeduplicates(t *testing.T) {
	s := NewEffectScheduler()
	runs := 0
	id := s.Register(func() { runs++ })

	s.Schedule(id)
	s.Schedule(id)
	s.Schedule(id)
	if got := s.PendingCount(); got != 1 {
		t.Fatalf("PendingCount() = %d after repeated scheduling, want 1", got)
	}

	s.Flush()
	if runs != 1 {
		t.Errorf("effect ran %d times, want 1", runs)
	}

	// Dedup resets after the flush; the effect can queue again.
	s.Schedule(id)
	s.Flush()
	if runs != 2 {
		t.Errorf("effect ran %d times after requeue, want 2", runs)
	}
}

func TestEffectFlushRunsInScheduleOrder(t *testing.T) {
	s := NewEffectScheduler()
	var order []string

	ids := make([]EffectID, 5)
	for i := range ids {
		name := fmt.Sprintf("effect-%d", i)
		ids[i] = s.Register(func() { order = append(order, name) })
	}

	// Schedule out of registration order; flush follows schedule order.
	s.Schedule(ids[3])
	s.Schedule(ids[0])
	s.Schedule(ids[4])
	s.Schedule(ids[1])
	s.Schedule(ids[2])
	s.Flush()

	want := []string{"effect-3", "effect-0", "effect-4", "effect-1", "effect-2"}
	if diff := cmp.Diff(want, order); diff != "" {
		t.Errorf("flush order mismatch (-want +got):\n%s", diff)
	}
}

func TestEffectScheduledDuringFlushWaits(t *testing.T) {
	s := NewEffectScheduler()
	var laterRuns int
	later := s.Register(func() { laterRuns++ })

	first := s.Register(func() {
		s.Schedule(later)
		// A nested flush during execution must not drain the fresh queue.
		s.Flush()
		if laterRuns != 0 {
			t.Error("nested Flush executed an effect scheduled mid-flush")
		}
	})

	s.Schedule(first)
	s.Flush()
	if laterRuns != 0 {
		t.Fatalf("mid-flush schedule ran in the same flush")
	}
	if got := s.PendingCount(); got != 1 {
		t.Fatalf("PendingCount() = %d after flush, want 1 carried over", got)
	}

	s.Flush()
	if laterRuns != 1 {
		t.Errorf("carried-over effect ran %d times, want 1", laterRuns)
	}
}

func TestEffectUnregisteredSkippedAtFlush(t *testing.T) {
	s := NewEffectScheduler()
	runs := 0
	id := s.Register(func() { runs++ })

	s.Schedule(id)
	s.Unregister(id)
	s.Flush()
	if runs != 0 {
		t.Errorf("unregistered effect ran %d times", runs)
	}

	// Unknown ids are ignored outright.
	s.Schedule(id)
	if got := s.PendingCount(); got != 0 {
		t.Errorf("PendingCount() = %d after scheduling an unknown id, want 0", got)
	}
}

func TestEffectPanicDoesNotAbortBatch(t *testing.T) {
	handler := &captureHandler{}
	errors.SetHandler(handler)
	defer errors.SetHandler(nil)

	s := NewEffectScheduler()
	var survived bool
	bad := s.Register(func() { panic("effect failure") })
	good := s.Register(func() { survived = true })

	s.Schedule(bad)
	s.Schedule(good)
	s.Flush()

	if !survived {
		t.Error("effect after the panicking one did not run")
	}
	handler.mu.Lock()
	defer handler.mu.Unlock()
	if len(handler.panics) != 1 {
		t.Fatalf("captured %d panics, want 1", len(handler.panics))
	}
	if handler.panics[0].Value != "effect failure" {
		t.Errorf("panic value = %v", handler.panics[0].Value)
	}
}

func TestEffectBackpressureForcesFlush(t *testing.T) {
	handler := &captureHandler{}
	errors.SetHandler(handler)
	defer errors.SetHandler(nil)

	s := NewEffectScheduler()
	runs := 0
	for range MaxPendingEffects {
		id := s.Register(func() { runs++ })
		s.Schedule(id)
	}

	// The ceiling schedule flushed the whole queue.
	if got := s.PendingCount(); got != 0 {
		t.Errorf("PendingCount() = %d after hitting the ceiling, want 0", got)
	}
	if runs != MaxPendingEffects {
		t.Errorf("ran %d effects, want %d", runs, MaxPendingEffects)
	}

	handler.mu.Lock()
	defer handler.mu.Unlock()
	if len(handler.engine) != 1 {
		t.Fatalf("captured %d engine errors, want 1", len(handler.engine))
	}
	if handler.engine[0].Kind != errors.KindBackpressure {
		t.Errorf("error kind = %v, want backpressure", handler.engine[0].Kind)
	}
}

func TestEffectClearDropsQueue(t *testing.T) {
	s := NewEffectScheduler()
	runs := 0
	id := s.Register(func() { runs++ })

	s.Schedule(id)
	s.Clear()
	s.Flush()
	if runs != 0 {
		t.Errorf("cleared effect ran %d times", runs)
	}

	// Clear also resets dedup state; a fresh schedule works.
	s.Schedule(id)
	s.Flush()
	if runs != 1 {
		t.Errorf("effect ran %d times after re-schedule, want 1", runs)
	}
}
