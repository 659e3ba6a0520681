package arc

import (
	"runtime"
	"sync/atomic"
	"testing"
	"time"
)

type countingObserver struct {
	allocated, freed, leaked, fatal atomic.Int64
}

func (o *countingObserver) Allocated()   { o.allocated.Add(1) }
func (o *countingObserver) Freed()       { o.freed.Add(1) }
func (o *countingObserver) Leaked()      { o.leaked.Add(1) }
func (o *countingObserver) Fatal(string) { o.fatal.Add(1) }

func TestObserverSeesLifecycle(t *testing.T) {
	obs := &countingObserver{}
	SetObserver(obs)
	defer SetObserver(nil)

	h := New(3)
	c := h.Clone()
	h.Release()
	c.Release()

	if obs.allocated.Load() < 1 || obs.freed.Load() < 1 {
		t.Fatalf("allocated=%d freed=%d", obs.allocated.Load(), obs.freed.Load())
	}

	expectFatal(t, func() { c.Release() })
	if obs.fatal.Load() != 1 {
		t.Fatalf("expected one fatal event, got %d", obs.fatal.Load())
	}
}

func TestLostHandleIsReleasedByCleanup(t *testing.T) {
	obs := &countingObserver{}
	SetObserver(obs)
	defer SetObserver(nil)

	var drops atomic.Int32
	h := NewWithDrop(11, func(int) { drops.Add(1) })
	func() {
		_ = h.Clone()
	}()

	deadline := time.Now().Add(5 * time.Second)
	for h.Count() != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("lost clone was never released (count %d)", h.Count())
		}
		runtime.GC()
		time.Sleep(10 * time.Millisecond)
	}

	if obs.leaked.Load() == 0 {
		t.Error("leak was not reported")
	}
	if drops.Load() != 0 {
		t.Fatal("value dropped while the original handle is live")
	}
	if !h.Release() {
		t.Fatal("original handle should be the last owner")
	}
	if drops.Load() != 1 {
		t.Fatalf("expected one drop, got %d", drops.Load())
	}
}

func TestReleasedHandleCleanupIsStopped(t *testing.T) {
	var drops atomic.Int32
	func() {
		h := NewWithDrop(1, func(int) { drops.Add(1) })
		h.Release()
	}()
	for i := 0; i < 3; i++ {
		runtime.GC()
		time.Sleep(5 * time.Millisecond)
	}
	if drops.Load() != 1 {
		t.Fatalf("expected exactly one drop, got %d", drops.Load())
	}
}

func TestBlockingDropDoesNotStallCleanups(t *testing.T) {
	unblock := make(chan struct{})
	defer close(unblock)
	var blocked, dropped atomic.Int32

	func() {
		_ = NewWithDrop(1, func(int) {
			blocked.Add(1)
			<-unblock
		})
		_ = NewWithDrop(2, func(int) { dropped.Add(1) })
	}()

	deadline := time.Now().Add(5 * time.Second)
	for blocked.Load() == 0 || dropped.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("cleanups stalled: blocked=%d dropped=%d", blocked.Load(), dropped.Load())
		}
		runtime.GC()
		time.Sleep(10 * time.Millisecond)
	}
}
