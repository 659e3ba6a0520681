package arc

import (
	"runtime"
	"sync/atomic"
)

// Handle owns one unit of a shared cell's reference count.
//
// Handles are used by pointer. Clone to share, Release when done; after
// Release the handle must not be used again.
type Handle[T any] struct {
	_       noCopy
	s       *state[T]
	cleanup runtime.Cleanup
}

// state is what the runtime cleanup needs to release a lost handle. It must
// never point back to the Handle, or the Handle would never be collected.
type state[T any] struct {
	c        *cell[T]
	released atomic.Bool
}

// New moves v into a freshly allocated cell and returns its only owner.
// If v implements Dropper, Drop runs when the last handle is released.
func New[T any](v T) *Handle[T] {
	return newHandle(newCell(v, nil))
}

// NewWithDrop is New with an explicit drop hook, used instead of Dropper.
func NewWithDrop[T any](v T, drop func(T)) *Handle[T] {
	return newHandle(newCell(v, drop))
}

func newHandle[T any](c *cell[T]) *Handle[T] {
	h := &Handle[T]{s: &state[T]{c: c}}
	// Cleanups share one runtime goroutine; the drop hook may block.
	h.cleanup = runtime.AddCleanup(h, func(s *state[T]) { go s.release(true) }, h.s)
	return h
}

// Clone returns a new owner of the same value.
func (h *Handle[T]) Clone() *Handle[T] {
	s := h.live("clone")
	s.c.incRef()
	runtime.KeepAlive(h)
	return newHandle(s.c)
}

// Get returns the shared value. The result must not be used to mutate
// anything the value shares with other owners.
func (h *Handle[T]) Get() T {
	v := h.live("get").c.value
	runtime.KeepAlive(h)
	return v
}

// Count reports the number of live handles sharing h's value. The answer
// may be stale by the time the caller looks at it.
func (h *Handle[T]) Count() uint64 {
	n := h.live("count").c.refs.Load()
	runtime.KeepAlive(h)
	return n
}

// Release gives up h's ownership. The last Release drops the value and
// reports true; every other Release reports false.
func (h *Handle[T]) Release() bool {
	s := h.live("release")
	h.cleanup.Stop()
	freed := s.release(false)
	runtime.KeepAlive(h)
	return freed
}

// Same reports whether a and b share one cell.
func Same[T any](a, b *Handle[T]) bool {
	return a.live("compare").c == b.live("compare").c
}

func (h *Handle[T]) live(op string) *state[T] {
	if h == nil || h.s == nil {
		fatal("arc: " + op + " on a nil handle")
	}
	if h.s.released.Load() {
		fatal("arc: " + op + " on a released handle")
	}
	return h.s
}

func (s *state[T]) release(leaked bool) bool {
	if s.released.Swap(true) {
		fatal("arc: handle released twice")
	}
	if leaked {
		currentObserver().Leaked()
	}
	return s.c.decRef()
}

// noCopy lets go vet's copylocks check flag a Handle copied by value.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
