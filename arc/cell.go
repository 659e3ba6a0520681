package arc

import (
	"fmt"
	"math"
	"sync/atomic"
)

// maxRefs is the highest pre-increment count Clone accepts. Past it a
// wraparound would let the cell be freed under live handles.
const maxRefs = math.MaxUint64 / 2

// Dropper is implemented by payloads that own something beyond memory.
// Drop runs once, on the goroutine that releases the last handle, or on a
// fresh goroutine when that handle was lost and released by the runtime.
type Dropper interface {
	Drop()
}

// cell is the single allocation shared by every handle cloned from one New.
type cell[T any] struct {
	refs  atomic.Uint64
	freed atomic.Bool
	value T
	drop  func(T)
}

func newCell[T any](v T, drop func(T)) *cell[T] {
	checkShareable(v)

	c := &cell[T]{value: v, drop: drop}
	c.refs.Store(1)
	currentObserver().Allocated()
	return c
}

// incRef registers one more owner.
func (c *cell[T]) incRef() {
	prev := c.refs.Add(1) - 1
	switch {
	case prev == 0:
		fatal("arc: clone of a freed cell")
	case prev > maxRefs:
		fatal(fmt.Sprintf("arc: reference count overflow (%d owners)", prev))
	}
}

// decRef gives up one unit of ownership and frees the cell when it was the
// last, reporting whether it did.
func (c *cell[T]) decRef() bool {
	n := c.refs.Add(^uint64(0))
	if n == math.MaxUint64 {
		fatal("arc: release of a freed cell")
	}
	if n != 0 {
		return false
	}
	c.acquire()
	c.free()
	return true
}

// acquire orders the free after every earlier decrement. sync/atomic is
// sequentially consistent, so the load synchronizes with all prior Adds on
// refs; a non-zero value means someone cloned a handle they did not own.
func (c *cell[T]) acquire() {
	if n := c.refs.Load(); n != 0 {
		fatal(fmt.Sprintf("arc: cell resurrected during free (count %d)", n))
	}
}

func (c *cell[T]) free() {
	if c.freed.Swap(true) {
		fatal("arc: cell freed twice")
	}

	v := c.value
	var zero T
	c.value = zero

	switch {
	case c.drop != nil:
		c.drop(v)
	default:
		if d, ok := any(v).(Dropper); ok {
			d.Drop()
		}
	}
	currentObserver().Freed()
}
