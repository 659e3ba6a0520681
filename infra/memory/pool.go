package memory

import "sync"

// Pool is a typed object pool.
// Put resets the object before it is reused, so it can serve as the drop
// hook of a shared cell: the object goes back exactly when the last owner
// lets go.
type Pool[T any] struct {
	p     *sync.Pool
	reset func(*T)
}

func NewPool[T any](ctor func() *T, reset func(*T)) *Pool[T] {
	return &Pool[T]{
		p: &sync.Pool{
			New: func() any { return ctor() },
		},
		reset: reset,
	}
}

func (p *Pool[T]) Get() *T {
	return p.p.Get().(*T)
}

func (p *Pool[T]) Put(v *T) {
	if v == nil {
		panic("memory.Pool: Put received nil")
	}
	if p.reset != nil {
		p.reset(v)
	}
	p.p.Put(v)
}
