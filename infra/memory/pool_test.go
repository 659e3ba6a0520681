package memory

import (
	"testing"

	"arcshare/arc"
)

type buffer struct {
	data []byte
}

func TestPoolAsDropHook(t *testing.T) {
	var resets int
	pool := NewPool(
		func() *buffer { return &buffer{data: make([]byte, 0, 64)} },
		func(b *buffer) {
			resets++
			b.data = b.data[:0]
		},
	)

	b := pool.Get()
	b.data = append(b.data, "payload"...)

	h := arc.NewWithDrop(b, pool.Put)
	c := h.Clone()
	h.Release()
	if resets != 0 {
		t.Fatal("buffer returned while still owned")
	}
	c.Release()
	if resets != 1 {
		t.Fatalf("expected one reset, got %d", resets)
	}
	if len(b.data) != 0 {
		t.Error("buffer was not reset before reuse")
	}
}

func TestPoolPutNilPanics(t *testing.T) {
	pool := NewPool(func() *buffer { return &buffer{} }, nil)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	pool.Put(nil)
}
