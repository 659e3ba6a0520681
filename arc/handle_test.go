package arc

import (
	"sync/atomic"
	"testing"
)

type payload struct {
	value int
	drops *atomic.Int32
}

func (p payload) Drop() { p.drops.Add(1) }

func TestCreateCloneReleaseScenario(t *testing.T) {
	var drops atomic.Int32
	h1 := NewWithDrop(42, func(int) { drops.Add(1) })

	h2 := h1.Clone()
	if h2.Count() != 2 {
		t.Fatalf("expected count 2 after clone, got %d", h2.Count())
	}

	if h1.Release() {
		t.Fatal("first release must not free")
	}
	if got := h2.Get(); got != 42 {
		t.Fatalf("expected 42 through surviving handle, got %d", got)
	}
	if drops.Load() != 0 {
		t.Fatal("value dropped while a handle was still live")
	}

	if !h2.Release() {
		t.Fatal("last release must report the free")
	}
	if drops.Load() != 1 {
		t.Fatalf("expected exactly one drop, got %d", drops.Load())
	}
}

func TestCloneNReleaseNPlusOne(t *testing.T) {
	const n = 64

	var drops atomic.Int32
	h := NewWithDrop("shared", func(string) { drops.Add(1) })

	clones := make([]*Handle[string], 0, n)
	for i := 0; i < n; i++ {
		clones = append(clones, h.Clone())
	}
	if h.Count() != n+1 {
		t.Fatalf("expected count %d, got %d", n+1, h.Count())
	}

	h.Release()
	for i, c := range clones {
		if drops.Load() != 0 {
			t.Fatalf("dropped early after %d releases", i+1)
		}
		if c.Get() != "shared" {
			t.Fatalf("clone %d sees %q", i, c.Get())
		}
		c.Release()
	}
	if drops.Load() != 1 {
		t.Fatalf("expected one drop, got %d", drops.Load())
	}
}

func TestDropperPayload(t *testing.T) {
	var drops atomic.Int32
	h := New(payload{value: 7, drops: &drops})
	c := h.Clone()

	h.Release()
	if c.Get().value != 7 {
		t.Error("unexpected payload through clone")
	}
	c.Release()

	if drops.Load() != 1 {
		t.Fatalf("expected Drop once, got %d", drops.Load())
	}
}

func TestExplicitDropWinsOverDropper(t *testing.T) {
	var viaMethod, viaHook atomic.Int32
	h := NewWithDrop(payload{drops: &viaMethod}, func(payload) { viaHook.Add(1) })
	h.Release()

	if viaHook.Load() != 1 || viaMethod.Load() != 0 {
		t.Fatalf("hook=%d method=%d, want 1/0", viaHook.Load(), viaMethod.Load())
	}
}

func TestSame(t *testing.T) {
	a := New(1)
	b := a.Clone()
	c := New(1)
	defer a.Release()
	defer b.Release()
	defer c.Release()

	if !Same(a, b) {
		t.Error("clone should share the cell")
	}
	if Same(a, c) {
		t.Error("separate New calls must not share a cell")
	}
}

func TestFreeClearsValue(t *testing.T) {
	p := &struct{ n int }{n: 1}
	h := New(p)
	c := h.s.c

	h.Release()
	if c.value != nil {
		t.Error("freed cell still references its value")
	}
	if !c.freed.Load() {
		t.Error("cell not marked freed")
	}
}
