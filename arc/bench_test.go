package arc

import "testing"

func BenchmarkCloneRelease(b *testing.B) {
	h := New(42)
	defer h.Release()

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			c := h.Clone()
			_ = c.Get()
			c.Release()
		}
	})
}

func BenchmarkGet(b *testing.B) {
	h := New(42)
	defer h.Release()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = h.Get()
	}
}
