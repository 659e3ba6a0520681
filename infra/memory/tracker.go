package memory

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "arcshare"

// Stats is a point-in-time copy of a Tracker's counters.
type Stats struct {
	Allocated uint64
	Freed     uint64
	Leaked    uint64
	Fatal     uint64
	Live      int64
}

// Tracker counts cell lifecycle events. It satisfies arc.Observer.
type Tracker struct {
	allocated atomic.Uint64
	freed     atomic.Uint64
	leaked    atomic.Uint64
	fatal     atomic.Uint64

	allocatedTotal prometheus.Counter
	freedTotal     prometheus.Counter
	leakedTotal    prometheus.Counter
	fatalTotal     prometheus.Counter
	live           prometheus.GaugeFunc
}

func NewTracker() *Tracker {
	t := &Tracker{
		allocatedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cells_allocated_total",
			Help:      "Shared cells allocated by arc.New.",
		}),
		freedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cells_freed_total",
			Help:      "Shared cells freed by their last release.",
		}),
		leakedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handles_leaked_total",
			Help:      "Handles released by the runtime cleanup instead of Release.",
		}),
		fatalTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fatal_total",
			Help:      "Ownership violations that reached the fatal handler.",
		}),
	}
	t.live = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "cells_live",
		Help:      "Shared cells allocated and not yet freed.",
	}, func() float64 { return float64(t.Stats().Live) })
	return t
}

func (t *Tracker) Allocated() {
	t.allocated.Add(1)
	t.allocatedTotal.Inc()
}

func (t *Tracker) Freed() {
	t.freed.Add(1)
	t.freedTotal.Inc()
}

func (t *Tracker) Leaked() {
	t.leaked.Add(1)
	t.leakedTotal.Inc()
}

func (t *Tracker) Fatal(string) {
	t.fatal.Add(1)
	t.fatalTotal.Inc()
}

// Stats loads freed before allocated so Live never goes negative.
func (t *Tracker) Stats() Stats {
	freed := t.freed.Load()
	allocated := t.allocated.Load()
	return Stats{
		Allocated: allocated,
		Freed:     freed,
		Leaked:    t.leaked.Load(),
		Fatal:     t.fatal.Load(),
		Live:      int64(allocated) - int64(freed),
	}
}

// Register adds the tracker's collectors to reg.
func (t *Tracker) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		t.allocatedTotal,
		t.freedTotal,
		t.leakedTotal,
		t.fatalTotal,
		t.live,
	} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
