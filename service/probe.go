package service

import (
	"sync/atomic"

	"arcshare/infra/memory"
)

// Probe is the payload shared during a scenario. It comes from a pool and
// goes back to it from the cell's drop hook, so a probe is returned exactly
// when its last handle is released.
type Probe struct {
	Value int64
	tally *tally
}

// tally outlives the probe and is what the report is built from.
type tally struct {
	// holders counts handles whose owners have not started releasing.
	holders atomic.Int64
	frees   atomic.Uint32
	freers  atomic.Uint32
	freedBy atomic.Pointer[string]
	early   atomic.Uint32
}

func newProbePool() *memory.Pool[Probe] {
	return memory.NewPool(
		func() *Probe { return &Probe{} },
		func(p *Probe) { *p = Probe{} },
	)
}

// drop is the drop hook of every scenario cell.
func (s *ScenarioService) drop(p *Probe) {
	t := p.tally
	t.frees.Add(1)
	if t.holders.Load() != 0 {
		t.early.Add(1)
	}
	s.probes.Put(p)
}
