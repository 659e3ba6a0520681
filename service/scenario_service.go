package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"arcshare/arc"
	"arcshare/domain/scenario"
	"arcshare/infra/memory"
)

var ErrInvalidScenario = errors.New("invalid scenario")

// ReportStore persists reports. Get must return an error matching
// scenario.ErrReportNotFound for unknown IDs.
type ReportStore interface {
	Put(*scenario.Report) error
	Get(id string) (*scenario.Report, error)
	List(limit int) ([]*scenario.Report, error)
}

// Limits bound what a single request may ask for.
type Limits struct {
	MaxWorkers int
	MaxClones  int
}

/*
ScenarioService is the ONLY place handles are created on behalf of callers.

Every run:
- takes a probe from the pool and moves it into a fresh cell
- clones and releases according to the scenario
- builds the report from the probe's tally, never from the probe itself
*/
type ScenarioService struct {
	store  ReportStore
	probes *memory.Pool[Probe]
	limits Limits
	log    logr.Logger
	newID  func() string
}

func NewScenarioService(store ReportStore, limits Limits, log logr.Logger) *ScenarioService {
	return &ScenarioService{
		store:  store,
		probes: newProbePool(),
		limits: limits,
		log:    log.WithName("scenario"),
		newID:  func() string { return uuid.Must(uuid.NewV7()).String() },
	}
}

//
// ──────────────────────────────────────────────────────────
// Commands
// ──────────────────────────────────────────────────────────
//

// Run executes sc and stores its report. Handles are always released, also
// when ctx is cancelled mid-run; in that case no report is stored.
func (s *ScenarioService) Run(ctx context.Context, sc scenario.Scenario) (*scenario.Report, error) {
	if err := s.validate(sc); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "run scenario")
	}

	r := &run{
		svc:   s,
		sc:    sc,
		tally: &tally{},
	}
	p := s.probes.Get()
	*p = Probe{Value: sc.Value, tally: r.tally}
	r.tally.holders.Store(1)
	root := arc.NewWithDrop(p, s.drop)

	rep := &scenario.Report{
		ID:       s.newID(),
		Scenario: sc,
		Handles:  sc.Handles(),
		Started:  time.Now().UTC(),
	}

	var err error
	switch sc.Kind {
	case scenario.Sequential:
		r.sequential(root)
	case scenario.Handoff:
		r.handoff(root)
	case scenario.FanOut:
		err = r.fanOut(ctx, root)
	}
	rep.Duration = time.Since(rep.Started)
	if err != nil {
		return nil, errors.Wrapf(err, "run %s scenario", sc.Kind)
	}

	r.finish(rep)
	if err := s.store.Put(rep); err != nil {
		return nil, errors.Wrapf(err, "store report %s", rep.ID)
	}

	s.log.V(1).Info("scenario finished",
		"id", rep.ID,
		"kind", sc.Kind.String(),
		"handles", rep.Handles,
		"freedBy", rep.FreedBy,
		"passed", rep.Passed(),
		"duration", rep.Duration,
	)
	if !rep.Passed() {
		s.log.Info("scenario violated ownership invariants", "id", rep.ID, "violations", rep.Violations)
	}
	return rep, nil
}

//
// ──────────────────────────────────────────────────────────
// Queries
// ──────────────────────────────────────────────────────────
//

func (s *ScenarioService) Report(id string) (*scenario.Report, error) {
	rep, err := s.store.Get(id)
	if err != nil {
		return nil, errors.Wrap(err, "load report")
	}
	return rep, nil
}

func (s *ScenarioService) Reports(limit int) ([]*scenario.Report, error) {
	reps, err := s.store.List(limit)
	if err != nil {
		return nil, errors.Wrap(err, "list reports")
	}
	return reps, nil
}

func (s *ScenarioService) validate(sc scenario.Scenario) error {
	if sc.Value > scenario.MaxValue || sc.Value < -scenario.MaxValue {
		return errors.Wrapf(ErrInvalidScenario, "value must be in [-%d, %d], got %d", int64(scenario.MaxValue), int64(scenario.MaxValue), sc.Value)
	}
	switch sc.Kind {
	case scenario.Sequential, scenario.Handoff:
		return nil
	case scenario.FanOut:
		if sc.Workers <= 0 || sc.Workers > s.limits.MaxWorkers {
			return errors.Wrapf(ErrInvalidScenario, "workers must be in [1, %d], got %d", s.limits.MaxWorkers, sc.Workers)
		}
		if sc.Clones < 0 || sc.Clones > s.limits.MaxClones {
			return errors.Wrapf(ErrInvalidScenario, "clones must be in [0, %d], got %d", s.limits.MaxClones, sc.Clones)
		}
		return nil
	default:
		return errors.Wrapf(ErrInvalidScenario, "unknown kind %d", sc.Kind)
	}
}

// ---------------- run ----------------

// run is the state of one scenario execution.
type run struct {
	svc   *ScenarioService
	sc    scenario.Scenario
	tally *tally

	mu         sync.Mutex
	violations []string
}

func (r *run) violatef(format string, args ...any) {
	r.mu.Lock()
	r.violations = append(r.violations, fmt.Sprintf(format, args...))
	r.mu.Unlock()
}

func (r *run) clone(h *arc.Handle[*Probe]) *arc.Handle[*Probe] {
	c := h.Clone()
	r.tally.holders.Add(1)
	return c
}

// read checks the value seen through h.
func (r *run) read(h *arc.Handle[*Probe], who string) {
	p := h.Get()
	if p.tally != r.tally || p.Value != r.sc.Value {
		r.violatef("%s read value %d, want %d", who, p.Value, r.sc.Value)
	}
}

func (r *run) release(h *arc.Handle[*Probe], who string) {
	r.tally.holders.Add(-1)
	if h.Release() {
		r.tally.freers.Add(1)
		r.tally.freedBy.Store(&who)
	}
}

func (r *run) assertNotFreed(when string) {
	if n := r.tally.frees.Load(); n != 0 {
		r.violatef("value freed %d time(s) %s", n, when)
	}
}

func (r *run) sequential(h1 *arc.Handle[*Probe]) {
	h2 := r.clone(h1)
	if h2.Count() < 2 {
		r.violatef("count %d after clone, want at least 2", h2.Count())
	}
	r.release(h1, "h1")
	r.assertNotFreed("while h2 was live")
	r.read(h2, "h2")
	r.release(h2, "h2")
}

func (r *run) handoff(a *arc.Handle[*Probe]) {
	b := r.clone(a)

	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
	)
	owner := func(h *arc.Handle[*Probe], who string) {
		defer wg.Done()
		<-start
		r.read(h, who)
		r.release(h, who)
	}
	wg.Add(2)
	go owner(a, "goroutine-a")
	go owner(b, "goroutine-b")
	close(start)
	wg.Wait()
}

func (r *run) fanOut(ctx context.Context, root *arc.Handle[*Probe]) error {
	var (
		cloned   sync.WaitGroup
		released sync.WaitGroup
		release  = make(chan struct{})
	)
	cloned.Add(r.sc.Workers)
	released.Add(r.sc.Workers)

	for w := 0; w < r.sc.Workers; w++ {
		who := fmt.Sprintf("worker-%d", w)
		go func() {
			defer released.Done()
			own := make([]*arc.Handle[*Probe], 0, r.sc.Clones)
			for i := 0; i < r.sc.Clones; i++ {
				own = append(own, r.clone(root))
			}
			cloned.Done()

			<-release
			for _, h := range own {
				r.read(h, who)
				r.release(h, who)
			}
		}()
	}

	cloned.Wait()
	if got, want := root.Count(), r.sc.Handles(); got != want {
		r.violatef("count %d after fan-out, want %d", got, want)
	}
	err := ctx.Err()

	close(release)
	r.read(root, "root")
	r.release(root, "root")
	released.Wait()
	return err
}

func (r *run) finish(rep *scenario.Report) {
	t := r.tally
	rep.Frees = t.frees.Load()
	rep.Freers = t.freers.Load()
	if who := t.freedBy.Load(); who != nil {
		rep.FreedBy = *who
	}
	if n := t.early.Load(); n != 0 {
		r.violatef("value freed while %d handle(s) were live", n)
	}
	if rep.Frees != 1 {
		r.violatef("value freed %d times, want exactly once", rep.Frees)
	}
	if rep.Freers != 1 {
		r.violatef("%d releases reported the free, want exactly one", rep.Freers)
	}
	rep.Violations = r.violations
}
