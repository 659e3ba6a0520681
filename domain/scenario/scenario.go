// Package scenario defines the verification scenarios run against shared
// handles and the reports they produce. It is pure data; running a scenario
// is the service's job.
package scenario

import (
	"strings"
	"time"

	"github.com/pkg/errors"
)

// ErrReportNotFound is returned by report stores for unknown IDs.
var ErrReportNotFound = errors.New("report not found")

type Kind int

const (
	// Sequential is create, clone, release, read through the clone, release.
	Sequential Kind = iota
	// Handoff releases two handles from two goroutines at once.
	Handoff
	// FanOut clones from many goroutines, then releases from all of them.
	FanOut
)

func (k Kind) String() string {
	switch k {
	case Sequential:
		return "sequential"
	case Handoff:
		return "handoff"
	case FanOut:
		return "fanout"
	default:
		return "unknown"
	}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sequential":
		return Sequential, nil
	case "handoff":
		return Handoff, nil
	case "fanout", "fan-out":
		return FanOut, nil
	default:
		return 0, errors.Errorf("unknown scenario kind %q", s)
	}
}

// MaxValue bounds |Scenario.Value|. Values are encoded as JSON numbers,
// which are exact only up to 2^53.
const MaxValue = 1 << 53

// Scenario is one requested run.
// Workers and Clones only matter for FanOut.
type Scenario struct {
	Kind    Kind
	Workers int
	Clones  int
	Value   int64
}

// Handles is the number of handles the scenario creates in total.
func (s Scenario) Handles() uint64 {
	switch s.Kind {
	case Sequential, Handoff:
		return 2
	case FanOut:
		return 1 + uint64(s.Workers)*uint64(s.Clones)
	default:
		return 0
	}
}

// Report is the outcome of one run.
type Report struct {
	ID       string
	Scenario Scenario

	Handles uint64
	// Frees counts drop hook executions; exactly 1 on a passing run.
	Frees uint32
	// Freers counts releases that reported freeing; exactly 1 on a passing run.
	Freers  uint32
	FreedBy string

	Violations []string

	Started  time.Time
	Duration time.Duration
}

func (r *Report) Passed() bool {
	return len(r.Violations) == 0 && r.Frees == 1 && r.Freers == 1
}
