package app

import (
	"github.com/go-logr/logr"
	flag "github.com/spf13/pflag"

	"arcshare/arc"
	"arcshare/config"
	"arcshare/infra/logging"
	"arcshare/infra/memory"
)

// options holds the process-wide settings shared by all commands.
type options struct {
	cfg     config.Config
	log     logr.Logger
	tracker *memory.Tracker
}

func newOptions() *options {
	return &options{cfg: config.Default()}
}

func (o *options) AddFlags(fs *flag.FlagSet) {
	o.cfg.AddFlags(fs)
}

// Complete validates the flags and installs the logger and the cell tracker.
func (o *options) Complete() error {
	if err := o.cfg.Validate(); err != nil {
		return err
	}
	o.log = logging.New(logging.Options{Verbosity: o.cfg.Verbosity})
	o.tracker = memory.NewTracker()

	arc.SetLogger(o.log.WithName("arc"))
	arc.SetObserver(o.tracker)
	return nil
}
