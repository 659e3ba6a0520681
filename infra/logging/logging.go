// Package logging builds the process logger: a logr.Logger backed by the
// standard library log package through stdr.
package logging

import (
	"io"
	"log"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
)

// Options configure New.
type Options struct {
	// Verbosity enables V(n) logs up to and including n.
	Verbosity int
	// Output defaults to os.Stderr.
	Output io.Writer
}

// New returns the root logger. Component loggers are derived with
// WithName, which stdr renders as the familiar "[component]" prefix.
func New(opts Options) logr.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	stdr.SetVerbosity(opts.Verbosity)
	std := log.New(out, "", log.LstdFlags|log.Lmicroseconds)
	return stdr.NewWithOptions(std, stdr.Options{LogCaller: stdr.Error})
}
