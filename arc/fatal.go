package arc

import (
	"fmt"
	"os"
	"sync/atomic"

	"github.com/go-logr/logr"
)

// FatalHandler terminates the process after an unrecoverable ownership
// violation. It must not return; if it does, fatal panics instead.
type FatalHandler func(msg string)

// abortExitCode mirrors a SIGABRT exit.
const abortExitCode = 134

var (
	fatalHandler atomic.Pointer[FatalHandler]
	pkgLogger    atomic.Pointer[logr.Logger]
)

// SetFatalHandler replaces the fatal handler and returns a func restoring the
// previous one. A nil handler restores the default, which exits the process.
func SetFatalHandler(fn FatalHandler) (restore func()) {
	var prev *FatalHandler
	if fn == nil {
		prev = fatalHandler.Swap(nil)
	} else {
		prev = fatalHandler.Swap(&fn)
	}
	return func() { fatalHandler.Store(prev) }
}

// SetLogger sets the logger used on the fatal path.
func SetLogger(l logr.Logger) {
	pkgLogger.Store(&l)
}

func logger() logr.Logger {
	if l := pkgLogger.Load(); l != nil {
		return *l
	}
	return logr.Discard()
}

func fatal(msg string) {
	currentObserver().Fatal(msg)
	logger().Error(nil, "unrecoverable ownership violation", "reason", msg)

	if h := fatalHandler.Load(); h != nil {
		(*h)(msg)
	} else {
		abort(msg)
	}
	panic("arc: fatal handler returned: " + msg)
}

func abort(msg string) {
	fmt.Fprintln(os.Stderr, "fatal error:", msg)
	os.Exit(abortExitCode)
}
