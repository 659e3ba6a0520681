package arc

import "sync/atomic"

// Observer receives lifecycle events from every cell in the process.
// Methods are called inline on the goroutine that caused the event and must
// not block.
type Observer interface {
	Allocated()
	Freed()
	Leaked()
	Fatal(msg string)
}

type observerSlot struct {
	o Observer
}

var observer atomic.Pointer[observerSlot]

// SetObserver installs o process-wide. nil removes the current observer.
func SetObserver(o Observer) {
	if o == nil {
		observer.Store(nil)
		return
	}
	observer.Store(&observerSlot{o: o})
}

func currentObserver() Observer {
	if s := observer.Load(); s != nil {
		return s.o
	}
	return nopObserver{}
}

type nopObserver struct{}

func (nopObserver) Allocated()   {}
func (nopObserver) Freed()       {}
func (nopObserver) Leaked()      {}
func (nopObserver) Fatal(string) {}
