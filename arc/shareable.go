package arc

import (
	"fmt"
	"reflect"
	"sync"
)

var (
	lockerType = reflect.TypeFor[sync.Locker]()

	// verdicts caches checkType results per payload type.
	verdicts sync.Map // reflect.Type -> error
)

// checkShareable rejects payloads that are unsafe to copy between goroutines.
// Get hands out copies of the value, so anything carrying a Locker or noCopy
// marker by value (sync.Mutex, sync.WaitGroup, atomic.Int64, ...) must be
// shared by pointer.
func checkShareable[T any](v T) {
	t := reflect.TypeOf(v)
	if t == nil {
		t = reflect.TypeFor[T]()
	}
	if err := shareable(t); err != nil {
		panic(err)
	}
}

func shareable(t reflect.Type) error {
	if cached, ok := verdicts.Load(t); ok {
		if cached == nil {
			return nil
		}
		return cached.(error)
	}
	err := checkType(t, t.String())
	verdicts.Store(t, err)
	return err
}

func checkType(t reflect.Type, path string) error {
	switch t.Kind() {
	case reflect.Struct:
		if reflect.PointerTo(t).Implements(lockerType) {
			return fmt.Errorf("arc: %s must not be copied; share a pointer instead", path)
		}
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if err := checkType(f.Type, path+"."+f.Name); err != nil {
				return err
			}
		}
	case reflect.Array:
		return checkType(t.Elem(), path+"[]")
	}
	return nil
}
