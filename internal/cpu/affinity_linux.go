//go:build linux

package cpu

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// pinToCore pins the calling OS thread to core slot % NumCPU.
// Must be called after runtime.LockOSThread().
func pinToCore(slot int) error {
	var mask unix.CPUSet
	mask.Zero()
	mask.Set(slot % runtime.NumCPU())

	return unix.SchedSetaffinity(0, &mask) // 0 = current thread
}

// Pin locks the calling goroutine to its OS thread and binds that thread to
// one CPU core chosen by slot. The returned func undoes the thread lock; the
// thread's affinity dies with it once the goroutine exits.
func Pin(slot int) (release func(), err error) {
	runtime.LockOSThread()
	if err := pinToCore(slot); err != nil {
		runtime.UnlockOSThread()
		return func() {}, err
	}

	return runtime.UnlockOSThread, nil
}
