//go:build !linux

package cpu

import "runtime"

// Pin locks the calling goroutine to its OS thread. Core binding is not
// available on this platform, so only the thread lock is applied.
func Pin(slot int) (release func(), err error) {
	runtime.LockOSThread()
	return runtime.UnlockOSThread, nil
}
