package cpu

import (
	"runtime"
	"testing"
)

func TestPin(t *testing.T) {
	done := make(chan struct{})

	go func() {
		defer close(done)
		release, err := Pin(runtime.NumCPU() + 1)
		defer release()
		if err != nil {
			// restricted sandboxes may refuse sched_setaffinity
			t.Logf("pin refused: %v", err)
		}
	}()

	<-done
}
