package algorithms

import (
	"sync"
	"testing"
	"time"
)

func TestExponentialBackoff_NextDelay(t *testing.T) {
	tests := []struct {
		name          string
		initialDelay  time.Duration
		maxDelay      time.Duration
		attemptNumber int
		want          time.Duration
	}{
		{"first retry", 100 * time.Millisecond, 10 * time.Second, 0, 100 * time.Millisecond},
		{"second retry doubles", 100 * time.Millisecond, 10 * time.Second, 1, 200 * time.Millisecond},
		{"fourth retry", 100 * time.Millisecond, 10 * time.Second, 3, 800 * time.Millisecond},
		{"capped at max", 1 * time.Second, 5 * time.Second, 10, 5 * time.Second},
		{"negative attempt", 1 * time.Second, 5 * time.Second, -1, 0},
		{"huge attempt does not overflow", time.Millisecond, time.Hour, 500, time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eb := NewBackoffStrategy(BackoffExponential, tt.initialDelay, tt.maxDelay, 0)
			if got := eb.NextDelay(tt.attemptNumber); got != tt.want {
				t.Errorf("NextDelay(%d) = %v, want %v", tt.attemptNumber, got, tt.want)
			}
		})
	}
}

func TestJitteredBackoff_NextDelay(t *testing.T) {
	jb := NewBackoffStrategy(BackoffJittered, 100*time.Millisecond, 10*time.Second, 0.2)

	for attempt := range 5 {
		base := time.Duration(int64(1)<<uint(attempt)) * 100 * time.Millisecond
		lo := time.Duration(float64(base) * 0.79)
		hi := time.Duration(float64(base) * 1.21)

		for range 50 {
			d := jb.NextDelay(attempt)
			if d < lo || d > hi {
				t.Fatalf("attempt %d: delay %v outside [%v, %v]", attempt, d, lo, hi)
			}
		}
	}
}

func TestJitteredBackoff_ClampsFactor(t *testing.T) {
	jb := newJitteredBackoff(time.Second, time.Minute, 5)
	if jb.jitterFactor != 1 {
		t.Errorf("expected jitter factor clamped to 1, got %v", jb.jitterFactor)
	}

	jb = newJitteredBackoff(time.Second, time.Minute, -1)
	if jb.jitterFactor != 0 {
		t.Errorf("expected jitter factor clamped to 0, got %v", jb.jitterFactor)
	}
}

func TestJitteredBackoff_ConcurrentUse(t *testing.T) {
	jb := NewBackoffStrategy(BackoffJittered, time.Millisecond, time.Second, 0.5)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 100 {
				if d := jb.NextDelay(i % 8); d < 0 || d > time.Second {
					t.Errorf("delay %v out of range", d)
				}
			}
		}()
	}
	wg.Wait()
}

func TestNewBackoffStrategy_NoMaxDelay(t *testing.T) {
	eb := NewBackoffStrategy(BackoffExponential, time.Millisecond, 0, 0)
	if got := eb.NextDelay(10); got != 1024*time.Millisecond {
		t.Errorf("expected uncapped delay 1.024s, got %v", got)
	}
}
