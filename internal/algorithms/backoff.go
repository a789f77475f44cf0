package algorithms

import (
	"cmp"
	"math/rand"
	"sync"
	"time"
)

// Prevent overflow in the shift below
const maxShift = 62

// exponentialBackoff implements simple exponential backoff.
// Delay formula: initialDelay * 2^attemptNumber, capped at maxDelay.
type exponentialBackoff struct {
	initialDelay time.Duration
	maxDelay     time.Duration
}

func newExponentialBackoff(initialDelay, maxDelay time.Duration) *exponentialBackoff {
	return &exponentialBackoff{
		initialDelay: initialDelay,
		maxDelay:     maxDelay,
	}
}

func (eb *exponentialBackoff) NextDelay(attemptNumber int) time.Duration {
	return calcExponentialDelay(attemptNumber, eb.initialDelay, eb.maxDelay)
}

// jitteredBackoff spreads exponential delays by ±jitterFactor so that many
// producers blocked on the same full queue do not retry in lockstep.
//
// Example with jitterFactor=0.1:
// Base delay of 1s becomes random value between 900ms and 1100ms
type jitteredBackoff struct {
	initialDelay, maxDelay time.Duration
	jitterFactor           float64
	rng                    *rand.Rand
	mu                     sync.Mutex
}

func newJitteredBackoff(initialDelay, maxDelay time.Duration, jitterFactor float64) *jitteredBackoff {
	return &jitteredBackoff{
		initialDelay: initialDelay,
		maxDelay:     maxDelay,
		jitterFactor: clamp(jitterFactor, 0, 1),
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())), // #nosec G404 -- crypto rand not needed for backoff jitter
	}
}

func (jb *jitteredBackoff) NextDelay(attemptNumber int) time.Duration {
	if attemptNumber < 0 {
		return 0
	}

	baseDelay := calcExponentialDelay(attemptNumber, jb.initialDelay, jb.maxDelay)

	jb.mu.Lock()
	jitterMultiplier := 1.0 + (jb.rng.Float64()*2-1)*jb.jitterFactor
	jb.mu.Unlock()

	actualDelay := time.Duration(float64(baseDelay) * jitterMultiplier)
	return clamp(actualDelay, 0, jb.maxDelay)
}

func calcExponentialDelay(attemptNumber int, initialDelay, maxDelay time.Duration) time.Duration {
	if attemptNumber < 0 {
		return 0
	}

	if attemptNumber >= maxShift {
		return maxDelay
	}

	if initialDelay > maxDelay>>uint(attemptNumber) {
		return maxDelay
	}

	return time.Duration(int64(1)<<uint(attemptNumber)) * initialDelay
}

func clamp[T cmp.Ordered](v, lo, hi T) T {
	return max(lo, min(v, hi))
}
