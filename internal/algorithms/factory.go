package algorithms

import "time"

// BackoffType selects the delay growth algorithm.
type BackoffType int

const (
	// BackoffExponential doubles the delay each attempt (default).
	BackoffExponential BackoffType = iota
	// BackoffJittered randomizes each exponential delay by ±jitterFactor.
	BackoffJittered
)

// NewBackoffStrategy creates a backoff strategy of the given type.
// A non-positive maxDelay means the delay is never capped below the
// exponential curve's overflow guard.
func NewBackoffStrategy(
	backoffType BackoffType,
	initialDelay, maxDelay time.Duration,
	jitterFactor float64,
) BackoffStrategy {
	if maxDelay <= 0 {
		maxDelay = time.Duration(1<<63 - 1)
	}

	switch backoffType {
	case BackoffJittered:
		return newJitteredBackoff(initialDelay, maxDelay, jitterFactor)
	default:
		return newExponentialBackoff(initialDelay, maxDelay)
	}
}
