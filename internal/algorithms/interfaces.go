package algorithms

import "time"

// BackoffStrategy computes the wait between successive attempts of a
// retried operation: a task re-run after failure, or an admission retried
// against a full queue.
type BackoffStrategy interface {
	// NextDelay returns the delay before the next attempt.
	// attemptNumber is 0-indexed (0 = first retry after the initial try).
	NextDelay(attemptNumber int) time.Duration
}
