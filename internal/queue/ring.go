// Package queue implements the bounded pending-work queue used by the
// executor: a lock-free multi-producer multi-consumer ring buffer.
package queue

import (
	"context"
	"errors"
	"runtime"
	"sync/atomic"
)

var (
	ErrFull   = errors.New("queue is full")
	ErrClosed = errors.New("queue is closed")
)

const (
	// Cache line size for padding to prevent false sharing
	cacheLinePadding = 128
	// Spins before a consumer parks on the notification channel
	maxSpinAttempts = 10
)

type slot[T any] struct {
	sequence uint64
	value    T
	_        [cacheLinePadding - 16]byte
}

// Ring is a bounded lock-free MPMC queue. Producers never block: a full ring
// fails fast with ErrFull so the caller can apply its own saturation policy.
type Ring[T any] struct {
	ring []slot[T]
	mask uint64

	_    [cacheLinePadding]byte
	head uint64
	_    [cacheLinePadding - 8]byte
	tail uint64
	_    [cacheLinePadding - 8]byte

	closed atomic.Bool

	// buffered, never closed
	notifyC chan struct{}
	// closed on Close
	closeC chan struct{}

	capacity int
}

// New creates a ring holding at least capacity items. The capacity is rounded
// up to the next power of two and fixed for the lifetime of the ring.
func New[T any](capacity int) *Ring[T] {
	capacity = nextPowerOfTwo(capacity)
	// a single slot cannot tell a full lap from an empty one
	size := max(capacity, 2)
	r := make([]slot[T], size)
	for i := range r {
		r[i].sequence = uint64(i) // #nosec G115 -- i is loop index within valid ring bounds
	}

	return &Ring[T]{
		ring:     r,
		mask:     uint64(size - 1), // #nosec G115 -- size is positive
		capacity: capacity,
		notifyC:  make(chan struct{}, 1),
		closeC:   make(chan struct{}),
	}
}

// TryEnqueue adds value to the tail of the ring without blocking.
func (q *Ring[T]) TryEnqueue(value T) error {
	spinCount := 0
	for {
		if q.closed.Load() {
			return ErrClosed
		}

		tail := atomic.LoadUint64(&q.tail)
		s := &q.ring[tail&q.mask]
		diff := int64(atomic.LoadUint64(&s.sequence)) - int64(tail) // #nosec G115 -- sequence comparison

		switch {
		case int64(tail-atomic.LoadUint64(&q.head)) >= int64(q.capacity): // #nosec G115 -- head may pass a stale tail
			return ErrFull
		case diff == 0:
			if atomic.CompareAndSwapUint64(&q.tail, tail, tail+1) {
				s.value = value
				atomic.StoreUint64(&s.sequence, tail+1)
				q.notify()
				return nil
			}
		case diff < 0:
			return ErrFull
		}

		spinCount++
		if spinCount > maxSpinAttempts {
			runtime.Gosched()
			spinCount = 0
		}
	}
}

// Dequeue removes the head item, blocking until one is available, ctx is done,
// or the ring is closed and drained (ErrClosed).
func (q *Ring[T]) Dequeue(ctx context.Context) (T, error) {
	var zero T
	spinCount := 0

	for {
		if v, ok := q.TryDequeue(); ok {
			// wake the next parked consumer if work remains
			if q.Len() > 0 {
				q.notify()
			}
			return v, nil
		}

		if q.drained() {
			return zero, ErrClosed
		}

		spinCount++
		if spinCount < maxSpinAttempts {
			runtime.Gosched()
			continue
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-q.closeC:
			if q.Len() == 0 {
				return zero, ErrClosed
			}
		case <-q.notifyC:
		}
		spinCount = 0
	}
}

// TryDequeue removes the head item without blocking. Items enqueued before
// Close remain dequeueable after it.
func (q *Ring[T]) TryDequeue() (T, bool) {
	var zero T
	for {
		head := atomic.LoadUint64(&q.head)
		s := &q.ring[head&q.mask]
		diff := int64(atomic.LoadUint64(&s.sequence)) - int64(head+1) // #nosec G115 -- sequence comparison

		if diff < 0 {
			return zero, false
		}
		if diff > 0 {
			// another consumer moved head; reload
			continue
		}
		if atomic.CompareAndSwapUint64(&q.head, head, head+1) {
			value := s.value
			s.value = zero
			// release the slot to producers for the next lap
			atomic.StoreUint64(&s.sequence, head+q.mask+1)
			return value, true
		}
	}
}

// Len returns the approximate number of queued items.
func (q *Ring[T]) Len() int {
	head := atomic.LoadUint64(&q.head)
	tail := atomic.LoadUint64(&q.tail)
	if tail > head {
		return int(tail - head) // #nosec G115 -- tail > head
	}
	return 0
}

// Cap returns the fixed capacity of the ring.
func (q *Ring[T]) Cap() int {
	return q.capacity
}

// Close rejects further enqueues and wakes parked consumers. It is idempotent.
func (q *Ring[T]) Close() {
	if q.closed.CompareAndSwap(false, true) {
		close(q.closeC)
	}
}

func (q *Ring[T]) drained() bool {
	return q.closed.Load() && q.Len() == 0
}

func (q *Ring[T]) notify() {
	select {
	case q.notifyC <- struct{}{}:
	default:
	}
}

// nextPowerOfTwo returns the next power of 2 >= n
func nextPowerOfTwo(n int) int {
	if n <= 0 {
		return 1
	}

	if n&(n-1) == 0 {
		return n
	}

	power := 1
	for power < n {
		power *= 2
	}
	return power
}
