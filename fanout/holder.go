package fanout

import (
	"context"
	"sync"
)

// slot is a write-once cell guarded by its holder's lock.
type slot[V any] struct {
	value V
	set   bool
}

func (s *slot[V]) fill(v V) bool {
	if s.set {
		return false
	}
	s.value, s.set = v, true
	return true
}

func (s *slot[V]) get() (V, bool) {
	return s.value, s.set
}

func (s *slot[V]) clear() {
	var zero V
	s.value, s.set = zero, false
}

// Holder is the fixed-shape result of ProcAsync and ProcAll: three
// independently typed slots, each filled at most once by the task assigned
// to it. A slot whose task failed, was never supplied, or finished after the
// batch timed out stays empty.
//
// Slots may be read at any time; reads after Done is closed observe the
// final state.
type Holder[F, S, T any] struct {
	mu     sync.Mutex
	first  slot[F]
	second slot[S]
	third  slot[T]
	sealed bool

	done chan struct{}
}

func newHolder[F, S, T any]() *Holder[F, S, T] {
	return &Holder[F, S, T]{done: make(chan struct{})}
}

// First returns the first slot and whether it was filled.
func (h *Holder[F, S, T]) First() (F, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.first.get()
}

// Second returns the second slot and whether it was filled.
func (h *Holder[F, S, T]) Second() (S, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.second.get()
}

// Third returns the third slot and whether it was filled.
func (h *Holder[F, S, T]) Third() (T, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.third.get()
}

// Done returns a channel closed once every submitted task is terminal or
// the batch timed out.
func (h *Holder[F, S, T]) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until Done is closed or ctx ends.
func (h *Holder[F, S, T]) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Holder[F, S, T]) setFirst(v F) bool {
	return withLock(&h.mu, &h.sealed, func() bool { return h.first.fill(v) })
}

func (h *Holder[F, S, T]) setSecond(v S) bool {
	return withLock(&h.mu, &h.sealed, func() bool { return h.second.fill(v) })
}

func (h *Holder[F, S, T]) setThird(v T) bool {
	return withLock(&h.mu, &h.sealed, func() bool { return h.third.fill(v) })
}

// finish seals the holder, optionally emptying every slot, and releases
// waiters. Writes after finish are discarded.
func (h *Holder[F, S, T]) finish(clearAll bool) {
	h.mu.Lock()
	if clearAll {
		h.first.clear()
		h.second.clear()
		h.third.clear()
	}
	h.sealed = true
	h.mu.Unlock()
	close(h.done)
}

func withLock(mu *sync.Mutex, sealed *bool, fn func() bool) bool {
	mu.Lock()
	defer mu.Unlock()
	if *sealed {
		return false
	}
	return fn()
}
