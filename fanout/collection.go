package fanout

import "sync"

// collection accumulates results from concurrent workers. In distinct mode
// values are kept once, in first-arrival order.
type collection[R any] struct {
	mu     sync.Mutex
	items  []R
	seen   map[any]struct{}
	sealed bool
}

func newCollection[R any](distinct bool) *collection[R] {
	c := &collection[R]{items: []R{}}
	if distinct {
		c.seen = make(map[any]struct{})
	}
	return c
}

func (c *collection[R]) add(v R) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sealed {
		return false
	}
	if c.seen != nil {
		if !hashable(v) {
			return false
		}
		if _, dup := c.seen[v]; dup {
			return true
		}
		c.seen[v] = struct{}{}
	}
	c.items = append(c.items, v)
	return true
}

// hashable reports whether v can be used as a map key. An interface R may
// carry a slice, map or func at run time.
func hashable(v any) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	_ = map[any]struct{}{v: {}}
	return true
}

// seal stops further appends and returns what was collected.
func (c *collection[R]) seal() []R {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sealed = true
	out := make([]R, len(c.items))
	copy(out, c.items)
	return out
}
