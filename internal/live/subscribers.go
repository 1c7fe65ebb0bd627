package live

import "sync"

// Subscribers is a subscription list for host implementations; Dispose on
// the returned handle removes one entry. The zero value is ready to use.
type Subscribers[T any] struct {
	mu   sync.Mutex
	next int
	fns  map[int]T
}

// Add registers fn.
func (h *Subscribers[T]) Add(fn T) Disposable {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.fns == nil {
		h.fns = make(map[int]T)
	}
	id := h.next
	h.next++
	h.fns[id] = fn
	return DisposeFunc(func() {
		h.mu.Lock()
		delete(h.fns, id)
		h.mu.Unlock()
	})
}

// List returns subscribers in subscription order.
func (h *Subscribers[T]) List() []T {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]T, 0, len(h.fns))
	for id := 0; id < h.next; id++ {
		if fn, ok := h.fns[id]; ok {
			out = append(out, fn)
		}
	}
	return out
}

// Len returns the number of live subscriptions.
func (h *Subscribers[T]) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.fns)
}
