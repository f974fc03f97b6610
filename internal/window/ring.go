// Package window provides the bounded sliding-window buffer used by the
// pattern-based detection signals.
package window

// Ring is a fixed-capacity FIFO buffer. Pushing past capacity evicts the
// oldest entry in O(1). The zero value is not usable; use NewRing.
type Ring[T any] struct {
	buf   []T
	head  int // index of oldest entry
	count int
}

// NewRing creates a ring buffer holding at most capacity entries.
func NewRing[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring[T]{buf: make([]T, capacity)}
}

// Push appends an entry, evicting the oldest when full.
func (r *Ring[T]) Push(v T) {
	if r.count < len(r.buf) {
		r.buf[(r.head+r.count)%len(r.buf)] = v
		r.count++
		return
	}
	r.buf[r.head] = v
	r.head = (r.head + 1) % len(r.buf)
}

// Len returns the number of entries currently held.
func (r *Ring[T]) Len() int {
	return r.count
}

// Cap returns the fixed capacity.
func (r *Ring[T]) Cap() int {
	return len(r.buf)
}

// Items returns the entries oldest-first as a fresh slice.
func (r *Ring[T]) Items() []T {
	out := make([]T, r.count)
	for i := 0; i < r.count; i++ {
		out[i] = r.buf[(r.head+i)%len(r.buf)]
	}
	return out
}

// Each visits entries oldest-first without allocating.
func (r *Ring[T]) Each(fn func(T)) {
	for i := 0; i < r.count; i++ {
		fn(r.buf[(r.head+i)%len(r.buf)])
	}
}

// Reset drops all entries.
func (r *Ring[T]) Reset() {
	r.head = 0
	r.count = 0
}
