package timeline

import "sort"

// Timeline is a delta-compressed history of one value indexed by step.
// Only steps whose value differs from the value implied at that step are stored.
type Timeline[T comparable] struct {
	def    T
	steps  []int
	values []T
}

func New[T comparable](def T) *Timeline[T] {
	return &Timeline[T]{def: def}
}

// Default returns the value reported for steps before the first stored delta.
func (tl *Timeline[T]) Default() T { return tl.def }

// Len returns the number of stored deltas.
func (tl *Timeline[T]) Len() int { return len(tl.steps) }

// Get returns the value at step t, or the value of the greatest stored step < t,
// or the default when nothing was stored at or before t.
func (tl *Timeline[T]) Get(t int) T {
	i := tl.search(t)
	if i < len(tl.steps) && tl.steps[i] == t {
		return tl.values[i]
	}
	if i == 0 {
		return tl.def
	}
	return tl.values[i-1]
}

// Has reports whether a delta is stored exactly at step t.
func (tl *Timeline[T]) Has(t int) bool {
	i := tl.search(t)
	return i < len(tl.steps) && tl.steps[i] == t
}

// Set stores v at step t unless it already equals Get(t) and force is false.
// clearFuture drops every delta after t whether or not v was stored.
// Returns true when a delta was written.
func (tl *Timeline[T]) Set(t int, v T, force, clearFuture bool) bool {
	written := false
	if force || tl.Get(t) != v {
		i := tl.search(t)
		if i < len(tl.steps) && tl.steps[i] == t {
			tl.values[i] = v
		} else {
			tl.steps = append(tl.steps, 0)
			tl.values = append(tl.values, v)
			copy(tl.steps[i+1:], tl.steps[i:])
			copy(tl.values[i+1:], tl.values[i:])
			tl.steps[i] = t
			tl.values[i] = v
		}
		written = true
	}
	if clearFuture {
		tl.ClearAfter(t)
	}
	return written
}

// ClearAfter removes every delta stored at a step greater than t.
func (tl *Timeline[T]) ClearAfter(t int) {
	i := tl.search(t + 1)
	tl.steps = tl.steps[:i]
	tl.values = tl.values[:i]
}

// Steps returns the stored delta steps in ascending order.
func (tl *Timeline[T]) Steps() []int {
	out := make([]int, len(tl.steps))
	copy(out, tl.steps)
	return out
}

// Copy returns an independent deep copy.
func (tl *Timeline[T]) Copy() *Timeline[T] {
	cp := &Timeline[T]{
		def:    tl.def,
		steps:  make([]int, len(tl.steps)),
		values: make([]T, len(tl.values)),
	}
	copy(cp.steps, tl.steps)
	copy(cp.values, tl.values)
	return cp
}

// search returns the index of the first stored step >= t.
func (tl *Timeline[T]) search(t int) int {
	return sort.SearchInts(tl.steps, t)
}
