package timeline

// Unset marks an integer dual phase that holds no value.
const Unset = -1

// Dual tracks a field twice: what the live present set (Current) and what was
// already recorded for a re-entered past step (History).
type Dual[T comparable] struct {
	Current T
	History T

	def   T
	merge func(current, history T) T
}

func NewDual[T comparable](def T, merge func(current, history T) T) Dual[T] {
	return Dual[T]{Current: def, History: def, def: def, merge: merge}
}

// NewBool returns a dual that becomes permanently true once either phase is true.
func NewBool() Dual[bool] {
	return NewDual(false, func(c, h bool) bool { return c || h })
}

// NewInt returns a dual that prefers the current phase unless it is Unset.
func NewInt() Dual[int] {
	return NewDual(Unset, func(c, h int) int {
		if c == Unset {
			return h
		}
		return c
	})
}

// Default returns the value both phases reset to.
func (d *Dual[T]) Default() T { return d.def }

// Value returns the merged view of both phases.
func (d *Dual[T]) Value() T { return d.merge(d.Current, d.History) }

// Merge folds History into Current and resets History. Called on return to
// the present frontier.
func (d *Dual[T]) Merge() {
	d.Current = d.Value()
	d.History = d.def
}

func (d *Dual[T]) ClearCurrent() { d.Current = d.def }

func (d *Dual[T]) Clear() {
	d.Current = d.def
	d.History = d.def
}

// IsSet reports whether v differs from the default.
func (d *Dual[T]) IsSet(v T) bool { return v != d.def }
