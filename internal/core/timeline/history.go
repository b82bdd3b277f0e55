package timeline

import (
	"cmp"
	"fmt"
	"slices"
)

// Field is the type-erased view of a Timeline held by a History.
type Field interface {
	Len() int
	Steps() []int
	ClearAfter(t int)
	Format(t int) string
	copyField() Field
}

func (tl *Timeline[T]) Format(t int) string { return fmt.Sprint(tl.Get(t)) }

func (tl *Timeline[T]) copyField() Field { return tl.Copy() }

// History is the per-entity record: one timeline per named field plus the
// step at which the entity's history begins.
type History struct {
	Start  int
	fields map[string]Field
}

func NewHistory(start int) *History {
	return &History{Start: start, fields: make(map[string]Field, 8)}
}

// Field returns the named timeline, or nil if it was never written.
func (h *History) Field(name string) Field {
	if h == nil {
		return nil
	}
	return h.fields[name]
}

// Names returns the field names in sorted order.
func (h *History) Names() []string {
	if h == nil {
		return nil
	}
	names := make([]string, 0, len(h.fields))
	for n := range h.fields {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Deltas returns the total number of stored deltas across all fields.
func (h *History) Deltas() int {
	if h == nil {
		return 0
	}
	n := 0
	for _, f := range h.fields {
		n += f.Len()
	}
	return n
}

func (h *History) Copy() *History {
	if h == nil {
		return nil
	}
	cp := &History{Start: h.Start, fields: make(map[string]Field, len(h.fields))}
	for n, f := range h.fields {
		cp.fields[n] = f.copyField()
	}
	return cp
}

// Get reads field at step. A missing history, a missing field, or a field
// stored with a different type all yield def.
func Get[T comparable](h *History, field string, step int, def T) T {
	if h == nil {
		return def
	}
	tl, ok := h.fields[field].(*Timeline[T])
	if !ok {
		return def
	}
	return tl.Get(step)
}

// Set writes field at step, creating the timeline with default def on first use.
func Set[T comparable](h *History, field string, step int, v, def T, force, clearFuture bool) bool {
	tl, ok := h.fields[field].(*Timeline[T])
	if !ok {
		tl = New(def)
		h.fields[field] = tl
	}
	return tl.Set(step, v, force, clearFuture)
}

// Pin stores the value field already has at step as an explicit delta, so a
// later write to an earlier step does not carry over into it.
func Pin[T comparable](h *History, field string, step int, def T) {
	tl, ok := h.fields[field].(*Timeline[T])
	if !ok {
		tl = New(def)
		h.fields[field] = tl
	}
	if !tl.Has(step) {
		tl.Set(step, tl.Get(step), true, false)
	}
}

// Store maps entity IDs to their histories.
type Store[K cmp.Ordered] struct {
	histories map[K]*History
}

func NewStore[K cmp.Ordered]() *Store[K] {
	return &Store[K]{histories: make(map[K]*History, 64)}
}

func (s *Store[K]) Get(id K) (*History, bool) {
	h, ok := s.histories[id]
	return h, ok
}

// Ensure returns the history for id, creating it with the given start step.
func (s *Store[K]) Ensure(id K, start int) *History {
	h, ok := s.histories[id]
	if !ok {
		h = NewHistory(start)
		s.histories[id] = h
	}
	return h
}

func (s *Store[K]) Len() int { return len(s.histories) }

// IDs returns every recorded ID in ascending order.
func (s *Store[K]) IDs() []K {
	ids := make([]K, 0, len(s.histories))
	for id := range s.histories {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Deltas returns the number of stored deltas across every history.
func (s *Store[K]) Deltas() int {
	n := 0
	for _, h := range s.histories {
		n += h.Deltas()
	}
	return n
}

func (s *Store[K]) Copy() *Store[K] {
	cp := &Store[K]{histories: make(map[K]*History, len(s.histories))}
	for id, h := range s.histories {
		cp.histories[id] = h.Copy()
	}
	return cp
}
