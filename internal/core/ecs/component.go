package ecs

import "slices"

// Store is an ID-indexed map that iterates in ascending ID order, so every
// pass over it is deterministic.
type Store[T any] struct {
	data  map[EntityID]T
	order []EntityID
	dirty bool
}

func NewStore[T any]() *Store[T] {
	return &Store[T]{
		data: make(map[EntityID]T, 64),
	}
}

func (s *Store[T]) Set(id EntityID, c T) {
	if _, ok := s.data[id]; !ok {
		s.order = append(s.order, id)
		s.dirty = true
	}
	s.data[id] = c
}

func (s *Store[T]) Get(id EntityID) (T, bool) {
	c, ok := s.data[id]
	return c, ok
}

func (s *Store[T]) Remove(id EntityID) {
	if _, ok := s.data[id]; !ok {
		return
	}
	delete(s.data, id)
	if i := slices.Index(s.order, id); i >= 0 {
		s.order = slices.Delete(s.order, i, i+1)
	}
}

func (s *Store[T]) Has(id EntityID) bool {
	_, ok := s.data[id]
	return ok
}

func (s *Store[T]) Len() int {
	return len(s.data)
}

// IDs returns a snapshot of the stored IDs in ascending order.
func (s *Store[T]) IDs() []EntityID {
	s.sort()
	return slices.Clone(s.order)
}

// Each visits entries in ascending ID order. fn may add or remove entries;
// the visit covers the IDs present when Each was called.
func (s *Store[T]) Each(fn func(EntityID, T)) {
	for _, id := range s.IDs() {
		if c, ok := s.data[id]; ok {
			fn(id, c)
		}
	}
}

func (s *Store[T]) sort() {
	if s.dirty {
		slices.Sort(s.order)
		s.dirty = false
	}
}
