package ecs

import "fmt"

// Poolable is implemented by every instance a Pool recycles.
type Poolable interface {
	ID() EntityID
}

// Pool recycles instances of one kind. Acquire pops a released instance from
// the free list (or builds a new one) and initialises it for the given ID;
// every acquisition must be paired with exactly one Release of that ID.
type Pool[T Poolable] struct {
	newFn    func() T
	initFn   func(T, EntityID)
	resetFn  func(T)
	freeList []T
	leased   map[EntityID]T
	created  int
}

// NewPool builds a pool. init binds an instance to its ID; reset, if non-nil,
// clears an instance when it is released.
func NewPool[T Poolable](newFn func() T, init func(T, EntityID), reset func(T)) *Pool[T] {
	return &Pool[T]{
		newFn:    newFn,
		initFn:   init,
		resetFn:  reset,
		freeList: make([]T, 0, 16),
		leased:   make(map[EntityID]T, 16),
	}
}

// Acquire returns an instance bound to id.
func (p *Pool[T]) Acquire(id EntityID) (T, error) {
	if inst, ok := p.leased[id]; ok {
		return inst, fmt.Errorf("acquire %d: already leased", id)
	}
	var inst T
	if n := len(p.freeList); n > 0 {
		inst = p.freeList[n-1]
		p.freeList = p.freeList[:n-1]
	} else {
		inst = p.newFn()
		p.created++
	}
	p.initFn(inst, id)
	p.leased[id] = inst
	return inst, nil
}

// Release returns the instance leased for id to the free list.
func (p *Pool[T]) Release(id EntityID) error {
	inst, ok := p.leased[id]
	if !ok {
		return fmt.Errorf("release %d: not leased", id)
	}
	delete(p.leased, id)
	if p.resetFn != nil {
		p.resetFn(inst)
	}
	p.freeList = append(p.freeList, inst)
	return nil
}

// Leased reports whether id currently holds an instance from this pool.
func (p *Pool[T]) Leased(id EntityID) bool {
	_, ok := p.leased[id]
	return ok
}

func (p *Pool[T]) Free() int    { return len(p.freeList) }
func (p *Pool[T]) InUse() int   { return len(p.leased) }
func (p *Pool[T]) Created() int { return p.created }
