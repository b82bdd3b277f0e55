package ecs

import "testing"

type pooled struct {
	id    EntityID
	inits int
}

func (p *pooled) ID() EntityID { return p.id }

func newTestPool() *Pool[*pooled] {
	return NewPool(
		func() *pooled { return &pooled{} },
		func(p *pooled, id EntityID) { p.id = id; p.inits++ },
		func(p *pooled) { p.id = None },
	)
}

func TestIDAllocatorIsMonotonic(t *testing.T) {
	a := NewIDAllocator()
	if got := a.Next(); got != 1 {
		t.Fatalf("expected first id 1, got %d", got)
	}
	a.Reserve(9)
	if got := a.Next(); got != 10 {
		t.Fatalf("expected 10 after reserving 9, got %d", got)
	}
	a.Reserve(3)
	if got := a.Peek(); got != 11 {
		t.Fatalf("expected reserve of a lower id to be ignored, got %d", got)
	}
}

func TestPoolReusesReleasedInstances(t *testing.T) {
	p := newTestPool()
	a, err := p.Acquire(4)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if err := p.Release(4); err != nil {
		t.Fatalf("release: %v", err)
	}
	b, err := p.Acquire(5)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if a != b {
		t.Fatalf("expected the released instance to be reused")
	}
	if b.ID() != 5 || b.inits != 2 {
		t.Fatalf("expected instance re-initialised as 5, got id=%d inits=%d", b.ID(), b.inits)
	}
	if p.Created() != 1 {
		t.Fatalf("expected 1 allocation, got %d", p.Created())
	}
}

func TestPoolPairsAcquireAndRelease(t *testing.T) {
	p := newTestPool()
	if _, err := p.Acquire(1); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if _, err := p.Acquire(1); err == nil {
		t.Fatalf("expected double acquire to fail")
	}
	if err := p.Release(1); err != nil {
		t.Fatalf("release: %v", err)
	}
	if err := p.Release(1); err == nil {
		t.Fatalf("expected double release to fail")
	}
	if p.InUse() != 0 || p.Free() != 1 {
		t.Fatalf("expected 0 in use and 1 free, got %d and %d", p.InUse(), p.Free())
	}
}

func TestStoreIteratesInIDOrder(t *testing.T) {
	s := NewStore[string]()
	s.Set(7, "g")
	s.Set(2, "b")
	s.Set(5, "e")
	s.Remove(5)
	s.Set(1, "a")

	var got []EntityID
	s.Each(func(id EntityID, _ string) {
		got = append(got, id)
		if id == 2 {
			s.Remove(7)
		}
	})
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("expected [1 2], got %v", got)
	}
	if s.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", s.Len())
	}
}

func TestReleaseQueueCollapsesDuplicates(t *testing.T) {
	q := NewReleaseQueue()
	q.Mark(3)
	q.Mark(1)
	q.Mark(3)
	var released []EntityID
	q.Flush(func(id EntityID) { released = append(released, id) })
	if len(released) != 2 || released[0] != 3 || released[1] != 1 {
		t.Fatalf("expected [3 1], got %v", released)
	}
	if q.Len() != 0 {
		t.Fatalf("expected empty queue after flush")
	}
}
