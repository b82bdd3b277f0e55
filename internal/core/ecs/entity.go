package ecs

// EntityID identifies a simulated object. IDs are allocated monotonically and
// are never handed out twice, so a recorded ID always names one history.
type EntityID int32

// None is the zero ID; no entity ever receives it.
const None EntityID = 0

func (id EntityID) IsZero() bool { return id == None }

// IDAllocator hands out increasing IDs starting at 1.
type IDAllocator struct {
	next EntityID
}

func NewIDAllocator() *IDAllocator {
	return &IDAllocator{next: 1}
}

// Next allocates a fresh ID.
func (a *IDAllocator) Next() EntityID {
	id := a.next
	a.next++
	return id
}

// Peek returns the ID the next call to Next will return.
func (a *IDAllocator) Peek() EntityID { return a.next }

// Reserve moves the counter past id so it is never allocated again.
// Lower values are ignored: the counter only moves forward.
func (a *IDAllocator) Reserve(id EntityID) {
	if id >= a.next {
		a.next = id + 1
	}
}
