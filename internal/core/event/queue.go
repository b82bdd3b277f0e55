package event

import (
	"errors"
	"fmt"
	"slices"
)

// ErrNoHandler is returned by Dispatch for an event type nobody subscribed to.
var ErrNoHandler = errors.New("no handler")

// Queue records events by the step they are due on. Events emitted during
// step N are due on step N+1, so the same event is executed at the same point
// of the same step whether it is being played live or replayed.
type Queue struct {
	steps map[int][]Event
}

func NewQueue() *Queue {
	return &Queue{steps: make(map[int][]Event, 64)}
}

// Emit records ev as due on the step after emittedAt.
func (q *Queue) Emit(emittedAt int, ev Event) bool {
	return q.Record(emittedAt+1, ev)
}

// Record stores ev at step. An event equal to one already due on that step is
// dropped, so logic that re-runs during replay never duplicates history.
func (q *Queue) Record(step int, ev Event) bool {
	for _, e := range q.steps[step] {
		if e.Same(ev) {
			return false
		}
	}
	q.steps[step] = append(q.steps[step], ev)
	return true
}

// At returns a copy of the events due on step, in recording order.
func (q *Queue) At(step int) []Event {
	return slices.Clone(q.steps[step])
}

// Steps returns every step with at least one event, ascending.
func (q *Queue) Steps() []int {
	out := make([]int, 0, len(q.steps))
	for s, evs := range q.steps {
		if len(evs) > 0 {
			out = append(out, s)
		}
	}
	slices.Sort(out)
	return out
}

func (q *Queue) Len() int {
	n := 0
	for _, evs := range q.steps {
		n += len(evs)
	}
	return n
}

// ClearAfter drops every event due after step.
func (q *Queue) ClearAfter(step int) {
	for s := range q.steps {
		if s > step {
			delete(q.steps, s)
		}
	}
}

func (q *Queue) Copy() *Queue {
	cp := &Queue{steps: make(map[int][]Event, len(q.steps))}
	for s, evs := range q.steps {
		cp.steps[s] = slices.Clone(evs)
	}
	return cp
}

// Handler applies one event's effect.
type Handler func(step int, ev Event) error

// Bus routes events to the handler subscribed for their type.
type Bus struct {
	handlers map[Type]Handler
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[Type]Handler, 8)}
}

// Subscribe registers the handler for t, replacing any previous one.
func (b *Bus) Subscribe(t Type, h Handler) {
	b.handlers[t] = h
}

// Dispatch delivers ev to its handler.
func (b *Bus) Dispatch(step int, ev Event) error {
	h, ok := b.handlers[ev.Type]
	if !ok {
		return fmt.Errorf("dispatch %s: %w", ev.Type, ErrNoHandler)
	}
	return h(step, ev)
}
