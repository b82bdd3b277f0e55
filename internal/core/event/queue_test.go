package event

import (
	"errors"
	"testing"
)

func TestEmitIsDueNextStep(t *testing.T) {
	q := NewQueue()
	q.Emit(9, Event{Source: 1, Type: TypeGrab, Target: 3})
	if len(q.At(9)) != 0 {
		t.Fatalf("expected nothing due on the emitting step")
	}
	evs := q.At(10)
	if len(evs) != 1 || evs[0].Type != TypeGrab {
		t.Fatalf("expected grab due on step 10, got %v", evs)
	}
}

func TestRecordDropsDuplicates(t *testing.T) {
	q := NewQueue()
	ev := Event{Source: 2, Type: TypeShoot, Target: 1}
	if !q.Record(5, ev) {
		t.Fatalf("expected first record to be stored")
	}
	ev.Aux = 3
	if q.Record(5, ev) {
		t.Fatalf("expected same action to be dropped")
	}
	if !q.Record(5, Event{Source: 2, Type: TypeShoot, Target: 4}) {
		t.Fatalf("expected a different target to be stored")
	}
	if q.Len() != 2 {
		t.Fatalf("expected 2 events, got %d", q.Len())
	}
}

func TestQueueCopyAndClear(t *testing.T) {
	q := NewQueue()
	q.Record(1, Event{Source: 1, Type: TypeDrop})
	q.Record(8, Event{Source: 1, Type: TypeGrab, Target: 2})
	cp := q.Copy()
	q.ClearAfter(4)
	if got := q.Steps(); len(got) != 1 || got[0] != 1 {
		t.Fatalf("expected only step 1 left, got %v", got)
	}
	if got := cp.Steps(); len(got) != 2 {
		t.Fatalf("expected copy to keep 2 steps, got %v", got)
	}
}

func TestBusDispatch(t *testing.T) {
	b := NewBus()
	var seen []Event
	b.Subscribe(TypeExplode, func(step int, ev Event) error {
		if step != 4 {
			t.Fatalf("expected step 4, got %d", step)
		}
		seen = append(seen, ev)
		return nil
	})
	if err := b.Dispatch(4, Event{Source: 6, Type: TypeExplode}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(seen) != 1 {
		t.Fatalf("expected handler to run once, got %d", len(seen))
	}
	err := b.Dispatch(4, Event{Type: TypeShoot})
	if !errors.Is(err, ErrNoHandler) {
		t.Fatalf("expected ErrNoHandler, got %v", err)
	}
}

func TestTypeString(t *testing.T) {
	if TypeActivateMachine.String() != "activate-time-machine" {
		t.Fatalf("unexpected name %q", TypeActivateMachine.String())
	}
	if Type(99).String() != "unknown" {
		t.Fatalf("expected unknown for out of range type")
	}
}
