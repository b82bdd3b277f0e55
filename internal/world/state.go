package world

import (
	"maps"
	"slices"

	"github.com/doppelganger/rewind/internal/core/ecs"
	"github.com/doppelganger/rewind/internal/core/event"
	"github.com/doppelganger/rewind/internal/core/timeline"
)

// NoSkip means no fast-forward target is pending.
const NoSkip = -1

// Rewind is the bookkeeping of an in-flight rewind animation.
type Rewind struct {
	Active  bool
	Frame   float64
	From    int
	Target  int
	Machine ecs.EntityID
}

// State is everything that defines a simulation at a point in time. It is
// owned by one controller and touched only from its goroutine.
type State struct {
	Level string
	IDs   *ecs.IDAllocator
	// Referenced holds every ID with a live instance, trackable or not.
	Referenced map[ecs.EntityID]bool
	// Tracked holds every ID whose history is recorded.
	Tracked   map[ecs.EntityID]bool
	Kinds     map[ecs.EntityID]Kind
	Histories *timeline.Store[ecs.EntityID]
	Events    *event.Queue

	CurrentPlayer ecs.EntityID
	Step          int
	Frontier      int
	SkipTarget    int
	Present       bool
	Rewind        Rewind
	Completed     bool
}

func NewState(level string) *State {
	return &State{
		Level:      level,
		IDs:        ecs.NewIDAllocator(),
		Referenced: make(map[ecs.EntityID]bool, 64),
		Tracked:    make(map[ecs.EntityID]bool, 64),
		Kinds:      make(map[ecs.EntityID]Kind, 64),
		Histories:  timeline.NewStore[ecs.EntityID](),
		Events:     event.NewQueue(),
		SkipTarget: NoSkip,
		Present:    true,
	}
}

// Clone deep-copies the state. Entity instances are not part of it.
func (s *State) Clone() *State {
	ids := *s.IDs
	return &State{
		Level:         s.Level,
		IDs:           &ids,
		Referenced:    maps.Clone(s.Referenced),
		Tracked:       maps.Clone(s.Tracked),
		Kinds:         maps.Clone(s.Kinds),
		Histories:     s.Histories.Copy(),
		Events:        s.Events.Copy(),
		CurrentPlayer: s.CurrentPlayer,
		Step:          s.Step,
		Frontier:      s.Frontier,
		SkipTarget:    s.SkipTarget,
		Present:       s.Present,
		Rewind:        s.Rewind,
		Completed:     s.Completed,
	}
}

// InPast reports whether the cursor is replaying recorded steps.
func (s *State) InPast() bool { return s.Step < s.Frontier }

// Slice returns id's history viewed at step for reading. A missing history
// reads as defaults.
func (s *State) Slice(id ecs.EntityID, step int) *Slice {
	h, _ := s.Histories.Get(id)
	sl := NewSlice(h, step)
	sl.Past = step < s.Frontier
	return sl
}

// SaveSlice is Slice for writing: the history is created on first use with
// Start = step. Rewriting a recorded step of an existing history pins the
// step after it, so values written now do not carry over into the record.
func (s *State) SaveSlice(id ecs.EntityID, step int, force bool) *Slice {
	_, existed := s.Histories.Get(id)
	sl := NewSlice(s.Histories.Ensure(id, step), step)
	sl.Past = step < s.Frontier
	sl.Pin = existed && step+1 < s.Frontier
	sl.Force = force
	return sl
}

// DestroyedAt reads the recorded destroy flag.
func (s *State) DestroyedAt(id ecs.EntityID, step int) bool {
	h, _ := s.Histories.Get(id)
	return timeline.Get(h, FieldDestroyed, step, false)
}

// AlreadyDestroyed is true when the destroy flag was recorded at both step
// and the step before. An entity destroyed at step still exists at step.
func (s *State) AlreadyDestroyed(id ecs.EntityID, step int) bool {
	return s.DestroyedAt(id, step) && s.DestroyedAt(id, step-1)
}

// ExistsAt reports whether id has an instance at step.
func (s *State) ExistsAt(id ecs.EntityID, step int) bool {
	h, ok := s.Histories.Get(id)
	if !ok || h.Start > step {
		return false
	}
	return !s.AlreadyDestroyed(id, step)
}

// TrackedIDs returns the tracked IDs in ascending order.
func (s *State) TrackedIDs() []ecs.EntityID {
	return sortedKeys(s.Tracked)
}

// ReferencedIDs returns the referenced IDs in ascending order.
func (s *State) ReferencedIDs() []ecs.EntityID {
	return sortedKeys(s.Referenced)
}

func sortedKeys(m map[ecs.EntityID]bool) []ecs.EntityID {
	ids := make([]ecs.EntityID, 0, len(m))
	for id, ok := range m {
		if ok {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}
