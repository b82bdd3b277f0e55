package world

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/doppelganger/rewind/internal/core/ecs"
	"github.com/doppelganger/rewind/internal/core/event"
	"github.com/doppelganger/rewind/internal/core/timeline"
)

const DefaultCountdownSteps = 180

var MachineSize = mgl64.Vec2{1.6, 2.4}

// TimeMachine is activated by a player, counts down, and on reaching zero
// sends the live player standing inside it back to the activation step.
//
// Activation and countdown are dual fields: Current holds what the live
// present did, History what was recorded for the past the cursor is
// replaying. They are stored as separate timeline fields.
type TimeMachine struct {
	Base
	Activated      timeline.Dual[bool]
	Countdown      timeline.Dual[int]
	ActivatedAt    int
	CountdownSteps int

	activatedNow bool
}

func NewTimeMachine() *TimeMachine {
	m := &TimeMachine{}
	m.kind = KindMachine
	m.reset()
	return m
}

func (m *TimeMachine) reset() {
	m.resetBase()
	m.size = MachineSize
	m.Activated = timeline.NewBool()
	m.Countdown = timeline.NewInt()
	m.ActivatedAt = timeline.Unset
	m.CountdownSteps = DefaultCountdownSteps
	m.activatedNow = false
}

// Static: machines are placed by the level and never fall.
func (m *TimeMachine) Kinematic() bool { return false }

// CanActivate reports whether a live player may start the machine: it was
// never used in either phase and no countdown is running.
func (m *TimeMachine) CanActivate() bool { return !m.Activated.Value() && !m.Running() }

// Activate starts the countdown at step. It always applies: replayed
// activations are history and must happen even when they conflict.
func (m *TimeMachine) Activate(step int) {
	m.Activated.Current = true
	m.Countdown.Current = m.CountdownSteps
	m.ActivatedAt = step
	m.activatedNow = true
}

// ActivatedThisStep is true between an activation and EndStep.
func (m *TimeMachine) ActivatedThisStep() bool { return m.activatedNow }

func (m *TimeMachine) EndStep() { m.activatedNow = false }

// Running reports whether the merged countdown is ticking.
func (m *TimeMachine) Running() bool { return m.Countdown.Value() != timeline.Unset }

// MergeDual folds the history phase into the current one.
func (m *TimeMachine) MergeDual() {
	m.Activated.Merge()
	m.Countdown.Merge()
}

func (m *TimeMachine) ClearDual() {
	m.Activated.Clear()
	m.Countdown.Clear()
}

func (m *TimeMachine) ClearCurrent() {
	m.Activated.ClearCurrent()
	m.Countdown.ClearCurrent()
}

func (m *TimeMachine) Save(s *Slice) {
	m.saveBase(s)
	s.SetBool(FieldActivatedCurrent, m.Activated.Current)
	s.SetBool(FieldActivatedHistory, m.Activated.History)
	s.SetInt(FieldCountdownCurrent, m.Countdown.Current, timeline.Unset)
	s.SetInt(FieldCountdownHistory, m.Countdown.History, timeline.Unset)
	s.SetInt(FieldActivatedAt, m.ActivatedAt, timeline.Unset)
	s.SetDestroyed(m.destroyed)
}

// RecordedCountdown is the merged countdown stored at the slice's step.
func RecordedCountdown(s *Slice) int {
	cur := s.Int(FieldCountdownCurrent, timeline.Unset)
	if cur != timeline.Unset {
		return cur
	}
	return s.Int(FieldCountdownHistory, timeline.Unset)
}

func (m *TimeMachine) LoadForPlayback(s *Slice) {
	m.loadBase(s)
	m.Activated.Current = s.Bool(FieldActivatedCurrent)
	m.Activated.History = s.Bool(FieldActivatedHistory)
	m.Countdown.Current = s.Int(FieldCountdownCurrent, timeline.Unset)
	m.Countdown.History = s.Int(FieldCountdownHistory, timeline.Unset)
	m.ActivatedAt = s.Int(FieldActivatedAt, timeline.Unset)
}

// LoadIntent refreshes the history phase from the record while the cursor
// replays the past: both recorded phases fold into what this step already
// did. In the present there is no history to replay.
func (m *TimeMachine) LoadIntent(s *Slice) {
	if !s.Past {
		return
	}
	m.Activated.History = s.Bool(FieldActivatedCurrent) || s.Bool(FieldActivatedHistory)
	m.Countdown.History = RecordedCountdown(s)
}

func (m *TimeMachine) ForceLoad(s *Slice) {
	m.LoadForPlayback(s)
	m.destroyed = s.Bool(FieldDestroyed)
	m.activatedNow = false
}

func (m *TimeMachine) CopyFrom(other Entity) error {
	if err := checkKind(m, other); err != nil {
		return err
	}
	o := other.(*TimeMachine)
	m.copyBase(&o.Base)
	m.Activated, m.Countdown = o.Activated, o.Countdown
	m.ActivatedAt, m.CountdownSteps = o.ActivatedAt, o.CountdownSteps
	return nil
}

// Update ticks the live countdown. The step of activation does not count.
// When it expires with the live player inside, a time-travel event is emitted.
func (m *TimeMachine) Update(w Accessor) {
	if m.activatedNow || m.Countdown.Current == timeline.Unset {
		return
	}
	m.Countdown.Current--
	if m.Countdown.Current > 0 {
		return
	}
	m.Countdown.Current = timeline.Unset
	if id, ok := m.Occupant(w); ok {
		w.Emit(event.Event{Source: id, Type: event.TypeTimeTravel, Target: m.id})
	}
}

// Occupant returns the live player if it stands inside the machine.
func (m *TimeMachine) Occupant(w Accessor) (ecs.EntityID, bool) {
	live, ok := w.Entity(w.LivePlayer())
	if !ok || !live.Bounds().Overlaps(m.Bounds()) {
		return ecs.None, false
	}
	return live.ID(), true
}
