package world

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/doppelganger/rewind/internal/core/ecs"
	"github.com/doppelganger/rewind/internal/core/timeline"
)

// Field names stored in entity histories. They double as the column suffix
// of the debug export.
const (
	FieldPosition         = "position"
	FieldVelocity         = "velocity"
	FieldOnGround         = "on_ground"
	FieldDestroyed        = "destroyed"
	FieldFacing           = "facing"
	FieldInputX           = "input.x"
	FieldInputJump        = "input.jump"
	FieldInputGrab        = "input.grab"
	FieldInputActivate    = "input.activate"
	FieldHeld             = "held"
	FieldHeldBy           = "held_by"
	FieldFuse             = "fuse"
	FieldCooldown         = "cooldown"
	FieldActivatedCurrent = "activated.current"
	FieldActivatedHistory = "activated.history"
	FieldCountdownCurrent = "countdown.current"
	FieldCountdownHistory = "countdown.history"
	FieldActivatedAt      = "activated_at"
)

// Slice is one entity's history viewed at a single step.
type Slice struct {
	Step int
	// Force stores every value even when it equals the recorded one.
	Force bool
	// Past is set while the cursor is behind the frontier.
	Past bool
	// Pin keeps the following recorded step intact when this one is
	// rewritten.
	Pin bool

	h *timeline.History
}

func NewSlice(h *timeline.History, step int) *Slice {
	return &Slice{Step: step, h: h}
}

func (s *Slice) History() *timeline.History { return s.h }

func read[T comparable](s *Slice, field string, def T) T {
	return timeline.Get(s.h, field, s.Step, def)
}

// write stores v at the slice's step, pinning the following step first when
// the slice asks for it.
func write[T comparable](s *Slice, field string, v, def T) {
	if s.Pin && (s.Force || read(s, field, def) != v) {
		timeline.Pin(s.h, field, s.Step+1, def)
	}
	timeline.Set(s.h, field, s.Step, v, def, s.Force, false)
}

func (s *Slice) Vec(field string) mgl64.Vec2 { return read(s, field, mgl64.Vec2{}) }
func (s *Slice) SetVec(field string, v mgl64.Vec2) { write(s, field, v, mgl64.Vec2{}) }
func (s *Slice) Float(field string) float64 { return read(s, field, 0.0) }
func (s *Slice) SetFloat(field string, v float64) { write(s, field, v, 0.0) }
func (s *Slice) Bool(field string) bool { return read(s, field, false) }
func (s *Slice) SetBool(field string, v bool) { write(s, field, v, false) }
func (s *Slice) ID(field string) ecs.EntityID { return read(s, field, ecs.None) }
func (s *Slice) SetID(field string, v ecs.EntityID) { write(s, field, v, ecs.None) }
func (s *Slice) Int(field string, def int) int { return read(s, field, def) }
func (s *Slice) SetInt(field string, v, def int) { write(s, field, v, def) }

// SetDestroyed records the destroy flag. A true flag erases everything the
// entity recorded after this step.
func (s *Slice) SetDestroyed(v bool) {
	if !v {
		write(s, FieldDestroyed, false, false)
		return
	}
	timeline.Set(s.h, FieldDestroyed, s.Step, true, false, s.Force, true)
	for _, name := range s.h.Names() {
		s.h.Field(name).ClearAfter(s.Step)
	}
}
