package world

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/doppelganger/rewind/internal/core/ecs"
	"github.com/doppelganger/rewind/internal/core/event"
)

// ErrIncompatibleKind is returned by CopyFrom when the source is a different kind.
var ErrIncompatibleKind = errors.New("incompatible entity kind")

// Entity is the contract every simulated object satisfies. The set of
// implementations is closed to this package.
type Entity interface {
	ID() ecs.EntityID
	Kind() Kind
	Position() mgl64.Vec2
	SetPosition(p mgl64.Vec2)
	Velocity() mgl64.Vec2
	Size() mgl64.Vec2
	Bounds() Rect

	Destroyed() bool
	SetDestroyed(v bool)
	Active() bool
	SetActive(v bool)
	// ShouldPool reports whether the instance returns to a pool when destroyed
	// rather than being deactivated in place.
	ShouldPool() bool
	// Trackable entities record a history; the rest are re-created by events.
	Trackable() bool

	// Kinematic bodies are moved by physics this step.
	Kinematic() bool
	// Solid bodies block kinematic ones.
	Solid() bool
	SetMotion(pos, vel mgl64.Vec2, onGround bool)
	OnGround() bool

	Save(s *Slice)
	// LoadForPlayback applies every field recorded at the slice's step. The
	// destroy flag is left to the loader, which despawns and materializes.
	LoadForPlayback(s *Slice)
	// ForceLoad is LoadForPlayback plus the destroy flag.
	ForceLoad(s *Slice)
	Update(w Accessor)
	// OnDestroyFlagged runs once when the destroy flag flips to true.
	OnDestroyFlagged(w Accessor)
	CopyFrom(other Entity) error

	base() *Base
	reset()
}

// Intender is implemented by kinds whose record also holds what they do
// during a step, as opposed to where they ended up after it. During replay
// the loader applies it from the step being played.
type Intender interface {
	LoadIntent(s *Slice)
}

// Accessor is the narrow view of the simulation handed to entity logic.
type Accessor interface {
	Step() int
	LivePlayer() ecs.EntityID
	// Entity returns an active, non-destroyed entity.
	Entity(id ecs.EntityID) (Entity, bool)
	// Overlapping returns active, non-destroyed entities of the given kinds
	// whose bounds overlap r, in ascending ID order. No kinds means all kinds.
	Overlapping(r Rect, kinds ...Kind) []Entity
	// Emit records ev as due on the next step.
	Emit(ev event.Event)
	// Spawn acquires a runtime entity of kind at pos.
	Spawn(kind Kind, pos mgl64.Vec2) (Entity, error)
	Brain() GuardBrain
}

// Base carries the state shared by every kind.
type Base struct {
	id        ecs.EntityID
	kind      Kind
	pos       mgl64.Vec2
	vel       mgl64.Vec2
	size      mgl64.Vec2
	onGround  bool
	destroyed bool
	active    bool
	pooled    bool
	hidden    bool
}

func (b *Base) base() *Base { return b }

func (b *Base) ID() ecs.EntityID { return b.id }
func (b *Base) Kind() Kind { return b.kind }
func (b *Base) Position() mgl64.Vec2 { return b.pos }
func (b *Base) SetPosition(p mgl64.Vec2) { b.pos = p }
func (b *Base) Velocity() mgl64.Vec2 { return b.vel }
func (b *Base) SetVelocity(v mgl64.Vec2) { b.vel = v }
func (b *Base) Size() mgl64.Vec2 { return b.size }
func (b *Base) Bounds() Rect { return RectAt(b.pos, b.size) }
func (b *Base) Destroyed() bool { return b.destroyed }
func (b *Base) SetDestroyed(v bool) { b.destroyed = v }
func (b *Base) Active() bool { return b.active }
func (b *Base) SetActive(v bool) { b.active = v }
func (b *Base) ShouldPool() bool { return b.pooled }
func (b *Base) Trackable() bool { return true }
func (b *Base) OnGround() bool { return b.onGround }
func (b *Base) Hidden() bool { return b.hidden }
func (b *Base) SetHidden(v bool) { b.hidden = v }
func (b *Base) Kinematic() bool { return b.active && !b.destroyed }
func (b *Base) Solid() bool { return false }
func (b *Base) OnDestroyFlagged(Accessor) {}

func (b *Base) SetMotion(pos, vel mgl64.Vec2, onGround bool) {
	b.pos, b.vel, b.onGround = pos, vel, onGround
}

func (b *Base) saveBase(s *Slice) {
	s.SetVec(FieldPosition, b.pos)
	s.SetVec(FieldVelocity, b.vel)
	s.SetBool(FieldOnGround, b.onGround)
}

func (b *Base) loadBase(s *Slice) {
	b.pos = s.Vec(FieldPosition)
	b.vel = s.Vec(FieldVelocity)
	b.onGround = s.Bool(FieldOnGround)
}

func (b *Base) copyBase(o *Base) {
	b.pos, b.vel, b.onGround = o.pos, o.vel, o.onGround
}

func (b *Base) resetBase() {
	b.pos, b.vel = mgl64.Vec2{}, mgl64.Vec2{}
	b.onGround, b.destroyed, b.hidden = false, false, false
}

func checkKind(dst, src Entity) error {
	if src == nil || dst.Kind() != src.Kind() {
		var got Kind
		if src != nil {
			got = src.Kind()
		}
		return fmt.Errorf("copy %s from %s: %w", dst.Kind(), got, ErrIncompatibleKind)
	}
	return nil
}

// Destroy flags e and runs its destroy hook. Flagging an already destroyed
// entity does nothing.
func Destroy(w Accessor, e Entity) bool {
	if e == nil || e.Destroyed() {
		return false
	}
	e.SetDestroyed(true)
	e.OnDestroyFlagged(w)
	return true
}

// Input is the live control intent for one step.
type Input struct {
	X        float64
	Jump     bool
	Grab     bool
	Activate bool
}
