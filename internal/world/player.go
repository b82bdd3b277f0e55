package world

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/doppelganger/rewind/internal/core/ecs"
	"github.com/doppelganger/rewind/internal/core/event"
)

// Movement tuning, in world units per second.
const (
	PlayerSpeed = 6.0
	JumpSpeed   = 11.0
	// GrabReach is how far beyond its bounds a player can pick things up.
	GrabReach = 0.3
)

var PlayerSize = mgl64.Vec2{0.8, 1.8}

// Player is both the live player and every doppelganger. Which one is live
// is decided by the controller, not by the entity.
type Player struct {
	Base
	Facing int
	Input  Input
	Held   ecs.EntityID
}

func NewPlayer() *Player {
	p := &Player{}
	p.kind = KindPlayer
	p.reset()
	return p
}

func (p *Player) reset() {
	p.resetBase()
	p.size = PlayerSize
	p.Facing = 1
	p.Input = Input{}
	p.Held = ecs.None
}

func (p *Player) Save(s *Slice) {
	p.saveBase(s)
	s.SetInt(FieldFacing, p.Facing, 1)
	s.SetFloat(FieldInputX, p.Input.X)
	s.SetBool(FieldInputJump, p.Input.Jump)
	s.SetBool(FieldInputGrab, p.Input.Grab)
	s.SetBool(FieldInputActivate, p.Input.Activate)
	s.SetID(FieldHeld, p.Held)
	s.SetDestroyed(p.destroyed)
}

func (p *Player) LoadForPlayback(s *Slice) {
	p.loadBase(s)
	p.Facing = s.Int(FieldFacing, 1)
	p.Held = s.ID(FieldHeld)
	p.LoadIntent(s)
}

// LoadIntent restores the input recorded for the slice's step. Where the
// body ends up is left to physics, so a doppelganger pushed off its path
// shows up as a divergence.
func (p *Player) LoadIntent(s *Slice) {
	p.Input = Input{
		X:        s.Float(FieldInputX),
		Jump:     s.Bool(FieldInputJump),
		Grab:     s.Bool(FieldInputGrab),
		Activate: s.Bool(FieldInputActivate),
	}
}

func (p *Player) ForceLoad(s *Slice) {
	p.LoadForPlayback(s)
	p.destroyed = s.Bool(FieldDestroyed)
}

func (p *Player) CopyFrom(other Entity) error {
	if err := checkKind(p, other); err != nil {
		return err
	}
	o := other.(*Player)
	p.copyBase(&o.Base)
	p.Facing, p.Input, p.Held = o.Facing, o.Input, o.Held
	return nil
}

func (p *Player) Kinematic() bool { return p.Base.Kinematic() && !p.hidden }

func (p *Player) Update(w Accessor) {
	if p.hidden {
		return
	}
	p.vel[0] = p.Input.X * PlayerSpeed
	if p.Input.X > 0 {
		p.Facing = 1
	} else if p.Input.X < 0 {
		p.Facing = -1
	}
	if p.Input.Jump && p.onGround {
		p.vel[1] = -JumpSpeed
		p.onGround = false
	}
	if p.Input.Grab {
		p.grabOrDrop(w)
	}
	p.carry(w)
}

// grabOrDrop emits the intent; the event handler performs the transfer on
// the next step so replays see it at the same point.
func (p *Player) grabOrDrop(w Accessor) {
	if p.Held != ecs.None {
		w.Emit(event.Event{Source: p.id, Type: event.TypeDrop, Target: p.Held})
		return
	}
	for _, e := range w.Overlapping(p.Bounds().Expand(GrabReach), KindCrate, KindExplosive) {
		if c, ok := e.(Carryable); ok && c.HeldBy() == ecs.None {
			w.Emit(event.Event{Source: p.id, Type: event.TypeGrab, Target: e.ID()})
			return
		}
	}
}

func (p *Player) carry(w Accessor) {
	if p.Held == ecs.None {
		return
	}
	item, ok := w.Entity(p.Held)
	if !ok {
		p.Held = ecs.None
		return
	}
	item.SetPosition(p.CarryPoint(item.Size()))
	item.SetMotion(item.Position(), p.vel, false)
}

// CarryPoint is where a held item of the given size rests: centred above the head.
func (p *Player) CarryPoint(size mgl64.Vec2) mgl64.Vec2 {
	return mgl64.Vec2{p.pos.X() + (p.size.X()-size.X())/2, p.pos.Y() - size.Y()}
}

// OnDestroyFlagged lets go of whatever the player was carrying.
func (p *Player) OnDestroyFlagged(w Accessor) {
	if p.Held == ecs.None {
		return
	}
	if e, ok := w.Entity(p.Held); ok {
		if c, ok := e.(Carryable); ok && c.HeldBy() == p.id {
			c.SetHeldBy(ecs.None)
		}
	}
	p.Held = ecs.None
}
