package world

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/doppelganger/rewind/internal/core/ecs"
	"github.com/doppelganger/rewind/internal/core/event"
	"github.com/doppelganger/rewind/internal/core/timeline"
)

const DefaultFuseSteps = 60

var ExplosiveSize = mgl64.Vec2{0.8, 0.8}

// Explosive is a carryable charge. Dropping it arms the fuse; when the fuse
// runs out it emits an explode event for itself.
type Explosive struct {
	item
	// Fuse counts steps until detonation, or timeline.Unset while disarmed.
	Fuse      int
	FuseSteps int
	Radius    float64
}

func NewExplosive() *Explosive {
	x := &Explosive{}
	x.kind = KindExplosive
	x.reset()
	return x
}

func (x *Explosive) reset() {
	x.resetBase()
	x.size = ExplosiveSize
	x.heldBy = ecs.None
	x.Fuse = timeline.Unset
	x.FuseSteps = DefaultFuseSteps
	x.Radius = DefaultBlastRadius
}

// Arm lights the fuse. Re-arming a burning fuse keeps the earlier deadline.
func (x *Explosive) Arm() {
	if x.Fuse == timeline.Unset {
		x.Fuse = x.FuseSteps
	}
}

func (x *Explosive) Save(s *Slice) {
	x.saveItem(s)
	s.SetInt(FieldFuse, x.Fuse, timeline.Unset)
	s.SetDestroyed(x.destroyed)
}

func (x *Explosive) LoadForPlayback(s *Slice) {
	x.loadItem(s)
	x.Fuse = s.Int(FieldFuse, timeline.Unset)
}

func (x *Explosive) ForceLoad(s *Slice) {
	x.LoadForPlayback(s)
	x.destroyed = s.Bool(FieldDestroyed)
}

func (x *Explosive) CopyFrom(other Entity) error {
	if err := checkKind(x, other); err != nil {
		return err
	}
	o := other.(*Explosive)
	x.copyBase(&o.Base)
	x.heldBy = o.heldBy
	x.Fuse, x.FuseSteps, x.Radius = o.Fuse, o.FuseSteps, o.Radius
	return nil
}

func (x *Explosive) Update(w Accessor) {
	if x.onGround && x.heldBy == ecs.None {
		x.vel[0] = 0
	}
	if x.Fuse == timeline.Unset || x.Fuse == 0 {
		return
	}
	x.Fuse--
	if x.Fuse == 0 {
		w.Emit(event.Event{Source: x.id, Type: event.TypeExplode})
	}
}

func (x *Explosive) OnDestroyFlagged(w Accessor) { x.releaseHolder(w) }
