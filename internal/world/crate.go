package world

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/doppelganger/rewind/internal/core/ecs"
)

var CrateSize = mgl64.Vec2{1, 1}

// Carryable is implemented by kinds a player can pick up.
type Carryable interface {
	Entity
	HeldBy() ecs.EntityID
	SetHeldBy(id ecs.EntityID)
}

// item is the carryable part shared by crates and explosives.
type item struct {
	Base
	heldBy ecs.EntityID
}

func (i *item) HeldBy() ecs.EntityID      { return i.heldBy }
func (i *item) SetHeldBy(id ecs.EntityID) { i.heldBy = id }

// A held item follows its holder instead of falling.
func (i *item) Kinematic() bool { return i.Base.Kinematic() && i.heldBy == ecs.None }
func (i *item) Solid() bool     { return i.Base.Kinematic() && i.heldBy == ecs.None }

func (i *item) saveItem(s *Slice) {
	i.saveBase(s)
	s.SetID(FieldHeldBy, i.heldBy)
}

func (i *item) loadItem(s *Slice) {
	i.loadBase(s)
	i.heldBy = s.ID(FieldHeldBy)
}

func (i *item) forceLoadItem(s *Slice) {
	i.loadItem(s)
	i.destroyed = s.Bool(FieldDestroyed)
}

// releaseHolder clears the holder's reference when a held item is destroyed.
func (i *item) releaseHolder(w Accessor) {
	if i.heldBy == ecs.None {
		return
	}
	if e, ok := w.Entity(i.heldBy); ok {
		if p, ok := e.(*Player); ok && p.Held == i.id {
			p.Held = ecs.None
		}
	}
	i.heldBy = ecs.None
}

// Crate is a solid box that can be carried and stood on.
type Crate struct {
	item
}

func NewCrate() *Crate {
	c := &Crate{}
	c.kind = KindCrate
	c.reset()
	return c
}

func (c *Crate) reset() {
	c.resetBase()
	c.size = CrateSize
	c.heldBy = ecs.None
}

func (c *Crate) Save(s *Slice) {
	c.saveItem(s)
	s.SetDestroyed(c.destroyed)
}

func (c *Crate) LoadForPlayback(s *Slice) { c.loadItem(s) }

func (c *Crate) ForceLoad(s *Slice) { c.forceLoadItem(s) }

func (c *Crate) CopyFrom(other Entity) error {
	if err := checkKind(c, other); err != nil {
		return err
	}
	o := other.(*Crate)
	c.copyBase(&o.Base)
	c.heldBy = o.heldBy
	return nil
}

func (c *Crate) Update(Accessor) {
	if c.onGround && c.heldBy == ecs.None {
		c.vel[0] = 0
	}
}

func (c *Crate) OnDestroyFlagged(w Accessor) { c.releaseHolder(w) }
