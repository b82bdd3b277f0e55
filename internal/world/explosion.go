package world

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/doppelganger/rewind/internal/core/event"
)

const (
	DefaultBlastRadius = 2.5
	// ExplosionSteps is how long the blast stays in the world.
	ExplosionSteps = 12
)

// Explosion is a short-lived blast. It records no history: replaying the
// explode event that spawned it re-creates it.
type Explosion struct {
	Base
	Radius   float64
	Life     int
	detonate bool
}

func NewExplosion() *Explosion {
	e := &Explosion{}
	e.kind = KindExplosion
	e.reset()
	return e
}

func (e *Explosion) reset() {
	e.resetBase()
	e.size = mgl64.Vec2{}
	e.Radius = DefaultBlastRadius
	e.Life = ExplosionSteps
	e.detonate = true
}

// Place centres the blast on c with radius r.
func (e *Explosion) Place(c mgl64.Vec2, r float64) {
	e.Radius = r
	e.size = mgl64.Vec2{2 * r, 2 * r}
	e.pos = c.Sub(mgl64.Vec2{r, r})
}

func (e *Explosion) Center() mgl64.Vec2 { return e.Bounds().Center() }

func (e *Explosion) Trackable() bool { return false }
func (e *Explosion) Kinematic() bool { return false }

// Nothing is recorded, so there is nothing to load.
func (e *Explosion) Save(*Slice)            {}
func (e *Explosion) LoadForPlayback(*Slice) {}
func (e *Explosion) ForceLoad(*Slice)       {}

func (e *Explosion) CopyFrom(other Entity) error {
	if err := checkKind(e, other); err != nil {
		return err
	}
	o := other.(*Explosion)
	e.copyBase(&o.Base)
	e.size, e.Radius, e.Life, e.detonate = o.size, o.Radius, o.Life, o.detonate
	return nil
}

// Update destroys everything in reach on the first step, chains other
// explosives, then burns out.
func (e *Explosion) Update(w Accessor) {
	if e.detonate {
		e.detonate = false
		c := e.Center()
		for _, other := range w.Overlapping(e.Bounds()) {
			if other.ID() == e.id || other.Bounds().DistanceTo(c) > e.Radius {
				continue
			}
			switch other.Kind() {
			case KindPlayer, KindCrate, KindGuard:
				Destroy(w, other)
			case KindExplosive:
				w.Emit(event.Event{Source: other.ID(), Type: event.TypeExplode})
			}
		}
	}
	e.Life--
	if e.Life <= 0 {
		e.destroyed = true
	}
}
