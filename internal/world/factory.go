package world

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/doppelganger/rewind/internal/core/ecs"
)

// New returns a fresh, unbound instance of kind.
func New(k Kind) (Entity, error) {
	switch k {
	case KindPlayer:
		return NewPlayer(), nil
	case KindCrate:
		return NewCrate(), nil
	case KindExplosive:
		return NewExplosive(), nil
	case KindExplosion:
		return NewExplosion(), nil
	case KindGuard:
		return NewGuard(), nil
	case KindMachine:
		return NewTimeMachine(), nil
	}
	return nil, fmt.Errorf("new entity: unknown kind %d", k)
}

// Bind gives e its identity and makes it active.
func Bind(e Entity, id ecs.EntityID, pooled bool) {
	b := e.base()
	b.id = id
	b.pooled = pooled
	b.active = true
}

// Reset returns e to its kind's defaults. Identity is kept.
func Reset(e Entity) { e.reset() }

// Params are the per-instance settings a level file may give an entity.
type Params map[string]float64

func (p Params) get(key string, def float64) float64 {
	if v, ok := p[key]; ok {
		return v
	}
	return def
}

// Configure applies level-file params to a freshly created scene entity.
func Configure(e Entity, pos mgl64.Vec2, p Params) {
	e.SetPosition(pos)
	switch v := e.(type) {
	case *Player:
		if p.get("facing", 1) < 0 {
			v.Facing = -1
		}
	case *Explosive:
		v.FuseSteps = int(p.get("fuse_steps", DefaultFuseSteps))
		v.Radius = p.get("radius", DefaultBlastRadius)
	case *Guard:
		if p.get("facing", 1) < 0 {
			v.Facing = -1
		}
		v.PatrolMin = p.get("patrol_min", v.PatrolMin)
		v.PatrolMax = p.get("patrol_max", v.PatrolMax)
	case *TimeMachine:
		v.CountdownSteps = int(p.get("countdown_steps", DefaultCountdownSteps))
	}
}
