package sim

import (
	"slices"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/doppelganger/rewind/internal/core/ecs"
	"github.com/doppelganger/rewind/internal/core/event"
	"github.com/doppelganger/rewind/internal/world"
)

// access is the world.Accessor handed to entity logic.
type access struct {
	c *Controller
}

func (a *access) Step() int { return a.c.state.Step }
func (a *access) LivePlayer() ecs.EntityID { return a.c.state.CurrentPlayer }
func (a *access) Brain() world.GuardBrain { return a.c.deps.Brain }

func (a *access) Entity(id ecs.EntityID) (world.Entity, bool) {
	e, ok := a.c.entities.Get(id)
	if !ok || !e.Active() || e.Destroyed() {
		return nil, false
	}
	return e, true
}

func (a *access) Overlapping(r world.Rect, kinds ...world.Kind) []world.Entity {
	var out []world.Entity
	a.c.entities.Each(func(_ ecs.EntityID, e world.Entity) {
		if !e.Active() || e.Destroyed() {
			return
		}
		if len(kinds) > 0 && !slices.Contains(kinds, e.Kind()) {
			return
		}
		if e.Bounds().Overlaps(r) {
			out = append(out, e)
		}
	})
	return out
}

func (a *access) Emit(ev event.Event) {
	if a.c.state.Events.Emit(a.c.state.Step, ev) {
		a.c.log.Debug("event recorded",
			zap.String("type", ev.Type.String()),
			zap.Int32("source", int32(ev.Source)),
			zap.Int32("target", int32(ev.Target)),
			zap.Int("due", a.c.state.Step+1),
		)
	}
}

func (a *access) Spawn(k world.Kind, pos mgl64.Vec2) (world.Entity, error) {
	return a.c.spawn(k, pos)
}
