package sim

import (
	"github.com/doppelganger/rewind/internal/core/ecs"
	"github.com/doppelganger/rewind/internal/world"
)

// Physics is the rigid-body collaborator. Simulate(0) re-syncs bodies with
// entity positions without moving anything.
type Physics interface {
	Simulate(dt float64)
	Track(e world.Entity)
	Untrack(id ecs.EntityID)
	Reset()
}

// Hooks receive presentation-side notifications.
type Hooks interface {
	OnRewindEffect(on bool)
	OnMachineOpened(id ecs.EntityID)
	OnAnomaly(a *Anomaly)
	OnLevelComplete(level string, steps int)
}

// LevelExit decides when the live player has finished the level.
type LevelExit interface {
	Touching(e world.Entity) bool
}

// NopHooks ignores every notification.
type NopHooks struct{}

func (NopHooks) OnRewindEffect(bool) {}
func (NopHooks) OnMachineOpened(ecs.EntityID) {}
func (NopHooks) OnAnomaly(*Anomaly) {}
func (NopHooks) OnLevelComplete(string, int) {}
