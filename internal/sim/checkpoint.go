package sim

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/doppelganger/rewind/internal/core/ecs"
	"github.com/doppelganger/rewind/internal/world"
)

// HasCheckpoint reports whether a respawn point exists. One is taken when
// the first rewind of a run completes.
func (c *Controller) HasCheckpoint() bool { return c.checkpoint != nil }

// Respawn restores the checkpoint, typically after an anomaly. Without one
// it falls back to Retry. IDs handed out since the checkpoint are never
// reused.
func (c *Controller) Respawn() error {
	if c.checkpoint == nil {
		return c.Retry()
	}
	next := c.state.IDs.Peek()
	c.despawnAll()

	st := c.checkpoint.Clone()
	st.IDs.Reserve(next - 1)
	st.Referenced = make(map[ecs.EntityID]bool, len(st.Tracked))
	st.SkipTarget = world.NoSkip
	c.state = st
	c.deps.Physics.Reset()
	if err := c.loadAt(st.Step-1, true); err != nil {
		return fmt.Errorf("respawn: %w", err)
	}
	if err := c.syncPhysics(); err != nil {
		return fmt.Errorf("respawn: %w", err)
	}

	c.mode = Running
	c.anomaly = nil
	c.travel = nil
	c.input = world.Input{}
	c.accum = 0
	c.log.Info("respawned at checkpoint", zap.Int("step", st.Step))
	return nil
}
