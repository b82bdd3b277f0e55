package sim

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/doppelganger/rewind/internal/core/ecs"
	"github.com/doppelganger/rewind/internal/core/timeline"
	"github.com/doppelganger/rewind/internal/world"
)

// timeTravel sends the live player back to the step its machine was
// activated on. The old player becomes a doppelganger that leaves the world
// at the jump step; a successor with a fresh ID takes over at the target.
func (c *Controller) timeTravel(t *pendingTravel) error {
	st := c.state
	jump := t.jump

	e, ok := c.entities.Get(t.machine)
	if !ok {
		return fmt.Errorf("machine %d not live", t.machine)
	}
	m, ok := e.(*world.TimeMachine)
	if !ok {
		return fmt.Errorf("entity %d is a %s, not a machine", t.machine, e.Kind())
	}
	target := m.ActivatedAt
	if target == timeline.Unset || target >= jump {
		c.log.Warn("time travel ignored",
			zap.Int32("machine", int32(m.ID())),
			zap.Int("activated_at", target),
			zap.Int("jump", jump),
		)
		return nil
	}
	old, ok := c.live()
	if !ok {
		return fmt.Errorf("no live player")
	}

	succ, err := c.spawn(world.KindPlayer, old.Position())
	if err != nil {
		return err
	}
	next := succ.(*world.Player)
	if err := next.CopyFrom(old); err != nil {
		return err
	}
	next.Held = ecs.None
	next.Input = world.Input{}

	if old.Held != ecs.None {
		if err := c.carryAcross(old, next, target, jump); err != nil {
			return err
		}
	}

	old.SetDestroyed(true)
	old.Save(st.SaveSlice(old.ID(), jump, true))

	next.Save(st.SaveSlice(next.ID(), target, true))
	st.Tracked[next.ID()] = true
	st.CurrentPlayer = next.ID()

	// The entered machine starts over at the target: its countdown lives on
	// only in the record between the two. Once the doppelganger has gone
	// through at the jump it is free again.
	m.ClearDual()
	m.Save(st.SaveSlice(m.ID(), jump, true))
	m.Save(st.SaveSlice(m.ID(), target, true))

	for _, id := range st.TrackedIDs() {
		if id == m.ID() {
			continue
		}
		other, ok := c.entities.Get(id)
		if !ok {
			continue
		}
		om, ok := other.(*world.TimeMachine)
		if !ok {
			continue
		}
		om.ForceLoad(st.Slice(id, target))
		om.ClearCurrent()
		om.Save(st.SaveSlice(id, target, true))
	}

	// Whatever the old player set in motion beyond the jump is gone.
	st.Events.ClearAfter(jump)

	c.travels++
	timeTravelsTotal.Inc()
	rewindDistance.Observe(float64(jump - target))
	c.log.Info("time travel",
		zap.Int32("machine", int32(m.ID())),
		zap.Int32("from_player", int32(old.ID())),
		zap.Int32("to_player", int32(next.ID())),
		zap.Int("jump", jump),
		zap.Int("target", target),
	)

	st.Rewind = world.Rewind{
		Active:  true,
		Frame:   float64(jump),
		From:    jump,
		Target:  target,
		Machine: m.ID(),
	}
	c.mode = RewindAnimating
	c.deps.Hooks.OnRewindEffect(true)
	return nil
}

// carryAcross clones the held item into the successor's hands at target and
// retires the original at the jump, where the doppelganger takes it along.
func (c *Controller) carryAcross(old, next *world.Player, target, jump int) error {
	st := c.state
	item, ok := c.entities.Get(old.Held)
	old.Held = ecs.None
	if !ok {
		return nil
	}
	clone, err := c.spawn(item.Kind(), item.Position())
	if err != nil {
		return err
	}
	if err := clone.CopyFrom(item); err != nil {
		c.despawn(clone.ID())
		return err
	}
	if carried, ok := clone.(world.Carryable); ok {
		carried.SetHeldBy(next.ID())
	}
	next.Held = clone.ID()
	clone.Save(st.SaveSlice(clone.ID(), target, true))
	st.Tracked[clone.ID()] = true

	if carried, ok := item.(world.Carryable); ok {
		carried.SetHeldBy(ecs.None)
	}
	item.SetDestroyed(true)
	item.Save(st.SaveSlice(item.ID(), jump, true))
	st.Tracked[item.ID()] = true
	c.despawn(item.ID())
	return nil
}
