package sim

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/doppelganger/rewind/internal/core/ecs"
	"github.com/doppelganger/rewind/internal/core/event"
	"github.com/doppelganger/rewind/internal/core/system"
	"github.com/doppelganger/rewind/internal/world"
)

func (c *Controller) registerPhases() {
	c.runner.Register(&loadSystem{c})
	c.runner.Register(&physicsSystem{c})
	c.runner.Register(&mergeSystem{c})
	c.runner.Register(&exitSystem{c})
	c.runner.Register(&eventSystem{c})
	c.runner.Register(&updateSystem{c})
	c.runner.Register(&interactSystem{c})
	c.runner.Register(&validateBeforeSystem{c})
	c.runner.Register(&saveSystem{c})
	c.runner.Register(&validateAfterSystem{c})
	c.runner.Register(&advanceSystem{c})
}

// loadSystem brings every tracked entity in line with the record for the
// cursor step.
type loadSystem struct{ c *Controller }

func (s *loadSystem) Phase() system.Phase { return system.PhaseLoad }

func (s *loadSystem) Update(time.Duration) error {
	return s.c.loadAt(s.c.state.Step, false)
}

// loadAt makes the live set match the record at step. Entities that exist
// in the record but have no instance are materialized and force-loaded.
// With force every instance is force-loaded and transient entities are
// dropped; otherwise existing instances are played back, except the live
// player whose input is authoritative.
func (c *Controller) loadAt(step int, force bool) error {
	st := c.state
	if force {
		for _, id := range c.entities.IDs() {
			if e, _ := c.entities.Get(id); !e.Trackable() {
				c.despawn(id)
			}
		}
	}
	for _, id := range st.TrackedIDs() {
		e, live := c.entities.Get(id)
		if !st.ExistsAt(id, step) {
			if live && (force || id != st.CurrentPlayer) {
				c.despawn(id)
			}
			continue
		}
		sl := st.Slice(id, step)
		if !live {
			var err error
			if e, err = c.materialize(id); err != nil {
				return err
			}
			e.ForceLoad(sl)
			continue
		}
		switch {
		case force:
			e.ForceLoad(sl)
		case id != st.CurrentPlayer:
			c.playback(e, step)
		}
	}
	return nil
}

// playback applies the record the step starts from, which is what the
// previous step saved, then what the entity is recorded doing during step.
func (c *Controller) playback(e world.Entity, step int) {
	st := c.state
	if h, ok := st.Histories.Get(e.ID()); ok && h.Start < step {
		e.LoadForPlayback(st.Slice(e.ID(), step-1))
	}
	if in, ok := e.(world.Intender); ok {
		in.LoadIntent(st.Slice(e.ID(), step))
	}
}

// syncPhysics runs the physics phase alone with no elapsed time, which
// re-syncs bodies with positions set by a force load.
func (c *Controller) syncPhysics() error {
	return c.runner.TickPhase(system.PhasePhysics, 0)
}

type physicsSystem struct{ c *Controller }

func (s *physicsSystem) Phase() system.Phase { return system.PhasePhysics }

func (s *physicsSystem) Update(dt time.Duration) error {
	s.c.deps.Physics.Simulate(dt.Seconds())
	return nil
}

// mergeSystem folds the machines' history phase into the current one when
// the cursor catches up with the frontier.
type mergeSystem struct{ c *Controller }

func (s *mergeSystem) Phase() system.Phase { return system.PhaseMerge }

func (s *mergeSystem) Update(time.Duration) error {
	st := s.c.state
	if st.Present || st.Step < st.Frontier {
		return nil
	}
	s.c.entities.Each(func(_ ecs.EntityID, e world.Entity) {
		if m, ok := e.(*world.TimeMachine); ok {
			m.MergeDual()
		}
	})
	st.Present = true
	s.c.log.Debug("returned to present", zap.Int("step", st.Step))
	return nil
}

type exitSystem struct{ c *Controller }

func (s *exitSystem) Phase() system.Phase { return system.PhaseExit }

func (s *exitSystem) Update(time.Duration) error {
	c := s.c
	p, ok := c.live()
	if !ok || p.Destroyed() || !c.deps.Exit.Touching(p) {
		return nil
	}
	c.mode = Finished
	c.state.Completed = true
	c.log.Info("level complete",
		zap.Int("step", c.state.Step),
		zap.Int("steps_run", c.stepsRun),
		zap.Int("time_travels", c.travels),
	)
	c.deps.Hooks.OnLevelComplete(c.state.Level, c.stepsRun)
	return system.ErrHalt
}

// eventSystem executes the events due on the cursor step in recording order.
type eventSystem struct{ c *Controller }

func (s *eventSystem) Phase() system.Phase { return system.PhaseEvents }

func (s *eventSystem) Update(time.Duration) error {
	c := s.c
	step := c.state.Step
	for _, ev := range c.state.Events.At(step) {
		err := c.bus.Dispatch(step, ev)
		if err == nil {
			continue
		}
		var a *Anomaly
		if errors.As(err, &a) {
			return a
		}
		c.log.Warn("event skipped",
			zap.String("type", ev.Type.String()),
			zap.Int32("source", int32(ev.Source)),
			zap.Int32("target", int32(ev.Target)),
			zap.Int("step", step),
			zap.Error(err),
		)
	}
	return nil
}

type updateSystem struct{ c *Controller }

func (s *updateSystem) Phase() system.Phase { return system.PhaseUpdate }

func (s *updateSystem) Update(time.Duration) error {
	c := s.c
	if p, ok := c.live(); ok {
		p.Input = c.input
	}
	c.entities.Each(func(_ ecs.EntityID, e world.Entity) {
		if e.Active() && !e.Destroyed() {
			e.Update(c.access)
		}
	})
	return nil
}

// interactSystem turns the live player's activate press into an activation
// of the first machine it touches that accepts it.
type interactSystem struct{ c *Controller }

func (s *interactSystem) Phase() system.Phase { return system.PhaseInteract }

func (s *interactSystem) Update(time.Duration) error {
	c := s.c
	p, ok := c.live()
	if !ok || p.Destroyed() || p.Hidden() || !p.Input.Activate {
		return nil
	}
	for _, e := range c.access.Overlapping(p.Bounds(), world.KindMachine) {
		if m, ok := e.(*world.TimeMachine); ok && m.CanActivate() {
			c.access.Emit(event.Event{Source: p.ID(), Type: event.TypeActivateMachine, Target: m.ID()})
			return nil
		}
	}
	return nil
}

type validateBeforeSystem struct{ c *Controller }

func (s *validateBeforeSystem) Phase() system.Phase { return system.PhaseValidateBefore }

func (s *validateBeforeSystem) Update(time.Duration) error {
	if a := s.c.checkDivergence(); a != nil {
		return a
	}
	return nil
}

// saveSystem records every live trackable entity at the cursor step and
// releases whatever was destroyed.
type saveSystem struct{ c *Controller }

func (s *saveSystem) Phase() system.Phase { return system.PhaseSave }

func (s *saveSystem) Update(time.Duration) error {
	c := s.c
	st := c.state
	step := st.Step
	var fault *Anomaly
	c.entities.Each(func(id ecs.EntityID, e world.Entity) {
		if fault != nil || !e.Active() {
			return
		}
		if !e.Trackable() {
			if e.Destroyed() {
				c.releases.Mark(id)
			}
			return
		}
		if e.Destroyed() && id == st.CurrentPlayer {
			fault = presentSelfDestroyed(step, id)
			return
		}
		e.Save(st.SaveSlice(id, step, false))
		st.Tracked[id] = true
		if e.Destroyed() {
			c.releases.Mark(id)
		}
	})
	c.releases.Flush(c.despawn)
	if fault != nil {
		return fault
	}
	return nil
}

type validateAfterSystem struct{ c *Controller }

func (s *validateAfterSystem) Phase() system.Phase { return system.PhaseValidateAfter }

func (s *validateAfterSystem) Update(time.Duration) error {
	if a := s.c.checkMachines(); a != nil {
		return a
	}
	return nil
}

type advanceSystem struct{ c *Controller }

func (s *advanceSystem) Phase() system.Phase { return system.PhaseAdvance }

func (s *advanceSystem) Update(time.Duration) error {
	c := s.c
	st := c.state
	c.entities.Each(func(_ ecs.EntityID, e world.Entity) {
		if m, ok := e.(*world.TimeMachine); ok {
			m.EndStep()
		}
	})
	c.input = world.Input{}
	st.Step++
	if st.Step > st.Frontier {
		st.Frontier = st.Step
	}
	c.stepsRun++
	stepsTotal.Inc()
	referencedEntities.Set(float64(len(st.Referenced)))
	if c.stepsRun%60 == 0 {
		timelineDeltas.Set(float64(st.Histories.Deltas()))
	}
	return nil
}
