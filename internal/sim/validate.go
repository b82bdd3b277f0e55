package sim

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/doppelganger/rewind/internal/core/timeline"
	"github.com/doppelganger/rewind/internal/world"
)

// checkDivergence compares every doppelganger with the position history
// records for it at the cursor. Only recorded steps are checked.
func (c *Controller) checkDivergence() *Anomaly {
	st := c.state
	step := st.Step
	if step >= st.Frontier {
		return nil
	}
	for _, e := range c.Entities() {
		p, ok := e.(*world.Player)
		if !ok || p.ID() == st.CurrentPlayer || !p.Active() || p.Destroyed() {
			continue
		}
		h, ok := st.Histories.Get(p.ID())
		if !ok || h.Start > step {
			continue
		}
		rec := timeline.Get(h, world.FieldPosition, step, mgl64.Vec2{})
		if d := p.Position().Sub(rec).Len(); d > c.opts.DivergenceTolerance {
			return diverged(step, p.ID(), d)
		}
	}
	return nil
}

// checkMachines runs after the save. A machine activated this step must not
// have been counting down in the record of the previous step, and a machine
// may not run two different countdowns at once.
func (c *Controller) checkMachines() *Anomaly {
	st := c.state
	step := st.Step
	for _, e := range c.Entities() {
		m, ok := e.(*world.TimeMachine)
		if !ok || !m.Active() {
			continue
		}
		if m.ActivatedThisStep() && world.RecordedCountdown(st.Slice(m.ID(), step-1)) != timeline.Unset {
			return reactivated(step, m.ID())
		}
		hist, cur := m.Countdown.History, m.Countdown.Current
		if hist != timeline.Unset && cur != timeline.Unset && hist != cur {
			return countdownMismatch(step, m.ID(), hist, cur)
		}
	}
	return nil
}
