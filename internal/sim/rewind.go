package sim

import (
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/doppelganger/rewind/internal/world"
)

// AnimationStatus reports the progress of a rewind animation.
type AnimationStatus uint8

const (
	InProgress AnimationStatus = iota
	Complete
)

func (s AnimationStatus) String() string {
	if s == Complete {
		return "complete"
	}
	return "in-progress"
}

// TickRewind plays the rewind animation back by dt of real time. Each tick
// shows the recorded world at the current frame; on reaching the target the
// simulation resumes one step after it.
func (c *Controller) TickRewind(dt time.Duration) (AnimationStatus, error) {
	if c.mode != RewindAnimating {
		return Complete, nil
	}
	rw := &c.state.Rewind
	dist := float64(rw.From - rw.Target)
	rate := math.Max(
		c.opts.RewindMultiplier/c.opts.FixedDelta.Seconds(),
		dist/c.opts.RewindDuration.Seconds(),
	)
	rw.Frame = math.Max(rw.Frame-rate*dt.Seconds(), float64(rw.Target))

	frame := int(math.Ceil(rw.Frame))
	if frame > rw.Target {
		if err := c.showFrame(frame); err != nil {
			return InProgress, err
		}
		return InProgress, nil
	}
	if err := c.finishRewind(); err != nil {
		return Complete, err
	}
	return Complete, nil
}

// showFrame force-loads the world at step. The live player is hidden: it
// would otherwise stand at every frame the animation passes through.
func (c *Controller) showFrame(step int) error {
	if err := c.loadAt(step, true); err != nil {
		return err
	}
	if p, ok := c.live(); ok {
		p.SetHidden(true)
	}
	return c.syncPhysics()
}

func (c *Controller) finishRewind() error {
	st := c.state
	rw := st.Rewind
	c.deps.Hooks.OnMachineOpened(rw.Machine)
	if err := c.loadAt(rw.Target, true); err != nil {
		return err
	}
	if p, ok := c.live(); ok {
		p.SetHidden(false)
	}
	if err := c.syncPhysics(); err != nil {
		return err
	}

	st.Step = rw.Target + 1
	st.Present = false
	st.Rewind = world.Rewind{}
	c.mode = Running
	c.accum = 0
	c.deps.Hooks.OnRewindEffect(false)

	if c.checkpoint == nil {
		c.checkpoint = st.Clone()
		c.log.Debug("checkpoint taken", zap.Int("step", st.Step))
	}
	c.log.Debug("rewind complete", zap.Int("cursor", st.Step), zap.Int("frontier", st.Frontier))
	return nil
}
