package sim

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/doppelganger/rewind/internal/core/ecs"
	"github.com/doppelganger/rewind/internal/core/event"
	"github.com/doppelganger/rewind/internal/world"
)

// ThrowSpeed is the horizontal speed a dropped item leaves the player with.
const ThrowSpeed = 4.0

// errSkipped marks an event whose effect no longer applies. The step goes on.
var errSkipped = errors.New("event skipped")

func (c *Controller) registerHandlers() {
	c.bus.Subscribe(event.TypeGrab, c.onGrab)
	c.bus.Subscribe(event.TypeDrop, c.onDrop)
	c.bus.Subscribe(event.TypeExplode, c.onExplode)
	c.bus.Subscribe(event.TypeShoot, c.onShoot)
	c.bus.Subscribe(event.TypeActivateMachine, c.onActivate)
	c.bus.Subscribe(event.TypeTimeTravel, c.onTimeTravel)
}

func (c *Controller) sourcePlayer(ev event.Event) (*world.Player, error) {
	e, ok := c.access.Entity(ev.Source)
	if !ok {
		return nil, fmt.Errorf("source %d absent: %w", ev.Source, errSkipped)
	}
	p, ok := e.(*world.Player)
	if !ok {
		return nil, fmt.Errorf("source %d is a %s: %w", ev.Source, e.Kind(), errSkipped)
	}
	return p, nil
}

func (c *Controller) targetItem(ev event.Event) (world.Carryable, error) {
	e, ok := c.access.Entity(ev.Target)
	if !ok {
		return nil, fmt.Errorf("target %d absent: %w", ev.Target, errSkipped)
	}
	it, ok := e.(world.Carryable)
	if !ok {
		return nil, fmt.Errorf("target %d is a %s: %w", ev.Target, e.Kind(), errSkipped)
	}
	return it, nil
}

func (c *Controller) onGrab(_ int, ev event.Event) error {
	p, err := c.sourcePlayer(ev)
	if err != nil {
		return err
	}
	it, err := c.targetItem(ev)
	if err != nil {
		return err
	}
	if holder := it.HeldBy(); holder != ecs.None && holder != p.ID() {
		return fmt.Errorf("target %d held by %d: %w", it.ID(), holder, errSkipped)
	}
	if p.Held != ecs.None && p.Held != it.ID() {
		return fmt.Errorf("player %d already holds %d: %w", p.ID(), p.Held, errSkipped)
	}
	p.Held = it.ID()
	it.SetHeldBy(p.ID())
	it.SetPosition(p.CarryPoint(it.Size()))
	return nil
}

// onDrop sets the item down in front of the player. Explosives are armed
// when they leave the hand.
func (c *Controller) onDrop(_ int, ev event.Event) error {
	p, err := c.sourcePlayer(ev)
	if err != nil {
		return err
	}
	it, err := c.targetItem(ev)
	if err != nil {
		return err
	}
	if it.HeldBy() != p.ID() {
		return fmt.Errorf("target %d not held by %d: %w", it.ID(), p.ID(), errSkipped)
	}
	it.SetHeldBy(ecs.None)
	p.Held = ecs.None
	vel := mgl64.Vec2{float64(p.Facing) * ThrowSpeed, 0}
	it.SetMotion(it.Position(), vel, false)
	if x, ok := it.(*world.Explosive); ok {
		x.Arm()
	}
	return nil
}

// onExplode replaces the explosive with a blast of its radius.
func (c *Controller) onExplode(_ int, ev event.Event) error {
	e, ok := c.access.Entity(ev.Source)
	if !ok {
		return fmt.Errorf("explosive %d absent: %w", ev.Source, errSkipped)
	}
	x, ok := e.(*world.Explosive)
	if !ok {
		return fmt.Errorf("source %d is a %s: %w", ev.Source, e.Kind(), errSkipped)
	}
	center := x.Bounds().Center()
	world.Destroy(c.access, x)
	blast, err := c.spawn(world.KindExplosion, center)
	if err != nil {
		return err
	}
	blast.(*world.Explosion).Place(center, x.Radius)
	return nil
}

func (c *Controller) onShoot(_ int, ev event.Event) error {
	if _, ok := c.access.Entity(ev.Source); !ok {
		return fmt.Errorf("guard %d absent: %w", ev.Source, errSkipped)
	}
	target, ok := c.access.Entity(ev.Target)
	if !ok {
		return fmt.Errorf("target %d absent: %w", ev.Target, errSkipped)
	}
	world.Destroy(c.access, target)
	return nil
}

// onActivate starts a machine. A recorded activation whose author is gone
// means history can no longer happen.
func (c *Controller) onActivate(step int, ev event.Event) error {
	if _, ok := c.access.Entity(ev.Source); !ok {
		return symmetryBroken(step, ev.Source)
	}
	e, ok := c.access.Entity(ev.Target)
	if !ok {
		return fmt.Errorf("machine %d absent: %w", ev.Target, errSkipped)
	}
	m, ok := e.(*world.TimeMachine)
	if !ok {
		return fmt.Errorf("target %d is a %s: %w", ev.Target, e.Kind(), errSkipped)
	}
	m.Activate(step)
	return nil
}

// onTimeTravel either queues the live player's jump for the end of the step
// or takes a doppelganger, and whatever it carries, out of the world.
func (c *Controller) onTimeTravel(step int, ev event.Event) error {
	src, ok := c.access.Entity(ev.Source)
	if !ok {
		return symmetryBroken(step, ev.Source)
	}
	p, ok := src.(*world.Player)
	if !ok {
		return fmt.Errorf("source %d is a %s: %w", ev.Source, src.Kind(), errSkipped)
	}
	if ev.Source == c.state.CurrentPlayer {
		if _, ok := c.entities.Get(ev.Target); !ok {
			return fmt.Errorf("machine %d absent: %w", ev.Target, errSkipped)
		}
		c.travel = &pendingTravel{machine: ev.Target, jump: step}
		return nil
	}
	if p.Held != ecs.None {
		if it, ok := c.access.Entity(p.Held); ok {
			world.Destroy(c.access, it)
		}
	}
	world.Destroy(c.access, p)
	return nil
}
