// Package sim runs the temporal simulation: the fixed-step loop, the replay
// of recorded history, time travel and the anomaly checks that keep the
// doppelgangers honest.
package sim

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/doppelganger/rewind/internal/config"
	"github.com/doppelganger/rewind/internal/core/ecs"
	"github.com/doppelganger/rewind/internal/core/event"
	"github.com/doppelganger/rewind/internal/core/system"
	"github.com/doppelganger/rewind/internal/data"
	"github.com/doppelganger/rewind/internal/world"
)

// ErrNotRunning is returned by Step outside the Running mode.
var ErrNotRunning = errors.New("simulation not running")

// Mode is the controller's state machine.
type Mode uint8

const (
	Running Mode = iota
	RewindAnimating
	Paused
	Finished
)

var modeNames = [...]string{"running", "rewind-animating", "paused", "finished"}

func (m Mode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return "unknown"
}

// Options are the tunables of the step loop.
type Options struct {
	FixedDelta               time.Duration
	DivergenceTolerance      float64
	RewindMultiplier         float64
	RewindDuration           time.Duration
	FastForwardStepsPerFrame int
}

func DefaultOptions() Options {
	return Options{
		FixedDelta:               time.Second / 60,
		DivergenceTolerance:      0.75,
		RewindMultiplier:         10,
		RewindDuration:           time.Second,
		FastForwardStepsPerFrame: 20,
	}
}

func OptionsFromConfig(cfg config.SimulationConfig) Options {
	return Options{
		FixedDelta:               cfg.FixedDelta,
		DivergenceTolerance:      cfg.DivergenceTolerance,
		RewindMultiplier:         cfg.RewindMultiplier,
		RewindDuration:           cfg.RewindDuration,
		FastForwardStepsPerFrame: cfg.FastForwardStepsPerFrame,
	}
}

// Deps contains the collaborators the controller needs.
type Deps struct {
	Level   *data.Level
	Physics Physics
	Exit    LevelExit        // defaults to the level's exit zones
	Brain   world.GuardBrain // defaults to world.DefaultBrain
	Hooks   Hooks            // defaults to NopHooks
	Log     *zap.Logger
	Options Options
}

// pendingTravel is a live time travel accepted during the events phase and
// carried out after the step completes.
type pendingTravel struct {
	machine ecs.EntityID
	jump    int
}

// Controller owns one simulation. It is not safe for concurrent use; run
// several controllers for several simulations.
type Controller struct {
	deps Deps
	opts Options
	log  *zap.Logger

	state *world.State
	mode  Mode

	runner   *system.Runner
	bus      *event.Bus
	access   *access
	entities *ecs.Store[world.Entity]
	scene    map[ecs.EntityID]world.Entity
	pools    map[world.Kind]*ecs.Pool[world.Entity]
	releases *ecs.ReleaseQueue

	input      world.Input
	accum      time.Duration
	travel     *pendingTravel
	checkpoint *world.State
	anomaly    *Anomaly
	stepsRun   int
	travels    int
}

// New builds a controller and loads the level's scene.
func New(deps Deps) (*Controller, error) {
	if deps.Level == nil {
		return nil, fmt.Errorf("new controller: level is required")
	}
	if deps.Physics == nil {
		return nil, fmt.Errorf("new controller: physics is required")
	}
	if deps.Exit == nil {
		deps.Exit = deps.Level.ExitZones()
	}
	if deps.Brain == nil {
		deps.Brain = world.DefaultBrain{}
	}
	if deps.Hooks == nil {
		deps.Hooks = NopHooks{}
	}
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if deps.Options == (Options{}) {
		deps.Options = DefaultOptions()
	}

	c := &Controller{
		deps:     deps,
		opts:     deps.Options,
		log:      deps.Log.With(zap.String("level", deps.Level.Name)),
		runner:   system.NewRunner(),
		bus:      event.NewBus(),
		releases: ecs.NewReleaseQueue(),
		pools:    make(map[world.Kind]*ecs.Pool[world.Entity], 8),
	}
	c.access = &access{c: c}
	for _, k := range world.Kinds() {
		c.pools[k] = newPool(k)
	}
	c.registerPhases()
	c.registerHandlers()
	if err := c.loadScene(); err != nil {
		return nil, err
	}
	return c, nil
}

func newPool(k world.Kind) *ecs.Pool[world.Entity] {
	return ecs.NewPool(
		func() world.Entity {
			e, err := world.New(k)
			if err != nil {
				panic(fmt.Sprintf("pool %s: %v", k, err))
			}
			return e
		},
		func(e world.Entity, id ecs.EntityID) {
			world.Reset(e)
			world.Bind(e, id, true)
		},
		func(e world.Entity) { e.SetActive(false) },
	)
}

// loadScene builds a fresh state from the level: the player at the spawn
// point plus every placed entity, none of them pooled.
func (c *Controller) loadScene() error {
	lv := c.deps.Level
	c.state = world.NewState(lv.Name)
	c.entities = ecs.NewStore[world.Entity]()
	c.scene = make(map[ecs.EntityID]world.Entity, len(lv.Entities)+1)
	c.deps.Physics.Reset()

	player := world.NewPlayer()
	c.addScene(player, lv.Spawn.Vec(), nil)
	c.state.CurrentPlayer = player.ID()

	for i, ent := range lv.Entities {
		k, err := world.ParseKind(ent.Kind)
		if err != nil {
			return fmt.Errorf("load scene entity %d: %w", i, err)
		}
		e, err := world.New(k)
		if err != nil {
			return fmt.Errorf("load scene entity %d: %w", i, err)
		}
		c.addScene(e, data.PointEntry{X: ent.X, Y: ent.Y}.Vec(), ent.Params)
	}
	c.mode = Running
	c.travel, c.anomaly, c.checkpoint = nil, nil, nil
	c.input, c.accum = world.Input{}, 0
	c.log.Info("scene loaded",
		zap.Int("entities", c.entities.Len()),
		zap.Int32("player", int32(player.ID())),
	)
	return nil
}

func (c *Controller) addScene(e world.Entity, pos mgl64.Vec2, params map[string]float64) {
	id := c.state.IDs.Next()
	world.Bind(e, id, false)
	world.Configure(e, pos, params)
	c.scene[id] = e
	c.state.Kinds[id] = e.Kind()
	c.register(e)
}

// register makes e live: visible to lookups and moved by physics.
func (c *Controller) register(e world.Entity) {
	c.entities.Set(e.ID(), e)
	c.state.Referenced[e.ID()] = true
	c.deps.Physics.Track(e)
}

// spawn acquires a runtime entity with a fresh ID.
func (c *Controller) spawn(k world.Kind, pos mgl64.Vec2) (world.Entity, error) {
	pool, ok := c.pools[k]
	if !ok {
		return nil, fmt.Errorf("spawn %s: no pool", k)
	}
	id := c.state.IDs.Next()
	e, err := pool.Acquire(id)
	if err != nil {
		return nil, fmt.Errorf("spawn %s: %w", k, err)
	}
	e.SetPosition(pos)
	c.state.Kinds[id] = k
	c.register(e)
	return e, nil
}

// materialize brings back the instance for a recorded ID: a scene entity is
// reactivated, anything else is re-acquired from its pool under the same ID.
func (c *Controller) materialize(id ecs.EntityID) (world.Entity, error) {
	if e, ok := c.scene[id]; ok {
		e.SetActive(true)
		e.SetDestroyed(false)
		c.register(e)
		return e, nil
	}
	k, ok := c.state.Kinds[id]
	if !ok {
		return nil, fmt.Errorf("materialize %d: unknown kind", id)
	}
	e, err := c.pools[k].Acquire(id)
	if err != nil {
		return nil, fmt.Errorf("materialize %d: %w", id, err)
	}
	c.register(e)
	return e, nil
}

// despawn takes id out of the live set: pooled instances go back to their
// pool, scene instances are deactivated and kept.
func (c *Controller) despawn(id ecs.EntityID) {
	e, ok := c.entities.Get(id)
	if !ok {
		return
	}
	c.deps.Physics.Untrack(id)
	c.entities.Remove(id)
	delete(c.state.Referenced, id)
	if !e.ShouldPool() {
		e.SetActive(false)
		return
	}
	if err := c.pools[e.Kind()].Release(id); err != nil {
		c.log.Warn("release pooled entity", zap.Int32("id", int32(id)), zap.Error(err))
	}
}

// despawnAll empties the live set.
func (c *Controller) despawnAll() {
	for _, id := range c.entities.IDs() {
		c.despawn(id)
	}
}

// live returns the live player's instance.
func (c *Controller) live() (*world.Player, bool) {
	e, ok := c.entities.Get(c.state.CurrentPlayer)
	if !ok || !e.Active() {
		return nil, false
	}
	p, ok := e.(*world.Player)
	return p, ok
}

// Step runs one simulation step. A *Anomaly error means the controller is
// now Paused.
func (c *Controller) Step() error {
	if c.mode != Running {
		return fmt.Errorf("step %d in mode %s: %w", c.state.Step, c.mode, ErrNotRunning)
	}
	halted, err := c.runner.Tick(c.opts.FixedDelta)
	if err != nil {
		c.releases.Flush(c.despawn)
		var a *Anomaly
		if errors.As(err, &a) {
			c.pause(a)
			return a
		}
		return fmt.Errorf("step %d: %w", c.state.Step, err)
	}
	if halted {
		return nil
	}
	if c.travel != nil {
		t := c.travel
		c.travel = nil
		if err := c.timeTravel(t); err != nil {
			return fmt.Errorf("time travel at step %d: %w", t.jump, err)
		}
	}
	return nil
}

func (c *Controller) pause(a *Anomaly) {
	c.mode = Paused
	c.anomaly = a
	c.travel = nil
	c.state.SkipTarget = world.NoSkip
	anomaliesTotal.WithLabelValues(a.Rule.String()).Inc()
	c.log.Warn("time anomaly",
		zap.String("rule", a.Rule.String()),
		zap.String("title", a.Title),
		zap.Int32("entity", int32(a.EntityID)),
		zap.Int("step", a.Step),
	)
	c.deps.Hooks.OnAnomaly(a)
}

// Frame advances the simulation by dt of real time: whole fixed steps while
// Running (or a burst of steps toward a skip target), one rewind tick while
// animating, nothing otherwise. When several steps run, the horizontal input
// is held for all of them and presses fire on the first only.
func (c *Controller) Frame(dt time.Duration) error {
	switch c.mode {
	case RewindAnimating:
		_, err := c.TickRewind(dt)
		return err
	case Running:
	default:
		return nil
	}

	if c.state.SkipTarget != world.NoSkip {
		for i := 0; i < c.opts.FastForwardStepsPerFrame && c.mode == Running; i++ {
			if c.state.Step >= c.state.SkipTarget {
				break
			}
			if err := c.Step(); err != nil {
				return err
			}
		}
		if c.state.Step >= c.state.SkipTarget || c.mode != Running {
			c.state.SkipTarget = world.NoSkip
		}
		c.accum = 0
		return nil
	}

	c.accum += dt
	held := world.Input{X: c.input.X}
	for first := true; c.accum >= c.opts.FixedDelta && c.mode == Running; first = false {
		c.accum -= c.opts.FixedDelta
		if !first {
			c.input = held
		}
		if err := c.Step(); err != nil {
			return err
		}
	}
	return nil
}

// SetInput sets the live player's intent for the next step, or for every
// step of the next Frame.
func (c *Controller) SetInput(in world.Input) { c.input = in }

// SkipTo fast-forwards to step over the next frames. Targets at or behind
// the cursor are ignored.
func (c *Controller) SkipTo(step int) {
	if step > c.state.Step {
		c.state.SkipTarget = step
	}
}

// Retry rebuilds the level from scratch.
func (c *Controller) Retry() error {
	c.despawnAll()
	if err := c.loadScene(); err != nil {
		return fmt.Errorf("retry: %w", err)
	}
	c.log.Info("level retried")
	return nil
}

func (c *Controller) Mode() Mode { return c.mode }
func (c *Controller) Cursor() int { return c.state.Step }
func (c *Controller) Frontier() int { return c.state.Frontier }
func (c *Controller) Present() bool { return c.state.Present }
func (c *Controller) LivePlayer() ecs.EntityID { return c.state.CurrentPlayer }
func (c *Controller) Anomaly() *Anomaly { return c.anomaly }
func (c *Controller) StepsRun() int { return c.stepsRun }
func (c *Controller) TimeTravels() int { return c.travels }
func (c *Controller) State() *world.State { return c.state }

// Entity returns the live instance for id.
func (c *Controller) Entity(id ecs.EntityID) (world.Entity, bool) {
	return c.entities.Get(id)
}

// Entities returns the live instances in ascending ID order.
func (c *Controller) Entities() []world.Entity {
	out := make([]world.Entity, 0, c.entities.Len())
	c.entities.Each(func(_ ecs.EntityID, e world.Entity) {
		out = append(out, e)
	})
	return out
}
