package world

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/doppelganger/rewind/internal/core/ecs"
	"github.com/doppelganger/rewind/internal/core/event"
)

const (
	GuardSpeed = 3.0
	// GuardSight is how far ahead a guard spots players.
	GuardSight = 8.0
	// GuardCooldown is the number of steps between shots.
	GuardCooldown = 45
)

var GuardSize = mgl64.Vec2{0.8, 1.8}

// GuardAction is what a guard does this step.
type GuardAction uint8

const (
	GuardIdle GuardAction = iota
	GuardWalk
	GuardTurn
	GuardShoot
)

var guardActionNames = [...]string{"idle", "walk", "turn", "shoot"}

func (a GuardAction) String() string {
	if int(a) < len(guardActionNames) {
		return guardActionNames[a]
	}
	return "unknown"
}

// ParseGuardAction maps a script result back to an action. Unknown names idle.
func ParseGuardAction(s string) GuardAction {
	for i, n := range guardActionNames {
		if n == s {
			return GuardAction(i)
		}
	}
	return GuardIdle
}

// GuardView is what a guard knows when deciding.
type GuardView struct {
	Step      int
	X, Y      float64
	Facing    int
	Cooldown  int
	PatrolMin float64
	PatrolMax float64
	// Target is the nearest visible player, ecs.None when nobody is in sight.
	Target         ecs.EntityID
	TargetDistance float64
}

// GuardBrain decides a guard's action. Decisions must depend only on the
// view so replays repeat them.
type GuardBrain interface {
	Decide(v GuardView) GuardAction
}

// DefaultBrain shoots whatever it sees and otherwise patrols.
type DefaultBrain struct{}

func (DefaultBrain) Decide(v GuardView) GuardAction {
	if v.Target != ecs.None {
		if v.Cooldown == 0 {
			return GuardShoot
		}
		return GuardIdle
	}
	if (v.Facing > 0 && v.X >= v.PatrolMax) || (v.Facing < 0 && v.X <= v.PatrolMin) {
		return GuardTurn
	}
	return GuardWalk
}

// Guard patrols between two x bounds and shoots players in its line of sight.
type Guard struct {
	Base
	Facing    int
	Cooldown  int
	PatrolMin float64
	PatrolMax float64
}

func NewGuard() *Guard {
	g := &Guard{}
	g.kind = KindGuard
	g.reset()
	return g
}

func (g *Guard) reset() {
	g.resetBase()
	g.size = GuardSize
	g.Facing = 1
	g.Cooldown = 0
	g.PatrolMin, g.PatrolMax = math.Inf(-1), math.Inf(1)
}

func (g *Guard) Save(s *Slice) {
	g.saveBase(s)
	s.SetInt(FieldFacing, g.Facing, 1)
	s.SetInt(FieldCooldown, g.Cooldown, 0)
	s.SetDestroyed(g.destroyed)
}

func (g *Guard) LoadForPlayback(s *Slice) {
	g.loadBase(s)
	g.Facing = s.Int(FieldFacing, 1)
	g.Cooldown = s.Int(FieldCooldown, 0)
}

func (g *Guard) ForceLoad(s *Slice) {
	g.LoadForPlayback(s)
	g.destroyed = s.Bool(FieldDestroyed)
}

func (g *Guard) CopyFrom(other Entity) error {
	if err := checkKind(g, other); err != nil {
		return err
	}
	o := other.(*Guard)
	g.copyBase(&o.Base)
	g.Facing, g.Cooldown = o.Facing, o.Cooldown
	g.PatrolMin, g.PatrolMax = o.PatrolMin, o.PatrolMax
	return nil
}

func (g *Guard) View(w Accessor) GuardView {
	v := GuardView{
		Step:      w.Step(),
		X:         g.pos.X(),
		Y:         g.pos.Y(),
		Facing:    g.Facing,
		Cooldown:  g.Cooldown,
		PatrolMin: g.PatrolMin,
		PatrolMax: g.PatrolMax,
	}
	sight := Rect{X: g.pos.X(), Y: g.pos.Y(), W: GuardSight + g.size.X(), H: g.size.Y()}
	if g.Facing < 0 {
		sight.X = g.pos.X() + g.size.X() - sight.W
	}
	best := math.Inf(1)
	for _, e := range w.Overlapping(sight, KindPlayer) {
		p, ok := e.(*Player)
		if !ok || p.Hidden() {
			continue
		}
		d := math.Abs(p.Bounds().Center().X() - g.Bounds().Center().X())
		if d < best && !g.blocked(w, p) {
			best = d
			v.Target = p.ID()
		}
	}
	if v.Target != ecs.None {
		v.TargetDistance = best
	}
	return v
}

// blocked reports whether a crate stands between the guard and p.
func (g *Guard) blocked(w Accessor, p *Player) bool {
	gx, px := g.Bounds().Center().X(), p.Bounds().Center().X()
	lane := Rect{X: math.Min(gx, px), Y: g.pos.Y(), W: math.Abs(px - gx), H: g.size.Y()}
	for _, e := range w.Overlapping(lane, KindCrate) {
		if e.Solid() {
			return true
		}
	}
	return false
}

func (g *Guard) Update(w Accessor) {
	if g.Cooldown > 0 {
		g.Cooldown--
	}
	brain := w.Brain()
	if brain == nil {
		brain = DefaultBrain{}
	}
	v := g.View(w)
	g.vel[0] = 0
	switch brain.Decide(v) {
	case GuardWalk:
		g.vel[0] = float64(g.Facing) * GuardSpeed
	case GuardTurn:
		g.Facing = -g.Facing
	case GuardShoot:
		if v.Target != ecs.None && g.Cooldown == 0 {
			w.Emit(event.Event{Source: g.id, Type: event.TypeShoot, Target: v.Target})
			g.Cooldown = GuardCooldown
		}
	}
}
