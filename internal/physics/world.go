// Package physics moves simulated bodies under gravity and resolves their
// axis-aligned collisions against level solids and solid bodies.
package physics

import (
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/solarlune/resolv"

	"github.com/doppelganger/rewind/internal/core/ecs"
	"github.com/doppelganger/rewind/internal/world"
)

const (
	tagSolid = "solid"
	tagBody  = "body"
	epsilon  = 1e-9
)

// Config controls the integration. Y grows downward.
type Config struct {
	Gravity  float64
	MaxFall  float64
	CellSize int
}

func DefaultConfig() Config {
	return Config{Gravity: 30, MaxFall: 20, CellSize: 2}
}

type body struct {
	e   world.Entity
	obj *resolv.Object
}

// World is the default physics collaborator, a resolv space holding static
// level solids plus one object per tracked entity.
type World struct {
	cfg    Config
	space  *resolv.Space
	solids map[*resolv.Object]bool
	bodies map[ecs.EntityID]*body
	owner  map[*resolv.Object]ecs.EntityID
	order  []ecs.EntityID
}

// New builds a space covering bounds and registers the static solids.
func New(cfg Config, bounds world.Rect, solids []world.Rect) *World {
	if cfg.CellSize <= 0 {
		cfg.CellSize = DefaultConfig().CellSize
	}
	w := int(math.Ceil(bounds.X + bounds.W))
	h := int(math.Ceil(bounds.Y + bounds.H))
	pw := &World{
		cfg:    cfg,
		space:  resolv.NewSpace(max(w, 1), max(h, 1), cfg.CellSize, cfg.CellSize),
		solids: make(map[*resolv.Object]bool, len(solids)),
		bodies: make(map[ecs.EntityID]*body, 32),
		owner:  make(map[*resolv.Object]ecs.EntityID, 32),
	}
	for _, r := range solids {
		obj := resolv.NewObject(r.X, r.Y, r.W, r.H, tagSolid)
		pw.space.Add(obj)
		pw.solids[obj] = true
	}
	return pw
}

// Track starts moving e. Tracking an ID twice replaces the instance.
func (w *World) Track(e world.Entity) {
	id := e.ID()
	if b, ok := w.bodies[id]; ok {
		b.e = e
		w.sync(b)
		return
	}
	r := e.Bounds()
	obj := resolv.NewObject(r.X, r.Y, r.W, r.H, tagBody)
	w.space.Add(obj)
	w.bodies[id] = &body{e: e, obj: obj}
	w.owner[obj] = id
	i, _ := slices.BinarySearch(w.order, id)
	w.order = slices.Insert(w.order, i, id)
}

func (w *World) Untrack(id ecs.EntityID) {
	b, ok := w.bodies[id]
	if !ok {
		return
	}
	w.space.Remove(b.obj)
	delete(w.owner, b.obj)
	delete(w.bodies, id)
	if i, found := slices.BinarySearch(w.order, id); found {
		w.order = slices.Delete(w.order, i, i+1)
	}
}

// Reset drops every tracked body. Static solids stay.
func (w *World) Reset() {
	for _, id := range slices.Clone(w.order) {
		w.Untrack(id)
	}
}

func (w *World) Len() int { return len(w.bodies) }

// Simulate advances every kinematic body by dt seconds in ascending ID
// order. Simulate(0) only re-syncs the space with entity positions.
func (w *World) Simulate(dt float64) {
	for _, id := range w.order {
		w.sync(w.bodies[id])
	}
	if dt <= 0 {
		return
	}
	for _, id := range w.order {
		b := w.bodies[id]
		if !b.e.Kinematic() {
			continue
		}
		w.step(b, dt)
	}
}

func (w *World) sync(b *body) {
	r := b.e.Bounds()
	b.obj.X, b.obj.Y, b.obj.W, b.obj.H = r.X, r.Y, r.W, r.H
	b.obj.Update()
}

func (w *World) step(b *body, dt float64) {
	vel := b.e.Velocity()
	vel[1] = math.Min(vel.Y()+w.cfg.Gravity*dt, w.cfg.MaxFall)
	r := b.e.Bounds()

	dx := clampX(r, vel.X()*dt, w.blockers(b, vel.X()*dt, 0))
	if dx != vel.X()*dt {
		vel[0] = 0
	}
	r.X += dx

	want := vel.Y() * dt
	b.obj.X = r.X
	b.obj.Update()
	dy := clampY(r, want, w.blockers(b, 0, want))
	onGround := false
	if dy != want {
		onGround = want > 0
		vel[1] = 0
	}
	r.Y += dy

	b.e.SetMotion(mgl64.Vec2{r.X, r.Y}, vel, onGround)
	w.sync(b)
}

// blockers returns the bounds of every solid the body could touch when
// moved by (dx, dy).
func (w *World) blockers(b *body, dx, dy float64) []world.Rect {
	col := b.obj.Check(dx, dy)
	if col == nil {
		return nil
	}
	out := make([]world.Rect, 0, len(col.Objects))
	for _, o := range col.Objects {
		if o == b.obj {
			continue
		}
		if !w.solids[o] {
			id, ok := w.owner[o]
			if !ok || !w.bodies[id].e.Solid() {
				continue
			}
		}
		out = append(out, world.Rect{X: o.X, Y: o.Y, W: o.W, H: o.H})
	}
	return out
}

func clampX(r world.Rect, dx float64, blockers []world.Rect) float64 {
	for _, s := range blockers {
		if r.Y+r.H <= s.Y+epsilon || s.Y+s.H <= r.Y+epsilon {
			continue
		}
		if dx > 0 && s.X >= r.X+r.W-epsilon {
			dx = math.Min(dx, s.X-(r.X+r.W))
		} else if dx < 0 && s.X+s.W <= r.X+epsilon {
			dx = math.Max(dx, s.X+s.W-r.X)
		}
	}
	return dx
}

func clampY(r world.Rect, dy float64, blockers []world.Rect) float64 {
	for _, s := range blockers {
		if r.X+r.W <= s.X+epsilon || s.X+s.W <= r.X+epsilon {
			continue
		}
		if dy > 0 && s.Y >= r.Y+r.H-epsilon {
			dy = math.Min(dy, s.Y-(r.Y+r.H))
		} else if dy < 0 && s.Y+s.H <= r.Y+epsilon {
			dy = math.Max(dy, s.Y+s.H-r.Y)
		}
	}
	return dy
}
