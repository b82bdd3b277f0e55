package world

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Rect is an axis-aligned box with its origin at the top-left corner.
// Y grows downward.
type Rect struct {
	X, Y, W, H float64
}

func RectAt(pos, size mgl64.Vec2) Rect {
	return Rect{X: pos.X(), Y: pos.Y(), W: size.X(), H: size.Y()}
}

func (r Rect) Center() mgl64.Vec2 {
	return mgl64.Vec2{r.X + r.W/2, r.Y + r.H/2}
}

// Overlaps reports strict overlap; touching edges do not count.
func (r Rect) Overlaps(o Rect) bool {
	return r.X < o.X+o.W && o.X < r.X+r.W && r.Y < o.Y+o.H && o.Y < r.Y+r.H
}

// Expand grows the box by m on every side.
func (r Rect) Expand(m float64) Rect {
	return Rect{X: r.X - m, Y: r.Y - m, W: r.W + 2*m, H: r.H + 2*m}
}

// DistanceTo returns the distance from p to the nearest point of r.
func (r Rect) DistanceTo(p mgl64.Vec2) float64 {
	dx := math.Max(math.Max(r.X-p.X(), 0), p.X()-(r.X+r.W))
	dy := math.Max(math.Max(r.Y-p.Y(), 0), p.Y()-(r.Y+r.H))
	return math.Hypot(dx, dy)
}

// ExitZones is the default level-exit collaborator: the live player
// finishes the level by overlapping any zone.
type ExitZones []Rect

func (z ExitZones) Touching(e Entity) bool {
	if e == nil || e.Destroyed() || !e.Active() {
		return false
	}
	b := e.Bounds()
	for _, r := range z {
		if r.Overlaps(b) {
			return true
		}
	}
	return false
}
