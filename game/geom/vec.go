// Package geom holds the small 2D vector toolkit shared by perception,
// navigation and the simulation.
package geom

import "math"

// Vec2 is a point or direction on the ground plane.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// V is shorthand for Vec2{x, y}.
func V(x, y float64) Vec2 { return Vec2{X: x, Y: y} }

func (v Vec2) Add(o Vec2) Vec2      { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2      { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Scale(k float64) Vec2 { return Vec2{v.X * k, v.Y * k} }
func (v Vec2) Len() float64         { return math.Hypot(v.X, v.Y) }
func (v Vec2) Dist(o Vec2) float64  { return v.Sub(o).Len() }

// IsFinite reports whether both components are real numbers.
func (v Vec2) IsFinite() bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}

// Normalize returns the unit vector of v. ok is false for zero-length or
// non-finite input.
func (v Vec2) Normalize() (Vec2, bool) {
	l := v.Len()
	if l < 1e-9 || math.IsNaN(l) || math.IsInf(l, 0) {
		return Vec2{}, false
	}
	return Vec2{v.X / l, v.Y / l}, true
}

// Heading returns the angle of v in radians, 0 = +X, pi/2 = +Y.
func (v Vec2) Heading() float64 {
	return math.Atan2(v.Y, v.X)
}

// FromHeading returns the unit vector pointing along rad.
func FromHeading(rad float64) Vec2 {
	return Vec2{math.Cos(rad), math.Sin(rad)}
}

// NormalizeAngle wraps a to [-pi, pi].
func NormalizeAngle(a float64) float64 {
	if math.IsNaN(a) || math.IsInf(a, 0) {
		return a
	}
	a = math.Mod(a, 2*math.Pi)
	if a > math.Pi {
		a -= 2 * math.Pi
	} else if a < -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

// Pose is a position plus facing.
type Pose struct {
	Position Vec2   `json:"position"`
	Heading  float64 `json:"heading"` // radians
}

// Forward is the unit facing vector.
func (p Pose) Forward() Vec2 { return FromHeading(p.Heading) }

// FaceTowards turns the pose to look at target. A target on top of the pose
// leaves the heading unchanged.
func (p *Pose) FaceTowards(target Vec2) {
	if d, ok := target.Sub(p.Position).Normalize(); ok {
		p.Heading = d.Heading()
	}
}
