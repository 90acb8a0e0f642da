package ai

import (
	"math"

	"github.com/kasuganosora/stalker/game/geom"
)

// Vision is a view cone with an occlusion test. It holds no per-tick state
// and is safe to query every frame.
type Vision struct {
	FOV         float64 // full cone width, radians
	Distance    float64 // max sight range; <= 0 means unlimited
	Obstruction ObstructionQuery
}

// CanSee reports whether target is inside the cone of observer and nothing
// blocks the line between them. Degenerate input is "not seen".
func (v Vision) CanSee(observer geom.Pose, target geom.Vec2) bool {
	if !observer.Position.IsFinite() || !target.IsFinite() || math.IsNaN(observer.Heading) {
		return false
	}
	delta := target.Sub(observer.Position)
	dir, ok := delta.Normalize()
	if !ok {
		return false
	}
	dist := delta.Len()
	if v.Distance > 0 && dist > v.Distance {
		return false
	}
	diff := geom.NormalizeAngle(dir.Heading() - observer.Heading)
	if math.Abs(diff) > v.FOV/2 {
		return false
	}
	if v.Obstruction == nil {
		return true
	}
	return !v.Obstruction.Blocked(observer.Position, target, dist)
}
