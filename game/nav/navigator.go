package nav

import (
	"math"

	"github.com/kasuganosora/stalker/game/geom"
)

// Navigator follows grid paths for a single agent body. It satisfies the
// agent's navigation port; Advance is driven by the level loop.
type Navigator struct {
	grid      *Grid
	tolerance float64
	locate    func() geom.Vec2

	path     []geom.Vec2
	dest     geom.Vec2
	destCell Cell
	hasDest  bool
	valid    bool
}

// NewNavigator creates a navigator over g. Destinations off the walkable
// area are snapped within tolerance.
func NewNavigator(g *Grid, tolerance float64) *Navigator {
	return &Navigator{grid: g, tolerance: tolerance, valid: true}
}

// Bind sets the function reporting the body's current position.
func (n *Navigator) Bind(locate func() geom.Vec2) {
	n.locate = locate
}

func (n *Navigator) position() geom.Vec2 {
	if n.locate == nil {
		return geom.Vec2{}
	}
	return n.locate()
}

// SetDestination plans a path to pos. An unreachable destination clears
// the path and makes HasValidPath report false until the next command.
func (n *Navigator) SetDestination(pos geom.Vec2) {
	dest, err := n.grid.Snap(pos, n.tolerance)
	if err != nil {
		n.fail()
		return
	}
	cell := n.grid.CellOf(dest)

	// same goal cell while a path is being followed: only the end point moves
	if n.hasDest && n.valid && cell == n.destCell && len(n.path) > 0 {
		n.path[len(n.path)-1] = dest
		n.dest = dest
		return
	}

	path, err := n.plan(n.position(), dest)
	if err != nil {
		n.fail()
		return
	}
	n.path = path
	n.dest = dest
	n.destCell = cell
	n.hasDest = true
	n.valid = true
}

func (n *Navigator) fail() {
	n.path = nil
	n.hasDest = true
	n.valid = false
}

// Stop clears the current path.
func (n *Navigator) Stop() {
	n.path = nil
	n.hasDest = false
	n.valid = true
}

// HasValidPath is false only after an unreachable destination.
func (n *Navigator) HasValidPath() bool { return n.valid }

// Destination returns the active goal, if any.
func (n *Navigator) Destination() (geom.Vec2, bool) {
	return n.dest, n.hasDest && n.valid
}

// RemainingDistance is the length of the rest of the path from the
// current position.
func (n *Navigator) RemainingDistance() float64 {
	if !n.hasDest || !n.valid || len(n.path) == 0 {
		return 0
	}
	return polyline(n.position(), n.path)
}

// ComputePathLength returns the walking distance between two points.
func (n *Navigator) ComputePathLength(from, to geom.Vec2) (float64, error) {
	path, err := n.plan(from, to)
	if err != nil {
		return 0, err
	}
	return polyline(from, path), nil
}

// SnapToTraversable returns the nearest walkable point within tolerance.
func (n *Navigator) SnapToTraversable(pos geom.Vec2, tolerance float64) (geom.Vec2, error) {
	return n.grid.Snap(pos, tolerance)
}

// Advance moves pose along the path by at most speed*dt and turns it to
// face the direction of travel. Returns the distance covered.
func (n *Navigator) Advance(pose *geom.Pose, dt, speed float64) float64 {
	if pose == nil || !n.hasDest || !n.valid || dt <= 0 || speed <= 0 {
		return 0
	}
	budget := speed * dt
	moved := 0.0
	for budget > 0 && len(n.path) > 0 {
		next := n.path[0]
		step := next.Sub(pose.Position)
		d := step.Len()
		if d <= budget {
			pose.Position = next
			n.path = n.path[1:]
			budget -= d
			moved += d
		} else {
			pose.Position = pose.Position.Add(step.Scale(budget / d))
			moved += budget
			budget = 0
		}
		if d > 0 {
			pose.Heading = step.Heading()
		}
	}
	return moved
}

// plan returns world waypoints from `from` to `to`, excluding `from` and
// ending exactly at `to`.
func (n *Navigator) plan(from, to geom.Vec2) ([]geom.Vec2, error) {
	start, err := n.grid.Snap(from, n.tolerance)
	if err != nil {
		return nil, err
	}
	goal, err := n.grid.Snap(to, n.tolerance)
	if err != nil {
		return nil, err
	}
	cells := AStar(n.grid, n.grid.CellOf(start), n.grid.CellOf(goal))
	if cells == nil {
		return nil, ErrNoPath
	}

	path := make([]geom.Vec2, 0, len(cells)+1)
	if start != from {
		path = append(path, start)
	}
	for i, c := range cells {
		if i == len(cells)-1 {
			break
		}
		path = append(path, n.grid.Center(c))
	}
	return append(path, goal), nil
}

func polyline(from geom.Vec2, pts []geom.Vec2) float64 {
	total := 0.0
	prev := from
	for _, p := range pts {
		total += prev.Dist(p)
		prev = p
	}
	return total
}

// LineOfSight blocks sight lines that cross wall cells.
type LineOfSight struct {
	Grid *Grid
}

// Blocked samples the segment every half cell and reports whether any
// sample falls on a non-walkable cell. The endpoints themselves are not tested.
func (l LineOfSight) Blocked(from, to geom.Vec2, dist float64) bool {
	if l.Grid == nil {
		return false
	}
	if dist <= 0 || math.IsNaN(dist) {
		dist = from.Dist(to)
	}
	step := l.Grid.CellSize / 2
	n := int(math.Ceil(dist / step))
	if n <= 1 {
		return false
	}
	fromCell, toCell := l.Grid.CellOf(from), l.Grid.CellOf(to)
	for i := 1; i < n; i++ {
		p := from.Add(to.Sub(from).Scale(float64(i) / float64(n)))
		c := l.Grid.CellOf(p)
		if c == fromCell || c == toCell {
			continue
		}
		if !l.Grid.Walkable(c) {
			return true
		}
	}
	return false
}
