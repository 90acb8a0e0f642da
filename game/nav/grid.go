// Package nav is a tile-grid implementation of the navigation collaborator:
// A* pathfinding, destination following and line-of-sight over walls.
package nav

import (
	"errors"
	"math"

	"github.com/kasuganosora/stalker/game/geom"
)

var (
	// ErrNoPath is returned when two points are not connected.
	ErrNoPath = errors.New("nav: no path")
	// ErrNotTraversable is returned when no walkable cell is near enough.
	ErrNotTraversable = errors.New("nav: not traversable")
)

// Cell is a grid coordinate.
type Cell struct {
	X, Y int
}

// Grid is a rectangular walkability map. Cell (x, y) covers world
// [x*CellSize, (x+1)*CellSize) on each axis.
type Grid struct {
	Width    int
	Height   int
	CellSize float64

	blocked []bool
}

// NewGrid creates a grid with every cell walkable.
func NewGrid(w, h int, cellSize float64) *Grid {
	if cellSize <= 0 {
		cellSize = 1
	}
	return &Grid{
		Width:    w,
		Height:   h,
		CellSize: cellSize,
		blocked:  make([]bool, w*h),
	}
}

// SetBlocked marks a cell as wall (true) or floor (false). Out of bounds is ignored.
func (g *Grid) SetBlocked(c Cell, blocked bool) {
	if !g.InBounds(c) {
		return
	}
	g.blocked[c.Y*g.Width+c.X] = blocked
}

// InBounds reports whether c lies on the grid.
func (g *Grid) InBounds(c Cell) bool {
	return c.X >= 0 && c.X < g.Width && c.Y >= 0 && c.Y < g.Height
}

// Walkable reports whether c is on the grid and not a wall.
func (g *Grid) Walkable(c Cell) bool {
	return g.InBounds(c) && !g.blocked[c.Y*g.Width+c.X]
}

// CellOf returns the cell containing p.
func (g *Grid) CellOf(p geom.Vec2) Cell {
	return Cell{
		X: int(math.Floor(p.X / g.CellSize)),
		Y: int(math.Floor(p.Y / g.CellSize)),
	}
}

// Center returns the world position of the middle of c.
func (g *Grid) Center(c Cell) geom.Vec2 {
	return geom.V((float64(c.X)+0.5)*g.CellSize, (float64(c.Y)+0.5)*g.CellSize)
}

// WalkableAt reports whether the world point p is on a walkable cell.
func (g *Grid) WalkableAt(p geom.Vec2) bool {
	return p.IsFinite() && g.Walkable(g.CellOf(p))
}

// Snap returns p itself when it is on a walkable cell, otherwise the
// nearest walkable cell centre no further than tolerance from p.
func (g *Grid) Snap(p geom.Vec2, tolerance float64) (geom.Vec2, error) {
	if !p.IsFinite() {
		return geom.Vec2{}, ErrNotTraversable
	}
	if g.WalkableAt(p) {
		return p, nil
	}
	origin := g.CellOf(p)
	rings := int(math.Ceil(tolerance/g.CellSize)) + 1
	best, bestDist := geom.Vec2{}, math.Inf(1)
	for dy := -rings; dy <= rings; dy++ {
		for dx := -rings; dx <= rings; dx++ {
			c := Cell{origin.X + dx, origin.Y + dy}
			if !g.Walkable(c) {
				continue
			}
			center := g.Center(c)
			if d := center.Dist(p); d <= tolerance && d < bestDist {
				best, bestDist = center, d
			}
		}
	}
	if math.IsInf(bestDist, 1) {
		return geom.Vec2{}, ErrNotTraversable
	}
	return best, nil
}
