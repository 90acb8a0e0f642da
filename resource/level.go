package resource

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kasuganosora/stalker/game/geom"
	"github.com/kasuganosora/stalker/game/nav"
)

// ErrInvalidLevel is wrapped by every validation failure.
var ErrInvalidLevel = errors.New("invalid level")

// Point is a world position in level files, written as {x: 1.5, y: 2}.
type Point struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// Vec converts p to a geometry vector.
func (p Point) Vec() geom.Vec2 { return geom.V(p.X, p.Y) }

// AgentSpawn places one antagonist.
type AgentSpawn struct {
	ID       string  `yaml:"id"`
	Position Point   `yaml:"position"`
	Heading  float64 `yaml:"heading"` // degrees, counter-clockwise from +X
	Patrol   []Point `yaml:"patrol"`
}

// PatrolRoute returns the waypoints as vectors.
func (s AgentSpawn) PatrolRoute() []geom.Vec2 {
	out := make([]geom.Vec2, len(s.Patrol))
	for i, p := range s.Patrol {
		out[i] = p.Vec()
	}
	return out
}

// Pose returns the spawn pose with the heading in radians.
func (s AgentSpawn) Pose() geom.Pose {
	return geom.Pose{Position: s.Position.Vec(), Heading: s.Heading * math.Pi / 180}
}

// PlayerSpawn describes the scripted player.
type PlayerSpawn struct {
	Start          Point   `yaml:"start"`
	Route          []Point `yaml:"route"`
	Speed          float64 `yaml:"speed"`
	Running        bool    `yaml:"running"`
	FootstepRadius float64 `yaml:"footstep_radius"`
	FootstepEvery  float64 `yaml:"footstep_every"` // seconds between footstep sounds
	Hidden         bool    `yaml:"hidden"`
	Killable       *bool   `yaml:"killable"`
}

// IsKillable defaults to true when unset.
func (p PlayerSpawn) IsKillable() bool {
	return p.Killable == nil || *p.Killable
}

// Level is a parsed level file. Grid rows use '#' for walls and '.' for
// floor; row 0 is y = 0.
type Level struct {
	Name     string       `yaml:"name"`
	CellSize float64      `yaml:"cell_size"`
	Grid     []string     `yaml:"grid"`
	Agents   []AgentSpawn `yaml:"agents"`
	Player   PlayerSpawn  `yaml:"player"`
}

// LoadLevel reads and validates a level file.
func LoadLevel(path string) (*Level, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("resource: read %s: %w", path, err)
	}
	lvl, err := ParseLevel(data)
	if err != nil {
		return nil, fmt.Errorf("resource: %s: %w", path, err)
	}
	return lvl, nil
}

// ParseLevel decodes and validates level YAML.
func ParseLevel(data []byte) (*Level, error) {
	var lvl Level
	if err := yaml.Unmarshal(data, &lvl); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if lvl.CellSize == 0 {
		lvl.CellSize = 1
	}
	if lvl.Player.FootstepEvery == 0 {
		lvl.Player.FootstepEvery = 0.5
	}
	if err := lvl.Validate(); err != nil {
		return nil, err
	}
	return &lvl, nil
}

// Validate checks the grid shape and that every spawn stands on floor.
func (l *Level) Validate() error {
	if len(l.Grid) == 0 || len(l.Grid[0]) == 0 {
		return fmt.Errorf("%w: empty grid", ErrInvalidLevel)
	}
	if l.CellSize <= 0 {
		return fmt.Errorf("%w: cell_size must be positive", ErrInvalidLevel)
	}
	width := len(l.Grid[0])
	for y, row := range l.Grid {
		if len(row) != width {
			return fmt.Errorf("%w: row %d has %d cells, want %d", ErrInvalidLevel, y, len(row), width)
		}
		for x, ch := range row {
			if ch != '#' && ch != '.' {
				return fmt.Errorf("%w: unknown tile %q at (%d,%d)", ErrInvalidLevel, ch, x, y)
			}
		}
	}

	g := l.BuildGrid()
	for i, a := range l.Agents {
		if !g.WalkableAt(a.Position.Vec()) {
			return fmt.Errorf("%w: agent %d spawns inside a wall", ErrInvalidLevel, i)
		}
		for j, wp := range a.Patrol {
			if !g.WalkableAt(wp.Vec()) {
				return fmt.Errorf("%w: agent %d waypoint %d is not walkable", ErrInvalidLevel, i, j)
			}
		}
	}
	if !g.WalkableAt(l.Player.Start.Vec()) {
		return fmt.Errorf("%w: player spawns inside a wall", ErrInvalidLevel)
	}
	if l.Player.Speed < 0 || l.Player.FootstepRadius < 0 {
		return fmt.Errorf("%w: negative player speed or footstep radius", ErrInvalidLevel)
	}
	return nil
}

// BuildGrid converts the tile rows into a navigation grid.
func (l *Level) BuildGrid() *nav.Grid {
	g := nav.NewGrid(len(l.Grid[0]), len(l.Grid), l.CellSize)
	for y, row := range l.Grid {
		for x, ch := range row {
			if ch == '#' {
				g.SetBlocked(nav.Cell{X: x, Y: y}, true)
			}
		}
	}
	return g
}
