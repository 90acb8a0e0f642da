package world

import (
	"github.com/kasuganosora/stalker/game/geom"
	"github.com/kasuganosora/stalker/resource"
)

// Player is the scripted target. It walks its route in a loop and, when
// running, makes footstep noise. Only the level goroutine touches it.
type Player struct {
	pos      geom.Vec2
	route    []geom.Vec2
	routeIdx int
	speed    float64
	running  bool

	footstepRadius float64
	footstepEvery  float64
	stepTimer      float64

	hidden   bool
	killable bool
	alive    bool
	deaths   int
}

// NewPlayer builds a player from its level spawn.
func NewPlayer(spawn resource.PlayerSpawn) *Player {
	route := make([]geom.Vec2, len(spawn.Route))
	for i, p := range spawn.Route {
		route[i] = p.Vec()
	}
	return &Player{
		pos:            spawn.Start.Vec(),
		route:          route,
		speed:          spawn.Speed,
		running:        spawn.Running,
		footstepRadius: spawn.FootstepRadius,
		footstepEvery:  spawn.FootstepEvery,
		hidden:         spawn.Hidden,
		killable:       spawn.IsKillable(),
		alive:          true,
	}
}

func (p *Player) CurrentPosition() geom.Vec2 { return p.pos }
func (p *Player) IsKillable() bool           { return p.alive && p.killable }
func (p *Player) IsHidden() bool             { return p.hidden }
func (p *Player) Alive() bool                { return p.alive }

// Kill marks the player dead. Repeated calls have no further effect.
func (p *Player) Kill() {
	if !p.alive {
		return
	}
	p.alive = false
	p.deaths++
}

// advance walks toward the current route point and returns the distance covered.
// Dead or hidden players stay put.
func (p *Player) advance(dt float64) float64 {
	if !p.alive || p.hidden || len(p.route) == 0 || p.speed <= 0 || dt <= 0 {
		return 0
	}
	budget := p.speed * dt
	moved := 0.0
	for hops := 0; budget > 0 && hops <= len(p.route); hops++ {
		next := p.route[p.routeIdx]
		d := p.pos.Dist(next)
		if d <= budget {
			p.pos = next
			p.routeIdx = (p.routeIdx + 1) % len(p.route)
			budget -= d
			moved += d
			continue
		}
		p.pos = p.pos.Add(next.Sub(p.pos).Scale(budget / d))
		moved += budget
		break
	}
	return moved
}

// footstep reports whether a footstep sound is due after moving this tick.
func (p *Player) footstep(dt, moved float64) bool {
	if !p.running || moved <= 0 || p.footstepRadius <= 0 {
		p.stepTimer = 0
		return false
	}
	p.stepTimer += dt
	if p.stepTimer+1e-9 < p.footstepEvery {
		return false
	}
	p.stepTimer = 0
	return true
}

// PlayerStatus is the debug view of the player.
type PlayerStatus struct {
	Position geom.Vec2 `json:"position"`
	Hidden   bool      `json:"hidden"`
	Killable bool      `json:"killable"`
	Alive    bool      `json:"alive"`
	Running  bool      `json:"running"`
	Deaths   int       `json:"deaths"`
}

func (p *Player) status() PlayerStatus {
	return PlayerStatus{
		Position: p.pos,
		Hidden:   p.hidden,
		Killable: p.killable,
		Alive:    p.alive,
		Running:  p.running,
		Deaths:   p.deaths,
	}
}
