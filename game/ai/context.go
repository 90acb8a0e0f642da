package ai

import (
	"github.com/kasuganosora/stalker/game/bus"
	"github.com/kasuganosora/stalker/game/geom"
)

// NavigationPort is the pathfinding collaborator that moves the agent's body.
// The core only issues destinations and asks questions; path execution
// happens on the other side.
type NavigationPort interface {
	SetDestination(pos geom.Vec2)
	Stop()
	HasValidPath() bool
	RemainingDistance() float64
	ComputePathLength(from, to geom.Vec2) (float64, error)
	SnapToTraversable(pos geom.Vec2, tolerance float64) (geom.Vec2, error)
}

// Target is the hunted entity (the player).
type Target interface {
	CurrentPosition() geom.Vec2
	IsKillable() bool
	// IsHidden reports the "hidden" condition (lockers, under beds) in which
	// noises made by the target are ignored.
	IsHidden() bool
	// Kill applies the death effect. Implementations must be idempotent.
	Kill()
}

// Notifier receives contact announcements for UI and other agents.
type Notifier interface {
	EnemySpotted(agentID string)
	EnemyLostTarget(agentID string)
	TargetKilled(agentID string)
}

// SoundSource delivers broadcast sounds synchronously to subscribers.
type SoundSource interface {
	Subscribe(fn func(bus.SoundEvent)) (unsubscribe func())
}

// ObstructionQuery answers whether the segment from → to is blocked.
type ObstructionQuery interface {
	Blocked(from, to geom.Vec2, dist float64) bool
}

type nopNotifier struct{}

func (nopNotifier) EnemySpotted(string)    {}
func (nopNotifier) EnemyLostTarget(string) {}
func (nopNotifier) TargetKilled(string)    {}
