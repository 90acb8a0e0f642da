package ai

import "github.com/kasuganosora/stalker/game/geom"

type chaseState struct {
	lastSeen geom.Vec2
	prevSeen geom.Vec2
	seen     bool
}

func (*chaseState) ID() StateID { return StateChase }

func (s *chaseState) Enter(a *Agent) {
	tp := a.target.CurrentPosition()
	s.lastSeen, s.prevSeen, s.seen = tp, tp, true
	a.nav.SetDestination(tp)
}

func (s *chaseState) Update(a *Agent, dt float64) {
	// Not killable means not in range, so an invulnerable target is simply chased.
	if a.TargetInKillRange() {
		a.RequestTransition(StateKill, "target in kill range")
		return
	}
	if !a.CanSeeTarget() {
		a.memory.See(a.Pose.Position, s.lastSeen)
		// Prefer the direction the target was moving in over the bearing.
		if d, ok := s.lastSeen.Sub(s.prevSeen).Normalize(); ok {
			a.memory.LastSeenDirection = d
		}
		a.notify.EnemyLostTarget(a.ID)
		a.RequestTransition(StateAlert, "sight lost")
		return
	}
	tp := a.target.CurrentPosition()
	if tp != s.lastSeen {
		s.prevSeen = s.lastSeen
		s.lastSeen = tp
	}
	a.memory.See(a.Pose.Position, tp)
	a.nav.SetDestination(tp)
}

func (*chaseState) Exit(a *Agent) {}
