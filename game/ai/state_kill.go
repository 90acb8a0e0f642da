package ai

import "go.uber.org/zap"

// killState freezes the agent, waits KillDelay, then fires the target's
// death effect exactly once. Once fired the encounter is over and the state
// never leaves on its own.
type killState struct {
	timer float64
	fired bool
}

func (*killState) ID() StateID { return StateKill }

func (s *killState) Enter(a *Agent) {
	s.timer = 0
	s.fired = false
	a.nav.Stop()
}

func (s *killState) Update(a *Agent, dt float64) {
	if s.fired {
		return
	}
	if !a.target.IsKillable() {
		a.RequestTransition(StateChase, "target not killable")
		return
	}
	a.Pose.FaceTowards(a.target.CurrentPosition())
	s.timer += dt
	if !elapsed(s.timer, a.cfg.KillDelay) {
		return
	}
	s.fired = true
	a.target.Kill()
	a.kills++
	a.notify.TargetKilled(a.ID)
	a.logger.Info("target killed", zap.String("agent", a.ID))
}

func (*killState) Exit(a *Agent) {}
