package ai

import "go.uber.org/zap"

// alertState walks to the last known position, stares the target down when
// it shows up, and falls back to a search once the position is reached.
type alertState struct {
	staring   bool
	stare     float64
	searching bool
	search    *Search
}

func (*alertState) ID() StateID { return StateAlert }

func (s *alertState) Enter(a *Agent) {
	s.resetStare()
	s.searching = false
	a.nav.SetDestination(a.memory.LastKnownPosition)
}

func (s *alertState) Update(a *Agent, dt float64) {
	if a.TargetInKillRange() {
		a.RequestTransition(StateKill, "target in kill range")
		return
	}

	if a.CanSeeTarget() {
		if s.searching {
			// Sight beats the search: drop it and stare.
			s.search.Cancel()
			s.searching = false
			a.logger.Debug("target reacquired during search", zap.String("agent", a.ID))
		}
		tp := a.target.CurrentPosition()
		if !s.staring {
			s.staring = true
			s.stare = 0
			a.nav.Stop()
			a.notify.EnemySpotted(a.ID)
		}
		a.Pose.FaceTowards(tp)
		a.memory.See(a.Pose.Position, tp)
		s.stare += dt
		if elapsed(s.stare, a.cfg.StareDuration) {
			a.RequestTransition(StateChase, "stare completed")
		}
		return
	}

	if s.staring {
		// Partial stares never carry over.
		s.resetStare()
		a.notify.EnemyLostTarget(a.ID)
		a.nav.SetDestination(a.memory.LastKnownPosition)
		return
	}

	if s.searching {
		switch s.search.Update(a, dt) {
		case SearchExhausted:
			s.searching = false
			a.RequestTransition(StatePatrol, "search exhausted")
		case SearchReacquired:
			s.searching = false
		}
		return
	}

	lkp := a.memory.LastKnownPosition
	if a.arrivedAt(lkp) {
		a.nav.Stop()
		if s.search == nil {
			s.search = newSearch(a)
		}
		s.search.Start(a, lkp, a.memory.LastSeenDirection)
		s.searching = true
		return
	}
	if !a.nav.HasValidPath() {
		a.RequestTransition(StatePatrol, "last known position unreachable")
	}
}

func (s *alertState) Exit(a *Agent) {
	if s.search != nil {
		s.search.Cancel()
	}
	s.searching = false
	s.resetStare()
}

func (s *alertState) resetStare() {
	s.staring = false
	s.stare = 0
}
