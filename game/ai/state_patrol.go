package ai

import "github.com/kasuganosora/stalker/game/geom"

type patrolState struct{}

func (*patrolState) ID() StateID { return StatePatrol }

func (*patrolState) Enter(a *Agent) {
	a.route.Resume()
}

func (*patrolState) Update(a *Agent, dt float64) {
	if a.CanSeeTarget() {
		tp := a.target.CurrentPosition()
		a.memory.See(a.Pose.Position, tp)
		a.RequestTransition(StateAlert, "target sighted")
		return
	}
	a.patrolTree.Tick(a)
}

func (*patrolState) Exit(a *Agent) {}

// PatrolRoute is a looping waypoint list. The cursor survives excursions
// into other states so the agent picks up where it left off.
type PatrolRoute struct {
	Waypoints []geom.Vec2

	index  int
	issued bool
}

// Current is the waypoint being walked to.
func (r *PatrolRoute) Current() (geom.Vec2, bool) {
	if r == nil || len(r.Waypoints) == 0 {
		return geom.Vec2{}, false
	}
	return r.Waypoints[r.index], true
}

// Index is the cursor into Waypoints.
func (r *PatrolRoute) Index() int { return r.index }

// Resume forces the current waypoint to be re-issued on the next tick.
func (r *PatrolRoute) Resume() {
	if r != nil {
		r.issued = false
	}
}

// Advance moves the cursor to the next waypoint, wrapping around.
func (r *PatrolRoute) Advance() {
	if r == nil || len(r.Waypoints) == 0 {
		return
	}
	r.index = (r.index + 1) % len(r.Waypoints)
	r.issued = false
}

// newPatrolTree builds the patrol movement behavior:
//
//	no route            -> stand still
//	arrived at waypoint -> advance
//	otherwise           -> walk to the current waypoint
func newPatrolTree(r *PatrolRoute) *BehaviorTree {
	return &BehaviorTree{Root: &Selector{Children: []Node{
		&Sequence{Children: []Node{
			Condition(func(*Agent) bool {
				_, ok := r.Current()
				return !ok
			}),
			Action(func(a *Agent) NodeStatus {
				if !r.issued {
					a.nav.Stop()
					r.issued = true
				}
				return NodeSuccess
			}),
		}},
		&Sequence{Children: []Node{
			Condition(func(a *Agent) bool {
				wp, _ := r.Current()
				return a.Pose.Position.Dist(wp) <= a.cfg.ArriveThreshold
			}),
			Action(func(*Agent) NodeStatus {
				r.Advance()
				return NodeSuccess
			}),
		}},
		Action(func(a *Agent) NodeStatus {
			wp, _ := r.Current()
			if !r.issued {
				a.nav.SetDestination(wp)
				r.issued = true
			}
			if !a.nav.HasValidPath() {
				// Unreachable waypoint: try the next one on the following tick.
				r.Advance()
				return NodeFailure
			}
			return NodeRunning
		}),
	}}}
}
