package ai

// StateID enumerates the behavior states of an agent.
type StateID int

const (
	StatePatrol StateID = iota
	StateAlert          // investigating a sighting or a noise
	StateChase          // pursuing a confirmed target
	StateKill           // executing the target
)

func (s StateID) String() string {
	switch s {
	case StatePatrol:
		return "patrol"
	case StateAlert:
		return "alert"
	case StateChase:
		return "chase"
	case StateKill:
		return "kill"
	}
	return "unknown"
}

// MarshalText lets StateID appear as its name in JSON.
func (s StateID) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// State is one node of the behavior machine. Enter/Update/Exit receive the
// owning agent and may only change the active state through
// Agent.RequestTransition.
type State interface {
	ID() StateID
	Enter(a *Agent)
	Update(a *Agent, dt float64)
	Exit(a *Agent)
}

func newState(id StateID) State {
	switch id {
	case StateAlert:
		return &alertState{}
	case StateChase:
		return &chaseState{}
	case StateKill:
		return &killState{}
	default:
		return &patrolState{}
	}
}
