package ai

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"github.com/kasuganosora/stalker/game/bus"
	"github.com/kasuganosora/stalker/game/geom"
	"go.uber.org/zap"
)

// Deps are the collaborators an Agent is wired to at construction.
type Deps struct {
	Nav         NavigationPort
	Target      Target
	Obstruction ObstructionQuery
	Notifier    Notifier    // optional
	Sounds      SoundSource // optional; nil means deaf
	Logger      *zap.Logger // optional
	Rand        *rand.Rand  // optional
}

// Options are the per-instance settings of an Agent.
type Options struct {
	ID     string // generated when empty
	Pose   geom.Pose
	Patrol []geom.Vec2
	Config Config
	// OnTransition is called after every committed transition.
	OnTransition func(Transition)
}

// Transition describes one committed state change.
type Transition struct {
	AgentID  string    `json:"agent_id"`
	From     StateID   `json:"from"`
	To       StateID   `json:"to"`
	Reason   string    `json:"reason"`
	Tick     uint64    `json:"tick"`
	Time     float64   `json:"time"`
	Position geom.Vec2 `json:"position"`
}

// ErrMissingDependency is returned by NewAgent when a required collaborator
// is nil.
var ErrMissingDependency = errors.New("ai: missing dependency")

// Agent is the antagonist: it owns its pose, its perception and exactly one
// active State. Agents are driven by Update from a single goroutine.
type Agent struct {
	ID   string
	Pose geom.Pose

	cfg     Config
	nav     NavigationPort
	target  Target
	vision  Vision
	hearing Hearing
	notify  Notifier
	logger  *zap.Logger
	rng     *rand.Rand

	route      *PatrolRoute
	patrolTree *BehaviorTree
	memory     Memory

	state         State
	transitioning bool
	committed     bool
	pendingSound  *bus.SoundEvent
	unsubscribe   func()
	onTransition  func(Transition)

	tick        uint64
	clock       float64
	transitions int
	kills       int
}

// NewAgent wires an agent and enters Patrol.
func NewAgent(deps Deps, opts Options) (*Agent, error) {
	if deps.Nav == nil {
		return nil, fmt.Errorf("%w: navigation port", ErrMissingDependency)
	}
	if deps.Target == nil {
		return nil, fmt.Errorf("%w: target", ErrMissingDependency)
	}
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}
	a := &Agent{
		ID:           opts.ID,
		Pose:         opts.Pose,
		cfg:          opts.Config,
		nav:          deps.Nav,
		target:       deps.Target,
		notify:       deps.Notifier,
		logger:       deps.Logger,
		rng:          deps.Rand,
		onTransition: opts.OnTransition,
		vision: Vision{
			FOV:         opts.Config.ViewAngle,
			Distance:    opts.Config.ViewDistance,
			Obstruction: deps.Obstruction,
		},
		hearing: Hearing{Radius: opts.Config.HearingRadius},
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.notify == nil {
		a.notify = nopNotifier{}
	}
	if a.logger == nil {
		a.logger = zap.NewNop()
	}
	if a.rng == nil {
		a.rng = rand.New(rand.NewSource(rand.Int63()))
	}
	a.route = &PatrolRoute{Waypoints: append([]geom.Vec2(nil), opts.Patrol...)}
	a.patrolTree = newPatrolTree(a.route)
	if deps.Sounds != nil {
		a.unsubscribe = deps.Sounds.Subscribe(a.onSound)
	}

	a.state = newState(StatePatrol)
	a.state.Enter(a)
	return a, nil
}

// Close detaches the agent from the sound channel.
func (a *Agent) Close() {
	if a.unsubscribe != nil {
		a.unsubscribe()
		a.unsubscribe = nil
	}
	a.pendingSound = nil
}

// Update runs one simulation tick of dt seconds.
func (a *Agent) Update(dt float64) {
	a.tick++
	a.clock += dt
	a.committed = false

	if ev := a.pendingSound; ev != nil {
		a.pendingSound = nil
		a.reactToSound(*ev)
		if a.committed {
			return
		}
	}
	a.state.Update(a, dt)
}

// RequestTransition exits the current state and enters to. Only one
// transition is committed per tick; requests made during a transition or
// after one was committed this tick are dropped and false is returned.
func (a *Agent) RequestTransition(to StateID, reason string) bool {
	if a.transitioning || a.committed {
		a.logger.Debug("transition request ignored",
			zap.String("agent", a.ID),
			zap.Stringer("to", to),
			zap.String("reason", reason))
		return false
	}
	a.transitioning = true
	from := a.state
	from.Exit(a)
	next := newState(to)
	a.state = next
	next.Enter(a)
	a.transitioning = false
	a.committed = true
	a.transitions++

	t := Transition{
		AgentID:  a.ID,
		From:     from.ID(),
		To:       to,
		Reason:   reason,
		Tick:     a.tick,
		Time:     a.clock,
		Position: a.Pose.Position,
	}
	a.logger.Info("state transition",
		zap.String("agent", a.ID),
		zap.Stringer("from", t.From),
		zap.Stringer("to", t.To),
		zap.String("reason", reason),
		zap.Uint64("tick", a.tick))
	if a.onTransition != nil {
		a.onTransition(t)
	}
	return true
}

// onSound is the synchronous sound channel callback. The hidden check comes
// first so a hidden target never causes any work. Heard sounds are queued
// and acted on at the start of the agent's next Update.
func (a *Agent) onSound(ev bus.SoundEvent) {
	if a.target.IsHidden() {
		return
	}
	if !a.hearing.Heard(a.Pose.Position, ev) {
		return
	}
	if a.engaged() {
		return
	}
	// Newest sound wins.
	a.pendingSound = &ev
}

func (a *Agent) reactToSound(ev bus.SoundEvent) {
	if a.engaged() {
		return
	}
	// Sight and kill range outrank noise; the state's Update handles both.
	if a.CanSeeTarget() || (a.state.ID() == StateAlert && a.TargetInKillRange()) {
		a.logger.Debug("sound dropped, target in sight",
			zap.String("agent", a.ID),
			zap.Stringer("state", a.state.ID()))
		return
	}
	a.memory.Apply(a.Pose.Position, Stimulus{
		Kind:      StimulusSound,
		Position:  ev.Position,
		Radius:    ev.Radius,
		Timestamp: ev.Timestamp,
	})
	a.RequestTransition(StateAlert, "heard sound")
}

// engaged reports Chase or Kill, where sounds are ignored.
func (a *Agent) engaged() bool {
	id := a.state.ID()
	return id == StateChase || id == StateKill
}

// CanSeeTarget runs the vision query against the target. A hidden target
// cannot be seen.
func (a *Agent) CanSeeTarget() bool {
	if a.target.IsHidden() {
		return false
	}
	return a.vision.CanSee(a.Pose, a.target.CurrentPosition())
}

// TargetInKillRange reports a killable target within KillRange.
func (a *Agent) TargetInKillRange() bool {
	if !a.target.IsKillable() {
		return false
	}
	return a.Pose.Position.Dist(a.target.CurrentPosition()) <= a.cfg.KillRange
}

func (a *Agent) arrivedAt(pos geom.Vec2) bool {
	if a.Pose.Position.Dist(pos) <= a.cfg.ArriveThreshold {
		return true
	}
	return a.nav.HasValidPath() && a.nav.RemainingDistance() <= a.cfg.ArriveThreshold
}

// State returns the active state id.
func (a *Agent) State() StateID { return a.state.ID() }

// Memory returns a copy of the agent's belief about the target.
func (a *Agent) Memory() Memory { return a.memory }

// Config returns the agent's tuning.
func (a *Agent) Config() Config { return a.cfg }

// Speed is the movement speed the body should use in the current state.
func (a *Agent) Speed() float64 {
	switch a.state.ID() {
	case StateChase:
		return a.cfg.ChaseSpeed
	case StateKill:
		return 0
	}
	return a.cfg.MoveSpeed
}

// Status is a read-only view of an agent for logging and debugging.
type Status struct {
	ID          string    `json:"id"`
	State       StateID   `json:"state"`
	Position    geom.Vec2 `json:"position"`
	Heading     float64   `json:"heading"`
	Tick        uint64    `json:"tick"`
	Transitions int       `json:"transitions"`
	Kills       int       `json:"kills"`

	LastKnownPosition *geom.Vec2 `json:"last_known_position,omitempty"`
	StareProgress     float64    `json:"stare_progress,omitempty"`
	Searching         bool       `json:"searching,omitempty"`
	SearchPoints      int        `json:"search_points,omitempty"`
	SearchCursor      int        `json:"search_cursor,omitempty"`
	KillFired         bool       `json:"kill_fired,omitempty"`
	PatrolIndex       int        `json:"patrol_index"`
}

// Snapshot captures the agent's current status.
func (a *Agent) Snapshot() Status {
	st := Status{
		ID:          a.ID,
		State:       a.state.ID(),
		Position:    a.Pose.Position,
		Heading:     a.Pose.Heading,
		Tick:        a.tick,
		Transitions: a.transitions,
		Kills:       a.kills,
		PatrolIndex: a.route.Index(),
	}
	if a.memory.Valid {
		lkp := a.memory.LastKnownPosition
		st.LastKnownPosition = &lkp
	}
	switch s := a.state.(type) {
	case *alertState:
		if s.staring && a.cfg.StareDuration > 0 {
			st.StareProgress = s.stare / a.cfg.StareDuration
		}
		if s.searching && s.search != nil {
			st.Searching = true
			st.SearchPoints = len(s.search.Points())
			st.SearchCursor = s.search.Cursor()
		}
	case *killState:
		st.KillFired = s.fired
	}
	return st
}
