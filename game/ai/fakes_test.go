package ai

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/kasuganosora/stalker/game/bus"
	"github.com/kasuganosora/stalker/game/geom"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var errFake = errors.New("fake: unreachable")

// fakeNav records commands and answers queries from overridable funcs.
// Distances default to straight-line.
type fakeNav struct {
	locate      func() geom.Vec2
	dest        geom.Vec2
	hasDest     bool
	valid       bool
	sets        int
	stops       int
	unreachable func(geom.Vec2) bool
	pathLen     func(from, to geom.Vec2) (float64, error)
	snap        func(p geom.Vec2, tol float64) (geom.Vec2, error)
}

func newFakeNav() *fakeNav {
	return &fakeNav{valid: true}
}

func (n *fakeNav) SetDestination(p geom.Vec2) {
	n.dest, n.hasDest = p, true
	n.sets++
	n.valid = n.unreachable == nil || !n.unreachable(p)
}

func (n *fakeNav) Stop() {
	n.hasDest = false
	n.valid = true
	n.stops++
}

func (n *fakeNav) HasValidPath() bool { return n.valid }

func (n *fakeNav) RemainingDistance() float64 {
	if !n.hasDest || !n.valid || n.locate == nil {
		return 0
	}
	return n.locate().Dist(n.dest)
}

func (n *fakeNav) ComputePathLength(from, to geom.Vec2) (float64, error) {
	if n.pathLen != nil {
		return n.pathLen(from, to)
	}
	return from.Dist(to), nil
}

func (n *fakeNav) SnapToTraversable(p geom.Vec2, tol float64) (geom.Vec2, error) {
	if n.snap != nil {
		return n.snap(p, tol)
	}
	return p, nil
}

type fakeTarget struct {
	pos      geom.Vec2
	killable bool
	hidden   bool
	kills    int
}

func (t *fakeTarget) CurrentPosition() geom.Vec2 { return t.pos }
func (t *fakeTarget) IsKillable() bool           { return t.killable }
func (t *fakeTarget) IsHidden() bool             { return t.hidden }
func (t *fakeTarget) Kill()                      { t.kills++ }

// fakeWall blocks every sight line while blocked is set.
type fakeWall struct {
	blocked bool
	queries int
}

func (w *fakeWall) Blocked(_, _ geom.Vec2, _ float64) bool {
	w.queries++
	return w.blocked
}

type recorder struct {
	notes       []bus.Notification
	transitions []Transition
}

func (r *recorder) EnemySpotted(id string) {
	r.notes = append(r.notes, bus.Notification{Topic: bus.TopicEnemySpotted, AgentID: id})
}
func (r *recorder) EnemyLostTarget(id string) {
	r.notes = append(r.notes, bus.Notification{Topic: bus.TopicEnemyLostTarget, AgentID: id})
}
func (r *recorder) TargetKilled(id string) {
	r.notes = append(r.notes, bus.Notification{Topic: bus.TopicTargetKilled, AgentID: id})
}

func (r *recorder) count(topic string) int {
	n := 0
	for _, note := range r.notes {
		if note.Topic == topic {
			n++
		}
	}
	return n
}

const dt = 0.25

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.ViewAngle = math.Pi / 2
	cfg.ViewDistance = 10
	cfg.HearingRadius = 5
	cfg.KillRange = 1
	cfg.StareDuration = 1
	cfg.ArriveThreshold = 0.5
	cfg.KillDelay = 0.5
	cfg.ScanDwell = 0.25
	cfg.ScanAngle = math.Pi / 3
	cfg.SearchPoints = 2
	cfg.SearchAttempts = 10
	cfg.SearchMinDistance = 3
	cfg.SearchMaxDistance = 6
	cfg.SearchSpread = math.Pi / 2
	cfg.PointTimeout = 2
	cfg.ScanOnGiveUp = false
	return cfg
}

type harness struct {
	agent  *Agent
	nav    *fakeNav
	target *fakeTarget
	wall   *fakeWall
	rec    *recorder
	sounds *bus.SoundChannel
}

func newHarness(t *testing.T, cfg Config, patrol ...geom.Vec2) *harness {
	t.Helper()
	h := &harness{
		nav:    newFakeNav(),
		target: &fakeTarget{pos: geom.V(50, 50), killable: true},
		wall:   &fakeWall{},
		rec:    &recorder{},
	}
	h.sounds = bus.NewSoundChannel(bus.New(zap.NewNop()), nil)
	a, err := NewAgent(Deps{
		Nav:         h.nav,
		Target:      h.target,
		Obstruction: h.wall,
		Notifier:    h.rec,
		Sounds:      h.sounds,
		Logger:      zap.NewNop(),
		Rand:        rand.New(rand.NewSource(7)),
	}, Options{
		ID:     "stalker-1",
		Pose:   geom.Pose{Position: geom.V(0, 0), Heading: 0},
		Patrol: patrol,
		Config: cfg,
		OnTransition: func(tr Transition) {
			h.rec.transitions = append(h.rec.transitions, tr)
		},
	})
	require.NoError(t, err)
	h.agent = a
	h.nav.locate = func() geom.Vec2 { return a.Pose.Position }
	t.Cleanup(a.Close)
	return h
}

func (h *harness) tick(n int) {
	for i := 0; i < n; i++ {
		h.agent.Update(dt)
	}
}

// alertFromSight puts a visible target in front of the agent and ticks once.
func (h *harness) alertFromSight(t *testing.T, at geom.Vec2) {
	t.Helper()
	h.target.pos = at
	h.tick(1)
	require.Equal(t, StateAlert, h.agent.State())
}
