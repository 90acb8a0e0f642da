package ai

import (
	"testing"

	"github.com/kasuganosora/stalker/game/bus"
	"github.com/kasuganosora/stalker/game/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewAgent_RequiresCollaborators(t *testing.T) {
	_, err := NewAgent(Deps{Target: &fakeTarget{}}, Options{Config: testConfig()})
	assert.ErrorIs(t, err, ErrMissingDependency)

	_, err = NewAgent(Deps{Nav: newFakeNav()}, Options{Config: testConfig()})
	assert.ErrorIs(t, err, ErrMissingDependency)

	bad := testConfig()
	bad.SearchMaxDistance = 1
	_, err = NewAgent(Deps{Nav: newFakeNav(), Target: &fakeTarget{}}, Options{Config: bad})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestNewAgent_StartsInPatrolWithGeneratedID(t *testing.T) {
	a, err := NewAgent(Deps{Nav: newFakeNav(), Target: &fakeTarget{pos: geom.V(40, 40)}},
		Options{Config: testConfig()})
	require.NoError(t, err)
	assert.Equal(t, StatePatrol, a.State())
	assert.NotEmpty(t, a.ID)
	assert.Equal(t, a.cfg.MoveSpeed, a.Speed())
}

func TestPatrol_FollowsRoute(t *testing.T) {
	h := newHarness(t, testConfig(), geom.V(3, 0), geom.V(3, 3))
	h.wall.blocked = true

	h.tick(1)
	assert.Equal(t, geom.V(3, 0), h.nav.dest)

	h.agent.Pose.Position = geom.V(3, 0)
	h.tick(1) // arrive -> advance
	h.tick(1) // issue next
	assert.Equal(t, geom.V(3, 3), h.nav.dest)
	assert.Equal(t, 1, h.agent.route.Index())

	h.agent.Pose.Position = geom.V(3, 3)
	h.tick(2)
	assert.Equal(t, geom.V(3, 0), h.nav.dest, "route loops")
}

func TestPatrol_SkipsUnreachableWaypoint(t *testing.T) {
	h := newHarness(t, testConfig(), geom.V(9, 9), geom.V(2, 0))
	h.wall.blocked = true
	h.nav.unreachable = func(p geom.Vec2) bool { return p == geom.V(9, 9) }

	h.tick(2)
	assert.Equal(t, geom.V(2, 0), h.nav.dest)
	assert.Equal(t, StatePatrol, h.agent.State())
}

func TestPatrol_NoRouteStandsStill(t *testing.T) {
	h := newHarness(t, testConfig())
	h.tick(3)
	assert.Equal(t, 1, h.nav.stops)
	assert.Equal(t, 0, h.nav.sets)
}

func TestPatrol_SightTriggersAlert(t *testing.T) {
	h := newHarness(t, testConfig())
	h.alertFromSight(t, geom.V(5, 0))

	m := h.agent.Memory()
	assert.Equal(t, geom.V(5, 0), m.LastKnownPosition)
	assert.Equal(t, geom.V(1, 0), m.LastSeenDirection)
	assert.Equal(t, StimulusSight, m.Source)
	assert.Equal(t, geom.V(5, 0), h.nav.dest, "alert walks to last known position")
	require.Len(t, h.rec.transitions, 1)
	assert.Equal(t, StatePatrol, h.rec.transitions[0].From)
	assert.Equal(t, "target sighted", h.rec.transitions[0].Reason)
}

func TestHearing_QualifyingSoundForcesAlert(t *testing.T) {
	h := newHarness(t, testConfig())
	h.sounds.Emit(geom.V(0, 3), 4)
	h.tick(1)

	require.Equal(t, StateAlert, h.agent.State())
	m := h.agent.Memory()
	assert.Equal(t, geom.V(0, 3), m.LastKnownPosition)
	assert.InDelta(t, 1, m.LastSeenDirection.Y, 1e-9)
	assert.Equal(t, StimulusSound, m.Source)
	assert.Equal(t, geom.V(0, 3), h.nav.dest)
}

func TestHearing_OutOfEitherRangeIgnored(t *testing.T) {
	h := newHarness(t, testConfig()) // hearing radius 5

	h.sounds.Emit(geom.V(4.5, 0), 4) // beyond the sound's reach
	h.tick(1)
	assert.Equal(t, StatePatrol, h.agent.State())

	h.sounds.Emit(geom.V(0, 6), 50) // beyond hearing radius
	h.tick(1)
	assert.Equal(t, StatePatrol, h.agent.State())
}

func TestHearing_HiddenTargetIgnored(t *testing.T) {
	h := newHarness(t, testConfig())
	h.target.hidden = true
	h.sounds.Emit(geom.V(0, 2), 10)
	h.target.hidden = false
	h.tick(1)
	assert.Equal(t, StatePatrol, h.agent.State())
	assert.Empty(t, h.rec.transitions)
}

func TestHearing_ReentersAlertWithNewTarget(t *testing.T) {
	h := newHarness(t, testConfig())
	h.sounds.Emit(geom.V(0, 3), 4)
	h.tick(1)
	require.Equal(t, StateAlert, h.agent.State())

	h.sounds.Emit(geom.V(-2, 0), 4)
	h.tick(1)
	assert.Equal(t, StateAlert, h.agent.State())
	require.Len(t, h.rec.transitions, 2)
	assert.Equal(t, StateAlert, h.rec.transitions[1].From)
	assert.Equal(t, StateAlert, h.rec.transitions[1].To)
	assert.Equal(t, geom.V(-2, 0), h.nav.dest)
}

func TestHearing_IgnoredWhileChasing(t *testing.T) {
	h := newHarness(t, testConfig())
	h.alertFromSight(t, geom.V(5, 0))
	h.tick(4)
	require.Equal(t, StateChase, h.agent.State())

	h.sounds.Emit(geom.V(0, -2), 10)
	h.tick(1)
	assert.Equal(t, StateChase, h.agent.State())
	assert.Equal(t, geom.V(5, 0), h.agent.Memory().LastKnownPosition)
}

func TestHearing_CloseUnsubscribes(t *testing.T) {
	b := bus.New(zap.NewNop())
	ch := bus.NewSoundChannel(b, nil)
	a, err := NewAgent(Deps{Nav: newFakeNav(), Target: &fakeTarget{pos: geom.V(40, 40)}, Sounds: ch},
		Options{Config: testConfig()})
	require.NoError(t, err)
	assert.Equal(t, 1, b.SubscriberCount(bus.TopicSound))
	a.Close()
	assert.Equal(t, 0, b.SubscriberCount(bus.TopicSound))
}

func TestAlert_StareEscalatesToChase(t *testing.T) {
	h := newHarness(t, testConfig())
	h.alertFromSight(t, geom.V(5, 0))

	h.tick(3)
	assert.Equal(t, StateAlert, h.agent.State())
	assert.InDelta(t, 0.75, h.agent.Snapshot().StareProgress, 1e-9)
	assert.Equal(t, 1, h.rec.count(bus.TopicEnemySpotted), "spotted once, on the first stare frame")
	assert.Equal(t, 1, h.nav.stops, "agent holds still while staring")

	h.tick(1)
	assert.Equal(t, StateChase, h.agent.State())
	assert.Equal(t, h.agent.cfg.ChaseSpeed, h.agent.Speed())
}

func TestAlert_StareResetsOnSightLoss(t *testing.T) {
	h := newHarness(t, testConfig())
	h.alertFromSight(t, geom.V(5, 0))

	h.tick(3) // 0.75s of a 1s stare
	h.wall.blocked = true
	h.tick(1)
	assert.Equal(t, 1, h.rec.count(bus.TopicEnemyLostTarget))
	assert.Equal(t, geom.V(5, 0), h.nav.dest, "approach resumes")

	h.wall.blocked = false
	h.tick(3)
	assert.Equal(t, StateAlert, h.agent.State(), "partial stare must not resume")
	assert.Equal(t, 2, h.rec.count(bus.TopicEnemySpotted))
	h.tick(1)
	assert.Equal(t, StateChase, h.agent.State())
}

func TestAlert_KillRangeBeatsStare(t *testing.T) {
	h := newHarness(t, testConfig())
	h.alertFromSight(t, geom.V(5, 0))
	h.tick(2)

	h.target.pos = geom.V(0.8, 0)
	h.tick(1)
	assert.Equal(t, StateKill, h.agent.State())
}

func TestAlert_FootstepsDoNotResetStare(t *testing.T) {
	h := newHarness(t, testConfig())
	h.alertFromSight(t, geom.V(3, 0))

	for i := 0; i < 4 && h.agent.State() == StateAlert; i++ {
		h.sounds.Emit(h.target.pos, 4)
		h.tick(1)
	}
	assert.Equal(t, StateChase, h.agent.State(), "a visible running target is still chased")
	assert.Equal(t, 1, h.rec.count(bus.TopicEnemySpotted))
	require.Len(t, h.rec.transitions, 2)
	assert.Equal(t, "stare completed", h.rec.transitions[1].Reason)
}

func TestAlert_KillRangeBeatsSound(t *testing.T) {
	h := newHarness(t, testConfig())
	h.alertFromSight(t, geom.V(5, 0))

	h.target.pos = geom.V(0.8, 0)
	h.sounds.Emit(h.target.pos, 4)
	h.tick(1)
	assert.Equal(t, StateKill, h.agent.State())
}

func TestAlert_KillRangeBeatsSoundBehindAgent(t *testing.T) {
	h := newHarness(t, testConfig())
	h.alertFromSight(t, geom.V(5, 0))

	// Out of the cone but within reach.
	h.target.pos = geom.V(-0.8, 0)
	h.sounds.Emit(h.target.pos, 4)
	h.tick(1)
	assert.Equal(t, StateKill, h.agent.State())
}

func TestAlert_InvalidPathAbortsToPatrol(t *testing.T) {
	h := newHarness(t, testConfig())
	h.nav.unreachable = func(p geom.Vec2) bool { return p == geom.V(5, 0) }
	h.alertFromSight(t, geom.V(5, 0))

	h.wall.blocked = true
	h.tick(1)
	assert.Equal(t, StatePatrol, h.agent.State())
	assert.Equal(t, "last known position unreachable", h.rec.transitions[1].Reason)
}

// arriveAtLastKnown alerts the agent on a sighting, hides the target and
// moves the agent onto the last known position so the search starts.
func arriveAtLastKnown(t *testing.T, h *harness) *alertState {
	t.Helper()
	h.alertFromSight(t, geom.V(5, 0))
	h.wall.blocked = true
	h.target.pos = geom.V(50, 50)
	h.agent.Pose.Position = geom.V(5, 0)
	h.tick(1)
	st, ok := h.agent.state.(*alertState)
	require.True(t, ok)
	require.True(t, st.searching)
	return st
}

func TestSearch_VisitsPointsThenPatrols(t *testing.T) {
	h := newHarness(t, testConfig())
	st := arriveAtLastKnown(t, h)
	points := append([]geom.Vec2(nil), st.search.Points()...)
	require.Len(t, points, 2)

	for i, p := range points {
		h.tick(1)
		assert.Equal(t, p, h.nav.dest, "walks to point %d", i)
		assert.Equal(t, i, st.search.Cursor())

		h.agent.Pose.Position = p
		h.tick(1) // arrive, start scan
		h.tick(2)
		if i < len(points)-1 {
			h.tick(1)
			assert.Equal(t, StateAlert, h.agent.State())
		}
	}
	h.tick(1)
	assert.Equal(t, StatePatrol, h.agent.State())
	assert.Equal(t, "search exhausted", h.rec.transitions[len(h.rec.transitions)-1].Reason)
}

func TestSearch_NoCandidatesLooksAroundAtOrigin(t *testing.T) {
	h := newHarness(t, testConfig())
	h.nav.snap = func(geom.Vec2, float64) (geom.Vec2, error) { return geom.Vec2{}, errFake }
	st := arriveAtLastKnown(t, h)

	assert.Empty(t, st.search.Points())
	assert.True(t, st.search.LookingAround())
	setsBefore := h.nav.sets

	h.tick(2)
	assert.Equal(t, StateAlert, h.agent.State())
	assert.Equal(t, geom.V(5, 0), h.agent.Pose.Position, "look-around happens in place")
	h.tick(1)
	assert.Equal(t, StatePatrol, h.agent.State())
	assert.Equal(t, setsBefore, h.nav.sets, "no destination issued while looking around")
}

func TestSearch_UnreachablePointSkippedWithoutScan(t *testing.T) {
	h := newHarness(t, testConfig())
	st := arriveAtLastKnown(t, h)
	first := st.search.Points()[0]
	h.nav.unreachable = func(p geom.Vec2) bool { return p == first }

	h.tick(1)
	assert.Equal(t, 1, st.search.Cursor())
	assert.False(t, st.search.scan.Active())
	h.tick(1)
	assert.Equal(t, st.search.Points()[1], h.nav.dest)
}

func TestSearch_TimeoutScansWhenConfigured(t *testing.T) {
	cfg := testConfig()
	cfg.ScanOnGiveUp = true
	h := newHarness(t, cfg)
	st := arriveAtLastKnown(t, h)

	h.tick(7)
	assert.Equal(t, 0, st.search.Cursor())
	assert.False(t, st.search.scan.Active())
	h.tick(1) // 2s elapsed
	assert.True(t, st.search.scan.Active(), "look-around from where it stopped")
	assert.Equal(t, 0, st.search.Cursor())
	h.tick(3)
	assert.Equal(t, 1, st.search.Cursor())
}

func TestSearch_ReacquireAbortsSearch(t *testing.T) {
	h := newHarness(t, testConfig())
	st := arriveAtLastKnown(t, h)
	h.tick(1)

	h.wall.blocked = false
	h.target.pos = geom.V(9, 0)
	h.tick(1)
	assert.Equal(t, StateAlert, h.agent.State())
	assert.False(t, st.searching)
	assert.False(t, st.search.Active())
	assert.True(t, st.staring)
}

func TestSearch_UpdateReportsReacquired(t *testing.T) {
	h := newHarness(t, testConfig())
	s := newSearch(h.agent)
	h.wall.blocked = true
	s.Start(h.agent, geom.V(0, 0), geom.V(1, 0))
	require.True(t, s.Active())

	h.wall.blocked = false
	h.target.pos = geom.V(5, 0)
	assert.Equal(t, SearchReacquired, s.Update(h.agent, dt))
	assert.False(t, s.Active())
	assert.Equal(t, SearchExhausted, s.Update(h.agent, dt))
}

func TestChase_ReissuesDestinationEveryTick(t *testing.T) {
	h := newHarness(t, testConfig())
	h.alertFromSight(t, geom.V(5, 0))
	h.tick(4)
	require.Equal(t, StateChase, h.agent.State())

	before := h.nav.sets
	for i := 1; i <= 3; i++ {
		h.target.pos = geom.V(5, float64(i)*0.5)
		h.tick(1)
		assert.Equal(t, h.target.pos, h.nav.dest)
	}
	assert.Equal(t, before+3, h.nav.sets)
}

func TestChase_SightLostFallsBackToAlert(t *testing.T) {
	h := newHarness(t, testConfig())
	h.alertFromSight(t, geom.V(5, 0))
	h.tick(4)
	h.target.pos = geom.V(5, 1)
	h.tick(1)

	h.wall.blocked = true
	h.target.pos = geom.V(5, 4)
	h.tick(1)
	require.Equal(t, StateAlert, h.agent.State())
	m := h.agent.Memory()
	assert.Equal(t, geom.V(5, 1), m.LastKnownPosition, "last seen, not current")
	assert.Equal(t, geom.V(0, 1), m.LastSeenDirection, "direction of travel")
	assert.Equal(t, 1, h.rec.count(bus.TopicEnemyLostTarget))
	assert.Equal(t, geom.V(5, 1), h.nav.dest)
}

func TestChase_KillRangeTransitions(t *testing.T) {
	h := newHarness(t, testConfig())
	h.alertFromSight(t, geom.V(5, 0))
	h.tick(4)
	h.target.pos = geom.V(0.5, 0.5)
	h.tick(1)
	assert.Equal(t, StateKill, h.agent.State())
}

func enterKill(t *testing.T, h *harness) {
	t.Helper()
	h.alertFromSight(t, geom.V(5, 0))
	h.target.pos = geom.V(0.5, 0)
	h.tick(1)
	require.Equal(t, StateKill, h.agent.State())
}

func TestChase_InvulnerableTargetInRangeKeepsChasing(t *testing.T) {
	h := newHarness(t, testConfig())
	h.alertFromSight(t, geom.V(5, 0))
	h.tick(4)
	require.Equal(t, StateChase, h.agent.State())

	h.target.killable = false
	h.target.pos = geom.V(0.8, 0)
	h.tick(3)
	assert.Equal(t, StateChase, h.agent.State())
	assert.Equal(t, geom.V(0.8, 0), h.nav.dest)
}

func TestKill_FiresOnceAfterDelay(t *testing.T) {
	h := newHarness(t, testConfig())
	enterKill(t, h)
	assert.Equal(t, 0.0, h.agent.Speed())

	h.tick(1)
	assert.Equal(t, 0, h.target.kills)
	h.tick(1) // 0.5s delay elapsed
	assert.Equal(t, 1, h.target.kills)

	h.tick(20)
	assert.Equal(t, 1, h.target.kills)
	assert.Equal(t, 1, h.rec.count(bus.TopicTargetKilled))
	assert.Equal(t, StateKill, h.agent.State())
	assert.True(t, h.agent.Snapshot().KillFired)
}

func TestKill_InvulnerableTargetAbortsToChase(t *testing.T) {
	h := newHarness(t, testConfig())
	enterKill(t, h)
	h.tick(1)

	h.target.killable = false
	h.tick(1)
	assert.Equal(t, StateChase, h.agent.State())
	assert.Equal(t, 0, h.target.kills)

	// Not killable: chase does not bounce straight back into Kill.
	h.tick(3)
	assert.Equal(t, StateChase, h.agent.State())
}

func TestKill_ReentryResetsGuard(t *testing.T) {
	h := newHarness(t, testConfig())
	enterKill(t, h)
	h.target.killable = false
	h.tick(1)
	require.Equal(t, StateChase, h.agent.State())

	h.target.killable = true
	h.tick(1)
	require.Equal(t, StateKill, h.agent.State())
	h.tick(2)
	assert.Equal(t, 1, h.target.kills)
}

func TestMachine_OneTransitionPerTick(t *testing.T) {
	h := newHarness(t, testConfig())
	h.alertFromSight(t, geom.V(5, 0))

	// Already committed this tick.
	assert.False(t, h.agent.RequestTransition(StateChase, "late trigger"))
	assert.Equal(t, StateAlert, h.agent.State())
}

func TestMachine_SightBeatsSoundInPatrol(t *testing.T) {
	h := newHarness(t, testConfig())
	h.target.pos = geom.V(5, 0)
	h.sounds.Emit(geom.V(0, 1), 5)
	h.tick(1)

	require.Len(t, h.rec.transitions, 1)
	assert.Equal(t, "target sighted", h.rec.transitions[0].Reason)
	assert.Equal(t, geom.V(5, 0), h.agent.Memory().LastKnownPosition)
	assert.Equal(t, StimulusSight, h.agent.Memory().Source)
}

func TestMachine_TransitionsChain(t *testing.T) {
	h := newHarness(t, testConfig())
	h.alertFromSight(t, geom.V(5, 0))
	h.tick(4)
	h.wall.blocked = true
	h.tick(1)
	h.sounds.Emit(geom.V(0, 2), 5)
	h.tick(1)

	require.GreaterOrEqual(t, len(h.rec.transitions), 3)
	assert.Equal(t, StatePatrol, h.rec.transitions[0].From)
	for i := 1; i < len(h.rec.transitions); i++ {
		assert.Equal(t, h.rec.transitions[i-1].To, h.rec.transitions[i].From,
			"exit of one state is the enter of the previous")
		assert.Greater(t, h.rec.transitions[i].Tick, h.rec.transitions[i-1].Tick)
	}
	assert.Equal(t, len(h.rec.transitions), h.agent.Snapshot().Transitions)
}

// Patrol -> Alert (sighted) -> Chase (stare) -> Alert (sight lost) ->
// search at the last known position -> Patrol.
func TestScenario_FullEncounterWithoutKill(t *testing.T) {
	h := newHarness(t, testConfig())

	h.target.pos = geom.V(5, 0)
	h.tick(1)
	require.Equal(t, StateAlert, h.agent.State())

	h.tick(4)
	require.Equal(t, StateChase, h.agent.State())

	h.wall.blocked = true
	h.target.pos = geom.V(30, 30)
	h.tick(1)
	require.Equal(t, StateAlert, h.agent.State())
	lkp := h.agent.Memory().LastKnownPosition
	assert.Equal(t, geom.V(5, 0), lkp)

	h.agent.Pose.Position = lkp.Add(geom.V(0.3, 0))
	h.tick(1)
	st := h.agent.state.(*alertState)
	require.True(t, st.searching)

	for _, p := range append([]geom.Vec2(nil), st.search.Points()...) {
		h.tick(1)
		h.agent.Pose.Position = p
		h.tick(4)
	}
	assert.Equal(t, StatePatrol, h.agent.State())

	var path []StateID
	for _, tr := range h.rec.transitions {
		path = append(path, tr.To)
	}
	assert.Equal(t, []StateID{StateAlert, StateChase, StateAlert, StatePatrol}, path)
	assert.Equal(t, 0, h.target.kills)
}

func TestStateID_String(t *testing.T) {
	assert.Equal(t, "patrol", StatePatrol.String())
	assert.Equal(t, "kill", StateKill.String())
	assert.Equal(t, "unknown", StateID(42).String())
	b, err := StateChase.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "chase", string(b))
}
