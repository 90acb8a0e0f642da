package world

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kasuganosora/stalker/game/ai"
	"github.com/kasuganosora/stalker/game/bus"
	"github.com/kasuganosora/stalker/game/geom"
	"github.com/kasuganosora/stalker/game/nav"
	"github.com/kasuganosora/stalker/resource"
)

// DefaultTickInterval is the simulation step used by Run when none is given (20 TPS).
const DefaultTickInterval = 50 * time.Millisecond

// ErrNotWalkable is returned when a command targets a wall or a point off the map.
var ErrNotWalkable = errors.New("world: position not walkable")

type agentSlot struct {
	agent *ai.Agent
	nav   *nav.Navigator
}

// Options configures a Level.
type Options struct {
	Agent  ai.Config
	Seed   int64
	Logger *zap.Logger
}

// Level runs one loaded level: the player, every antagonist and the
// notification bus. Tick is single-threaded; other goroutines interact
// through queued commands and Status.
type Level struct {
	Name string

	grid     *nav.Grid
	bus      *bus.Bus
	notifier *bus.Notifier
	sounds   *bus.SoundChannel
	player   *Player
	agents   []*agentSlot

	clock float64
	ticks uint64

	mu     sync.RWMutex
	cmdMu  sync.Mutex
	cmds   []func()
	stopCh chan struct{}
	once   sync.Once
	logger *zap.Logger
}

// NewLevel builds the simulation for lvl. Agents are created in file order.
func NewLevel(lvl *resource.Level, opts Options) (*Level, error) {
	if lvl == nil {
		return nil, fmt.Errorf("world: nil level")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &Level{
		Name:   lvl.Name,
		grid:   lvl.BuildGrid(),
		bus:    bus.New(logger),
		player: NewPlayer(lvl.Player),
		stopCh: make(chan struct{}),
		logger: logger.With(zap.String("level", lvl.Name)),
	}
	l.notifier = bus.NewNotifier(l.bus)
	l.sounds = bus.NewSoundChannel(l.bus, func() float64 { return l.clock })

	los := nav.LineOfSight{Grid: l.grid}
	for i, spawn := range lvl.Agents {
		navigator := nav.NewNavigator(l.grid, opts.Agent.SnapTolerance)
		var agent *ai.Agent
		start := spawn.Pose()
		navigator.Bind(func() geom.Vec2 {
			if agent == nil {
				return start.Position
			}
			return agent.Pose.Position
		})
		agent, err := ai.NewAgent(ai.Deps{
			Nav:         navigator,
			Target:      l.player,
			Obstruction: los,
			Notifier:    l.notifier,
			Sounds:      l.sounds,
			Logger:      l.logger,
			Rand:        rand.New(rand.NewSource(opts.Seed + int64(i))),
		}, ai.Options{
			ID:           spawn.ID,
			Pose:         start,
			Patrol:       spawn.PatrolRoute(),
			Config:       opts.Agent,
			OnTransition: l.publishTransition,
		})
		if err != nil {
			l.Close()
			return nil, fmt.Errorf("world: agent %d: %w", i, err)
		}
		l.agents = append(l.agents, &agentSlot{agent: agent, nav: navigator})
	}
	return l, nil
}

func (l *Level) publishTransition(t ai.Transition) {
	l.bus.Publish(context.Background(), bus.TopicTransition, t)
}

// Bus exposes the level's notification bus for external subscribers.
func (l *Level) Bus() *bus.Bus { return l.bus }

// Notifier exposes the typed notification facade.
func (l *Level) Notifier() *bus.Notifier { return l.notifier }

// Tick advances the simulation by dt seconds.
func (l *Level) Tick(dt float64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, cmd := range l.takeCommands() {
		cmd()
	}

	l.clock += dt
	l.ticks++

	moved := l.player.advance(dt)
	if l.player.footstep(dt, moved) {
		l.sounds.Emit(l.player.pos, l.player.footstepRadius)
	}

	for _, s := range l.agents {
		s.agent.Update(dt)
		s.nav.Advance(&s.agent.Pose, dt, s.agent.Speed())
	}
}

// Run ticks the level at a fixed step until ctx is done or Stop is called.
func (l *Level) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	dt := interval.Seconds()
	l.logger.Info("level started", zap.Int("agents", len(l.agents)), zap.Duration("interval", interval))
	for {
		select {
		case <-ticker.C:
			l.Tick(dt)
		case <-ctx.Done():
			return
		case <-l.stopCh:
			return
		}
	}
}

// Stop signals Run to exit.
func (l *Level) Stop() {
	l.once.Do(func() { close(l.stopCh) })
}

// Close stops the loop, detaches agents and drops bus subscribers.
func (l *Level) Close() {
	l.Stop()
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, s := range l.agents {
		s.agent.Close()
	}
	l.bus.Close()
}

func (l *Level) enqueue(cmd func()) {
	l.cmdMu.Lock()
	l.cmds = append(l.cmds, cmd)
	l.cmdMu.Unlock()
}

func (l *Level) takeCommands() []func() {
	l.cmdMu.Lock()
	defer l.cmdMu.Unlock()
	cmds := l.cmds
	l.cmds = nil
	return cmds
}

// EmitSound queues a noise at pos, delivered on the next tick.
func (l *Level) EmitSound(pos geom.Vec2, radius float64) error {
	if !pos.IsFinite() || radius <= 0 {
		return fmt.Errorf("world: invalid sound at %v radius %v", pos, radius)
	}
	l.enqueue(func() { l.sounds.Emit(pos, radius) })
	return nil
}

// SetPlayerHidden queues a change of the player's hidden flag.
func (l *Level) SetPlayerHidden(hidden bool) {
	l.enqueue(func() { l.player.hidden = hidden })
}

// SetPlayerKillable queues a change of the player's killable flag.
func (l *Level) SetPlayerKillable(killable bool) {
	l.enqueue(func() { l.player.killable = killable })
}

// MovePlayer queues a teleport of the player.
func (l *Level) MovePlayer(pos geom.Vec2) error {
	if !l.grid.WalkableAt(pos) {
		return ErrNotWalkable
	}
	l.enqueue(func() { l.player.pos = pos })
	return nil
}

// Status is a point-in-time view of the whole level.
type Status struct {
	Name   string       `json:"name"`
	Tick   uint64       `json:"tick"`
	Time   float64      `json:"time"`
	Player PlayerStatus `json:"player"`
	Agents []ai.Status  `json:"agents"`
}

// Status snapshots the level.
func (l *Level) Status() Status {
	l.mu.RLock()
	defer l.mu.RUnlock()
	st := Status{
		Name:   l.Name,
		Tick:   l.ticks,
		Time:   l.clock,
		Player: l.player.status(),
		Agents: make([]ai.Status, 0, len(l.agents)),
	}
	for _, s := range l.agents {
		st.Agents = append(st.Agents, s.agent.Snapshot())
	}
	return st
}

// Agent returns the snapshot of one agent.
func (l *Level) Agent(id string) (ai.Status, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, s := range l.agents {
		if s.agent.ID == id {
			return s.agent.Snapshot(), true
		}
	}
	return ai.Status{}, false
}

// AgentCount returns the number of agents in the level.
func (l *Level) AgentCount() int {
	return len(l.agents)
}
