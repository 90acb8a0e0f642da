package bus

import (
	"context"

	"github.com/kasuganosora/stalker/game/geom"
)

// Topic names.
const (
	TopicEnemySpotted    = "enemy.spotted"
	TopicEnemyLostTarget = "enemy.lost_target"
	TopicTargetKilled    = "target.killed"
	TopicSound           = "sound.emitted"
	TopicTransition      = "agent.transition"
)

// Notification is the payload of the enemy.* and target.* topics.
type Notification struct {
	Topic   string `json:"topic"`
	AgentID string `json:"agent_id"`
}

// Notifier is the fire-and-forget facade agents use to announce contact.
type Notifier struct {
	bus *Bus
}

// NewNotifier wraps b.
func NewNotifier(b *Bus) *Notifier {
	return &Notifier{bus: b}
}

func (n *Notifier) EnemySpotted(agentID string)    { n.publish(TopicEnemySpotted, agentID) }
func (n *Notifier) EnemyLostTarget(agentID string) { n.publish(TopicEnemyLostTarget, agentID) }
func (n *Notifier) TargetKilled(agentID string)    { n.publish(TopicTargetKilled, agentID) }

func (n *Notifier) publish(topic, agentID string) {
	n.bus.Publish(context.Background(), topic, Notification{Topic: topic, AgentID: agentID})
}

// Subscribe registers fn for every notification topic and returns a single
// function that removes all three registrations.
func (n *Notifier) Subscribe(fn func(Notification)) func() {
	h := func(_ context.Context, _ string, payload interface{}) {
		if note, ok := payload.(Notification); ok {
			fn(note)
		}
	}
	unsubs := []func(){
		n.bus.Subscribe(TopicEnemySpotted, 0, h),
		n.bus.Subscribe(TopicEnemyLostTarget, 0, h),
		n.bus.Subscribe(TopicTargetKilled, 0, h),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

// SoundEvent is an immutable noise broadcast. Listeners copy what they need.
type SoundEvent struct {
	Position  geom.Vec2 `json:"position"`
	Radius    float64   `json:"radius"`
	Timestamp float64   `json:"timestamp"` // simulation seconds
}

// SoundChannel carries SoundEvents from emitters to listening agents.
type SoundChannel struct {
	bus   *Bus
	clock func() float64
}

// NewSoundChannel wraps b. clock stamps emitted events; nil stamps zero.
func NewSoundChannel(b *Bus, clock func() float64) *SoundChannel {
	if clock == nil {
		clock = func() float64 { return 0 }
	}
	return &SoundChannel{bus: b, clock: clock}
}

// Emit broadcasts a noise at pos audible up to radius.
func (c *SoundChannel) Emit(pos geom.Vec2, radius float64) {
	c.bus.Publish(context.Background(), TopicSound, SoundEvent{
		Position:  pos,
		Radius:    radius,
		Timestamp: c.clock(),
	})
}

// Subscribe registers fn for every emitted sound.
func (c *SoundChannel) Subscribe(fn func(SoundEvent)) func() {
	return c.bus.Subscribe(TopicSound, 0, func(_ context.Context, _ string, payload interface{}) {
		if ev, ok := payload.(SoundEvent); ok {
			fn(ev)
		}
	})
}
