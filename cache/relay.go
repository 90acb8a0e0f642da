package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kasuganosora/stalker/game/bus"
)

// DefaultRelayChannel is the pubsub channel notifications are forwarded to.
const DefaultRelayChannel = "stalker:notifications"

const publishTimeout = 2 * time.Second

// Envelope is the JSON document published for every relayed event.
type Envelope struct {
	Topic   string          `json:"topic"`
	SentAt  time.Time       `json:"sent_at"`
	Payload json.RawMessage `json:"payload"`
}

// Relay forwards bus events to a PubSub channel. Bus handlers only encode
// and enqueue; a worker goroutine does the network publish.
type Relay struct {
	ps      PubSub
	channel string
	queue   chan string
	stopCh  chan struct{}
	wg      sync.WaitGroup
	logger  *zap.Logger
}

// NewRelay starts a relay publishing to channel on ps.
func NewRelay(ps PubSub, channel string, logger *zap.Logger) *Relay {
	if channel == "" {
		channel = DefaultRelayChannel
	}
	r := &Relay{
		ps:      ps,
		channel: channel,
		queue:   make(chan string, 512),
		stopCh:  make(chan struct{}),
		logger:  logger,
	}
	r.wg.Add(1)
	go r.worker()
	return r
}

// Attach forwards contact notifications and transitions from b. Sounds are
// not relayed. The returned function detaches the relay.
func (r *Relay) Attach(b *bus.Bus) func() {
	handler := func(_ context.Context, topic string, payload interface{}) {
		r.Forward(topic, payload)
	}
	topics := []string{
		bus.TopicEnemySpotted,
		bus.TopicEnemyLostTarget,
		bus.TopicTargetKilled,
		bus.TopicTransition,
	}
	unsubs := make([]func(), 0, len(topics))
	for _, t := range topics {
		unsubs = append(unsubs, b.Subscribe(t, 50, handler))
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

// Forward encodes payload and queues it for publishing.
func (r *Relay) Forward(topic string, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		r.logger.Warn("relay: encode failed", zap.String("topic", topic), zap.Error(err))
		return
	}
	msg, err := json.Marshal(Envelope{Topic: topic, SentAt: time.Now().UTC(), Payload: body})
	if err != nil {
		r.logger.Warn("relay: encode failed", zap.String("topic", topic), zap.Error(err))
		return
	}
	select {
	case r.queue <- string(msg):
	default:
		r.logger.Warn("relay queue full, dropping event", zap.String("topic", topic))
	}
}

// Stop publishes whatever is queued and stops the worker.
func (r *Relay) Stop() {
	select {
	case <-r.stopCh:
	default:
		close(r.stopCh)
	}
	r.wg.Wait()
}

func (r *Relay) worker() {
	defer r.wg.Done()
	for {
		select {
		case msg := <-r.queue:
			r.publish(msg)
		case <-r.stopCh:
			for {
				select {
				case msg := <-r.queue:
					r.publish(msg)
				default:
					return
				}
			}
		}
	}
}

func (r *Relay) publish(msg string) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := r.ps.Publish(ctx, r.channel, msg); err != nil {
		r.logger.Warn("relay publish failed", zap.String("channel", r.channel), zap.Error(err))
	}
}
