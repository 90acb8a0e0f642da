// Package bus is the in-process, synchronous publish/subscribe fabric used
// by agents to tell the rest of the game what they perceive and decide.
//
// Delivery happens on the publisher's goroutine before Publish returns, so an
// event fired during a tick is observed by every current subscriber within
// that tick.
package bus

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Handler receives a published payload.
type Handler func(ctx context.Context, topic string, payload interface{})

type subscription struct {
	id       uint64
	priority int
	fn       Handler
}

// Bus routes payloads by topic to subscribers in priority order (lower first).
type Bus struct {
	mu     sync.RWMutex
	subs   map[string][]*subscription
	nextID uint64
	closed bool
	logger *zap.Logger
}

// New creates an empty Bus.
func New(logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{
		subs:   make(map[string][]*subscription),
		logger: logger,
	}
}

// Subscribe registers fn for topic and returns its unsubscribe function.
// Unsubscribing twice is harmless. Subscribing to a closed bus returns a no-op.
func (b *Bus) Subscribe(topic string, priority int, fn Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return func() {}
	}
	b.nextID++
	sub := &subscription{id: b.nextID, priority: priority, fn: fn}
	list := append(b.subs[topic], sub)
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].priority < list[j].priority
	})
	b.subs[topic] = list

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(topic, sub.id) })
	}
}

func (b *Bus) remove(topic string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	list := b.subs[topic]
	n := 0
	for _, s := range list {
		if s.id != id {
			list[n] = s
			n++
		}
	}
	for i := n; i < len(list); i++ {
		list[i] = nil
	}
	b.subs[topic] = list[:n]
}

// Publish delivers payload to a snapshot of the topic's subscribers.
// Handlers may subscribe or unsubscribe while being called; the change takes
// effect from the next Publish. A panicking handler is logged and skipped.
func (b *Bus) Publish(ctx context.Context, topic string, payload interface{}) {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return
	}
	entries := make([]*subscription, len(b.subs[topic]))
	copy(entries, b.subs[topic])
	b.mu.RUnlock()

	for _, s := range entries {
		b.deliver(ctx, topic, payload, s)
	}
}

func (b *Bus) deliver(ctx context.Context, topic string, payload interface{}, s *subscription) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("bus handler panicked",
				zap.String("topic", topic), zap.Any("recover", r))
		}
	}()
	s.fn(ctx, topic, payload)
}

// SubscriberCount returns the number of live subscribers for topic.
func (b *Bus) SubscriberCount(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}

// Close drops all subscribers. Later publishes are ignored.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.subs = make(map[string][]*subscription)
}
