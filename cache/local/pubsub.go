package local

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrClosed is returned by Publish and Subscribe after Close.
var ErrClosed = errors.New("pubsub: closed")

// Message is an in-process pub/sub message.
type Message struct {
	Channel string
	Payload string
}

type subscriber struct {
	ch   chan *Message
	once *sync.Once
}

// PubSub is an in-process fan-out pub/sub. Slow subscribers lose messages
// rather than block publishers.
type PubSub struct {
	mu          sync.RWMutex
	subscribers map[string][]*subscriber
	bufSize     int
	closed      bool
	dropped     atomic.Int64
}

// NewPubSub creates a PubSub with the given per-subscriber buffer size.
func NewPubSub(bufSize int) *PubSub {
	if bufSize <= 0 {
		bufSize = 256
	}
	return &PubSub{
		subscribers: make(map[string][]*subscriber),
		bufSize:     bufSize,
	}
}

// Publish sends a message to all subscribers of the given channel.
func (ps *PubSub) Publish(_ context.Context, channel, message string) error {
	msg := &Message{Channel: channel, Payload: message}
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	if ps.closed {
		return ErrClosed
	}
	for _, s := range ps.subscribers[channel] {
		select {
		case s.ch <- msg:
		default:
			ps.dropped.Add(1)
		}
	}
	return nil
}

// Subscribe returns one message channel fed by every named channel, and a
// cancel function that unsubscribes and closes it.
func (ps *PubSub) Subscribe(_ context.Context, channels ...string) (<-chan *Message, func(), error) {
	ch := make(chan *Message, ps.bufSize)
	s := &subscriber{ch: ch, once: &sync.Once{}}

	ps.mu.Lock()
	if ps.closed {
		ps.mu.Unlock()
		return nil, nil, ErrClosed
	}
	for _, c := range channels {
		ps.subscribers[c] = append(ps.subscribers[c], s)
	}
	ps.mu.Unlock()

	cancel := func() {
		ps.mu.Lock()
		defer ps.mu.Unlock()
		for _, c := range channels {
			list := ps.subscribers[c]
			for j, sub := range list {
				if sub == s {
					ps.subscribers[c] = append(list[:j:j], list[j+1:]...)
					break
				}
			}
		}
		s.once.Do(func() { close(ch) })
	}
	return ch, cancel, nil
}

// Dropped returns how many deliveries were skipped because a subscriber's
// buffer was full.
func (ps *PubSub) Dropped() int64 {
	return ps.dropped.Load()
}

// Close unsubscribes everyone and rejects further use.
func (ps *PubSub) Close() error {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if ps.closed {
		return nil
	}
	ps.closed = true
	for _, list := range ps.subscribers {
		for _, s := range list {
			s.once.Do(func() { close(s.ch) })
		}
	}
	ps.subscribers = map[string][]*subscriber{}
	return nil
}
