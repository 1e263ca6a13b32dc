// Package pubsub is an in-process topic bus. Producers publish without
// blocking; slow subscribers lose messages instead of stalling the producer.
package pubsub

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// DefaultBuffer is the per-subscription channel capacity.
const DefaultBuffer = 100

// ErrShutdown is returned by Subscribe after Shutdown.
var ErrShutdown = errors.New("pubsub: shut down")

// PubSub fans messages of type T out to topic subscribers.
type PubSub[T any] struct {
	mu          sync.RWMutex
	subscribers map[string]map[*Subscription[T]]struct{}
	shutdown    chan struct{}
	isShutdown  bool
	buffer      int
	dropped     atomic.Uint64
}

// Subscription receives the messages of one topic.
type Subscription[T any] struct {
	topic   string
	channel chan T
	ps      *PubSub[T]
	cancel  context.CancelFunc
	closed  bool // protected by ps.mu
}

// NewPubSub creates a bus with the given per-subscription buffer; a
// non-positive buffer selects DefaultBuffer.
func NewPubSub[T any](buffer int) *PubSub[T] {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &PubSub[T]{
		subscribers: make(map[string]map[*Subscription[T]]struct{}),
		shutdown:    make(chan struct{}),
		buffer:      buffer,
	}
}

// Subscribe creates a subscription that ends when ctx is cancelled,
// Unsubscribe is called or the bus shuts down. Its channel is then closed.
func (ps *PubSub[T]) Subscribe(ctx context.Context, topic string) (*Subscription[T], error) {
	subCtx, cancel := context.WithCancel(ctx)
	sub := &Subscription[T]{
		topic:   topic,
		channel: make(chan T, ps.buffer),
		ps:      ps,
		cancel:  cancel,
	}

	ps.mu.Lock()
	if ps.isShutdown {
		ps.mu.Unlock()
		cancel()
		return nil, ErrShutdown
	}
	if ps.subscribers[topic] == nil {
		ps.subscribers[topic] = make(map[*Subscription[T]]struct{})
	}
	ps.subscribers[topic][sub] = struct{}{}
	ps.mu.Unlock()

	go func() {
		select {
		case <-subCtx.Done():
			sub.Unsubscribe()
		case <-ps.shutdown:
		}
	}()

	return sub, nil
}

// Publish delivers message to every subscriber of topic that has buffer
// space and reports how many received it.
func (ps *PubSub[T]) Publish(topic string, message T) int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	if ps.isShutdown {
		return 0
	}

	delivered := 0
	for sub := range ps.subscribers[topic] {
		select {
		case sub.channel <- message:
			delivered++
		default:
			ps.dropped.Add(1)
		}
	}
	return delivered
}

// Dropped returns how many deliveries were skipped because a subscriber was full.
func (ps *PubSub[T]) Dropped() uint64 {
	return ps.dropped.Load()
}

// GetSubscriberCount returns the number of subscribers for a topic
func (ps *PubSub[T]) GetSubscriberCount(topic string) int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return len(ps.subscribers[topic])
}

// Shutdown closes every subscription. It is idempotent.
func (ps *PubSub[T]) Shutdown() {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if ps.isShutdown {
		return
	}
	ps.isShutdown = true
	close(ps.shutdown)

	for topic, subs := range ps.subscribers {
		for sub := range subs {
			sub.closeLocked()
		}
		delete(ps.subscribers, topic)
	}
}

// Channel returns the subscription's message channel
func (s *Subscription[T]) Channel() <-chan T {
	return s.channel
}

// Topic returns the subscribed topic.
func (s *Subscription[T]) Topic() string {
	return s.topic
}

// Unsubscribe removes the subscription and closes its channel. It is idempotent.
func (s *Subscription[T]) Unsubscribe() {
	s.cancel()

	s.ps.mu.Lock()
	defer s.ps.mu.Unlock()

	if subs := s.ps.subscribers[s.topic]; subs != nil {
		delete(subs, s)
		if len(subs) == 0 {
			delete(s.ps.subscribers, s.topic)
		}
	}
	s.closeLocked()
}

func (s *Subscription[T]) closeLocked() {
	if !s.closed {
		s.closed = true
		close(s.channel)
	}
}
