// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-imagepipe.
//
// go-imagepipe is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package broker provides the in-process delivery substrate: topics that
// fan out an event to independent subscribers, and durable queues with
// bounded redelivery and dead-lettering. Delivery is at-least-once;
// consumers must be idempotent.
package broker

import (
	"context"
	"sync"

	"github.com/jeremyhahn/go-imagepipe/pkg/adapters"
	"github.com/jeremyhahn/go-imagepipe/pkg/metrics"
)

// Message is the delivery envelope around a raw event payload. The receipt
// state belongs to the queue, never to the event itself.
type Message struct {
	// ID uniquely identifies this message within its queue.
	ID string

	// Receipt is the backend receipt handle, where the backend has one.
	Receipt string

	// Body is the raw event payload.
	Body []byte

	// ReceiveCount is the number of times this message has been handed to
	// a consumer, including the current delivery.
	ReceiveCount int
}

// Subscriber receives an independent copy of every event published to a
// topic it is subscribed to.
type Subscriber interface {
	// Name identifies the subscriber in logs.
	Name() string

	// Deliver hands the subscriber a copy of the published payload.
	Deliver(ctx context.Context, body []byte) error
}

// HandlerFunc adapts a function to the Subscriber interface for direct
// (non-queued) consumers.
type HandlerFunc func(ctx context.Context, body []byte) error

type funcSubscriber struct {
	name string
	fn   HandlerFunc
}

// SubscriberFunc wraps fn as a named Subscriber.
func SubscriberFunc(name string, fn HandlerFunc) Subscriber {
	return &funcSubscriber{name: name, fn: fn}
}

func (s *funcSubscriber) Name() string { return s.name }

func (s *funcSubscriber) Deliver(ctx context.Context, body []byte) error {
	return s.fn(ctx, body)
}

// Topic fans a published event out to every subscriber. Subscribers are
// resolved at startup and receive independent copies; a failing subscriber
// never affects delivery to the others.
type Topic struct {
	name   string
	logger adapters.Logger

	mu          sync.RWMutex
	subscribers []Subscriber
}

// NewTopic creates a topic with the given name.
func NewTopic(name string, logger adapters.Logger) *Topic {
	if logger == nil {
		logger = adapters.NewNoOpLogger()
	}
	return &Topic{name: name, logger: logger}
}

// Name returns the topic name.
func (t *Topic) Name() string { return t.name }

// Subscribe registers a subscriber. Intended for startup wiring.
func (t *Topic) Subscribe(s Subscriber) {
	t.mu.Lock()
	t.subscribers = append(t.subscribers, s)
	t.mu.Unlock()
}

// Publish delivers an independent copy of body to every subscriber.
// Subscriber failures are logged and do not propagate: fan-out has no
// acknowledgment coupling between subscribers.
func (t *Topic) Publish(ctx context.Context, body []byte) {
	t.mu.RLock()
	subscribers := make([]Subscriber, len(t.subscribers))
	copy(subscribers, t.subscribers)
	t.mu.RUnlock()

	metrics.EventsPublished.WithLabelValues(t.name).Inc()

	for _, s := range subscribers {
		copied := make([]byte, len(body))
		copy(copied, body)
		if err := s.Deliver(ctx, copied); err != nil {
			t.logger.Error(ctx, "subscriber delivery failed",
				adapters.Field{Key: "topic", Value: t.name},
				adapters.Field{Key: "subscriber", Value: s.Name()},
				adapters.Field{Key: "error", Value: err.Error()})
		}
	}
}
