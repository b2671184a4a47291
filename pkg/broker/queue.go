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

package broker

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/jeremyhahn/go-imagepipe/pkg/adapters"
	"github.com/jeremyhahn/go-imagepipe/pkg/metrics"
)

// ErrQueueFull is returned when a delivery would exceed the queue buffer.
var ErrQueueFull = errors.New("queue full")

const (
	// DefaultMaxReceiveCount dead-letters a message after a single failed
	// delivery attempt. Intentionally aggressive: ingestion failures are
	// usually permanent (bad image type) rather than transient.
	DefaultMaxReceiveCount = 1

	// DefaultBuffer is the default queue buffer size.
	DefaultBuffer = 128
)

// QueueConfig configures a Queue.
type QueueConfig struct {
	// Name identifies the queue in logs and metrics.
	Name string

	// Buffer is the queue capacity. Default: DefaultBuffer.
	Buffer int

	// MaxReceiveCount is the delivery attempt budget before a message is
	// diverted to the dead-letter queue. Default: DefaultMaxReceiveCount.
	MaxReceiveCount int

	// DeadLetter receives messages that exhausted their attempt budget.
	// Without one, exhausted messages are dropped with an error log.
	DeadLetter *Queue

	Logger adapters.Logger
}

// Queue is a buffered redelivery queue. A message stays on the queue until
// a consumer acknowledges it; a failed delivery requeues the message until
// its receive count exceeds the budget, then forwards it to the dead-letter
// queue.
type Queue struct {
	name            string
	messages        chan Message
	maxReceiveCount int
	dlq             *Queue
	logger          adapters.Logger
}

// NewQueue creates a queue from cfg.
func NewQueue(cfg QueueConfig) *Queue {
	if cfg.Buffer <= 0 {
		cfg.Buffer = DefaultBuffer
	}
	if cfg.MaxReceiveCount <= 0 {
		cfg.MaxReceiveCount = DefaultMaxReceiveCount
	}
	if cfg.Logger == nil {
		cfg.Logger = adapters.NewNoOpLogger()
	}
	return &Queue{
		name:            cfg.Name,
		messages:        make(chan Message, cfg.Buffer),
		maxReceiveCount: cfg.MaxReceiveCount,
		dlq:             cfg.DeadLetter,
		logger:          cfg.Logger,
	}
}

// Name returns the queue name.
func (q *Queue) Name() string { return q.name }

// Deliver enqueues a fresh message for body, implementing Subscriber so a
// queue can subscribe to a topic.
func (q *Queue) Deliver(ctx context.Context, body []byte) error {
	return q.enqueue(Message{
		ID:   uuid.NewString(),
		Body: body,
	})
}

func (q *Queue) enqueue(msg Message) error {
	select {
	case q.messages <- msg:
		return nil
	default:
		return ErrQueueFull
	}
}

// redeliver requeues a failed message or forwards it to the dead-letter
// queue once its attempt budget is spent.
func (q *Queue) redeliver(ctx context.Context, msg Message) {
	if msg.ReceiveCount < q.maxReceiveCount {
		if err := q.enqueue(msg); err != nil {
			q.logger.Error(ctx, "redelivery failed",
				adapters.Field{Key: "queue", Value: q.name},
				adapters.Field{Key: "message_id", Value: msg.ID})
		}
		return
	}

	metrics.DeadLettered.WithLabelValues(q.name).Inc()
	if q.dlq == nil {
		q.logger.Error(ctx, "message exhausted attempts with no dead-letter queue",
			adapters.Field{Key: "queue", Value: q.name},
			adapters.Field{Key: "message_id", Value: msg.ID},
			adapters.Field{Key: "receive_count", Value: msg.ReceiveCount})
		return
	}

	q.logger.Warn(ctx, "forwarding message to dead-letter queue",
		adapters.Field{Key: "queue", Value: q.name},
		adapters.Field{Key: "dead_letter_queue", Value: q.dlq.Name()},
		adapters.Field{Key: "message_id", Value: msg.ID},
		adapters.Field{Key: "receive_count", Value: msg.ReceiveCount})

	// The message starts a fresh delivery lifecycle on the DLQ.
	msg.ReceiveCount = 0
	if err := q.dlq.enqueue(msg); err != nil {
		q.logger.Error(ctx, "dead-letter enqueue failed",
			adapters.Field{Key: "queue", Value: q.dlq.Name()},
			adapters.Field{Key: "message_id", Value: msg.ID})
	}
}

// Len returns the number of buffered messages.
func (q *Queue) Len() int {
	return len(q.messages)
}
