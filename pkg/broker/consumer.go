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
	"sync"
	"time"

	"github.com/jeremyhahn/go-imagepipe/pkg/adapters"
	"github.com/jeremyhahn/go-imagepipe/pkg/metrics"
)

const (
	// DefaultBatchSize is the maximum number of messages per batch.
	DefaultBatchSize = 5

	// DefaultBatchWindow is the maximum time a partial batch is held before
	// dispatch. A batch goes out on size or window, whichever comes first.
	DefaultBatchWindow = 10 * time.Second
)

// BatchHandler processes a batch of messages in delivery order and returns
// a slice of per-element results aligned with the batch: a nil entry
// acknowledges the message, a non-nil entry triggers redelivery. A nil
// result slice acknowledges the whole batch.
type BatchHandler func(ctx context.Context, batch []Message) []error

// ConsumerConfig configures a queue consumer.
type ConsumerConfig struct {
	// BatchSize caps the batch length. Default: DefaultBatchSize.
	BatchSize int

	// BatchWindow caps how long a partial batch waits. Default:
	// DefaultBatchWindow.
	BatchWindow time.Duration

	Logger adapters.Logger
}

// Consumer drains a queue in batches and hands them to a BatchHandler.
// Batches may be processed concurrently; ordering is only guaranteed within
// a batch.
type Consumer struct {
	queue   *Queue
	handler BatchHandler
	size    int
	window  time.Duration
	logger  adapters.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewConsumer creates a consumer for q invoking handler per batch.
func NewConsumer(q *Queue, handler BatchHandler, cfg ConsumerConfig) *Consumer {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.BatchWindow <= 0 {
		cfg.BatchWindow = DefaultBatchWindow
	}
	if cfg.Logger == nil {
		cfg.Logger = adapters.NewNoOpLogger()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Consumer{
		queue:   q,
		handler: handler,
		size:    cfg.BatchSize,
		window:  cfg.BatchWindow,
		logger:  cfg.Logger,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start launches the consume loop.
func (c *Consumer) Start() {
	c.wg.Add(1)
	go c.run()
}

// Stop cancels the consume loop and waits for in-flight batches. A batch
// element is never cancelled mid-flight; the element either completes or
// its error requeues the message.
func (c *Consumer) Stop() {
	c.cancel()
	c.wg.Wait()
}

func (c *Consumer) run() {
	defer c.wg.Done()
	for {
		batch, ok := c.nextBatch()
		if !ok {
			return
		}
		if len(batch) == 0 {
			continue
		}
		c.wg.Add(1)
		go c.dispatch(batch)
	}
}

// nextBatch blocks for the first message, then fills the batch until the
// size cap or the batch window elapses. Returns ok=false when stopped.
func (c *Consumer) nextBatch() ([]Message, bool) {
	var first Message
	select {
	case <-c.ctx.Done():
		return nil, false
	case first = <-c.queue.messages:
	}

	first.ReceiveCount++
	batch := []Message{first}

	timer := time.NewTimer(c.window)
	defer timer.Stop()

	for len(batch) < c.size {
		select {
		case <-c.ctx.Done():
			// Drain what we already pulled rather than losing it.
			return batch, true
		case <-timer.C:
			return batch, true
		case msg := <-c.queue.messages:
			msg.ReceiveCount++
			batch = append(batch, msg)
		}
	}
	return batch, true
}

func (c *Consumer) dispatch(batch []Message) {
	defer c.wg.Done()

	// Mid-batch cancellation is not supported: an element either completes
	// or fails and requeues.
	ctx := context.WithoutCancel(c.ctx)

	start := time.Now()
	results := c.handler(ctx, batch)
	metrics.BatchDuration.Observe(time.Since(start).Seconds())

	for i, msg := range batch {
		var err error
		if i < len(results) {
			err = results[i]
		}
		if err == nil {
			continue
		}
		c.logger.Warn(ctx, "batch element failed",
			adapters.Field{Key: "queue", Value: c.queue.Name()},
			adapters.Field{Key: "message_id", Value: msg.ID},
			adapters.Field{Key: "receive_count", Value: msg.ReceiveCount},
			adapters.Field{Key: "error", Value: err.Error()})
		c.queue.redeliver(ctx, msg)
	}
}
