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

// Package pipeline wires the static topology: two topics, three queues,
// and the five consumers, resolved once at startup.
package pipeline

import (
	"context"
	"time"

	"github.com/jeremyhahn/go-imagepipe/pkg/adapters"
	"github.com/jeremyhahn/go-imagepipe/pkg/broker"
	"github.com/jeremyhahn/go-imagepipe/pkg/common"
	"github.com/jeremyhahn/go-imagepipe/pkg/consumer"
)

// Topic and queue names of the static topology.
const (
	TopicCreated          = "ObjectCreated"
	TopicRemovedOrUpdated = "ObjectRemovedOrUpdated"

	QueueIngest    = "image-process"
	QueueMailer    = "mailer"
	QueueRejection = "rejection"
)

// Config carries the pipeline tunables.
type Config struct {
	// Recipient is the fixed address acknowledgment and rejection mail
	// goes to.
	Recipient string

	// BatchSize and BatchWindow tune the queue consumers. Zero values use
	// the broker defaults (5 messages, 10s).
	BatchSize   int
	BatchWindow time.Duration

	// MaxReceiveCount is the ingest queue attempt budget before
	// dead-lettering. Zero uses the broker default (1).
	MaxReceiveCount int

	Logger adapters.Logger
}

// Pipeline owns the topics, queues, and consumers. Build it once at process
// start; the store, fetcher, and notifier handles are shared across all
// invocations for the life of the process.
type Pipeline struct {
	created *broker.Topic
	removed *broker.Topic

	ingestQueue    *broker.Queue
	mailerQueue    *broker.Queue
	rejectionQueue *broker.Queue

	consumers []*broker.Consumer
	logger    adapters.Logger
}

// New resolves the full subscription topology.
//
// Creation events fan out to the ingest, mailer, and rejection queues (all
// three receive a copy). Removal and caption events go to the deletion and
// update consumers directly; both are invoked for every event and decide
// relevance themselves. The ingest queue dead-letters into the rejection
// queue, which the rejection consumer drains.
func New(store common.RecordStore, fetcher common.ObjectFetcher, notifier common.Notifier, cfg Config) *Pipeline {
	logger := cfg.Logger
	if logger == nil {
		logger = adapters.NewNoOpLogger()
	}

	rejectionQueue := broker.NewQueue(broker.QueueConfig{
		Name:   QueueRejection,
		Logger: logger,
	})
	ingestQueue := broker.NewQueue(broker.QueueConfig{
		Name:            QueueIngest,
		MaxReceiveCount: cfg.MaxReceiveCount,
		DeadLetter:      rejectionQueue,
		Logger:          logger,
	})
	mailerQueue := broker.NewQueue(broker.QueueConfig{
		Name:   QueueMailer,
		Logger: logger,
	})

	created := broker.NewTopic(TopicCreated, logger)
	created.Subscribe(ingestQueue)
	created.Subscribe(mailerQueue)
	created.Subscribe(rejectionQueue)

	deletion := consumer.NewDeletion(store, logger)
	update := consumer.NewUpdate(store, logger)

	removed := broker.NewTopic(TopicRemovedOrUpdated, logger)
	removed.Subscribe(broker.SubscriberFunc("deletion", deletion.Handle))
	removed.Subscribe(broker.SubscriberFunc("update", update.Handle))

	consumerCfg := broker.ConsumerConfig{
		BatchSize:   cfg.BatchSize,
		BatchWindow: cfg.BatchWindow,
		Logger:      logger,
	}
	ingest := consumer.NewIngest(store, fetcher, logger)
	mailer := consumer.NewMailer(notifier, cfg.Recipient, logger)
	rejection := consumer.NewRejection(notifier, cfg.Recipient, logger)

	return &Pipeline{
		created:        created,
		removed:        removed,
		ingestQueue:    ingestQueue,
		mailerQueue:    mailerQueue,
		rejectionQueue: rejectionQueue,
		consumers: []*broker.Consumer{
			broker.NewConsumer(ingestQueue, ingest.HandleBatch, consumerCfg),
			broker.NewConsumer(mailerQueue, mailer.HandleBatch, consumerCfg),
			broker.NewConsumer(rejectionQueue, rejection.HandleBatch, consumerCfg),
		},
		logger: logger,
	}
}

// Start launches every queue consumer.
func (p *Pipeline) Start() {
	for _, c := range p.consumers {
		c.Start()
	}
	p.logger.Info(context.Background(), "pipeline started",
		adapters.Field{Key: "topics", Value: []string{TopicCreated, TopicRemovedOrUpdated}},
		adapters.Field{Key: "queues", Value: []string{QueueIngest, QueueMailer, QueueRejection}})
}

// Stop stops every queue consumer, waiting for in-flight batches.
func (p *Pipeline) Stop() {
	for _, c := range p.consumers {
		c.Stop()
	}
	p.logger.Info(context.Background(), "pipeline stopped")
}

// PublishCreated publishes a raw creation envelope to the creation topic.
func (p *Pipeline) PublishCreated(ctx context.Context, body []byte) {
	p.created.Publish(ctx, body)
}

// PublishRemovedOrUpdated publishes a raw removal or caption envelope to
// the removal/update topic.
func (p *Pipeline) PublishRemovedOrUpdated(ctx context.Context, body []byte) {
	p.removed.Publish(ctx, body)
}
