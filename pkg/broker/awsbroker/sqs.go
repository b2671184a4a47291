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

//go:build aws

package awsbroker

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/jeremyhahn/go-imagepipe/pkg/adapters"
	"github.com/jeremyhahn/go-imagepipe/pkg/broker"
	"github.com/jeremyhahn/go-imagepipe/pkg/metrics"
)

// QueueSource long-polls an SQS queue and feeds batches to a
// broker.BatchHandler. Redelivery and dead-lettering are handled by the
// queue's own visibility timeout and redrive policy: acknowledged messages
// are deleted, failed ones are left to reappear.
type QueueSource struct {
	svc      *sqs.Client
	queueURL string
	name     string
	handler  broker.BatchHandler
	size     int32
	wait     time.Duration
	logger   adapters.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// QueueSourceConfig configures a QueueSource.
type QueueSourceConfig struct {
	// Name identifies the queue in logs and metrics.
	Name string

	// QueueURL is the SQS queue URL.
	QueueURL string

	// BatchSize caps messages per receive. Default: broker.DefaultBatchSize.
	BatchSize int

	// Wait is the long-poll window. Default: broker.DefaultBatchWindow.
	Wait time.Duration

	Logger adapters.Logger
}

// NewQueueSource creates a queue source invoking handler per received batch.
func NewQueueSource(svc *sqs.Client, cfg QueueSourceConfig, handler broker.BatchHandler) *QueueSource {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = broker.DefaultBatchSize
	}
	if cfg.Wait <= 0 {
		cfg.Wait = broker.DefaultBatchWindow
	}
	if cfg.Logger == nil {
		cfg.Logger = adapters.NewNoOpLogger()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &QueueSource{
		svc:      svc,
		queueURL: cfg.QueueURL,
		name:     cfg.Name,
		handler:  handler,
		size:     int32(cfg.BatchSize),
		wait:     cfg.Wait,
		logger:   cfg.Logger,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start launches the receive loop.
func (s *QueueSource) Start() {
	s.wg.Add(1)
	go s.run()
}

// Stop cancels the receive loop and waits for the in-flight batch.
func (s *QueueSource) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *QueueSource) run() {
	defer s.wg.Done()
	for {
		select {
		case <-s.ctx.Done():
			return
		default:
		}

		out, err := s.svc.ReceiveMessage(s.ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(s.queueURL),
			MaxNumberOfMessages: s.size,
			WaitTimeSeconds:     int32(s.wait / time.Second),
			MessageSystemAttributeNames: []sqstypes.MessageSystemAttributeName{
				sqstypes.MessageSystemAttributeNameApproximateReceiveCount,
			},
		})
		if err != nil {
			if s.ctx.Err() != nil {
				return
			}
			s.logger.Error(s.ctx, "receive failed",
				adapters.Field{Key: "queue", Value: s.name},
				adapters.Field{Key: "error", Value: err.Error()})
			time.Sleep(time.Second)
			continue
		}
		if len(out.Messages) == 0 {
			continue
		}

		s.process(out.Messages)
	}
}

func (s *QueueSource) process(received []sqstypes.Message) {
	batch := make([]broker.Message, len(received))
	for i, m := range received {
		count, _ := strconv.Atoi(m.Attributes[string(sqstypes.MessageSystemAttributeNameApproximateReceiveCount)])
		batch[i] = broker.Message{
			ID:           aws.ToString(m.MessageId),
			Receipt:      aws.ToString(m.ReceiptHandle),
			Body:         []byte(aws.ToString(m.Body)),
			ReceiveCount: count,
		}
	}

	ctx := context.WithoutCancel(s.ctx)

	start := time.Now()
	results := s.handler(ctx, batch)
	metrics.BatchDuration.Observe(time.Since(start).Seconds())

	for i, msg := range batch {
		var handlerErr error
		if i < len(results) {
			handlerErr = results[i]
		}
		if handlerErr != nil {
			// Leave the message; the visibility timeout re-presents it and
			// the redrive policy dead-letters it past the attempt budget.
			s.logger.Warn(ctx, "batch element failed",
				adapters.Field{Key: "queue", Value: s.name},
				adapters.Field{Key: "message_id", Value: msg.ID},
				adapters.Field{Key: "receive_count", Value: msg.ReceiveCount},
				adapters.Field{Key: "error", Value: handlerErr.Error()})
			continue
		}
		if _, err := s.svc.DeleteMessage(ctx, &sqs.DeleteMessageInput{
			QueueUrl:      aws.String(s.queueURL),
			ReceiptHandle: aws.String(msg.Receipt),
		}); err != nil {
			// The message will be redelivered; consumers are idempotent.
			s.logger.Warn(ctx, "ack failed",
				adapters.Field{Key: "queue", Value: s.name},
				adapters.Field{Key: "message_id", Value: msg.ID},
				adapters.Field{Key: "error", Value: err.Error()})
		}
	}
}
