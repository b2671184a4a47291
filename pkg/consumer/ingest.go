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

// Package consumer implements the pipeline consumers: ingestion, deletion,
// update, acknowledgment mail, and rejection mail.
package consumer

import (
	"context"
	"fmt"

	"github.com/jeremyhahn/go-imagepipe/pkg/adapters"
	"github.com/jeremyhahn/go-imagepipe/pkg/broker"
	"github.com/jeremyhahn/go-imagepipe/pkg/common"
	"github.com/jeremyhahn/go-imagepipe/pkg/event"
	"github.com/jeremyhahn/go-imagepipe/pkg/metrics"
	"github.com/jeremyhahn/go-imagepipe/pkg/validate"
)

// Ingest drains the primary work queue: it validates each creation event,
// fetches the referenced object, and upserts the record store.
type Ingest struct {
	store   common.RecordStore
	fetcher common.ObjectFetcher
	logger  adapters.Logger
}

// NewIngest creates the ingestion consumer.
func NewIngest(store common.RecordStore, fetcher common.ObjectFetcher, logger adapters.Logger) *Ingest {
	if logger == nil {
		logger = adapters.NewNoOpLogger()
	}
	return &Ingest{store: store, fetcher: fetcher, logger: logger}
}

// HandleBatch processes a batch in delivery order, one result per message.
func (c *Ingest) HandleBatch(ctx context.Context, batch []broker.Message) []error {
	results := make([]error, len(batch))
	for i, msg := range batch {
		err := c.handle(ctx, msg.Body)
		if err != nil {
			c.logger.Error(ctx, "ingestion failed",
				adapters.Field{Key: "message_id", Value: msg.ID},
				adapters.Field{Key: "permanent", Value: common.IsPermanent(err)},
				adapters.Field{Key: "error", Value: err.Error()})
			metrics.EventsProcessed.WithLabelValues("ingest", metrics.StatusError).Inc()
		} else {
			metrics.EventsProcessed.WithLabelValues("ingest", metrics.StatusOK).Inc()
		}
		results[i] = err
	}
	return results
}

func (c *Ingest) handle(ctx context.Context, body []byte) error {
	events, err := event.Decode(body)
	if err != nil {
		return err
	}

	for _, ev := range events {
		if ev.Kind != event.ObjectCreated {
			c.logger.Debug(ctx, "ignoring non-creation event",
				adapters.Field{Key: "kind", Value: ev.Kind.String()})
			continue
		}

		key, err := event.NormalizeKey(ev.Key)
		if err != nil {
			return err
		}

		imageType, err := validate.Classify(key)
		if err != nil {
			metrics.EventsRejected.Inc()
			return fmt.Errorf("rejected %q: %w", key, err)
		}

		if err := c.fetchObject(ctx, ev.Bucket, key); err != nil {
			return err
		}

		if err := c.upsert(ctx, &common.Record{ID: key, SourceBucket: ev.Bucket}); err != nil {
			return err
		}

		c.logger.Info(ctx, "image ingested",
			adapters.Field{Key: "key", Value: key},
			adapters.Field{Key: "bucket", Value: ev.Bucket},
			adapters.Field{Key: "image_type", Value: imageType})
	}
	return nil
}

func (c *Ingest) fetchObject(ctx context.Context, bucket, key string) error {
	ctx, cancel := context.WithTimeout(ctx, common.OpTimeout)
	defer cancel()

	if _, err := c.fetcher.Fetch(ctx, bucket, key); err != nil {
		return fmt.Errorf("fetch %s/%s: %w", bucket, key, err)
	}
	return nil
}

func (c *Ingest) upsert(ctx context.Context, record *common.Record) error {
	ctx, cancel := context.WithTimeout(ctx, common.OpTimeout)
	defer cancel()

	if err := c.store.Put(ctx, record); err != nil {
		return fmt.Errorf("persist %q: %w", record.ID, err)
	}
	return nil
}
