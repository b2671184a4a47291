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

package consumer

import (
	"context"
	"fmt"

	"github.com/jeremyhahn/go-imagepipe/pkg/adapters"
	"github.com/jeremyhahn/go-imagepipe/pkg/common"
	"github.com/jeremyhahn/go-imagepipe/pkg/event"
	"github.com/jeremyhahn/go-imagepipe/pkg/metrics"
	"github.com/jeremyhahn/go-imagepipe/pkg/validate"
)

// Deletion reacts directly to removal events and deletes the corresponding
// record. Deleting a key that has no record is a no-op.
type Deletion struct {
	store  common.RecordStore
	logger adapters.Logger
}

// NewDeletion creates the deletion consumer.
func NewDeletion(store common.RecordStore, logger adapters.Logger) *Deletion {
	if logger == nil {
		logger = adapters.NewNoOpLogger()
	}
	return &Deletion{store: store, logger: logger}
}

// Handle processes a single delivered payload. Non-removal events are
// ignored; both the deletion and update consumers see every event on the
// removal/update topic and decide relevance themselves.
func (c *Deletion) Handle(ctx context.Context, body []byte) error {
	events, err := event.Decode(body)
	if err != nil {
		return err
	}

	for _, ev := range events {
		if ev.Kind != event.ObjectRemoved {
			continue
		}
		if err := c.delete(ctx, ev); err != nil {
			c.logger.Error(ctx, "deletion failed",
				adapters.Field{Key: "key", Value: ev.Key},
				adapters.Field{Key: "error", Value: err.Error()})
			metrics.EventsProcessed.WithLabelValues("deletion", metrics.StatusError).Inc()
			return err
		}
		metrics.EventsProcessed.WithLabelValues("deletion", metrics.StatusOK).Inc()
	}
	return nil
}

func (c *Deletion) delete(ctx context.Context, ev event.Event) error {
	key, err := event.NormalizeKey(ev.Key)
	if err != nil {
		return err
	}

	// Malformed keys are refused before touching the store, exactly as at
	// ingestion.
	if _, err := validate.Classify(key); err != nil {
		return fmt.Errorf("refusing to delete %q: %w", key, err)
	}

	ctx, cancel := context.WithTimeout(ctx, common.OpTimeout)
	defer cancel()

	if err := c.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("could not delete %q: %w", key, err)
	}

	c.logger.Info(ctx, "image deleted", adapters.Field{Key: "key", Value: key})
	return nil
}
