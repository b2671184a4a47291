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
	"errors"
	"fmt"

	"github.com/jeremyhahn/go-imagepipe/pkg/adapters"
	"github.com/jeremyhahn/go-imagepipe/pkg/common"
	"github.com/jeremyhahn/go-imagepipe/pkg/event"
	"github.com/jeremyhahn/go-imagepipe/pkg/metrics"
)

// Update reacts to caption events and patches the description of an
// existing record. Events without the caption comment type are ignored, and
// a caption for a record that does not exist is a permanent error, not an
// upsert.
type Update struct {
	store  common.RecordStore
	logger adapters.Logger
}

// NewUpdate creates the update consumer.
func NewUpdate(store common.RecordStore, logger adapters.Logger) *Update {
	if logger == nil {
		logger = adapters.NewNoOpLogger()
	}
	return &Update{store: store, logger: logger}
}

// Handle processes a single delivered payload.
func (c *Update) Handle(ctx context.Context, body []byte) error {
	events, err := event.Decode(body)
	if err != nil {
		return err
	}

	for _, ev := range events {
		if ev.Kind != event.AttributeChanged {
			continue
		}
		if ev.Attributes[event.AttrCommentType] != event.CaptionComment {
			c.logger.Debug(ctx, "ignoring non-caption attribute change",
				adapters.Field{Key: "key", Value: ev.Key},
				adapters.Field{Key: "comment_type", Value: ev.Attributes[event.AttrCommentType]})
			continue
		}
		if err := c.applyCaption(ctx, ev); err != nil {
			c.logger.Error(ctx, "caption update failed",
				adapters.Field{Key: "key", Value: ev.Key},
				adapters.Field{Key: "error", Value: err.Error()})
			metrics.EventsProcessed.WithLabelValues("update", metrics.StatusError).Inc()
			return err
		}
		metrics.EventsProcessed.WithLabelValues("update", metrics.StatusOK).Inc()
	}
	return nil
}

func (c *Update) applyCaption(ctx context.Context, ev event.Event) error {
	key, err := event.NormalizeKey(ev.Key)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, common.OpTimeout)
	defer cancel()

	// Lookup first: a missing record and a failed write on an existing
	// record are distinct failures and must surface as such.
	if _, err := c.store.Get(ctx, key); err != nil {
		if errors.Is(err, common.ErrRecordNotFound) {
			return fmt.Errorf("%w: %s", common.ErrRecordNotFound, key)
		}
		return err
	}

	if err := c.store.Update(ctx, key, &common.RecordPatch{Description: ev.Description}); err != nil {
		if errors.Is(err, common.ErrRecordNotFound) {
			// Raced with a deletion between lookup and write.
			return fmt.Errorf("%w: %s", common.ErrRecordNotFound, key)
		}
		if errors.Is(err, common.ErrStorageWrite) || common.IsTransient(err) {
			return err
		}
		return fmt.Errorf("%w: %s: %v", common.ErrStorageWrite, key, err)
	}

	c.logger.Info(ctx, "caption applied",
		adapters.Field{Key: "key", Value: key},
		adapters.Field{Key: "description", Value: ev.Description})
	return nil
}
